package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/helpdesk-search/internal/api/handlers"
	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/providers"
)

// MockEventBus for testing
type MockEventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan *entities.SearchEvent
	failWith    error
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{subscribers: make(map[string][]chan *entities.SearchEvent)}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.SearchEvent) error {
	m.mu.RLock()
	channels := append([]chan *entities.SearchEvent(nil), m.subscribers[channel]...)
	m.mu.RUnlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SearchEvent, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.SearchEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	return nil
}

func (m *MockEventBus) subscriberCount(channel string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers[channel])
}

// stream runs the handler until publish has run and the request is cancelled.
func stream(t *testing.T, handler *handlers.SSEHandler, bus *MockEventBus, url, channel string, publish func()) *httptest.ResponseRecorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, url, nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.StreamSearchEvents(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return bus.subscriberCount(channel) > 0 }, time.Second, 10*time.Millisecond)
	publish()
	time.Sleep(100 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit after cancel")
	}
	return w
}

func TestSSEHandler_StreamsSearchEvents(t *testing.T) {
	bus := NewMockEventBus()
	handler := handlers.NewSSEHandler(bus)

	w := stream(t, handler, bus, "/api/analytics/stream", providers.EventChannelSearches, func() {
		_ = bus.Publish(context.Background(), providers.EventChannelSearches, &entities.SearchEvent{ID: "evt-1", Query: "vpn", ResultCount: 2})
	})

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	body := w.Body.String()
	assert.Contains(t, body, "event: connected\n")
	assert.Contains(t, body, "event: search\n")
	assert.Contains(t, body, `"id":"evt-1"`)
	assert.Zero(t, handler.ClientCount())
}

func TestSSEHandler_ZeroOnlyAndClicks(t *testing.T) {
	bus := NewMockEventBus()
	handler := handlers.NewSSEHandler(bus)

	w := stream(t, handler, bus, "/api/analytics/stream?zero_only=true", providers.EventChannelSearches, func() {
		_ = bus.Publish(context.Background(), providers.EventChannelSearches, &entities.SearchEvent{ID: "evt-hit", ResultCount: 3})
		_ = bus.Publish(context.Background(), providers.EventChannelSearches, &entities.SearchEvent{ID: "evt-zero", ZeroResult: true})
	})
	assert.NotContains(t, w.Body.String(), "evt-hit")
	assert.Contains(t, w.Body.String(), "evt-zero")

	w = stream(t, handler, bus, "/api/analytics/stream?type=clicks", providers.EventChannelClicks, func() {
		_ = bus.Publish(context.Background(), providers.EventChannelClicks, &entities.SearchEvent{
			ID: "evt-click", Click: &entities.ClickEvent{ArticleID: "kb-003", Clicks: 1},
		})
	})
	assert.Contains(t, w.Body.String(), "event: click\n")
	assert.Contains(t, w.Body.String(), `"article_id":"kb-003"`)
}

func TestSSEHandler_Errors(t *testing.T) {
	bus := NewMockEventBus()
	handler := handlers.NewSSEHandler(bus)

	w := httptest.NewRecorder()
	handler.StreamSearchEvents(w, httptest.NewRequest(http.MethodGet, "/api/analytics/stream?type=views", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bus.failWith = errors.New("redis down")
	w = httptest.NewRecorder()
	handler.StreamSearchEvents(w, httptest.NewRequest(http.MethodGet, "/api/analytics/stream", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, strings.Contains(w.Body.String(), "event:"))
}
