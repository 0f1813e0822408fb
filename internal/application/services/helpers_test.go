package services

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

func testConfigDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "config")
}

func newTestExpander(t *testing.T) *TermExpansionService {
	t.Helper()
	svc, err := NewTermExpansionService(filepath.Join(testConfigDir(), "synonyms.json"))
	if err != nil {
		t.Fatalf("failed to load synonyms: %v", err)
	}
	return svc
}

func newTestPreprocessor(t *testing.T) *QueryPreprocessor {
	t.Helper()
	return NewDefaultQueryPreprocessor(newTestExpander(t))
}

// MockSearchEngine is a mock of providers.SearchEngine
type MockSearchEngine struct {
	mock.Mock
}

func (m *MockSearchEngine) Search(ctx context.Context, query *entities.EngineQuery) (*entities.EngineResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EngineResponse), args.Error(1)
}

// MockSimilarityLookup is a mock of providers.SimilarityLookup
type MockSimilarityLookup struct {
	mock.Mock
}

func (m *MockSimilarityLookup) FindSimilar(ctx context.Context, req entities.SimilarityRequest) ([]string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockSuggestionProvider is a mock of providers.SuggestionProvider
type MockSuggestionProvider struct {
	mock.Mock
}

func (m *MockSuggestionProvider) SuggestTitles(ctx context.Context, prefix string, limit int) ([]string, error) {
	args := m.Called(ctx, prefix, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockAnalyticsRepository is a mock of repositories.SearchAnalyticsRepository
type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAnalyticsRepository) RecordClick(ctx context.Context, eventID string, click *entities.ClickEvent) error {
	args := m.Called(ctx, eventID, click)
	return args.Error(0)
}

func (m *MockAnalyticsRepository) GetZeroResultQueries(ctx context.Context, since time.Time, limit int) ([]entities.QueryCount, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.QueryCount), args.Error(1)
}

// memoryCache is an in-process providers.CacheProvider that counts calls.
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
}

var errCacheMiss = errors.New("cache miss")

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func hit(id string, score float64, src map[string]interface{}) entities.EngineHit {
	if src == nil {
		src = map[string]interface{}{}
	}
	return entities.EngineHit{ID: id, Score: score, Source: src}
}
