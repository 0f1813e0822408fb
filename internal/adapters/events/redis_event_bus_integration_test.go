//go:build integration

package events

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/helpdesk-search/internal/application/services"
	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/providers"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/clients/redis"
	"github.com/zatekoja/helpdesk-search/pkg/config"
)

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}
	port, err := strconv.Atoi(os.Getenv("TEST_REDIS_PORT"))
	if err != nil {
		port = 6379
	}
	client, err := redis.NewClient(&config.RedisConfig{
		Host:     os.Getenv("TEST_REDIS_HOST"),
		Port:     port,
		Password: os.Getenv("TEST_REDIS_PASSWORD"),
	})
	require.NoError(t, err, "Failed to create redis client")
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func waitForEvent(t *testing.T, ch <-chan *entities.SearchEvent) *entities.SearchEvent {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for search event")
		return nil
	}
}

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	bus := NewRedisEventBus(newTestRedisClient(t))
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub1, err := bus.Subscribe(ctx, providers.EventChannelSearches)
	require.NoError(t, err)
	sub2, err := bus.Subscribe(ctx, providers.EventChannelSearches)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := &entities.SearchEvent{ID: "evt-fanout-1", Seq: 7, Query: "vpn", NormalizedQuery: "vpn", ResultCount: 2}
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelSearches, event))

	assert.Equal(t, "evt-fanout-1", waitForEvent(t, sub1).ID)
	assert.Equal(t, entities.EventID(7), waitForEvent(t, sub2).Seq)
}

func TestAnalyticsLedgerPublishesClicksIntegration(t *testing.T) {
	bus := NewRedisEventBus(newTestRedisClient(t))
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clicks, err := bus.Subscribe(ctx, providers.EventChannelClicks)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	ledger := services.NewAnalyticsLedger(services.WithEventBus(bus))
	ledger.RecordQuery(ctx, entities.SearchEvent{Query: "Reset Password", NormalizedQuery: "reset password", ResultCount: 3})
	attached := ledger.AttachClick(ctx, services.ClickRequest{Query: "reset password", ArticleID: "kb-003", TimeSpentSeconds: 12})
	require.True(t, attached)
	ledger.Wait()

	got := waitForEvent(t, clicks)
	require.NotNil(t, got.Click)
	assert.Equal(t, "kb-003", got.Click.ArticleID)
	assert.Equal(t, "reset password", got.NormalizedQuery)
}
