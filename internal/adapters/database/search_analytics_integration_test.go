//go:build integration

package database

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/repositories"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/helpdesk-search/pkg/config"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}
	port, err := strconv.Atoi(getEnv("TEST_DB_PORT", "5432"))
	require.NoError(t, err)

	client, err := postgres.NewClient(&config.DatabaseConfig{
		Host:     os.Getenv("TEST_DB_HOST"),
		Port:     port,
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "helpdesk_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	})
	require.NoError(t, err, "Failed to create postgres client")
	t.Cleanup(func() { _ = client.Close() })

	_, file, _, _ := runtime.Caller(0)
	migration, err := os.ReadFile(filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations", "001_helpdesk_search.sql"))
	require.NoError(t, err)
	_, err = client.DB().Exec(string(migration))
	require.NoError(t, err, "Failed to run migrations")
	_, err = client.DB().Exec(`TRUNCATE search_analytics, kb_articles`)
	require.NoError(t, err)
	return client
}

func TestSearchAnalyticsAdapterIntegration(t *testing.T) {
	client := newTestPostgresClient(t)
	adapter := NewSearchAnalyticsAdapter(client)
	ctx := context.Background()

	hit := &entities.SearchEvent{Query: "VPN drops", NormalizedQuery: "vpn drops", DetectedIntent: entities.IntentProblem, ResultCount: 4}
	require.NoError(t, adapter.LogEvent(ctx, hit))
	require.NotEmpty(t, hit.ID)

	for i := 0; i < 2; i++ {
		require.NoError(t, adapter.LogEvent(ctx, &entities.SearchEvent{
			Query: "zzqx", NormalizedQuery: "zzqx", DetectedIntent: entities.IntentGeneral, ZeroResult: true,
			FiltersUsed: []string{"category"},
		}))
	}

	require.NoError(t, adapter.RecordClick(ctx, hit.ID, &entities.ClickEvent{
		ArticleID: "kb-008", TimeSpentSeconds: 30, ClickedAt: time.Now().UTC(), Clicks: 1,
	}))

	queries, err := adapter.GetZeroResultQueries(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "zzqx", queries[0].Query)
	assert.Equal(t, 2, queries[0].Count)
}

func TestArticleAdapterIntegration(t *testing.T) {
	client := newTestPostgresClient(t)
	adapter := NewArticleAdapter(client)
	ctx := context.Background()

	minutes := 10
	article := &entities.Article{
		ID: "kb-100", Title: "Connect to the VPN", Content: "Open the client and sign in.",
		Category: "Network", Keywords: []string{"vpn"}, EstimatedTimeMinutes: &minutes, IsActive: true,
	}
	require.NoError(t, adapter.Upsert(ctx, article))

	article.Title = "Connect to the VPN from home"
	require.NoError(t, adapter.Upsert(ctx, article))

	got, err := adapter.GetByID(ctx, "kb-100")
	require.NoError(t, err)
	assert.Equal(t, "Connect to the VPN from home", got.Title)
	assert.Equal(t, []string{"vpn"}, got.Keywords)

	list, err := adapter.List(ctx, repositories.ArticleFilter{ActiveOnly: true, Category: "Network"})
	require.NoError(t, err)
	require.Len(t, list, 1)
}
