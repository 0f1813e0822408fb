package wire

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/helpdesk-search/internal/adapters/cache"
	"github.com/zatekoja/helpdesk-search/internal/application/services"
	"github.com/zatekoja/helpdesk-search/pkg/config"
)

func configPath(name string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "config", name)
}

func testConfig() *config.Config {
	return &config.Config{
		Search: config.SearchConfig{
			Engine:                    "memory",
			SynonymsPath:              configPath("synonyms.json"),
			TuningPath:                configPath("search.yaml"),
			ArticlesPath:              configPath("articles.sample.json"),
			DefaultPageSize:           20,
			MaxPageSize:               50,
			RelatedLimit:              2,
			ClickLookbackMinutes:      30,
			SuggestionLimit:           5,
			SuggestionCacheTTLSeconds: 60,
		},
	}
}

func TestProvidePipeline_MemoryEngine(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	expander, err := ProvideExpander(&cfg.Search)
	require.NoError(t, err)
	engine, err := ProvideEngine(ctx, cfg, expander, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	p, err := ProvidePipeline(&cfg.Search, expander, engine, PipelineDeps{
		Cache: cache.NewMemoryAdapter(64, 0),
	})
	require.NoError(t, err)

	resp, err := p.Service.Search(ctx, services.SearchRequest{Text: "Printer not working"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "kb-001", resp.Results[0].ArticleID)
	assert.LessOrEqual(t, len(resp.Results), 20)
	for _, r := range resp.Results {
		assert.LessOrEqual(t, len(r.RelatedArticleIDs), 2)
	}

	report := p.Ledger.Report(p.Ledger.LastDays(1), 5)
	assert.Equal(t, 1, report.TotalSearches)
}

func TestProvideArticleRepository_MissingFile(t *testing.T) {
	cfg := testConfig()
	cfg.Search.ArticlesPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := ProvideArticleRepository(&cfg.Search, nil)
	assert.Error(t, err)
}

func TestProvideExpander_MissingFile(t *testing.T) {
	cfg := testConfig()
	cfg.Search.SynonymsPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := ProvideExpander(&cfg.Search)
	assert.Error(t, err)
}
