package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

func TestLoadBoostConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadBoostConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultBoostConfig(), cfg)
}

func TestLoadBoostConfig_RepositoryFile(t *testing.T) {
	cfg, err := LoadBoostConfig(filepath.Join(testConfigDir(), "search.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3.0, cfg.FieldBoost(entities.FieldTitle))
	assert.Equal(t, 0.5, cfg.ExpansionBoost)
	assert.Equal(t, 0.9, cfg.Difficulty["hard"])
	assert.Len(t, cfg.Facets, 4, "facets not in the file keep their defaults")
}

func TestLoadBoostConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fields:
  - field: title
    boost: 4
  - field: content
    boost: 1
expansion_boost: 0.3
`), 0o600))

	cfg, err := LoadBoostConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Fields, 2)
	assert.Equal(t, 4.0, cfg.FieldBoost(entities.FieldTitle))
	assert.Equal(t, 0.3, cfg.ExpansionBoost)
	assert.Equal(t, 0.1, cfg.ViewCountFactor)
}

func TestLoadBoostConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"syntax":         "fields: [",
		"negative boost": "fields:\n  - field: title\n    boost: -1\n",
		"bad fuzziness":  "fields:\n  - field: title\n    boost: 1\n    fuzziness: lots\n",
		"zero floor":     "success_rate:\n  floor: 0\n  factor: 1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "search.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := LoadBoostConfig(path)
			assert.Error(t, err)
		})
	}
}
