package main

import (
	"bytes"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configPath(name string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "config", name)
}

func TestToFilters(t *testing.T) {
	assert.Nil(t, toFilters(nil))
	assert.Equal(t, map[string]interface{}{"category": "Network"}, toFilters(map[string]string{"category": "Network"}))
}

func TestAnalyzeCmd_JSON(t *testing.T) {
	t.Setenv("SEARCH_SYNONYMS_PATH", configPath("synonyms.json"))

	cmd := analyzeCmd()
	cmd.PersistentFlags().String("format", "json", "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"printer", "not", "working", "--filter", "color=red"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"intent": "problem"`)
	assert.Contains(t, out.String(), `"normalized": "printer not working"`)
	assert.Contains(t, out.String(), `"key": "color"`)
}

func TestSearchCmd_Text(t *testing.T) {
	t.Setenv("SEARCH_SYNONYMS_PATH", configPath("synonyms.json"))
	t.Setenv("SEARCH_TUNING_PATH", configPath("search.yaml"))
	t.Setenv("SEARCH_ARTICLES_PATH", configPath("articles.sample.json"))

	cmd := searchCmd()
	cmd.PersistentFlags().String("format", "text", "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"Printer", "not", "working", "--size", "20"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "(intent problem,")
	assert.Contains(t, out.String(), " 1. [kb-001]")
	assert.Contains(t, out.String(), "facet categories: Hardware")
}
