package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
)

func TestLoadGoldenQueries_ValidFile(t *testing.T) {
	content := `[
		{"id": "q1", "query": "printer not working", "intent": "problem", "expected_article_ids": ["kb-001", "kb-002"], "difficulty": "easy"},
		{"id": "q2", "query": "how to map a network drive", "intent": "question", "expected_article_ids": ["kb-014"], "filters": {"category": "Network"}, "difficulty": "easy"}
	]`
	path := writeTempFile(t, content)

	queries, err := LoadGoldenQueries(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(queries))
	}
	if queries[0].ID != "q1" {
		t.Errorf("expected id q1, got %s", queries[0].ID)
	}
	if queries[0].Intent != entities.IntentProblem {
		t.Errorf("expected intent problem, got %s", queries[0].Intent)
	}
	if len(queries[0].ExpectedArticleIDs) != 2 {
		t.Errorf("expected 2 article ids, got %d", len(queries[0].ExpectedArticleIDs))
	}
	if queries[1].Filters["category"] != "Network" {
		t.Errorf("expected category filter Network, got %v", queries[1].Filters["category"])
	}
}

func TestLoadGoldenQueries_InvalidFile(t *testing.T) {
	_, err := LoadGoldenQueries("/nonexistent/path.json")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadGoldenQueries_InvalidJSON(t *testing.T) {
	path := writeTempFile(t, `not valid json`)
	_, err := LoadGoldenQueries(path)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadGoldenQueries_EmptyArray(t *testing.T) {
	path := writeTempFile(t, `[]`)
	queries, err := LoadGoldenQueries(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queries) != 0 {
		t.Errorf("expected 0 queries, got %d", len(queries))
	}
}

func TestValidateGoldenQueries_MissingID(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "", Query: "test", Intent: entities.IntentProblem, ExpectedArticleIDs: []string{"kb-001"}, Difficulty: "easy"},
	}
	err := ValidateGoldenQueries(queries)
	if err == nil {
		t.Error("expected validation error for missing ID")
	}
}

func TestValidateGoldenQueries_MissingQuery(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "q1", Query: "", Intent: entities.IntentProblem, ExpectedArticleIDs: []string{"kb-001"}, Difficulty: "easy"},
	}
	err := ValidateGoldenQueries(queries)
	if err == nil {
		t.Error("expected validation error for missing query")
	}
}

func TestValidateGoldenQueries_InvalidIntent(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "q1", Query: "test", Intent: entities.Intent("bad"), ExpectedArticleIDs: []string{"kb-001"}, Difficulty: "easy"},
	}
	err := ValidateGoldenQueries(queries)
	if err == nil {
		t.Error("expected validation error for invalid intent")
	}
}

func TestValidateGoldenQueries_InvalidDifficulty(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "q1", Query: "test", Intent: entities.IntentProblem, ExpectedArticleIDs: []string{"kb-001"}, Difficulty: "impossible"},
	}
	err := ValidateGoldenQueries(queries)
	if err == nil {
		t.Error("expected validation error for invalid difficulty")
	}
}

func TestValidateGoldenQueries_DuplicateIDs(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "q1", Query: "printer jam", Intent: entities.IntentProblem, ExpectedArticleIDs: []string{"kb-001"}, Difficulty: "easy"},
		{ID: "q1", Query: "paper jam", Intent: entities.IntentProblem, ExpectedArticleIDs: []string{"kb-001"}, Difficulty: "easy"},
	}
	err := ValidateGoldenQueries(queries)
	if err == nil {
		t.Error("expected validation error for duplicate IDs")
	}
}

func TestValidateGoldenQueries_Valid(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "q1", Query: "printer offline", Intent: entities.IntentProblem, ExpectedArticleIDs: []string{"kb-001"}, Difficulty: "easy"},
		{ID: "q2", Query: "install software", Intent: entities.IntentRequest, ExpectedArticleIDs: []string{"kb-011"}, Difficulty: "medium"},
	}
	err := ValidateGoldenQueries(queries)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateGoldenQueries_MissingExpectedIDs(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "q1", Query: "vpn", Intent: entities.IntentGeneral, Difficulty: "easy"},
	}
	err := ValidateGoldenQueries(queries)
	if err == nil {
		t.Error("expected validation error for missing expected article ids")
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
