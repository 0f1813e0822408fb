package services

import (
	"context"
	"errors"
	"testing"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	apperrors "github.com/zatekoja/helpdesk-search/pkg/errors"
)

func TestPreprocess_EmptyQuery(t *testing.T) {
	p := newTestPreprocessor(t)

	for _, raw := range []string{"", "   ", "?!...", "\t\n"} {
		q, err := p.Preprocess(context.Background(), raw, nil)
		if !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Preprocess(%q): expected ErrEmptyQuery, got %v", raw, err)
		}
		if q != nil {
			t.Errorf("Preprocess(%q): expected nil query", raw)
		}
	}

	var appErr *apperrors.AppError
	_, err := p.Preprocess(context.Background(), " ", nil)
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrorTypeValidation {
		t.Errorf("expected validation AppError, got %v", err)
	}
}

func TestPreprocess_PrinterNotWorking(t *testing.T) {
	p := newTestPreprocessor(t)

	q, err := p.Preprocess(context.Background(), "Printer NOT working!!", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Normalized != "printer not working" {
		t.Errorf("expected normalized 'printer not working', got %q", q.Normalized)
	}
	if q.Raw != "Printer NOT working!!" {
		t.Errorf("raw text not preserved: %q", q.Raw)
	}
	if q.Intent != entities.IntentProblem {
		t.Errorf("expected problem intent, got %s", q.Intent)
	}
	if q.Confidence <= 0 || q.Confidence > 1 {
		t.Errorf("confidence out of range: %f", q.Confidence)
	}
	if len(q.Entities) != 1 || q.Entities[0].Type != entities.EntityHardware || q.Entities[0].Text != "printer" {
		t.Errorf("expected one hardware entity 'printer', got %+v", q.Entities)
	}
	if !containsTerm(q.ExpandedTerms, "print") {
		t.Errorf("expected 'print' in expanded terms, got %v", q.ExpandedTerms)
	}
	if containsTerm(q.ExpandedTerms, "printer") {
		t.Errorf("expanded terms must not repeat query terms: %v", q.ExpandedTerms)
	}
}

func TestPreprocess_Misspelling(t *testing.T) {
	p := newTestPreprocessor(t)

	q, err := p.Preprocess(context.Background(), "passwrd reset", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Intent != entities.IntentGeneral || q.Confidence != 0 {
		t.Errorf("expected general intent with zero confidence, got %s %f", q.Intent, q.Confidence)
	}
	if !containsTerm(q.ExpandedTerms, "restart") {
		t.Errorf("expected 'restart' from 'reset', got %v", q.ExpandedTerms)
	}
}

func TestPreprocess_InvalidFilterIsWarning(t *testing.T) {
	p := newTestPreprocessor(t)

	q, err := p.Preprocess(context.Background(), "vpn", map[string]interface{}{"max_time_minutes": -5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Filters.MaxTimeMinutes != nil {
		t.Errorf("invalid time filter must be dropped")
	}
	if len(q.Warnings) != 1 || q.Warnings[0].Key != "max_time_minutes" {
		t.Errorf("expected one max_time_minutes warning, got %+v", q.Warnings)
	}
}

func TestPreprocess_UsesCache(t *testing.T) {
	p := newTestPreprocessor(t)
	cache := newMemoryCache()
	p.SetCache(cache)

	first, err := p.Preprocess(context.Background(), "Outlook error 0x80070005", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Preprocess(context.Background(), "outlook   ERROR 0x80070005", map[string]interface{}{"category": "Software"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cache.sets != 1 {
		t.Errorf("expected one cache write, got %d", cache.sets)
	}
	if first.Intent != second.Intent || len(first.Entities) != len(second.Entities) {
		t.Errorf("cached interpretation differs: %+v vs %+v", first, second)
	}
	if second.Filters.Category != "Software" {
		t.Errorf("filters must not come from the cache")
	}
}

func containsTerm(terms []string, term string) bool {
	for _, t := range terms {
		if t == term {
			return true
		}
	}
	return false
}
