package entities

import (
	"time"
)

// EventID is the ledger sequence number of a search event. IDs increase
// strictly in append order.
type EventID uint64

// ClickEvent is the click attached to a search event.
type ClickEvent struct {
	ArticleID        string    `json:"article_id" db:"clicked_article_id"`
	TimeSpentSeconds float64   `json:"time_spent_seconds" db:"time_spent_seconds"`
	ClickedAt        time.Time `json:"clicked_at" db:"clicked_at"`
	// Clicks counts repeated clicks folded into this one.
	Clicks int `json:"clicks" db:"click_count"`
}

// SearchEvent represents a single search interaction for analytics.
type SearchEvent struct {
	Seq              EventID      `json:"seq" db:"-"`
	ID               string       `json:"id" db:"id"`
	Query            string       `json:"query" db:"query"`
	NormalizedQuery  string       `json:"normalized_query" db:"normalized_query"`
	DetectedIntent   Intent       `json:"detected_intent" db:"detected_intent"`
	IntentConfidence float64      `json:"intent_confidence" db:"intent_confidence"`
	EntityTypes      []EntityType `json:"entity_types" db:"-"`
	FiltersUsed      []string     `json:"filters_used" db:"-"`
	ResultCount      int          `json:"result_count" db:"result_count"`
	ZeroResult       bool         `json:"zero_result" db:"zero_result"`
	LatencyMs        int          `json:"latency_ms" db:"latency_ms"`
	SessionID        string       `json:"session_id,omitempty" db:"session_id"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	Click            *ClickEvent  `json:"click,omitempty" db:"-"`
}

// Clone returns a deep copy, so snapshots handed out never alias ledger state.
func (e *SearchEvent) Clone() *SearchEvent {
	c := *e
	c.EntityTypes = append([]EntityType(nil), e.EntityTypes...)
	c.FiltersUsed = append([]string(nil), e.FiltersUsed...)
	if e.Click != nil {
		click := *e.Click
		c.Click = &click
	}
	return &c
}

// ReportPeriod is the half open interval [From, To) a report covers.
type ReportPeriod struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the period.
func (p ReportPeriod) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}

// QueryCount is a normalized query and how often it was searched.
type QueryCount struct {
	Query    string    `json:"query"`
	Count    int       `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// DailyCount aggregates one UTC calendar day.
type DailyCount struct {
	Date        string `json:"date"`
	Searches    int    `json:"searches"`
	ZeroResults int    `json:"zero_results"`
	Clicks      int    `json:"clicks"`
}

// AggregateReport summarizes search activity over a period.
type AggregateReport struct {
	Period               ReportPeriod       `json:"period"`
	TotalSearches        int                `json:"total_searches"`
	UniqueQueries        int                `json:"unique_queries"`
	ZeroResultSearches   int                `json:"zero_result_searches"`
	ZeroResultRate       float64            `json:"zero_result_rate"`
	ClickedSearches      int                `json:"clicked_searches"`
	ClickThroughRate     float64            `json:"click_through_rate"`
	TopQueries           []QueryCount       `json:"top_queries"`
	TopZeroResultQueries []QueryCount       `json:"top_zero_result_queries"`
	IntentDistribution   map[Intent]int     `json:"intent_distribution"`
	EntityTypeUsage      map[EntityType]int `json:"entity_type_usage"`
	FilterUsage          map[string]int     `json:"filter_usage"`
	Daily                []DailyCount       `json:"daily"`
}
