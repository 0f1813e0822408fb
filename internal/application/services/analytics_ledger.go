package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/providers"
	"github.com/zatekoja/helpdesk-search/internal/domain/repositories"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/observability"
	"github.com/zatekoja/helpdesk-search/pkg/utils"
)

const (
	defaultClickLookback = 30 * time.Minute
	defaultTopQueries    = 20
	sinkTimeout          = 5 * time.Second
	dispatchQueueSize    = 1024
)

// ClickRequest identifies the search a click belongs to.
type ClickRequest struct {
	Query            string
	ArticleID        string
	TimeSpentSeconds float64
	SessionID        string
}

// AnalyticsLedger is the append-only record of search events. It is the only
// shared mutable state of the search pipeline and is safe for concurrent use.
type AnalyticsLedger struct {
	mu       sync.RWMutex
	events   []*entities.SearchEvent
	nextSeq  entities.EventID
	lookback time.Duration
	now      func() time.Time

	sink repositories.SearchAnalyticsRepository
	bus  providers.EventBus

	// queue feeds the single dispatch worker. Sends happen under mu so the
	// sink sees writes in ledger order. closed is guarded by mu.
	queue   chan dispatchJob
	closed  bool
	stopped chan struct{}
}

// dispatchJob is one sink and bus write, or a flush marker when done is set.
type dispatchJob struct {
	event  *entities.SearchEvent
	click  bool
	logger *zerolog.Logger
	done   chan struct{}
}

// LedgerOption configures an AnalyticsLedger.
type LedgerOption func(*AnalyticsLedger)

// WithClickLookback bounds how old a search may be to receive a click.
func WithClickLookback(d time.Duration) LedgerOption {
	return func(l *AnalyticsLedger) {
		if d > 0 {
			l.lookback = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *AnalyticsLedger) { l.now = now }
}

// WithSink persists every event and click to a durable repository in the background.
func WithSink(repo repositories.SearchAnalyticsRepository) LedgerOption {
	return func(l *AnalyticsLedger) { l.sink = repo }
}

// WithEventBus publishes every event and click in the background.
func WithEventBus(bus providers.EventBus) LedgerOption {
	return func(l *AnalyticsLedger) { l.bus = bus }
}

// NewAnalyticsLedger creates an empty ledger.
func NewAnalyticsLedger(opts ...LedgerOption) *AnalyticsLedger {
	l := &AnalyticsLedger{
		lookback: defaultClickLookback,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sink != nil || l.bus != nil {
		l.queue = make(chan dispatchJob, dispatchQueueSize)
		l.stopped = make(chan struct{})
		go l.drain()
	}
	return l
}

// RecordQuery appends an event and returns its sequence id. The ledger
// assigns Seq, fills ID and CreatedAt when missing and derives ZeroResult.
func (l *AnalyticsLedger) RecordQuery(ctx context.Context, event entities.SearchEvent) entities.EventID {
	e := event.Clone()
	e.NormalizedQuery = utils.NormalizeText(e.NormalizedQuery)
	e.ZeroResult = e.ResultCount == 0
	e.Click = nil
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	l.mu.Lock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now().UTC()
	}
	l.nextSeq++
	e.Seq = l.nextSeq
	l.events = append(l.events, e)
	snapshot := e.Clone()
	l.enqueue(ctx, snapshot, false)
	l.mu.Unlock()

	return snapshot.Seq
}

// AttachClick attaches a click to the most recent matching search within the
// lookback window, scoped to the session when one is given. It returns true
// when a new click was attached. A repeated click on the same article of an
// already clicked search adds its time spent and returns false. No match
// also returns false.
func (l *AnalyticsLedger) AttachClick(ctx context.Context, req ClickRequest) bool {
	query := utils.NormalizeText(req.Query)
	if query == "" || req.ArticleID == "" {
		return false
	}
	timeSpent := req.TimeSpentSeconds
	if timeSpent < 0 {
		timeSpent = 0
	}

	l.mu.Lock()
	now := l.now().UTC()
	cutoff := now.Add(-l.lookback)

	var target *entities.SearchEvent
	attached := false
	for i := len(l.events) - 1; i >= 0; i-- {
		e := l.events[i]
		if e.CreatedAt.Before(cutoff) {
			continue
		}
		if e.NormalizedQuery != query {
			continue
		}
		if req.SessionID != "" && e.SessionID != req.SessionID {
			continue
		}
		if e.Click == nil {
			e.Click = &entities.ClickEvent{
				ArticleID:        req.ArticleID,
				TimeSpentSeconds: timeSpent,
				ClickedAt:        now,
				Clicks:           1,
			}
			target, attached = e, true
			break
		}
		if e.Click.ArticleID == req.ArticleID {
			e.Click.TimeSpentSeconds += timeSpent
			e.Click.Clicks++
			target = e
			break
		}
	}

	if target != nil {
		l.enqueue(ctx, target.Clone(), true)
	}
	l.mu.Unlock()

	return attached
}

// Events returns copies of the events created within period, oldest first.
func (l *AnalyticsLedger) Events(period entities.ReportPeriod) []*entities.SearchEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*entities.SearchEvent
	for _, e := range l.events {
		if period.Contains(e.CreatedAt) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Report computes aggregate metrics over the events in period. It sees every
// event appended before the call and never modifies them.
func (l *AnalyticsLedger) Report(period entities.ReportPeriod, topN int) *entities.AggregateReport {
	if topN <= 0 {
		topN = defaultTopQueries
	}

	report := &entities.AggregateReport{
		Period:             period,
		TopQueries:         []entities.QueryCount{},
		IntentDistribution: make(map[entities.Intent]int),
		EntityTypeUsage:    make(map[entities.EntityType]int),
		FilterUsage:        make(map[string]int),
		Daily:              []entities.DailyCount{},
	}

	queries := make(map[string]*queryTally)
	zeroQueries := make(map[string]*queryTally)
	daily := make(map[string]*entities.DailyCount)

	l.mu.RLock()
	for _, e := range l.events {
		if !period.Contains(e.CreatedAt) {
			continue
		}
		report.TotalSearches++
		countQuery(queries, e)
		if e.ZeroResult {
			report.ZeroResultSearches++
			countQuery(zeroQueries, e)
		}
		if e.Click != nil {
			report.ClickedSearches++
		}
		report.IntentDistribution[e.DetectedIntent]++
		for _, t := range e.EntityTypes {
			report.EntityTypeUsage[t]++
		}
		for _, k := range e.FiltersUsed {
			report.FilterUsage[k]++
		}

		day := e.CreatedAt.UTC().Format("2006-01-02")
		d, ok := daily[day]
		if !ok {
			d = &entities.DailyCount{Date: day}
			daily[day] = d
		}
		d.Searches++
		if e.ZeroResult {
			d.ZeroResults++
		}
		if e.Click != nil {
			d.Clicks++
		}
	}
	l.mu.RUnlock()

	report.UniqueQueries = len(queries)
	if report.TotalSearches > 0 {
		report.ZeroResultRate = float64(report.ZeroResultSearches) / float64(report.TotalSearches)
		report.ClickThroughRate = float64(report.ClickedSearches) / float64(report.TotalSearches)
	}
	report.TopQueries = topQueries(queries, topN)
	report.TopZeroResultQueries = topQueries(zeroQueries, topN)

	for _, d := range daily {
		report.Daily = append(report.Daily, *d)
	}
	sort.Slice(report.Daily, func(i, j int) bool { return report.Daily[i].Date < report.Daily[j].Date })
	return report
}

// LastDays is the period covering the given number of days up to now.
func (l *AnalyticsLedger) LastDays(days int) entities.ReportPeriod {
	if days <= 0 {
		days = 30
	}
	to := l.now().UTC().Add(time.Nanosecond)
	return entities.ReportPeriod{From: to.AddDate(0, 0, -days), To: to}
}

// PopularQueries returns the most searched queries starting with prefix
// that returned results, most popular first.
func (l *AnalyticsLedger) PopularQueries(prefix string, limit int) []string {
	prefix = utils.NormalizeText(prefix)
	counts := make(map[string]*queryTally)

	l.mu.RLock()
	for _, e := range l.events {
		if e.ZeroResult || !strings.HasPrefix(e.NormalizedQuery, prefix) {
			continue
		}
		countQuery(counts, e)
	}
	l.mu.RUnlock()

	top := topQueries(counts, limit)
	out := make([]string, len(top))
	for i, q := range top {
		out[i] = q.Query
	}
	return out
}

// Wait blocks until every event and click recorded before the call has been
// persisted and published.
func (l *AnalyticsLedger) Wait() {
	l.mu.RLock()
	if l.queue == nil || l.closed {
		l.mu.RUnlock()
		return
	}
	done := make(chan struct{})
	l.queue <- dispatchJob{done: done}
	l.mu.RUnlock()
	<-done
}

// Close stops background dispatch after the queued writes are delivered.
// Events recorded afterwards stay in memory only.
func (l *AnalyticsLedger) Close() {
	if l.queue == nil {
		return
	}
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()
	<-l.stopped
}

// enqueue hands a snapshot to the dispatch worker without blocking. The
// caller holds l.mu, so an event is always queued before its clicks.
func (l *AnalyticsLedger) enqueue(ctx context.Context, e *entities.SearchEvent, click bool) {
	if l.queue == nil || l.closed {
		return
	}
	logger := observability.LoggerFromContext(ctx)
	select {
	case l.queue <- dispatchJob{event: e, click: click, logger: logger}:
	default:
		logger.Warn().Str("event_id", e.ID).Bool("click", click).Msg("Analytics queue full, dropping search event")
	}
}

func (l *AnalyticsLedger) drain() {
	defer close(l.stopped)
	for job := range l.queue {
		if job.done != nil {
			close(job.done)
			continue
		}
		l.deliver(job)
	}
}

// deliver persists and publishes one snapshot.
func (l *AnalyticsLedger) deliver(job dispatchJob) {
	// Fresh context since the request context might be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	e := job.event
	if l.sink != nil {
		var err error
		if job.click {
			err = l.sink.RecordClick(ctx, e.ID, e.Click)
		} else {
			err = l.sink.LogEvent(ctx, e)
		}
		if err != nil {
			job.logger.Warn().Err(err).Str("event_id", e.ID).Bool("click", job.click).Msg("Failed to persist search event")
		}
	}
	if l.bus != nil {
		channel := providers.EventChannelSearches
		if job.click {
			channel = providers.EventChannelClicks
		}
		if err := l.bus.Publish(ctx, channel, e); err != nil {
			job.logger.Warn().Err(err).Str("event_id", e.ID).Msg("Failed to publish search event")
		}
	}
}

type queryTally struct {
	count   entities.QueryCount
	lastSeq entities.EventID
}

func countQuery(counts map[string]*queryTally, e *entities.SearchEvent) {
	t, ok := counts[e.NormalizedQuery]
	if !ok {
		t = &queryTally{count: entities.QueryCount{Query: e.NormalizedQuery}}
		counts[e.NormalizedQuery] = t
	}
	t.count.Count++
	if e.Seq >= t.lastSeq {
		t.lastSeq = e.Seq
		t.count.LastSeen = e.CreatedAt
	}
}

// topQueries orders by count, then most recent occurrence.
func topQueries(counts map[string]*queryTally, n int) []entities.QueryCount {
	tallies := make([]*queryTally, 0, len(counts))
	for _, t := range counts {
		tallies = append(tallies, t)
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].count.Count != tallies[j].count.Count {
			return tallies[i].count.Count > tallies[j].count.Count
		}
		return tallies[i].lastSeq > tallies[j].lastSeq
	})
	if n > 0 && len(tallies) > n {
		tallies = tallies[:n]
	}
	out := make([]entities.QueryCount, len(tallies))
	for i, t := range tallies {
		out[i] = t.count
	}
	return out
}
