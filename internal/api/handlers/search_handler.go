package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/helpdesk-search/internal/application/services"
	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/observability"
)

const (
	defaultReportDays = 30
	defaultReportTop  = 20
	maxReportDays     = 365
	maxListLimit      = 100
	maxClickBodyBytes = 4 << 10
)

// reservedSearchParams are query parameters that are not filters.
var reservedSearchParams = map[string]struct{}{
	"q":          {},
	"size":       {},
	"page":       {},
	"session_id": {},
}

// SearchService defines the search operations used by the handler.
type SearchService interface {
	Search(ctx context.Context, req services.SearchRequest) (*services.SearchResponse, error)
	GetSearchSuggestions(ctx context.Context, partial string) ([]string, error)
	GetDidYouMean(ctx context.Context, text string) (string, bool)
	TrackClickThrough(ctx context.Context, req services.ClickRequest) (bool, error)
	GetSearchAnalytics(ctx context.Context, days, topN int) *entities.AggregateReport
	GetZeroResultQueries(ctx context.Context, days, limit int) ([]entities.QueryCount, error)
}

// SearchHandler serves the knowledge base search API.
type SearchHandler struct {
	service SearchService
	clicks  *clientLimiter
	proxies proxyList
}

// ClickRateConfig limits click tracking per client IP.
type ClickRateConfig struct {
	PerSecond float64
	Burst     int
	// TrustedProxies lists IPs and CIDRs allowed to set X-Forwarded-For
	// and X-Real-IP. Other peers are keyed by their socket address.
	TrustedProxies string
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service SearchService, clickRate ClickRateConfig) *SearchHandler {
	return &SearchHandler{
		service: service,
		clicks:  newClientLimiter(clickRate.PerSecond, clickRate.Burst),
		proxies: parseProxyList(clickRate.TrustedProxies),
	}
}

// searchResponse is the JSON body of GET /api/search.
type searchResponse struct {
	Query    *entities.SearchQuery    `json:"query"`
	Results  []entities.SearchResult  `json:"results"`
	Facets   []entities.FacetGroup    `json:"facets"`
	Total    int                      `json:"total"`
	Page     int                      `json:"page"`
	TookMs   int64                    `json:"took_ms"`
	Warnings []entities.FilterWarning `json:"warnings"`
}

// Search handles GET /api/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	size, err := intParam(r, "size", 0)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	page, err := intParam(r, "page", 1)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	filters := make(map[string]interface{})
	for key, values := range params {
		if _, reserved := reservedSearchParams[key]; reserved || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}

	resp, err := h.service.Search(r.Context(), services.SearchRequest{
		Text:      params.Get("q"),
		Filters:   filters,
		PageSize:  size,
		Page:      page,
		SessionID: strings.TrimSpace(params.Get("session_id")),
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	warnings := resp.Query.Warnings
	if warnings == nil {
		warnings = []entities.FilterWarning{}
	}
	respondWithJSON(w, http.StatusOK, searchResponse{
		Query:    resp.Query,
		Results:  resp.Results,
		Facets:   resp.Facets.Groups,
		Total:    resp.Total,
		Page:     resp.Page,
		TookMs:   resp.TookMs,
		Warnings: warnings,
	})
}

// Suggest handles GET /api/search/suggest
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.service.GetSearchSuggestions(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
	})
}

// DidYouMean handles GET /api/search/did-you-mean
func (h *SearchHandler) DidYouMean(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"suggestion": nil}
	if corrected, ok := h.service.GetDidYouMean(r.Context(), r.URL.Query().Get("q")); ok {
		body["suggestion"] = corrected
	}
	respondWithJSON(w, http.StatusOK, body)
}

type clickRequest struct {
	Query            string  `json:"query"`
	ArticleID        string  `json:"article_id"`
	TimeSpentSeconds float64 `json:"time_spent_seconds"`
	SessionID        string  `json:"session_id"`
}

// TrackClick handles POST /api/search/click
func (h *SearchHandler) TrackClick(w http.ResponseWriter, r *http.Request) {
	if allowed, retryAfter := h.clicks.allow(h.proxies.clientIP(r)); !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds()+0.5)))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var payload clickRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClickBodyBytes))
	if err := decoder.Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	attached, err := h.service.TrackClickThrough(r.Context(), services.ClickRequest{
		Query:            payload.Query,
		ArticleID:        strings.TrimSpace(payload.ArticleID),
		TimeSpentSeconds: payload.TimeSpentSeconds,
		SessionID:        strings.TrimSpace(payload.SessionID),
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if !attached {
		observability.LoggerFromContext(r.Context()).Debug().
			Str("article_id", payload.ArticleID).
			Msg("Click did not match a recent search")
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"attached": attached})
}

// SearchAnalytics handles GET /api/analytics/search
func (h *SearchHandler) SearchAnalytics(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", defaultReportDays)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	top, err := intParam(r, "top", defaultReportTop)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if days > maxReportDays {
		days = maxReportDays
	}
	if top > maxListLimit {
		top = maxListLimit
	}
	respondWithJSON(w, http.StatusOK, h.service.GetSearchAnalytics(r.Context(), days, top))
}

// ZeroResultQueries handles GET /api/analytics/zero-result-queries
func (h *SearchHandler) ZeroResultQueries(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", defaultReportDays)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	limit, err := intParam(r, "limit", defaultReportTop)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if days > maxReportDays {
		days = maxReportDays
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	queries, err := h.service.GetZeroResultQueries(r.Context(), days, limit)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("Failed to load zero result queries")
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": queries,
		"count":   len(queries),
	})
}
