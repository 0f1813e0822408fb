package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/repositories"
	"github.com/zatekoja/helpdesk-search/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/helpdesk-search/pkg/errors"
)

const articlesTable = "kb_articles"

var articleColumns = []interface{}{
	"id", "title", "content", "category", "subcategory", "difficulty_level",
	"keywords", "symptoms", "estimated_time_minutes", "success_rate",
	"view_count", "is_active", "created_at", "updated_at",
}

// articleRow mirrors one kb_articles row, nullable columns included.
type articleRow struct {
	ID            string          `db:"id"`
	Title         string          `db:"title"`
	Content       string          `db:"content"`
	Category      string          `db:"category"`
	Subcategory   sql.NullString  `db:"subcategory"`
	Difficulty    sql.NullString  `db:"difficulty_level"`
	Keywords      pq.StringArray  `db:"keywords"`
	Symptoms      pq.StringArray  `db:"symptoms"`
	EstimatedTime sql.NullInt64   `db:"estimated_time_minutes"`
	SuccessRate   sql.NullFloat64 `db:"success_rate"`
	ViewCount     int             `db:"view_count"`
	IsActive      bool            `db:"is_active"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r *articleRow) toEntity() *entities.Article {
	a := &entities.Article{
		ID:          r.ID,
		Title:       r.Title,
		Content:     r.Content,
		Category:    r.Category,
		Subcategory: r.Subcategory.String,
		Keywords:    []string(r.Keywords),
		Symptoms:    []string(r.Symptoms),
		ViewCount:   r.ViewCount,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if d, ok := entities.ParseDifficulty(r.Difficulty.String); ok {
		a.Difficulty = d
	}
	if r.EstimatedTime.Valid {
		minutes := int(r.EstimatedTime.Int64)
		a.EstimatedTimeMinutes = &minutes
	}
	if r.SuccessRate.Valid {
		rate := r.SuccessRate.Float64
		a.SuccessRate = &rate
	}
	return a
}

// ArticleAdapter reads and writes knowledge base articles in PostgreSQL
type ArticleAdapter struct {
	db *sqlx.DB
	qb *goqu.Database
}

var _ repositories.ArticleRepository = (*ArticleAdapter)(nil)

// NewArticleAdapter creates a new article adapter
func NewArticleAdapter(client *postgres.Client) *ArticleAdapter {
	return &ArticleAdapter{
		db: sqlx.NewDb(client.DB(), "postgres"),
		qb: goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves an article by ID
func (a *ArticleAdapter) GetByID(ctx context.Context, id string) (*entities.Article, error) {
	query, args, err := a.qb.From(articlesTable).
		Select(articleColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var row articleRow
	if err := a.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("article not found: " + id)
		}
		return nil, apperrors.NewInternalError("failed to get article", err)
	}
	return row.toEntity(), nil
}

// List returns articles ordered by id
func (a *ArticleAdapter) List(ctx context.Context, filter repositories.ArticleFilter) ([]*entities.Article, error) {
	ds := a.qb.From(articlesTable).Select(articleColumns...).Order(goqu.C("id").Asc())
	if filter.ActiveOnly {
		ds = ds.Where(goqu.Ex{"is_active": true})
	}
	if filter.Category != "" {
		ds = ds.Where(goqu.Ex{"category": filter.Category})
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var rows []articleRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list articles", err)
	}

	articles := make([]*entities.Article, len(rows))
	for i := range rows {
		articles[i] = rows[i].toEntity()
	}
	return articles, nil
}

// Upsert inserts an article or replaces the stored copy with the same id
func (a *ArticleAdapter) Upsert(ctx context.Context, article *entities.Article) error {
	now := time.Now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now

	record := goqu.Record{
		"title":                  article.Title,
		"content":                article.Content,
		"category":               article.Category,
		"subcategory":            sql.NullString{String: article.Subcategory, Valid: article.Subcategory != ""},
		"difficulty_level":       sql.NullString{String: string(article.Difficulty), Valid: article.Difficulty != ""},
		"keywords":               pq.Array(nonNilStrings(article.Keywords)),
		"symptoms":               pq.Array(nonNilStrings(article.Symptoms)),
		"estimated_time_minutes": nullInt(article.EstimatedTimeMinutes),
		"success_rate":           nullFloat(article.SuccessRate),
		"view_count":             article.ViewCount,
		"is_active":              article.IsActive,
		"updated_at":             article.UpdatedAt,
	}
	insert := goqu.Record{"id": article.ID, "created_at": article.CreatedAt}
	for k, v := range record {
		insert[k] = v
	}

	query, args, err := a.qb.Insert(articlesTable).
		Rows(insert).
		OnConflict(goqu.DoUpdate("id", record)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert article", err)
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
