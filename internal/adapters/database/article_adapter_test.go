package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/helpdesk-search/internal/domain/entities"
	"github.com/zatekoja/helpdesk-search/internal/domain/repositories"
	apperrors "github.com/zatekoja/helpdesk-search/pkg/errors"
)

var articleColumnNames = []string{
	"id", "title", "content", "category", "subcategory", "difficulty_level",
	"keywords", "symptoms", "estimated_time_minutes", "success_rate",
	"view_count", "is_active", "created_at", "updated_at",
}

func TestArticleAdapter_GetByID(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewArticleAdapter(client)
	created := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(articleColumnNames).AddRow(
		"kb-001", "Printer not working or offline", "Check the cable.", "Hardware", "Printers", "easy",
		"{printer,offline}", "{\"printer offline\"}", int64(15), 0.92,
		int64(340), true, created, created,
	)
	mock.ExpectQuery(`SELECT .* FROM "kb_articles" WHERE .*'kb-001'`).WillReturnRows(rows)

	article, err := adapter.GetByID(context.Background(), "kb-001")
	require.NoError(t, err)
	assert.Equal(t, "Printer not working or offline", article.Title)
	assert.Equal(t, entities.DifficultyEasy, article.Difficulty)
	assert.Equal(t, []string{"printer", "offline"}, article.Keywords)
	assert.Equal(t, []string{"printer offline"}, article.Symptoms)
	require.NotNil(t, article.EstimatedTimeMinutes)
	assert.Equal(t, 15, *article.EstimatedTimeMinutes)
	require.NotNil(t, article.SuccessRate)
	assert.InDelta(t, 0.92, *article.SuccessRate, 1e-9)
	assert.True(t, article.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleAdapter_GetByIDNullColumns(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewArticleAdapter(client)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(articleColumnNames).AddRow(
		"kb-020", "Request a new laptop", "Open a ticket.", "Hardware", nil, nil,
		nil, nil, nil, nil, int64(0), true, now, now,
	)
	mock.ExpectQuery(`SELECT .* FROM "kb_articles"`).WillReturnRows(rows)

	article, err := adapter.GetByID(context.Background(), "kb-020")
	require.NoError(t, err)
	assert.Empty(t, article.Subcategory)
	assert.Empty(t, string(article.Difficulty))
	assert.Nil(t, article.EstimatedTimeMinutes)
	assert.Nil(t, article.SuccessRate)
}

func TestArticleAdapter_GetByIDNotFound(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewArticleAdapter(client)

	mock.ExpectQuery(`SELECT .* FROM "kb_articles"`).WillReturnRows(sqlmock.NewRows(articleColumnNames))

	_, err := adapter.GetByID(context.Background(), "kb-404")
	assert.Equal(t, apperrors.ErrorTypeNotFound, errorType(err))
}

func TestArticleAdapter_List(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewArticleAdapter(client)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(articleColumnNames).
		AddRow("kb-008", "Connect to the VPN", "Open the client.", "Network", "VPN", "medium",
			"{vpn}", "{}", int64(10), 0.8, int64(12), true, now, now).
		AddRow("kb-014", "Wi-Fi keeps dropping", "Forget the network.", "Network", "Wireless", "easy",
			"{wifi}", "{}", int64(5), 0.7, int64(3), true, now, now)
	mock.ExpectQuery(`SELECT .* FROM "kb_articles" WHERE .*"category" = 'Network'.*ORDER BY "id" ASC LIMIT 2 OFFSET 1`).
		WillReturnRows(rows)

	articles, err := adapter.List(context.Background(), repositories.ArticleFilter{
		ActiveOnly: true,
		Category:   "Network",
		Limit:      2,
		Offset:     1,
	})
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "kb-008", articles[0].ID)
	assert.Equal(t, "kb-014", articles[1].ID)
	assert.Empty(t, articles[1].Symptoms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleAdapter_Upsert(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewArticleAdapter(client)
	minutes := 15

	mock.ExpectExec(`INSERT INTO "kb_articles" .*ON CONFLICT .*DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	article := &entities.Article{
		ID:                   "kb-001",
		Title:                "Printer not working or offline",
		Category:             "Hardware",
		EstimatedTimeMinutes: &minutes,
		IsActive:             true,
	}
	require.NoError(t, adapter.Upsert(context.Background(), article))
	assert.False(t, article.CreatedAt.IsZero())
	assert.False(t, article.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
