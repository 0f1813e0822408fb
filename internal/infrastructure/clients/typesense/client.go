package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/helpdesk-search/pkg/config"
	"github.com/zatekoja/helpdesk-search/pkg/retry"
)

// DefaultCollection holds knowledge base articles.
const DefaultCollection = "articles"

// Client represents a Typesense client
type Client struct {
	client     *typesense.Client
	collection string
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	log.Info().Str("collection", collection).Msg("Successfully connected to Typesense")
	return &Client{client: client, collection: collection}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// Collection returns the article collection name
func (c *Client) Collection() string {
	return c.collection
}

// ArticleSchema describes the article collection.
func ArticleSchema(name string) *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: name,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "content", Type: "string"},
			{Name: "category", Type: "string", Facet: pointer.True()},
			{Name: "subcategory", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "difficulty_level", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "keywords", Type: "string[]", Optional: pointer.True()},
			{Name: "symptoms", Type: "string[]", Optional: pointer.True()},
			{Name: "estimated_time_minutes", Type: "int32", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "success_rate", Type: "float", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "view_count", Type: "int32"},
			{Name: "is_active", Type: "bool"},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}
}

// InitSchema ensures the article collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == c.collection {
			log.Debug().Str("collection", c.collection).Msg("Typesense collection already exists")
			return nil
		}
	}

	if _, err := c.client.Collections().Create(ctx, ArticleSchema(c.collection)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", c.collection).Msg("Created Typesense collection")
	return nil
}

// UpsertDocument indexes one article document
func (c *Client) UpsertDocument(ctx context.Context, document map[string]interface{}) error {
	_, err := c.client.Collection(c.collection).Documents().Upsert(ctx, document)
	return err
}

// UpsertSynonyms registers each group as a multi-way synonym set. Group ids
// are derived from the first term.
func (c *Client) UpsertSynonyms(ctx context.Context, groups [][]string) error {
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		schema := &api.SearchSynonymSchema{Synonyms: append([]string(nil), group...)}
		if _, err := c.client.Collection(c.collection).Synonyms().Upsert(ctx, SynonymID(group[0]), schema); err != nil {
			return fmt.Errorf("failed to upsert synonyms for %q: %w", group[0], err)
		}
	}
	return nil
}

// SynonymID turns a term into a stable synonym set id.
func SynonymID(term string) string {
	out := make([]rune, 0, len(term)+4)
	for _, r := range term {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, '-')
		}
	}
	return "syn-" + string(out)
}
