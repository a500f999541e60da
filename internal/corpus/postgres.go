package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/fernwehlabs/discovery/pkg/postgres"
)

// PostgresProvider loads the post corpus from the CMS database. It is the
// collaborator that owns reading the content store; rows that fail to scan
// are skipped and logged rather than aborting the whole load.
type PostgresProvider struct {
	client *postgres.Client
	logger *slog.Logger
}

// NewPostgresProvider creates a provider backed by the given client.
func NewPostgresProvider(client *postgres.Client) *PostgresProvider {
	return &PostgresProvider{
		client: client,
		logger: slog.Default().With("component", "corpus-provider"),
	}
}

const selectPosts = `
SELECT id, slug, title, content, excerpt, tags, category, location, country,
       published_at, modified_at, language, reading_time_minutes
FROM posts
WHERE published_at <= NOW()
ORDER BY published_at DESC`

// Posts fetches every published post.
func (p *PostgresProvider) Posts(ctx context.Context) ([]Post, error) {
	rows, err := p.client.DB.QueryContext(ctx, selectPosts)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	skipped := 0
	for rows.Next() {
		var (
			post        Post
			tags        pq.StringArray
			category    sql.NullString
			location    sql.NullString
			country     sql.NullString
			modified    sql.NullTime
			readingTime sql.NullInt64
		)
		err := rows.Scan(
			&post.ID, &post.Slug, &post.Title, &post.Content, &post.Excerpt,
			&tags, &category, &location, &country,
			&post.Date, &modified, &post.Language, &readingTime,
		)
		if err != nil {
			p.logger.Warn("skipping unreadable post row", "error", err)
			skipped++
			continue
		}
		post.Tags = []string(tags)
		post.Category = category.String
		post.Location = location.String
		post.Country = country.String
		if modified.Valid {
			t := modified.Time
			post.ModifiedDate = &t
		}
		post.ReadingTimeMinutes = int(readingTime.Int64)
		if !post.Language.Valid() {
			post.Language = LangEN
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}
	p.logger.Info("corpus loaded", "posts", len(posts), "skipped", skipped)
	return posts, nil
}

var _ Provider = (*PostgresProvider)(nil)
