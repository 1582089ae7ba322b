package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"

	"github.com/shivaaang/chieac-cms/pkg/domain"
)

// articleSQL represents an article for SQL operations
type articleSQL struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	MediumLink  string    `db:"medium_link"`
	ImageLink   string    `db:"image_link"`
	Tags        tagsSQL   `db:"article_tags"`
	PublishedAt time.Time `db:"published_at"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// tagsSQL is a JSON array of tag strings for SQL operations
type tagsSQL []string

// Value implements driver.Valuer for database storage
func (t tagsSQL) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner for database retrieval
func (t *tagsSQL) Scan(value interface{}) error {
	if value == nil {
		*t = tagsSQL{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return json.Unmarshal([]byte("[]"), t)
	}

	return json.Unmarshal(data, t)
}

// GetArticle retrieves an article by its derived ID, nil when no record exists
func (db *DB) GetArticle(ctx context.Context, id string) (*domain.StoredArticle, error) {
	var sqlArticle articleSQL
	err := db.conn.GetContext(ctx, &sqlArticle, "SELECT * FROM articles WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return toStoredArticle(&sqlArticle), nil
}

// CreateArticle inserts a new article record with all fields
func (db *DB) CreateArticle(ctx context.Context, article *domain.Article) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		query := `
			INSERT INTO articles (id, title, medium_link, image_link, article_tags, published_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		_, err := db.conn.ExecContext(ctx, query, article.ID, article.Title, article.MediumLink,
			article.ImageLink, tagsSQL(article.Tags), article.PublishedAt)
		if err != nil {
			return fmt.Errorf("create article: %w", err)
		}
		return nil
	})
}

// UpdateArticle rewrites the full article payload for an existing record. The
// caller decides whether an update is warranted; the write itself is
// all-or-nothing on the payload.
func (db *DB) UpdateArticle(ctx context.Context, article *domain.Article) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		query := `
			UPDATE articles
			SET title = ?, medium_link = ?, image_link = ?, article_tags = ?,
			    published_at = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`
		_, err := db.conn.ExecContext(ctx, query, article.Title, article.MediumLink,
			article.ImageLink, tagsSQL(article.Tags), article.PublishedAt, article.ID)
		if err != nil {
			return fmt.Errorf("update article: %w", err)
		}
		return nil
	})
}

// ListArticles retrieves stored articles, newest first
func (db *DB) ListArticles(ctx context.Context, limit, offset int) ([]domain.StoredArticle, error) {
	query := `
		SELECT * FROM articles
		ORDER BY published_at DESC
		LIMIT ? OFFSET ?
	`
	var sqlArticles []articleSQL
	err := db.conn.SelectContext(ctx, &sqlArticles, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	articles := make([]domain.StoredArticle, len(sqlArticles))
	for i := range sqlArticles {
		articles[i] = *toStoredArticle(&sqlArticles[i])
	}
	return articles, nil
}

// CountArticles returns the total number of stored articles
func (db *DB) CountArticles(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.GetContext(ctx, &count, "SELECT COUNT(*) FROM articles"); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

func toStoredArticle(a *articleSQL) *domain.StoredArticle {
	return &domain.StoredArticle{
		ID:          a.ID,
		Title:       a.Title,
		MediumLink:  a.MediumLink,
		ImageLink:   a.ImageLink,
		Tags:        a.Tags,
		PublishedAt: a.PublishedAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
