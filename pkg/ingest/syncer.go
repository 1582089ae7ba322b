package ingest

import (
	"context"

	"github.com/go-pkgz/lgr"

	"github.com/shivaaang/chieac-cms/pkg/domain"
)

// ArticleStore is the storage surface the upsert engine reconciles against
type ArticleStore interface {
	GetArticle(ctx context.Context, id string) (*domain.StoredArticle, error)
	CreateArticle(ctx context.Context, article *domain.Article) error
	UpdateArticle(ctx context.Context, article *domain.Article) error
}

// Syncer reconciles normalized articles against the store with a conservative
// fill-only merge: a present image or tag list is never overwritten by the
// pipeline, only empty fields are filled in. Manual edits stay authoritative.
type Syncer struct {
	store ArticleStore
}

// NewSyncer creates a new syncer
func NewSyncer(store ArticleStore) *Syncer {
	return &Syncer{store: store}
}

// Sync upserts the batch in feed order, one article at a time. A failure on a
// single record is logged and skipped, it never aborts the batch; Total counts
// every article handed in, including skipped ones.
func (s *Syncer) Sync(ctx context.Context, articles []domain.Article) domain.IngestStats {
	stats := domain.IngestStats{Total: len(articles)}

	lgr.Printf("[INFO] syncing %d articles", len(articles))

	for i := range articles {
		article := &articles[i]

		if article.ID == "" || article.PublishedAt.IsZero() {
			lgr.Printf("[WARN] skipping article with missing id or published_at: %s", article.Title)
			continue
		}

		existing, err := s.store.GetArticle(ctx, article.ID)
		if err != nil {
			lgr.Printf("[WARN] failed to read article %s: %v", article.ID, err)
			continue
		}

		if existing == nil {
			if err := s.store.CreateArticle(ctx, article); err != nil {
				lgr.Printf("[WARN] failed to create article %s: %v", article.ID, err)
				continue
			}
			stats.Created++
			lgr.Printf("[INFO] created article: %s", article.Title)
			continue
		}

		if !needsUpdate(existing, article) {
			lgr.Printf("[DEBUG] article already up to date: %s", article.Title)
			continue
		}

		if err := s.store.UpdateArticle(ctx, article); err != nil {
			lgr.Printf("[WARN] failed to update article %s: %v", article.ID, err)
			continue
		}
		stats.Updated++
		lgr.Printf("[INFO] updated article: %s", article.Title)
	}

	lgr.Printf("[INFO] sync complete, created: %d, updated: %d", stats.Created, stats.Updated)
	return stats
}

// needsUpdate reports whether the candidate carries new information for an
// existing record. Only empty-to-present transitions of the image link and the
// tag list count; present values are left alone even when they differ.
func needsUpdate(existing *domain.StoredArticle, candidate *domain.Article) bool {
	if existing.ImageLink == "" && candidate.ImageLink != "" {
		return true
	}
	if len(existing.Tags) == 0 && len(candidate.Tags) > 0 {
		return true
	}
	return false
}
