package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/shivaaang/chieac-cms/pkg/domain"
)

// Fetcher retrieves the feed entries for a run
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.FeedItem, error)
}

// LockManager guards a task against overlapping runs. Acquisition is a single
// transactional read-check-write; false without error means another run holds
// a fresh lock and the caller should skip.
type LockManager interface {
	AcquireLock(ctx context.Context, task string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, task string) error
	MarkLockFailed(ctx context.Context, task string, cause error) error
}

// Pipeline sequences fetch, normalize and upsert under lock protection. Both
// the hourly schedule and the manual HTTP trigger go through Run with their
// own task names.
type Pipeline struct {
	fetcher    Fetcher
	normalizer *Normalizer
	syncer     *Syncer
	locks      LockManager
	lockTTL    time.Duration
}

// NewPipeline creates a new ingest pipeline
func NewPipeline(fetcher Fetcher, store ArticleStore, locks LockManager, lockTTL time.Duration) *Pipeline {
	if lockTTL == 0 {
		lockTTL = 10 * time.Minute
	}
	return &Pipeline{
		fetcher:    fetcher,
		normalizer: NewNormalizer(),
		syncer:     NewSyncer(store),
		locks:      locks,
		lockTTL:    lockTTL,
	}
}

// Run executes one ingest run for the given task name. When the task lock is
// held by another run the result reports skipped and no work happens. On
// failure the lock is refreshed with failure metadata instead of released,
// which delays retries for a full TTL window, and the error is returned to the
// caller to surface.
func (p *Pipeline) Run(ctx context.Context, task string) (*domain.RunResult, error) {
	acquired, err := p.locks.AcquireLock(ctx, task, p.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire lock for %s: %w", task, err)
	}
	if !acquired {
		lgr.Printf("[INFO] lock active for %s, skipping run", task)
		return &domain.RunResult{Skipped: true, Reason: "lock_active"}, nil
	}

	stats, err := p.ingest(ctx)
	if err != nil {
		lgr.Printf("[ERROR] ingest run %s failed: %v", task, err)
		p.markLockFailedBestEffort(ctx, task, err)
		return nil, err
	}

	p.releaseLockBestEffort(ctx, task)
	return &domain.RunResult{Stats: &stats}, nil
}

// ingest performs the guarded fetch-normalize-upsert sequence
func (p *Pipeline) ingest(ctx context.Context) (domain.IngestStats, error) {
	items, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return domain.IngestStats{}, err
	}

	lgr.Printf("[INFO] processing %d feed entries", len(items))

	articles := make([]domain.Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, p.normalizer.Normalize(item))
	}

	return p.syncer.Sync(ctx, articles), nil
}

// releaseLockBestEffort deletes the lock record, logging instead of failing.
// A leftover record self-heals once the TTL expires, so the reported success
// of the run is never affected.
func (p *Pipeline) releaseLockBestEffort(ctx context.Context, task string) {
	if err := p.locks.ReleaseLock(ctx, task); err != nil {
		lgr.Printf("[WARN] failed to release lock for %s: %v", task, err)
	}
}

// markLockFailedBestEffort records failure metadata on the lock, logging
// instead of failing so the original error stays the one reported
func (p *Pipeline) markLockFailedBestEffort(ctx context.Context, task string, cause error) {
	if err := p.locks.MarkLockFailed(ctx, task, cause); err != nil {
		lgr.Printf("[WARN] failed to mark lock failed for %s: %v", task, err)
	}
}
