package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
)

// LockRecord is a task lock row. Timestamp is epoch milliseconds of the last
// acquisition or failure refresh; a record older than the TTL counts as
// expired and can be reacquired.
type LockRecord struct {
	Task      string       `db:"task"`
	Timestamp int64        `db:"timestamp"`
	StartedAt sql.NullTime `db:"started_at"`
	FailedAt  sql.NullTime `db:"failed_at"`
	Error     string       `db:"error"`
}

// AcquireLock attempts to take the lock for a task within a single
// read-check-write transaction. Returns false without error when another run
// holds a fresh lock; the caller is expected to skip, not to block.
func (db *DB) AcquireLock(ctx context.Context, task string, ttl time.Duration) (bool, error) {
	now := time.Now()
	acquired := false

	// transient SQLITE_BUSY from a competing transaction is retried; after the
	// competitor commits, the fresh lock it wrote makes this attempt a clean skip
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	err := retrier.Do(ctx, func() error {
		acquired = false
		return db.InTransaction(ctx, func(tx *sqlx.Tx) error {
			var ts int64
			err := tx.GetContext(ctx, &ts, "SELECT timestamp FROM task_locks WHERE task = ?", task)
			switch {
			case err == nil:
				if now.UnixMilli()-ts < ttl.Milliseconds() {
					return nil // lock is still active
				}
			case !errors.Is(err, sql.ErrNoRows):
				return fmt.Errorf("read lock: %w", err)
			}

			// acquire or reacquire the lock, clearing prior failure metadata
			query := `
				INSERT INTO task_locks (task, timestamp, started_at, failed_at, error)
				VALUES (?, ?, ?, NULL, '')
				ON CONFLICT(task) DO UPDATE SET
					timestamp = excluded.timestamp, started_at = excluded.started_at,
					failed_at = NULL, error = ''
			`
			if _, err := tx.ExecContext(ctx, query, task, now.UnixMilli(), now.UTC()); err != nil {
				return fmt.Errorf("write lock: %w", err)
			}
			acquired = true
			return nil
		})
	})

	return acquired, err
}

// ReleaseLock deletes the lock record after the guarded work completed
func (db *DB) ReleaseLock(ctx context.Context, task string) error {
	if _, err := db.conn.ExecContext(ctx, "DELETE FROM task_locks WHERE task = ?", task); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// MarkLockFailed refreshes the lock timestamp and attaches failure metadata
// instead of releasing, which holds off immediate retries against a failing
// pipeline until the TTL elapses. The original started_at survives the merge.
func (db *DB) MarkLockFailed(ctx context.Context, task string, cause error) error {
	now := time.Now()
	query := `
		INSERT INTO task_locks (task, timestamp, failed_at, error)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(task) DO UPDATE SET
			timestamp = excluded.timestamp, failed_at = excluded.failed_at,
			error = excluded.error
	`
	errText := ""
	if cause != nil {
		errText = cause.Error()
	}
	if _, err := db.conn.ExecContext(ctx, query, task, now.UnixMilli(), now.UTC(), errText); err != nil {
		return fmt.Errorf("mark lock failed: %w", err)
	}
	return nil
}

// GetLock retrieves the lock record for a task, nil when no record exists
func (db *DB) GetLock(ctx context.Context, task string) (*LockRecord, error) {
	var rec LockRecord
	err := db.conn.GetContext(ctx, &rec, "SELECT * FROM task_locks WHERE task = ?", task)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lock: %w", err)
	}
	return &rec, nil
}
