package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivaaang/chieac-cms/pkg/domain"
)

// recordingIngester records Run calls and returns canned outcomes
type recordingIngester struct {
	mu     sync.Mutex
	tasks  []string
	result *domain.RunResult
	err    error
}

func (r *recordingIngester) Run(_ context.Context, task string) (*domain.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func (r *recordingIngester) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tasks...)
}

func TestNewScheduler_DefaultInterval(t *testing.T) {
	s := NewScheduler(&recordingIngester{}, 0)
	assert.Equal(t, time.Hour, s.interval)
}

func TestScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	ingester := &recordingIngester{
		result: &domain.RunResult{Stats: &domain.IngestStats{Created: 1, Total: 1}},
	}

	s := NewScheduler(ingester, 30*time.Millisecond)
	s.Start(context.Background())
	defer s.Stop()

	// immediate run plus at least one tick
	require.Eventually(t, func() bool {
		return len(ingester.calls()) >= 2
	}, time.Second, 5*time.Millisecond)

	for _, task := range ingester.calls() {
		assert.Equal(t, "medium_ingest", task)
	}
}

func TestScheduler_SurvivesFailures(t *testing.T) {
	ingester := &recordingIngester{err: errors.New("fetch feed: boom")}

	s := NewScheduler(ingester, 20*time.Millisecond)
	s.Start(context.Background())
	defer s.Stop()

	// failures are swallowed, the worker keeps ticking
	require.Eventually(t, func() bool {
		return len(ingester.calls()) >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_SkippedRunLogged(t *testing.T) {
	ingester := &recordingIngester{result: &domain.RunResult{Skipped: true, Reason: "lock_active"}}

	s := NewScheduler(ingester, 20*time.Millisecond)
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(ingester.calls()) >= 2
	}, time.Second, 5*time.Millisecond)

	s.Stop()

	// no further runs after stop
	count := len(ingester.calls())
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, count, len(ingester.calls()))
}
