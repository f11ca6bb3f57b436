package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"walletledger/internal/ledger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingSweeper struct {
	runs atomic.Int32
	err  error
}

func (s *countingSweeper) Sweep(ctx context.Context) (ledger.SweepReport, error) {
	s.runs.Add(1)
	return ledger.SweepReport{}, s.err
}

type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	err      error
	released int
}

func (l *fakeLocker) Acquire(_ context.Context, _ string, _ time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
		l.released++
		return nil
	}, true, nil
}

var _ Locker = (*fakeLocker)(nil)

func TestSweepJobRunsWithoutLocker(t *testing.T) {
	sw := &countingSweeper{}
	NewSweepJob(sw, nil, "k", time.Second, zaptest.NewLogger(t)).Run(context.Background())
	require.EqualValues(t, 1, sw.runs.Load())
}

func TestSweepJobHonorsLock(t *testing.T) {
	tests := []struct {
		name         string
		locker       *fakeLocker
		wantRuns     int32
		wantReleased int
	}{
		{"acquired", &fakeLocker{}, 1, 1},
		{"held elsewhere", &fakeLocker{held: true}, 0, 0},
		{"redis down", &fakeLocker{err: errors.New("dial tcp: refused")}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw := &countingSweeper{err: errors.New("ignored")}
			NewSweepJob(sw, tt.locker, "k", time.Second, zaptest.NewLogger(t)).Run(context.Background())
			require.Equal(t, tt.wantRuns, sw.runs.Load())
			require.Equal(t, tt.wantReleased, tt.locker.released)
		})
	}
}

func TestSchedulerRunsUntilCancelled(t *testing.T) {
	sw := &countingSweeper{}
	job := NewSweepJob(sw, nil, "k", time.Second, zaptest.NewLogger(t))
	s, err := NewScheduler("@every 1s", job, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return sw.runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler("every now and then", NewSweepJob(&countingSweeper{}, nil, "k", time.Second, zaptest.NewLogger(t)), zaptest.NewLogger(t))
	require.Error(t, err)
}
