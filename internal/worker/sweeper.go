// Package worker runs the reconciliation sweeper on a schedule.
package worker

import (
	"context"
	"fmt"
	"time"

	"walletledger/internal/ledger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Sweeper interface {
	Sweep(ctx context.Context) (ledger.SweepReport, error)
}

// SweepJob runs one sweep, holding the distributed lock when a Locker is set.
type SweepJob struct {
	sweeper Sweeper
	locker  Locker
	key     string
	ttl     time.Duration
	logger  *zap.Logger
}

func NewSweepJob(sweeper Sweeper, locker Locker, key string, ttl time.Duration, logger *zap.Logger) *SweepJob {
	return &SweepJob{sweeper: sweeper, locker: locker, key: key, ttl: ttl, logger: logger}
}

// Run bounds the sweep by the lock TTL so a slow batch never outlives its lock.
func (j *SweepJob) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.ttl)
	defer cancel()

	if j.locker != nil {
		release, ok, err := j.locker.Acquire(ctx, j.key, j.ttl)
		if err != nil {
			j.logger.Warn("sweeper lock unavailable", zap.Error(err))
			return
		}
		if !ok {
			j.logger.Debug("sweeper lock held elsewhere, skipping run")
			return
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				j.logger.Warn("sweeper lock release failed", zap.Error(err))
			}
		}()
	}

	if _, err := j.sweeper.Sweep(ctx); err != nil {
		j.logger.Error("sweep failed", zap.Error(err))
	}
}

// Scheduler fires SweepJob on a cron spec. Overlapping runs are skipped.
type Scheduler struct {
	cron *cron.Cron
	job  *SweepJob
	ctx  context.Context
}

func NewScheduler(spec string, job *SweepJob, logger *zap.Logger) (*Scheduler, error) {
	cl := cronLogger{l: logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl)),
		job:  job,
		ctx:  context.Background(),
	}
	if _, err := s.cron.AddFunc(spec, func() { s.job.Run(s.ctx) }); err != nil {
		return nil, fmt.Errorf("sweeper schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule until ctx is done, then waits for an in-flight sweep to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
