package ledger

import (
	"context"
	"errors"
	"fmt"

	"walletledger/internal/domain"
	"walletledger/internal/metrics"
	"walletledger/pkg/payment"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type SweepReport struct {
	Checked   int
	Settled   int
	Failed    int
	Pending   int
	Errors    int
	Unchecked int // left for the next run because the context ran out first
}

// Sweep polls the provider for deposits still pending after the grace window and finalizes
// them through the same path as the webhook. A failing reference is logged and skipped.
func (s *Service) Sweep(ctx context.Context) (SweepReport, error) {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues("sweep"))
	defer timer.ObserveDuration()

	var report SweepReport
	cutoff := s.now().Add(-s.cfg.GraceWindow)
	stale, err := s.store.Transactions().ListStalePending(ctx, domain.TransactionTypeDeposit, cutoff, s.cfg.BatchSize)
	if err != nil {
		return report, asAppErr(err, "list pending deposits")
	}
	if len(stale) == 0 {
		return report, nil
	}
	s.logger.Info("sweeping pending deposits", zap.Int("count", len(stale)), zap.Time("cutoff", cutoff))

	var paceErr error
	for i, lt := range stale {
		if err := s.pacer.Wait(ctx); err != nil {
			report.Unchecked = len(stale) - i
			paceErr = fmt.Errorf("sweep stopped with %d deposits unchecked: %w", report.Unchecked, err)
			break
		}
		report.Checked++
		outcome, err := s.reconcile(ctx, lt.Reference)
		if err != nil {
			report.Errors++
			s.logger.Warn("sweep could not reconcile deposit", zap.String("reference", lt.Reference), zap.Error(err))
			continue
		}
		switch outcome {
		case OutcomeSettled:
			report.Settled++
		case OutcomeFailed:
			report.Failed++
		case OutcomePending:
			report.Pending++
		}
	}

	s.logger.Info("sweep finished",
		zap.Int("checked", report.Checked),
		zap.Int("settled", report.Settled),
		zap.Int("failed", report.Failed),
		zap.Int("pending", report.Pending),
		zap.Int("errors", report.Errors),
		zap.Int("unchecked", report.Unchecked))
	if paceErr != nil {
		return report, paceErr
	}
	return report, ctx.Err()
}

// reconcile verifies one reference. A provider timeout leaves the deposit pending for the next sweep.
func (s *Service) reconcile(ctx context.Context, reference string) (Outcome, error) {
	vctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	v, err := s.provider.Verify(vctx, reference)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			metrics.SettlementsTotal.WithLabelValues("sweeper", string(OutcomePending)).Inc()
			return OutcomePending, nil
		}
		return "", err
	}
	if v.Status == payment.StatusPending {
		metrics.SettlementsTotal.WithLabelValues("sweeper", string(OutcomePending)).Inc()
		return OutcomePending, nil
	}
	return s.finalize(ctx, "sweeper", settlement{
		Reference: reference,
		Status:    v.Status,
		Amount:    v.Amount,
		SettledAt: v.SettledAt,
	})
}

