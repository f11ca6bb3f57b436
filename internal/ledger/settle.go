package ledger

import (
	"context"
	"errors"
	"time"

	"walletledger/internal/apperr"
	"walletledger/internal/domain"
	"walletledger/internal/metrics"
	"walletledger/internal/repository"
	"walletledger/pkg/payment"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomeSettled  Outcome = "settled"
	OutcomeFailed   Outcome = "failed"
	OutcomeReplayed Outcome = "replayed"
	OutcomeIgnored  Outcome = "ignored"
	OutcomePending  Outcome = "pending"
)

type settlement struct {
	Reference string
	Status    payment.Status
	Amount    decimal.Decimal
	SettledAt *time.Time
}

// finalize is the single pending-to-terminal transition used by the webhook and the sweeper.
// All reads and writes happen in one transaction under row locks, so concurrent callers for
// the same reference serialize and only the first one changes anything.
func (s *Service) finalize(ctx context.Context, source string, st settlement) (Outcome, error) {
	var (
		outcome Outcome
		events  []Event
	)
	err := s.store.WithinTx(ctx, func(r repository.Repositories) error {
		outcome, events = "", nil

		p, err := r.Payments().GetByReferenceForUpdate(ctx, st.Reference)
		if errors.Is(err, repository.ErrNotFound) {
			outcome = OutcomeIgnored
			return nil
		}
		if err != nil {
			return err
		}
		target := domain.StatusFailed
		if st.Status == payment.StatusSuccess {
			target = domain.StatusSuccess
		}
		if p.Status.Terminal() {
			if p.Status != target {
				s.logger.Warn("conflicting terminal status ignored",
					zap.String("reference", st.Reference),
					zap.String("recorded", string(p.Status)),
					zap.String("reported", string(target)))
			}
			outcome = OutcomeReplayed
			return nil
		}

		p.Status = target
		if target == domain.StatusSuccess {
			paidAt := s.now().UTC()
			if st.SettledAt != nil {
				paidAt = *st.SettledAt
			}
			p.PaidAt = &paidAt
		}
		if err := r.Payments().Update(ctx, p); err != nil {
			return err
		}

		lt, err := r.Transactions().GetByReferenceForUpdate(ctx, st.Reference)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.Internal(err, "ledger transaction missing for payment %s", st.Reference)
			}
			return err
		}
		if lt.Status.Terminal() {
			outcome = OutcomeReplayed
			return nil
		}

		if target == domain.StatusFailed {
			lt.Status = domain.StatusFailed
			if err := r.Transactions().Update(ctx, lt); err != nil {
				return err
			}
			w, err := r.Wallets().GetByID(ctx, lt.WalletID)
			if err != nil {
				return notFound(err, "wallet %s not found", lt.WalletID)
			}
			outcome = OutcomeFailed
			events = []Event{{Type: domain.EventDepositFailed, OwnerID: w.OwnerID, WalletID: w.ID, Reference: lt.Reference, Amount: lt.Amount, Balance: w.Balance}}
			return nil
		}

		credit := st.Amount
		if !credit.IsPositive() {
			credit = p.Amount
		}
		if !credit.Equal(lt.Amount) {
			s.logger.Warn("settled amount differs from deposit",
				zap.String("reference", st.Reference),
				zap.String("recorded", lt.Amount.String()),
				zap.String("settled", credit.String()))
		}
		w, err := r.Wallets().GetByIDForUpdate(ctx, lt.WalletID)
		if err != nil {
			return notFound(err, "wallet %s not found", lt.WalletID)
		}
		balance := w.Balance.Add(credit)
		if err := r.Wallets().UpdateBalance(ctx, w.ID, balance); err != nil {
			return err
		}
		lt.Amount = credit
		lt.Status = domain.StatusSuccess
		if err := r.Transactions().Update(ctx, lt); err != nil {
			return err
		}
		outcome = OutcomeSettled
		events = []Event{{Type: domain.EventDepositSettled, OwnerID: w.OwnerID, WalletID: w.ID, Reference: lt.Reference, Amount: credit, Balance: balance}}
		return nil
	})
	if err != nil {
		metrics.SettlementsTotal.WithLabelValues(source, "error").Inc()
		return "", asAppErr(err, "finalize deposit")
	}
	metrics.SettlementsTotal.WithLabelValues(source, string(outcome)).Inc()

	fields := []zap.Field{zap.String("reference", st.Reference), zap.String("source", source), zap.String("outcome", string(outcome))}
	switch outcome {
	case OutcomeIgnored:
		s.logger.Warn("no payment recorded for reference", fields...)
	case OutcomeReplayed:
		s.logger.Info("deposit already finalized", fields...)
	default:
		s.logger.Info("deposit finalized", fields...)
	}
	s.emit(ctx, events...)
	return outcome, nil
}
