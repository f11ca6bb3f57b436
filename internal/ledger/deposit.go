package ledger

import (
	"context"
	"errors"

	"walletledger/internal/apperr"
	"walletledger/internal/domain"
	"walletledger/internal/metrics"
	"walletledger/internal/models"
	"walletledger/internal/repository"
	"walletledger/pkg/payment"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type DepositResult struct {
	Reference   string          `json:"reference"`
	RedirectURL string          `json:"redirect_url"`
	Amount      decimal.Decimal `json:"amount"`
}

// Deposit opens a provider checkout and records the pending payment and ledger rows.
// The provider is called first; nothing is persisted when that call fails.
func (s *Service) Deposit(ctx context.Context, ownerID, email string, amount decimal.Decimal) (*DepositResult, error) {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues("deposit"))
	defer timer.ObserveDuration()

	res, err := s.deposit(ctx, ownerID, email, amount)
	metrics.DepositsTotal.WithLabelValues(resultLabel(err)).Inc()
	return res, err
}

func (s *Service) deposit(ctx context.Context, ownerID, email string, amount decimal.Decimal) (*DepositResult, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if amount.LessThan(s.cfg.MinDeposit) {
		return nil, apperr.InvalidArgument("minimum deposit is %s", s.cfg.MinDeposit)
	}
	if email == "" {
		return nil, apperr.InvalidArgument("payer email is required")
	}
	wallet, err := s.store.Wallets().GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, asAppErr(notFound(err, "wallet not found"), "deposit")
	}

	pctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	sess, err := s.provider.Initiate(pctx, payment.InitRequest{Email: email, Amount: amount})
	if err != nil {
		s.logger.Warn("payment initialization failed", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, apperr.ExternalService(err, "payment provider unavailable")
	}

	err = s.store.WithinTx(ctx, func(r repository.Repositories) error {
		if err := r.Payments().Create(ctx, &models.Payment{
			Reference: sess.Reference,
			Email:     email,
			Amount:    amount,
			Status:    domain.StatusPending,
		}); err != nil {
			return err
		}
		return r.Transactions().Create(ctx, &models.WalletTransaction{
			WalletID:  wallet.ID,
			Type:      domain.TransactionTypeDeposit,
			Amount:    amount,
			Reference: sess.Reference,
			Status:    domain.StatusPending,
		})
	})
	if err != nil {
		// The provider session exists without local rows; it can only be settled by hand.
		s.logger.Error("deposit session opened but not recorded",
			zap.String("reference", sess.Reference),
			zap.String("owner_id", ownerID),
			zap.String("amount", amount.String()),
			zap.Error(err))
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("payment reference %s already recorded", sess.Reference)
		}
		return nil, asAppErr(err, "deposit")
	}

	s.logger.Info("deposit initiated",
		zap.String("reference", sess.Reference),
		zap.String("owner_id", ownerID),
		zap.String("amount", amount.String()))
	return &DepositResult{Reference: sess.Reference, RedirectURL: sess.RedirectURL, Amount: amount}, nil
}
