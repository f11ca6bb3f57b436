package ledger

import (
	"context"
	"errors"

	"walletledger/internal/apperr"
	"walletledger/internal/domain"
	"walletledger/internal/models"
	"walletledger/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

// EnsureWallet returns the owner's wallet, creating it on first use. Concurrent callers for
// the same owner converge on one row through the unique owner index.
func (s *Service) EnsureWallet(ctx context.Context, ownerID string) (*models.Wallet, error) {
	if ownerID == "" {
		return nil, apperr.InvalidArgument("owner id is required")
	}
	w, err := s.store.Wallets().GetByOwner(ctx, ownerID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, asAppErr(err, "load wallet")
	}

	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		number, err := allocate(ctx, s.cfg.MaxAttempts, s.newWalletNumber, s.store.Wallets().NumberExists)
		if err != nil {
			return nil, asAppErr(err, "allocate wallet number")
		}
		w = &models.Wallet{OwnerID: ownerID, WalletNumber: number, Balance: decimal.Zero}
		err = s.store.Wallets().Create(ctx, w)
		if err == nil {
			s.logger.Info("wallet created", zap.String("owner_id", ownerID), zap.String("wallet_number", number))
			return w, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, asAppErr(err, "create wallet")
		}
		// Either another request created this owner's wallet or the number was taken.
		if existing, gerr := s.store.Wallets().GetByOwner(ctx, ownerID); gerr == nil {
			return existing, nil
		}
	}
	return nil, apperr.Conflict("could not allocate a unique wallet number")
}

func (s *Service) Wallet(ctx context.Context, ownerID string) (*models.Wallet, error) {
	w, err := s.store.Wallets().GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, asAppErr(notFound(err, "wallet not found"), "load wallet")
	}
	return w, nil
}

func (s *Service) Balance(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	w, err := s.Wallet(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

// History lists the owner's ledger rows newest first. limit is clamped to [1, MaxHistoryLimit].
func (s *Service) History(ctx context.Context, ownerID string, limit, offset int) ([]models.WalletTransaction, error) {
	w, err := s.Wallet(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.store.Transactions().ListByWallet(ctx, w.ID, limit, offset)
	if err != nil {
		return nil, asAppErr(err, "list transactions")
	}
	return list, nil
}

type DepositStatus struct {
	Reference string          `json:"reference"`
	Status    domain.Status   `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
}

// DepositStatus reports the ledger state of a deposit reference. Transfer legs and rows of other
// wallets are reported as missing.
func (s *Service) DepositStatus(ctx context.Context, ownerID, reference string) (*DepositStatus, error) {
	w, err := s.Wallet(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	lt, err := s.store.Transactions().GetByReference(ctx, reference)
	if err != nil {
		return nil, asAppErr(notFound(err, "transaction %s not found", reference), "load transaction")
	}
	if lt.WalletID != w.ID || lt.Type != domain.TransactionTypeDeposit {
		return nil, apperr.NotFound("transaction %s not found", reference)
	}
	return &DepositStatus{Reference: lt.Reference, Status: lt.Status, Amount: lt.Amount}, nil
}
