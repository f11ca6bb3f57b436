package ledger

import (
	"context"
	"errors"
	"sort"

	"walletledger/internal/apperr"
	"walletledger/internal/domain"
	"walletledger/internal/metrics"
	"walletledger/internal/models"
	"walletledger/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type TransferResult struct {
	Reference             string          `json:"reference"`
	CreditReference       string          `json:"credit_reference"`
	Amount                decimal.Decimal `json:"amount"`
	RecipientWalletNumber string          `json:"recipient_wallet_number"`
}

// Transfer moves amount from the sender's wallet to the wallet with walletNumber in one transaction.
func (s *Service) Transfer(ctx context.Context, senderOwnerID, walletNumber string, amount decimal.Decimal) (*TransferResult, error) {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues("transfer"))
	defer timer.ObserveDuration()

	res, events, err := s.transfer(ctx, senderOwnerID, walletNumber, amount)
	metrics.TransfersTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			s.logger.Error("transfer failed", zap.String("owner_id", senderOwnerID), zap.Error(err))
		}
		return nil, err
	}
	s.logger.Info("transfer completed",
		zap.String("reference", res.Reference),
		zap.String("owner_id", senderOwnerID),
		zap.String("recipient", walletNumber),
		zap.String("amount", amount.String()))
	s.emit(ctx, events...)
	return res, nil
}

func (s *Service) transfer(ctx context.Context, senderOwnerID, walletNumber string, amount decimal.Decimal) (*TransferResult, []Event, error) {
	if err := validateAmount(amount); err != nil {
		return nil, nil, err
	}
	if !domain.ValidWalletNumber(walletNumber) {
		return nil, nil, apperr.InvalidArgument("wallet number must be %d digits starting with %s", domain.WalletNumberLength, domain.WalletNumberPrefix)
	}

	var (
		res    *TransferResult
		events []Event
		err    error
	)
	// A reference inserted concurrently between check and insert surfaces as a
	// duplicate key; the whole transaction is rolled back and retried.
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		err = s.store.WithinTx(ctx, func(r repository.Repositories) error {
			res, events, err = s.transferTx(ctx, r, senderOwnerID, walletNumber, amount)
			return err
		})
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		s.logger.Warn("transfer reference collision, retrying", zap.Int("attempt", attempt+1))
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, nil, apperr.Conflict("could not allocate a unique transfer reference")
	}
	if err != nil {
		return nil, nil, asAppErr(err, "transfer")
	}
	return res, events, nil
}

func (s *Service) transferTx(ctx context.Context, r repository.Repositories, senderOwnerID, walletNumber string, amount decimal.Decimal) (*TransferResult, []Event, error) {
	sender, err := r.Wallets().GetByOwner(ctx, senderOwnerID)
	if err != nil {
		return nil, nil, notFound(err, "sender wallet not found")
	}
	recipient, err := r.Wallets().GetByNumber(ctx, walletNumber)
	if err != nil {
		return nil, nil, notFound(err, "recipient wallet %s not found", walletNumber)
	}
	if sender.ID == recipient.ID {
		return nil, nil, apperr.InvalidArgument("cannot transfer to your own wallet")
	}
	if sender.Balance.LessThan(amount) {
		return nil, nil, apperr.InsufficientFunds("insufficient balance")
	}

	locked, err := lockWallets(ctx, r.Wallets(), sender.ID, recipient.ID)
	if err != nil {
		return nil, nil, err
	}
	from, to := locked[sender.ID], locked[recipient.ID]
	// Balance may have moved between the read above and the lock.
	if from.Balance.LessThan(amount) {
		return nil, nil, apperr.InsufficientFunds("insufficient balance")
	}

	debitRef, err := allocate(ctx, s.cfg.MaxAttempts, s.newReference, r.Transactions().ReferenceExists)
	if err != nil {
		return nil, nil, err
	}
	creditRef, err := allocate(ctx, s.cfg.MaxAttempts, s.newReference, func(ctx context.Context, ref string) (bool, error) {
		if ref == debitRef {
			return true, nil
		}
		return r.Transactions().ReferenceExists(ctx, ref)
	})
	if err != nil {
		return nil, nil, err
	}

	fromBalance := from.Balance.Sub(amount)
	toBalance := to.Balance.Add(amount)
	if err := r.Wallets().UpdateBalance(ctx, from.ID, fromBalance); err != nil {
		return nil, nil, err
	}
	if err := r.Wallets().UpdateBalance(ctx, to.ID, toBalance); err != nil {
		return nil, nil, err
	}
	debit := &models.WalletTransaction{
		WalletID:  from.ID,
		Type:      domain.TransactionTypeTransferDebit,
		Amount:    amount.Neg(),
		Reference: debitRef,
		Status:    domain.StatusSuccess,
	}
	credit := &models.WalletTransaction{
		WalletID:  to.ID,
		Type:      domain.TransactionTypeTransferCredit,
		Amount:    amount,
		Reference: creditRef,
		Status:    domain.StatusSuccess,
	}
	if err := r.Transactions().Create(ctx, debit, credit); err != nil {
		return nil, nil, err
	}

	events := []Event{
		{Type: domain.EventTransferDebit, OwnerID: from.OwnerID, WalletID: from.ID, Reference: debitRef, Amount: amount.Neg(), Balance: fromBalance},
		{Type: domain.EventTransferCredit, OwnerID: to.OwnerID, WalletID: to.ID, Reference: creditRef, Amount: amount, Balance: toBalance},
	}
	return &TransferResult{
		Reference:             debitRef,
		CreditReference:       creditRef,
		Amount:                amount,
		RecipientWalletNumber: to.WalletNumber,
	}, events, nil
}

// lockWallets takes row locks in ascending id order regardless of argument order.
func lockWallets(ctx context.Context, wallets repository.WalletStore, ids ...string) (map[string]*models.Wallet, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	out := make(map[string]*models.Wallet, len(sorted))
	for _, id := range sorted {
		if _, ok := out[id]; ok {
			continue
		}
		w, err := wallets.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, notFound(err, "wallet %s not found", id)
		}
		out[id] = w
	}
	return out, nil
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.KindOf(err))
}
