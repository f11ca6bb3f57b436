package repository

import (
	"context"
	"time"

	"walletledger/internal/domain"
	"walletledger/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts all rows in one statement.
func (r *TransactionRepository) Create(ctx context.Context, txs ...*models.WalletTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Create(txs).Error)
}

func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*models.WalletTransaction, error) {
	var t models.WalletTransaction
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TransactionRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*models.WalletTransaction, error) {
	var t models.WalletTransaction
	if err := forUpdate(r.db.WithContext(ctx)).Where("reference = ?", reference).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TransactionRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("reference = ?", reference).Count(&n).Error; err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

// ListByWallet returns newest first.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]models.WalletTransaction, error) {
	var list []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, translate(err)
}

// ListStalePending returns pending rows of the given type created before cutoff, oldest first.
func (r *TransactionRepository) ListStalePending(ctx context.Context, typ domain.TransactionType, before time.Time, limit int) ([]models.WalletTransaction, error) {
	var list []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND type = ? AND created_at < ?", domain.StatusPending, typ, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, translate(err)
}

func (r *TransactionRepository) Update(ctx context.Context, t *models.WalletTransaction) error {
	return translate(r.db.WithContext(ctx).Save(t).Error)
}
