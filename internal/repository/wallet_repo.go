package repository

import (
	"context"

	"walletledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *WalletRepository) GetByOwner(ctx context.Context, ownerID string) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&w).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *WalletRepository) GetByNumber(ctx context.Context, number string) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.db.WithContext(ctx).Where("wallet_number = ?", number).First(&w).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

// GetByIDForUpdate locks the wallet row until the surrounding transaction ends.
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Wallet, error) {
	var w models.Wallet
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&w).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *WalletRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Wallet{}).Where("wallet_number = ?", number).Count(&n).Error; err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (r *WalletRepository) Create(ctx context.Context, w *models.Wallet) error {
	return translate(r.db.WithContext(ctx).Create(w).Error)
}

func (r *WalletRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return ErrNegativeBalance
	}
	res := r.db.WithContext(ctx).Model(&models.Wallet{}).Where("id = ?", id).Update("balance", balance)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
