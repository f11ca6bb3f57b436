package models

import (
	"time"

	"walletledger/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletTransaction is one ledger row. Rows are never deleted; only Status changes.
type WalletTransaction struct {
	ID        string                 `gorm:"type:char(36);primaryKey" json:"id"`
	WalletID  string                 `gorm:"type:char(36);not null;index" json:"wallet_id"`
	Type      domain.TransactionType `gorm:"size:20;not null;index:idx_wallet_tx_sweep,priority:2" json:"type"`
	Amount    decimal.Decimal        `gorm:"type:decimal(15,2);not null" json:"amount"` // positive = credit, negative = debit
	Reference string                 `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	Status    domain.Status          `gorm:"size:10;not null;index:idx_wallet_tx_sweep,priority:1" json:"status"`
	CreatedAt time.Time              `gorm:"index:idx_wallet_tx_sweep,priority:3" json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`

	Wallet Wallet `gorm:"foreignKey:WalletID;constraint:OnDelete:CASCADE" json:"-"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

func (t *WalletTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
