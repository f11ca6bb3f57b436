package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Wallet struct {
	ID           string          `gorm:"type:char(36);primaryKey" json:"id"`
	OwnerID      string          `gorm:"size:64;uniqueIndex;not null" json:"owner_id"`
	WalletNumber string          `gorm:"size:13;uniqueIndex;not null" json:"wallet_number"`
	Balance      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0;check:chk_wallets_balance_non_negative,balance >= 0" json:"balance"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
