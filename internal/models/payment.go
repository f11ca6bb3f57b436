package models

import (
	"time"

	"walletledger/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment mirrors the provider's view of one deposit attempt. Amount is in major units.
type Payment struct {
	ID        string          `gorm:"type:char(36);primaryKey" json:"id"`
	Reference string          `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	Email     string          `gorm:"size:255;not null" json:"email"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status    domain.Status   `gorm:"size:10;not null;index" json:"status"`
	PaidAt    *time.Time      `json:"paid_at"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
