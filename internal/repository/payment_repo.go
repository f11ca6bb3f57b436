package repository

import (
	"context"

	"walletledger/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PaymentRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*models.Payment, error) {
	var p models.Payment
	if err := forUpdate(r.db.WithContext(ctx)).Where("reference = ?", reference).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *models.Payment) error {
	return translate(r.db.WithContext(ctx).Save(p).Error)
}
