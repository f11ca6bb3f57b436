package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore is the gorm-backed Store. Inside WithinTx every repository shares one transaction.
type SQLStore struct {
	db           *gorm.DB
	wallets      *WalletRepository
	transactions *TransactionRepository
	payments     *PaymentRepository
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{
		db:           db,
		wallets:      NewWalletRepository(db),
		transactions: NewTransactionRepository(db),
		payments:     NewPaymentRepository(db),
	}
}

func (s *SQLStore) Wallets() WalletStore           { return s.wallets }
func (s *SQLStore) Transactions() TransactionStore { return s.transactions }
func (s *SQLStore) Payments() PaymentStore         { return s.payments }

// WithinTx runs fn in one database transaction; a returned error or panic rolls everything back.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewSQLStore(tx))
	})
}

// forUpdate adds an exclusive row lock (SELECT ... FOR UPDATE).
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

var (
	_ Store            = (*SQLStore)(nil)
	_ WalletStore      = (*WalletRepository)(nil)
	_ TransactionStore = (*TransactionRepository)(nil)
	_ PaymentStore     = (*PaymentRepository)(nil)
)
