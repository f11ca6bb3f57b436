package repository

import (
	"context"
	"time"

	"walletledger/internal/domain"
	"walletledger/internal/models"

	"github.com/shopspring/decimal"
)

// WalletStore persists wallets. ForUpdate methods must run inside Store.WithinTx.
type WalletStore interface {
	GetByID(ctx context.Context, id string) (*models.Wallet, error)
	GetByOwner(ctx context.Context, ownerID string) (*models.Wallet, error)
	GetByNumber(ctx context.Context, number string) (*models.Wallet, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Wallet, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	Create(ctx context.Context, w *models.Wallet) error
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
}

type TransactionStore interface {
	Create(ctx context.Context, txs ...*models.WalletTransaction) error
	GetByReference(ctx context.Context, reference string) (*models.WalletTransaction, error)
	GetByReferenceForUpdate(ctx context.Context, reference string) (*models.WalletTransaction, error)
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]models.WalletTransaction, error)
	ListStalePending(ctx context.Context, typ domain.TransactionType, before time.Time, limit int) ([]models.WalletTransaction, error)
	Update(ctx context.Context, t *models.WalletTransaction) error
}

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
	GetByReferenceForUpdate(ctx context.Context, reference string) (*models.Payment, error)
	Update(ctx context.Context, p *models.Payment) error
}

type Repositories interface {
	Wallets() WalletStore
	Transactions() TransactionStore
	Payments() PaymentStore
}

// Store is the ledger's persistence boundary. Outside WithinTx reads see committed data only.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}
