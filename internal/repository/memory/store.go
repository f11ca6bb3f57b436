// Package memory is an in-process repository.Store with row-level locking.
//
// Rows locked through a ForUpdate method stay locked until the enclosing
// WithinTx returns. Writes made inside WithinTx apply immediately and are
// undone in reverse order when fn fails, so reads outside a transaction can
// observe uncommitted state.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"walletledger/internal/domain"
	"walletledger/internal/models"
	"walletledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type txRow struct {
	row models.WalletTransaction
	seq int64
}

type Store struct {
	mu       sync.RWMutex
	wallets  map[string]*models.Wallet
	txs      map[string]*txRow
	payments map[string]*models.Payment
	seq      int64

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
	history [][]string
}

func New() *Store {
	return &Store{
		wallets:  make(map[string]*models.Wallet),
		txs:      make(map[string]*txRow),
		payments: make(map[string]*models.Payment),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Store) Wallets() repository.WalletStore           { return &walletRepo{s: s} }
func (s *Store) Transactions() repository.TransactionStore { return &txRepo{s: s} }
func (s *Store) Payments() repository.PaymentStore         { return &paymentRepo{s: s} }

type tx struct {
	held  map[string]*sync.Mutex
	order []string
	undo  []func()
}

type txRepos struct {
	s  *Store
	tx *tx
}

func (r *txRepos) Wallets() repository.WalletStore { return &walletRepo{s: r.s, tx: r.tx} }
func (r *txRepos) Transactions() repository.TransactionStore {
	return &txRepo{s: r.s, tx: r.tx}
}
func (r *txRepos) Payments() repository.PaymentStore { return &paymentRepo{s: r.s, tx: r.tx} }

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repositories) error) (err error) {
	t := &tx{held: make(map[string]*sync.Mutex)}
	defer s.release(t)
	defer func() {
		if p := recover(); p != nil {
			s.rollback(t)
			panic(p)
		}
	}()
	if err = fn(&txRepos{s: s, tx: t}); err != nil {
		s.rollback(t)
	}
	return err
}

// LockHistory returns, per finished transaction, the row lock keys in acquisition order.
func (s *Store) LockHistory() [][]string {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	out := make([][]string, len(s.history))
	for i, h := range s.history {
		out[i] = append([]string(nil), h...)
	}
	return out
}

func (s *Store) lock(t *tx, key string) {
	if t == nil {
		return
	}
	if _, ok := t.held[key]; ok {
		return
	}
	s.locksMu.Lock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	s.locksMu.Unlock()
	m.Lock()
	t.held[key] = m
	t.order = append(t.order, key)
}

func (s *Store) release(t *tx) {
	if len(t.order) > 0 {
		s.locksMu.Lock()
		s.history = append(s.history, t.order)
		s.locksMu.Unlock()
	}
	for i := len(t.order) - 1; i >= 0; i-- {
		t.held[t.order[i]].Unlock()
	}
}

func (s *Store) rollback(t *tx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// record must be called with s.mu held.
func record(t *tx, undo func()) {
	if t != nil {
		t.undo = append(t.undo, undo)
	}
}

func stamp(created *time.Time, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

type walletRepo struct {
	s  *Store
	tx *tx
}

func (r *walletRepo) find(match func(*models.Wallet) bool) (*models.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, w := range r.s.wallets {
		if match(w) {
			cp := *w
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *walletRepo) GetByID(_ context.Context, id string) (*models.Wallet, error) {
	return r.find(func(w *models.Wallet) bool { return w.ID == id })
}

func (r *walletRepo) GetByOwner(_ context.Context, ownerID string) (*models.Wallet, error) {
	return r.find(func(w *models.Wallet) bool { return w.OwnerID == ownerID })
}

func (r *walletRepo) GetByNumber(_ context.Context, number string) (*models.Wallet, error) {
	return r.find(func(w *models.Wallet) bool { return w.WalletNumber == number })
}

func (r *walletRepo) GetByIDForUpdate(_ context.Context, id string) (*models.Wallet, error) {
	r.s.lock(r.tx, "wallet:"+id)
	return r.find(func(w *models.Wallet) bool { return w.ID == id })
}

func (r *walletRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	_, err := r.GetByNumber(ctx, number)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *walletRepo) Create(_ context.Context, w *models.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	for _, existing := range r.s.wallets {
		if existing.ID == w.ID || existing.OwnerID == w.OwnerID || existing.WalletNumber == w.WalletNumber {
			return fmt.Errorf("wallet %s: %w", w.ID, repository.ErrDuplicate)
		}
	}
	stamp(&w.CreatedAt, &w.UpdatedAt)
	cp := *w
	r.s.wallets[w.ID] = &cp
	id := w.ID
	record(r.tx, func() { delete(r.s.wallets, id) })
	return nil
}

func (r *walletRepo) UpdateBalance(_ context.Context, id string, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return repository.ErrNegativeBalance
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[id]
	if !ok {
		return repository.ErrNotFound
	}
	prev := *w
	w.Balance = balance
	w.UpdatedAt = time.Now().UTC()
	record(r.tx, func() { *r.s.wallets[id] = prev })
	return nil
}

type txRepo struct {
	s  *Store
	tx *tx
}

func (r *txRepo) Create(_ context.Context, txs ...*models.WalletTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[string]bool, len(txs))
	for _, t := range txs {
		if seen[t.Reference] {
			return fmt.Errorf("reference %s: %w", t.Reference, repository.ErrDuplicate)
		}
		seen[t.Reference] = true
		for _, existing := range r.s.txs {
			if existing.row.Reference == t.Reference || (t.ID != "" && existing.row.ID == t.ID) {
				return fmt.Errorf("reference %s: %w", t.Reference, repository.ErrDuplicate)
			}
		}
	}
	for _, t := range txs {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		stamp(&t.CreatedAt, &t.UpdatedAt)
		r.s.seq++
		r.s.txs[t.ID] = &txRow{row: *t, seq: r.s.seq}
		id := t.ID
		record(r.tx, func() { delete(r.s.txs, id) })
	}
	return nil
}

func (r *txRepo) find(match func(*models.WalletTransaction) bool) (*models.WalletTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.txs {
		if match(&t.row) {
			cp := t.row
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *txRepo) GetByReference(_ context.Context, reference string) (*models.WalletTransaction, error) {
	return r.find(func(t *models.WalletTransaction) bool { return t.Reference == reference })
}

func (r *txRepo) GetByReferenceForUpdate(ctx context.Context, reference string) (*models.WalletTransaction, error) {
	r.s.lock(r.tx, "transaction:"+reference)
	return r.GetByReference(ctx, reference)
}

func (r *txRepo) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	_, err := r.GetByReference(ctx, reference)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *txRepo) collect(match func(*models.WalletTransaction) bool) []*txRow {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var rows []*txRow
	for _, t := range r.s.txs {
		if match(&t.row) {
			cp := *t
			rows = append(rows, &cp)
		}
	}
	return rows
}

func (r *txRepo) ListByWallet(_ context.Context, walletID string, limit, offset int) ([]models.WalletTransaction, error) {
	rows := r.collect(func(t *models.WalletTransaction) bool { return t.WalletID == walletID })
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].row.CreatedAt.Equal(rows[j].row.CreatedAt) {
			return rows[i].row.CreatedAt.After(rows[j].row.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	return page(rows, limit, offset), nil
}

func (r *txRepo) ListStalePending(_ context.Context, typ domain.TransactionType, before time.Time, limit int) ([]models.WalletTransaction, error) {
	rows := r.collect(func(t *models.WalletTransaction) bool {
		return t.Status == domain.StatusPending && t.Type == typ && t.CreatedAt.Before(before)
	})
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].row.CreatedAt.Equal(rows[j].row.CreatedAt) {
			return rows[i].row.CreatedAt.Before(rows[j].row.CreatedAt)
		}
		return rows[i].seq < rows[j].seq
	})
	return page(rows, limit, 0), nil
}

func page(rows []*txRow, limit, offset int) []models.WalletTransaction {
	if offset > len(rows) {
		offset = len(rows)
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]models.WalletTransaction, 0, end-offset)
	for _, t := range rows[offset:end] {
		out = append(out, t.row)
	}
	return out
}

func (r *txRepo) Update(_ context.Context, t *models.WalletTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.txs[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	prev := existing.row
	t.UpdatedAt = time.Now().UTC()
	existing.row = *t
	id := t.ID
	record(r.tx, func() { r.s.txs[id].row = prev })
	return nil
}

type paymentRepo struct {
	s  *Store
	tx *tx
}

func (r *paymentRepo) Create(_ context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	for _, existing := range r.s.payments {
		if existing.ID == p.ID || existing.Reference == p.Reference {
			return fmt.Errorf("payment %s: %w", p.Reference, repository.ErrDuplicate)
		}
	}
	stamp(&p.CreatedAt, &p.UpdatedAt)
	cp := *p
	r.s.payments[p.ID] = &cp
	id := p.ID
	record(r.tx, func() { delete(r.s.payments, id) })
	return nil
}

func (r *paymentRepo) GetByReference(_ context.Context, reference string) (*models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.payments {
		if p.Reference == reference {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *paymentRepo) GetByReferenceForUpdate(ctx context.Context, reference string) (*models.Payment, error) {
	r.s.lock(r.tx, "payment:"+reference)
	return r.GetByReference(ctx, reference)
}

func (r *paymentRepo) Update(_ context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.payments[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	prev := *existing
	p.UpdatedAt = time.Now().UTC()
	*existing = *p
	id := p.ID
	record(r.tx, func() { *r.s.payments[id] = prev })
	return nil
}

var _ repository.Store = (*Store)(nil)
