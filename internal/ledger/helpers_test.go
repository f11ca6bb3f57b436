package ledger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"walletledger/internal/models"
	"walletledger/internal/repository/memory"
	"walletledger/pkg/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testSecret = []byte("sk_test_secret")

type fakeProvider struct {
	initiateFn func(ctx context.Context, req payment.InitRequest) (*payment.Session, error)
	verifyFn   func(ctx context.Context, reference string) (*payment.Verification, error)

	seq         atomic.Int64
	initiated   atomic.Int64
	verifyCalls atomic.Int64
}

func (f *fakeProvider) Initiate(ctx context.Context, req payment.InitRequest) (*payment.Session, error) {
	f.initiated.Add(1)
	if f.initiateFn != nil {
		return f.initiateFn(ctx, req)
	}
	ref := fmt.Sprintf("dep_%d", f.seq.Add(1))
	return &payment.Session{Reference: ref, RedirectURL: "https://checkout.test/" + ref}, nil
}

func (f *fakeProvider) Verify(ctx context.Context, reference string) (*payment.Verification, error) {
	f.verifyCalls.Add(1)
	if f.verifyFn != nil {
		return f.verifyFn(ctx, reference)
	}
	return &payment.Verification{Reference: reference, Status: payment.StatusPending}, nil
}

var _ payment.Provider = (*fakeProvider)(nil)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}

type harness struct {
	svc      *Service
	store    *memory.Store
	provider *fakeProvider
	notifier *recordingNotifier
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		store:    memory.New(),
		provider: &fakeProvider{},
		notifier: &recordingNotifier{},
	}
	cfg := Config{
		WebhookSecret:   testSecret,
		MinDeposit:      decimal.NewFromInt(100),
		ProviderTimeout: time.Second,
		CallDelay:       time.Millisecond,
		CallTimeout:     200 * time.Millisecond,
	}
	opts = append([]Option{WithNotifier(h.notifier)}, opts...)
	h.svc = NewService(h.store, h.provider, zaptest.NewLogger(t), cfg, opts...)
	return h
}

func (h *harness) wallet(t *testing.T, owner, number string, balance int64) *models.Wallet {
	t.Helper()
	w := &models.Wallet{OwnerID: owner, WalletNumber: number, Balance: decimal.NewFromInt(balance)}
	require.NoError(t, h.store.Wallets().Create(context.Background(), w))
	return w
}

func (h *harness) balance(t *testing.T, owner string) decimal.Decimal {
	t.Helper()
	b, err := h.svc.Balance(context.Background(), owner)
	require.NoError(t, err)
	return b
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}
