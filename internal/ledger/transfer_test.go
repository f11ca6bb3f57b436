package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"walletledger/internal/apperr"
	"walletledger/internal/domain"

	"github.com/stretchr/testify/require"
)

const (
	numberA = "4500000000001"
	numberB = "4500000000002"
	numberC = "4500000000003"
)

func TestTransferMovesBalance(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.wallet(t, "alice", numberA, 10000)
	b := h.wallet(t, "bob", numberB, 0)

	res, err := h.svc.Transfer(ctx, "alice", numberB, dec("4000"))
	require.NoError(t, err)
	require.Equal(t, numberB, res.RecipientWalletNumber)
	requireAmount(t, "4000", res.Amount)
	require.NotEqual(t, res.Reference, res.CreditReference)

	requireAmount(t, "6000", h.balance(t, "alice"))
	requireAmount(t, "4000", h.balance(t, "bob"))

	debits, err := h.store.Transactions().ListByWallet(ctx, a.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, debits, 1)
	require.Equal(t, domain.TransactionTypeTransferDebit, debits[0].Type)
	require.Equal(t, domain.StatusSuccess, debits[0].Status)
	requireAmount(t, "-4000", debits[0].Amount)
	require.Equal(t, res.Reference, debits[0].Reference)

	credits, err := h.store.Transactions().ListByWallet(ctx, b.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, credits, 1)
	require.Equal(t, domain.TransactionTypeTransferCredit, credits[0].Type)
	requireAmount(t, "4000", credits[0].Amount)
	require.Equal(t, res.CreditReference, credits[0].Reference)

	events := h.notifier.Events()
	require.Len(t, events, 2)
	require.Equal(t, domain.EventTransferDebit, events[0].Type)
	require.Equal(t, "alice", events[0].OwnerID)
	requireAmount(t, "6000", events[0].Balance)
	require.Equal(t, domain.EventTransferCredit, events[1].Type)
	require.Equal(t, "bob", events[1].OwnerID)
}

func TestTransferValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.wallet(t, "alice", numberA, 500)
	h.wallet(t, "bob", numberB, 0)

	tests := []struct {
		name   string
		owner  string
		number string
		amount string
		kind   apperr.Kind
	}{
		{"zero amount", "alice", numberB, "0", apperr.KindInvalidArgument},
		{"negative amount", "alice", numberB, "-5", apperr.KindInvalidArgument},
		{"sub-kobo amount", "alice", numberB, "1.001", apperr.KindInvalidArgument},
		{"short number", "alice", "45123", "10", apperr.KindInvalidArgument},
		{"wrong prefix", "alice", "4600000000002", "10", apperr.KindInvalidArgument},
		{"self transfer", "alice", numberA, "10", apperr.KindInvalidArgument},
		{"unknown sender", "carol", numberB, "10", apperr.KindNotFound},
		{"unknown recipient", "alice", numberC, "10", apperr.KindNotFound},
		{"insufficient", "alice", numberB, "500.01", apperr.KindInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Transfer(ctx, tt.owner, tt.number, dec(tt.amount))
			require.Error(t, err)
			require.Equal(t, tt.kind, apperr.KindOf(err), err.Error())
		})
	}

	requireAmount(t, "500", h.balance(t, "alice"))
	requireAmount(t, "0", h.balance(t, "bob"))
	require.Empty(t, h.notifier.Events())
}

func TestTransferWholeBalance(t *testing.T) {
	h := newHarness(t)
	h.wallet(t, "alice", numberA, 250)
	h.wallet(t, "bob", numberB, 0)

	_, err := h.svc.Transfer(context.Background(), "alice", numberB, dec("250"))
	require.NoError(t, err)
	requireAmount(t, "0", h.balance(t, "alice"))
	requireAmount(t, "250", h.balance(t, "bob"))
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.wallet(t, "alice", numberA, 1000)
	h.wallet(t, "bob", numberB, 0)

	const attempts = 25
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Transfer(ctx, "alice", numberB, dec("100"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.Equal(t, apperr.KindInsufficientFunds, apperr.KindOf(err), err.Error())
	}
	require.Equal(t, 10, succeeded)
	requireAmount(t, "0", h.balance(t, "alice"))
	requireAmount(t, "1000", h.balance(t, "bob"))
}

func TestCrossTransfersDoNotDeadlock(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.wallet(t, "alice", numberA, 5000)
	h.wallet(t, "bob", numberB, 5000)

	const rounds = 40
	var wg sync.WaitGroup
	errs := make(chan error, 2*rounds)
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := h.svc.Transfer(ctx, "alice", numberB, dec("30"))
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := h.svc.Transfer(ctx, "bob", numberA, dec("10"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	requireAmount(t, "4200", h.balance(t, "alice"))
	requireAmount(t, "5800", h.balance(t, "bob"))

	// Every transaction that locked two wallets did so in ascending key order.
	for _, keys := range h.store.LockHistory() {
		var wallets []string
		for _, k := range keys {
			if strings.HasPrefix(k, "wallet:") {
				wallets = append(wallets, k)
			}
		}
		require.Len(t, wallets, 2)
		require.True(t, sort.StringsAreSorted(wallets), wallets)
	}
}

func TestTransferConservesTotal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.wallet(t, "alice", numberA, 300)
	h.wallet(t, "bob", numberB, 200)
	h.wallet(t, "carol", numberC, 100)

	moves := []struct {
		from, to, amount string
	}{
		{"alice", numberB, "120.50"},
		{"bob", numberC, "300"},
		{"carol", numberA, "50.25"},
		{"alice", numberC, "1000"},
	}
	for _, m := range moves {
		_, _ = h.svc.Transfer(ctx, m.from, m.to, dec(m.amount))
	}

	total := h.balance(t, "alice").Add(h.balance(t, "bob")).Add(h.balance(t, "carol"))
	requireAmount(t, "600", total)
	for _, owner := range []string{"alice", "bob", "carol"} {
		require.False(t, h.balance(t, owner).IsNegative(), owner)
	}
}

func TestTransferReferenceExhaustionIsConflict(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, WithReferenceGenerator(func() string { return "trf_fixed" }))
	h.wallet(t, "alice", numberA, 1000)
	h.wallet(t, "bob", numberB, 0)

	// The first transfer takes trf_fixed for its debit leg and cannot find a second value.
	_, err := h.svc.Transfer(ctx, "alice", numberB, dec("10"))
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	requireAmount(t, "1000", h.balance(t, "alice"))
	requireAmount(t, "0", h.balance(t, "bob"))
}
