package repository

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"walletledger/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlRecorder captures statements built in dry-run mode.
type sqlRecorder struct {
	mu   sync.Mutex
	stmt []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface            { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})         {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})         {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{})        {}
func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	r.stmt = append(r.stmt, sql)
	r.mu.Unlock()
}

func (r *sqlRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stmt) == 0 {
		return ""
	}
	return r.stmt[len(r.stmt)-1]
}

func dryRunDB(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "wallet:wallet@tcp(127.0.0.1:3306)/wallet?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 rec,
	})
	require.NoError(t, err)
	return db, rec
}

func TestForUpdateQueriesTakeRowLocks(t *testing.T) {
	ctx := context.Background()
	db, rec := dryRunDB(t)
	s := NewSQLStore(db)

	tests := []struct {
		name  string
		run   func() error
		table string
	}{
		{"wallet", func() error { _, err := s.Wallets().GetByIDForUpdate(ctx, "w-1"); return err }, "`wallets`"},
		{"transaction", func() error {
			_, err := s.Transactions().GetByReferenceForUpdate(ctx, "ref-1")
			return err
		}, "`wallet_transactions`"},
		{"payment", func() error { _, err := s.Payments().GetByReferenceForUpdate(ctx, "ref-1"); return err }, "`payments`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.run())
			sql := rec.last()
			require.Contains(t, sql, tt.table)
			require.True(t, strings.HasSuffix(strings.TrimSpace(sql), "FOR UPDATE"), sql)
		})
	}
}

func TestPlainReadsDoNotLock(t *testing.T) {
	ctx := context.Background()
	db, rec := dryRunDB(t)
	s := NewSQLStore(db)

	_, err := s.Wallets().GetByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.NotContains(t, rec.last(), "FOR UPDATE")

	_, err = s.Transactions().ListByWallet(ctx, "w-1", 20, 40)
	require.NoError(t, err)
	sql := rec.last()
	require.NotContains(t, sql, "FOR UPDATE")
	require.Contains(t, sql, "ORDER BY created_at DESC,id DESC")
	require.Contains(t, sql, "LIMIT 20 OFFSET 40")
}

func TestListStalePendingQuery(t *testing.T) {
	db, rec := dryRunDB(t)
	s := NewSQLStore(db)

	_, err := s.Transactions().ListStalePending(context.Background(), domain.TransactionTypeDeposit, time.Now().Add(-5*time.Minute), 50)
	require.NoError(t, err)
	sql := rec.last()
	require.Contains(t, sql, "status = 'PENDING'")
	require.Contains(t, sql, "type = 'DEPOSIT'")
	require.Contains(t, sql, "ORDER BY created_at ASC")
	require.Contains(t, sql, "LIMIT 50")
}

func TestUpdateBalanceTargetsOneRow(t *testing.T) {
	db, rec := dryRunDB(t)
	s := NewSQLStore(db)

	// Dry run affects no rows.
	err := s.Wallets().UpdateBalance(context.Background(), "w-1", decimal.RequireFromString("60.00"))
	require.ErrorIs(t, err, ErrNotFound)
	sql := rec.last()
	require.Contains(t, sql, "UPDATE `wallets` SET `balance`=")
	require.Contains(t, sql, "WHERE id = 'w-1'")
}

func TestTranslate(t *testing.T) {
	require.NoError(t, translate(nil))
	require.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	require.ErrorIs(t, translate(gorm.ErrDuplicatedKey), ErrDuplicate)
	require.ErrorIs(t, translate(context.Canceled), context.Canceled)
}

func TestUpdateBalanceRejectsNegative(t *testing.T) {
	db, rec := dryRunDB(t)
	s := NewSQLStore(db)

	err := s.Wallets().UpdateBalance(context.Background(), "w-1", decimal.RequireFromString("-0.01"))
	require.ErrorIs(t, err, ErrNegativeBalance)
	require.Empty(t, rec.last(), "no statement is issued")
}
