// Package ledger moves value between wallets and reconciles deposits with the payment provider.
//
// Lock order: payment row, then ledger transaction row, then wallet rows in
// ascending id. Transfers lock wallet rows only; settlements lock at most one
// wallet. No operation acquires these in any other order.
package ledger

import (
	"errors"
	"time"

	"walletledger/internal/apperr"
	"walletledger/internal/repository"
	"walletledger/pkg/payment"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Config struct {
	WebhookSecret   []byte
	MinDeposit      decimal.Decimal
	ProviderTimeout time.Duration
	GraceWindow     time.Duration
	BatchSize       int
	CallDelay       time.Duration
	CallTimeout     time.Duration
	// MaxAttempts bounds reference and wallet number generation.
	MaxAttempts int
}

func (c *Config) setDefaults() {
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = 30 * time.Second
	}
	if c.GraceWindow <= 0 {
		c.GraceWindow = 5 * time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.CallDelay < 0 {
		c.CallDelay = 0
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 15 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
}

type Service struct {
	store    repository.Store
	provider payment.Provider
	notifier Notifier
	logger   *zap.Logger
	cfg      Config

	newReference    func() string
	newWalletNumber func() string
	now             func() time.Time
	pacer           *rate.Limiter
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithReferenceGenerator(gen func() string) Option {
	return func(s *Service) { s.newReference = gen }
}

func WithWalletNumberGenerator(gen func() string) Option {
	return func(s *Service) { s.newWalletNumber = gen }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store repository.Store, provider payment.Provider, logger *zap.Logger, cfg Config, opts ...Option) *Service {
	cfg.setDefaults()
	s := &Service{
		store:           store,
		provider:        provider,
		notifier:        nopNotifier{},
		logger:          logger,
		cfg:             cfg,
		newReference:    NewReference,
		newWalletNumber: NewWalletNumber,
		now:             time.Now,
	}
	limit := rate.Inf
	if cfg.CallDelay > 0 {
		limit = rate.Every(cfg.CallDelay)
	}
	s.pacer = rate.NewLimiter(limit, 1)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// asAppErr keeps *apperr.Error values and wraps anything else as Internal.
func asAppErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, repository.ErrNegativeBalance) {
		return apperr.InsufficientFunds("insufficient balance")
	}
	return apperr.Internal(err, "%s failed", op)
}

// notFound maps repository.ErrNotFound to a NotFound error with the given message.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(format, args...)
	}
	return err
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.InvalidArgument("amount must be greater than zero")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return apperr.InvalidArgument("amount must have at most two decimal places")
	}
	return nil
}
