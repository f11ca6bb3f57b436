package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Event describes a committed balance change for one owner.
type Event struct {
	Type       string          `json:"type"`
	OwnerID    string          `json:"owner_id"`
	WalletID   string          `json:"wallet_id"`
	Reference  string          `json:"reference"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Notifier receives events after commit. Delivery is best-effort; Notify must not block on I/O.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}

func (s *Service) emit(ctx context.Context, events ...Event) {
	for _, ev := range events {
		if ev.OccurredAt.IsZero() {
			ev.OccurredAt = s.now().UTC()
		}
		s.notifier.Notify(ctx, ev)
	}
}
