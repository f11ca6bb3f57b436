// Package payment is the boundary to the external payment provider.
//
// Amounts crossing this package are in major units (naira). The provider
// speaks minor units (kobo); conversion happens only here, in FromMinor and
// ToMinor.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

var ErrProvider = errors.New("payment provider error")

type InitRequest struct {
	Email       string
	Amount      decimal.Decimal
	CallbackURL string
}

// Session is an opened checkout the payer completes through RedirectURL.
type Session struct {
	Reference   string
	RedirectURL string
	AccessCode  string
}

type Verification struct {
	Reference string
	Status    Status
	Amount    decimal.Decimal
	SettledAt *time.Time
}

type Provider interface {
	Initiate(ctx context.Context, req InitRequest) (*Session, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
}

// mapStatus folds provider transaction states onto pending/success/failed.
func mapStatus(s string) Status {
	switch s {
	case "success":
		return StatusSuccess
	case "failed", "abandoned", "reversed":
		return StatusFailed
	default:
		return StatusPending
	}
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
