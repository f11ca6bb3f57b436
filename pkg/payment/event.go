package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// Event is a parsed webhook notification with Amount in major units.
type Event struct {
	Type      string
	Reference string
	Status    Status
	Amount    decimal.Decimal
	Email     string
	PaidAt    *time.Time
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Status    string `json:"status"`
		PaidAt    string `json:"paid_at"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

func ParseEvent(raw []byte) (*Event, error) {
	var p webhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	if p.Event == "" {
		return nil, fmt.Errorf("decode webhook: missing event")
	}
	return &Event{
		Type:      p.Event,
		Reference: p.Data.Reference,
		Status:    mapStatus(p.Data.Status),
		Amount:    FromMinor(p.Data.Amount),
		Email:     p.Data.Customer.Email,
		PaidAt:    parseTime(p.Data.PaidAt),
	}, nil
}
