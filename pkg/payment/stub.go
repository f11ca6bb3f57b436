package payment

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StubProvider is a no-op provider for development. Every stub session verifies as paid.
type StubProvider struct{}

func (s *StubProvider) Initiate(ctx context.Context, req InitRequest) (*Session, error) {
	if _, err := ToMinor(req.Amount); err != nil {
		return nil, err
	}
	ref := fmt.Sprintf("stub_%d", time.Now().UnixNano())
	return &Session{
		Reference:   ref,
		RedirectURL: "https://checkout.invalid/" + ref,
	}, nil
}

// Verify returns no amount, so settlement credits the recorded deposit amount.
func (s *StubProvider) Verify(ctx context.Context, reference string) (*Verification, error) {
	if !strings.HasPrefix(reference, "stub_") {
		return &Verification{Reference: reference, Status: StatusFailed}, nil
	}
	now := time.Now().UTC()
	return &Verification{Reference: reference, Status: StatusSuccess, SettledAt: &now}, nil
}

var _ Provider = (*StubProvider)(nil)
