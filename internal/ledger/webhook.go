package ledger

import (
	"context"

	"walletledger/internal/apperr"
	"walletledger/pkg/payment"

	"go.uber.org/zap"
)

// HandleNotification authenticates a provider webhook over the exact bytes received and finalizes
// the referenced deposit. Unknown event types are acknowledged with OutcomeIgnored.
func (s *Service) HandleNotification(ctx context.Context, raw []byte, signature string) (Outcome, error) {
	if !payment.VerifySignature(s.cfg.WebhookSecret, raw, signature) {
		s.logger.Warn("webhook signature mismatch", zap.Int("bytes", len(raw)))
		return "", apperr.Forbidden("invalid webhook signature")
	}
	ev, err := payment.ParseEvent(raw)
	if err != nil {
		return "", apperr.InvalidArgument("malformed webhook payload")
	}

	var status payment.Status
	switch ev.Type {
	case payment.EventChargeSuccess:
		status = payment.StatusSuccess
	case payment.EventChargeFailed:
		status = payment.StatusFailed
	default:
		s.logger.Info("ignoring webhook event", zap.String("event", ev.Type), zap.String("reference", ev.Reference))
		return OutcomeIgnored, nil
	}
	if ev.Reference == "" {
		return "", apperr.InvalidArgument("webhook event has no reference")
	}

	return s.finalize(ctx, "webhook", settlement{
		Reference: ev.Reference,
		Status:    status,
		Amount:    ev.Amount,
		SettledAt: ev.PaidAt,
	})
}
