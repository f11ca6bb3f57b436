package handler

import (
	"io"
	"net/http"

	"walletledger/internal/ledger"
	"walletledger/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody caps what we read before the signature check.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	svc    *ledger.Service
	logger *zap.Logger
}

func NewWebhookHandler(svc *ledger.Service, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, logger: logger}
}

// Paystack verifies the signature over the exact raw bytes, so the body is never re-encoded.
func (h *WebhookHandler) Paystack(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "invalid body")
		return
	}
	outcome, err := h.svc.HandleNotification(c.Request.Context(), body, c.GetHeader(payment.SignatureHeader))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Debug("webhook handled", zap.String("outcome", string(outcome)))
	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}
