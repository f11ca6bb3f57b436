package handler

import (
	"errors"
	"net/http"

	"walletledger/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindInvalidArgument:   http.StatusBadRequest,
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindInsufficientFunds: http.StatusUnprocessableEntity,
	apperr.KindForbidden:         http.StatusForbidden,
	apperr.KindConflict:          http.StatusConflict,
	apperr.KindExternalService:   http.StatusBadGateway,
	apperr.KindInternal:          http.StatusInternalServerError,
}

func statusFor(kind apperr.Kind) int {
	if code, ok := statusByKind[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// respondError writes {"error":{"kind","message"}}. Internal causes are logged, never returned.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	msg := "internal error"
	var ae *apperr.Error
	if kind != apperr.KindInternal && errors.As(err, &ae) {
		msg = ae.Message
	}
	if kind == apperr.KindInternal || kind == apperr.KindExternalService {
		logger.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(statusFor(kind), gin.H{"error": gin.H{"kind": kind, "message": msg}})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": apperr.KindInvalidArgument, "message": msg}})
}
