package handler

import (
	"net/http"
	"strconv"

	"walletledger/internal/ledger"
	"walletledger/internal/middleware"
	"walletledger/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WalletHandler struct {
	svc    *ledger.Service
	logger *zap.Logger
}

func NewWalletHandler(svc *ledger.Service, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{svc: svc, logger: logger}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func walletJSON(w *models.Wallet) gin.H {
	return gin.H{
		"walletNumber": w.WalletNumber,
		"balance":      money(w.Balance),
		"createdAt":    w.CreatedAt,
	}
}

// Wallet returns the caller's wallet, creating it on first access.
func (h *WalletHandler) Wallet(c *gin.Context) {
	w, err := h.svc.EnsureWallet(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, walletJSON(w))
}

func (h *WalletHandler) Balance(c *gin.Context) {
	bal, err := h.svc.Balance(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": money(bal)})
}

// Deposit opens a provider checkout. The wallet is credited later by webhook or sweeper.
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.svc.Deposit(c.Request.Context(), middleware.GetUserID(c), middleware.GetEmail(c), req.Amount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"reference":   res.Reference,
		"redirectUrl": res.RedirectURL,
		"amount":      money(res.Amount),
	})
}

func (h *WalletHandler) DepositStatus(c *gin.Context) {
	st, err := h.svc.DepositStatus(c.Request.Context(), middleware.GetUserID(c), c.Param("reference"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reference": st.Reference,
		"status":    st.Status,
		"amount":    money(st.Amount),
	})
}

func (h *WalletHandler) Transactions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(ledger.DefaultHistoryLimit)))
	if err != nil {
		badRequest(c, "limit must be an integer")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		badRequest(c, "offset must be an integer")
		return
	}
	txs, err := h.svc.History(c.Request.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	items := make([]gin.H, 0, len(txs))
	for _, t := range txs {
		items = append(items, gin.H{
			"reference": t.Reference,
			"type":      t.Type,
			"amount":    money(t.Amount),
			"status":    t.Status,
			"createdAt": t.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"transactions": items})
}

func (h *WalletHandler) Transfer(c *gin.Context) {
	var req struct {
		WalletNumber string          `json:"walletNumber" binding:"required,walletnumber"`
		Amount       decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.svc.Transfer(c.Request.Context(), middleware.GetUserID(c), req.WalletNumber, req.Amount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reference": res.Reference,
		"amount":    money(res.Amount),
		"recipient": gin.H{"walletNumber": res.RecipientWalletNumber},
	})
}
