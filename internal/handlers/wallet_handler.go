package handlers

import (
	"net/http"
	"strings"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// WalletHandler handles balance, ledger and withdrawal requests
type WalletHandler struct {
	ledgerService     services.LedgerService
	withdrawalService services.WithdrawalService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(ledgerService services.LedgerService, withdrawalService services.WithdrawalService) *WalletHandler {
	return &WalletHandler{
		ledgerService:     ledgerService,
		withdrawalService: withdrawalService,
	}
}

// parseLedger reads ?ledger=, defaulting to CASH
func parseLedger(c *gin.Context) (models.LedgerKind, bool) {
	kind := models.LedgerKind(strings.ToUpper(c.DefaultQuery("ledger", string(models.LedgerCash))))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ledger must be CASH or CREDIT"})
		return "", false
	}
	return kind, true
}

// GetBalance handles GET /wallet
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	balances, err := h.ledgerService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balances)
}

// GetTransactions handles GET /wallet/transactions?ledger=
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	kind, ok := parseLedger(c)
	if !ok {
		return
	}
	transactions, err := h.ledgerService.History(c.Request.Context(), userID, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ledger": kind, "transactions": transactions})
}

// WithdrawalRequestBody is the body of POST /withdrawals
type WithdrawalRequestBody struct {
	Amount         int64             `json:"amount" binding:"required"`
	PaymentDetails map[string]string `json:"paymentDetails"`
}

// RequestWithdrawal handles POST /withdrawals
func (h *WalletHandler) RequestWithdrawal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var body WithdrawalRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	request, err := h.withdrawalService.Request(c.Request.Context(), userID, body.Amount, body.PaymentDetails)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// ListWithdrawals handles GET /withdrawals
func (h *WalletHandler) ListWithdrawals(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	requests, err := h.withdrawalService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": requests})
}

// ApproveWithdrawal handles POST /admin/withdrawals/:id/approve
func (h *WalletHandler) ApproveWithdrawal(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	request, err := h.withdrawalService.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// CompleteWithdrawal handles POST /admin/withdrawals/:id/complete
func (h *WalletHandler) CompleteWithdrawal(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	request, err := h.withdrawalService.Complete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// RejectWithdrawalBody is the body of POST /admin/withdrawals/:id/reject
type RejectWithdrawalBody struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectWithdrawal handles POST /admin/withdrawals/:id/reject
func (h *WalletHandler) RejectWithdrawal(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	var body RejectWithdrawalBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	request, err := h.withdrawalService.Reject(c.Request.Context(), id, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// AdjustmentBody is the body of POST /admin/users/:id/adjustments. Amount is signed.
type AdjustmentBody struct {
	Ledger models.LedgerKind `json:"ledger" binding:"required"`
	Amount int64             `json:"amount" binding:"required"`
	Reason string            `json:"reason" binding:"required"`
}

// AdjustBalance handles POST /admin/users/:id/adjustments
func (h *WalletHandler) AdjustBalance(c *gin.Context) {
	userID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	var body AdjustmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	body.Ledger = models.LedgerKind(strings.ToUpper(string(body.Ledger)))
	transaction, err := h.ledgerService.Adjust(c.Request.Context(), userID, body.Ledger, body.Amount, body.Reason, adminID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transaction)
}

// ReconcileLedger handles GET /admin/users/:id/reconcile?ledger=
func (h *WalletHandler) ReconcileLedger(c *gin.Context) {
	userID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	kind, ok := parseLedger(c)
	if !ok {
		return
	}
	report, err := h.ledgerService.Reconcile(c.Request.Context(), userID, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
