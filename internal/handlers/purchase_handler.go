package handlers

import (
	"net/http"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// PurchaseHandler handles checkout and settlement requests
type PurchaseHandler struct {
	purchaseService   services.PurchaseService
	settlementService services.SettlementService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService services.PurchaseService, settlementService services.SettlementService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService:   purchaseService,
		settlementService: settlementService,
	}
}

// CreatePurchase handles POST /purchases, sent by the payment collaborator once funds are authorized
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var purchase models.Purchase
	if err := c.ShouldBindJSON(&purchase); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if purchase.UserID.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	result, err := h.purchaseService.AllocateAndCreateEntry(c.Request.Context(), &purchase)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// SettleEntry handles POST /entries/:id/settle
func (h *PurchaseHandler) SettleEntry(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	settlement, err := h.settlementService.SettleInstantWins(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entryId":        id.Hex(),
		"results":        settlement.Results,
		"wins":           settlement.Wins(),
		"totalCashWon":   settlement.TotalCashWon,
		"totalCreditWon": settlement.TotalCreditWon,
		"settledAt":      settlement.SettledAt,
	})
}
