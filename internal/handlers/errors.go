package handlers

import (
	"errors"
	"net/http"

	"github.com/ArowuTest/competitions-backend/internal/middleware"
	"github.com/ArowuTest/competitions-backend/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// statusFor maps a service error onto an HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrCompetitionNotFound),
		errors.Is(err, services.ErrEntryNotFound),
		errors.Is(err, services.ErrWithdrawalNotFound):
		return http.StatusNotFound

	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidPolicy),
		errors.Is(err, services.ErrInvalidCompetition),
		errors.Is(err, services.ErrInvalidPurchase),
		errors.Is(err, services.ErrInvalidLedger),
		errors.Is(err, services.ErrPaymentMismatch):
		return http.StatusBadRequest

	case errors.Is(err, services.ErrInsufficientFunds):
		return http.StatusPaymentRequired

	case errors.Is(err, services.ErrNumberSpaceExhausted):
		return http.StatusUnprocessableEntity

	case errors.Is(err, services.ErrCapacityExceeded),
		errors.Is(err, services.ErrCompetitionClosed),
		errors.Is(err, services.ErrPoolAlreadyInUse),
		errors.Is(err, services.ErrAlreadyDrawn),
		errors.Is(err, services.ErrNoEntries),
		errors.Is(err, services.ErrDrawFinalized),
		errors.Is(err, services.ErrNotDrawn),
		errors.Is(err, services.ErrPaymentIncomplete),
		errors.Is(err, services.ErrInvalidWithdrawalState):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": reason}. Domain errors carry their own message;
// anything unrecognised is logged and reported generically.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "path", c.FullPath(), "requestId", c.GetString("RequestID"), "error", err)
		message := "Internal server error"
		if errors.Is(err, services.ErrCorruptState) {
			message = err.Error()
		}
		c.JSON(status, gin.H{"error": message})
		return
	}
	c.JSON(status, gin.H{"error": errorMessage(err)})
}

// errorMessage prefers the typed error's own text, e.g. "only 12 tickets remaining".
func errorMessage(err error) string {
	var capacity *services.CapacityError
	if errors.As(err, &capacity) {
		return capacity.Error()
	}
	var funds *services.InsufficientFundsError
	if errors.As(err, &funds) {
		return funds.Error()
	}
	return err.Error()
}

func parseObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// currentUser reads the authenticated user id set by the auth middleware.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token subject is not a user id"})
		return primitive.NilObjectID, false
	}
	return id, true
}
