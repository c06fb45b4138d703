package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// CompetitionHandler handles competition, prize pool and draw requests
type CompetitionHandler struct {
	competitionService services.CompetitionService
	prizePoolService   services.PrizePoolService
	drawService        services.DrawService
}

// NewCompetitionHandler creates a new CompetitionHandler
func NewCompetitionHandler(
	competitionService services.CompetitionService,
	prizePoolService services.PrizePoolService,
	drawService services.DrawService,
) *CompetitionHandler {
	return &CompetitionHandler{
		competitionService: competitionService,
		prizePoolService:   prizePoolService,
		drawService:        drawService,
	}
}

// CreateCompetitionRequest is the body of POST /admin/competitions
type CreateCompetitionRequest struct {
	Title       string    `json:"title" binding:"required"`
	MaxTickets  int       `json:"maxTickets" binding:"required"`
	TicketPrice int64     `json:"ticketPrice" binding:"required"`
	EndDate     time.Time `json:"endDate" binding:"required"`
}

// CreateCompetition handles POST /admin/competitions
func (h *CompetitionHandler) CreateCompetition(c *gin.Context) {
	var request CreateCompetitionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	competition, err := h.competitionService.Create(c.Request.Context(), &models.Competition{
		Title:       request.Title,
		MaxTickets:  request.MaxTickets,
		TicketPrice: request.TicketPrice,
		EndDate:     request.EndDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, competition)
}

// GetCompetition handles GET /competitions/:id
func (h *CompetitionHandler) GetCompetition(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	competition, err := h.competitionService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"competition":      competition,
		"remainingTickets": competition.RemainingTickets(),
		"isOpen":           competition.IsOpen(time.Now()),
	})
}

// ActivateCompetition handles POST /admin/competitions/:id/activate
func (h *CompetitionHandler) ActivateCompetition(c *gin.Context) {
	h.setActive(c, true)
}

// DeactivateCompetition handles POST /admin/competitions/:id/deactivate
func (h *CompetitionHandler) DeactivateCompetition(c *gin.Context) {
	h.setActive(c, false)
}

func (h *CompetitionHandler) setActive(c *gin.Context, active bool) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	var (
		competition *models.Competition
		err         error
	)
	if active {
		competition, err = h.competitionService.Activate(c.Request.Context(), id)
	} else {
		competition, err = h.competitionService.Deactivate(c.Request.Context(), id)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, competition)
}

// GeneratePrizePool handles POST /admin/competitions/:id/prize-pool
func (h *CompetitionHandler) GeneratePrizePool(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	var policy models.PoolPolicy
	if err := c.ShouldBindJSON(&policy); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	summary, err := h.prizePoolService.GeneratePool(c.Request.Context(), id, policy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// GetInstantWins handles GET /competitions/:id/instant-wins. Unclaimed winning
// numbers are never part of the response.
func (h *CompetitionHandler) GetInstantWins(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	summary, err := h.prizePoolService.GetPool(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExecuteDraw handles POST /admin/competitions/:id/draw
func (h *CompetitionHandler) ExecuteDraw(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	result, err := h.drawService.Draw(c.Request.Context(), id)
	if errors.Is(err, services.ErrAlreadyDrawn) && result != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "draw": result})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draw executed successfully", "draw": result})
}

// ClearWinnerRequest is the optional body of DELETE /admin/competitions/:id/winner
type ClearWinnerRequest struct {
	Reason string `json:"reason"`
}

// ClearWinner handles DELETE /admin/competitions/:id/winner
func (h *CompetitionHandler) ClearWinner(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	var request ClearWinnerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if request.Reason == "" {
		request.Reason = c.Query("reason")
	}
	if err := h.drawService.ClearWinner(c.Request.Context(), id, request.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Winner cleared"})
}

// FinalizeDraw handles POST /admin/competitions/:id/draw/finalize
func (h *CompetitionHandler) FinalizeDraw(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	result, err := h.drawService.FinalizeDraw(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draw finalized", "draw": result})
}

// GetDraw handles GET /admin/competitions/:id/draw
func (h *CompetitionHandler) GetDraw(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	result, record, err := h.drawService.GetDraw(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draw": result, "record": record})
}
