package routes

import (
	"net/http"

	"github.com/ArowuTest/competitions-backend/internal/handlers"
	"github.com/ArowuTest/competitions-backend/internal/metrics"
	"github.com/ArowuTest/competitions-backend/internal/middleware"
	"github.com/ArowuTest/competitions-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// HandlerDependencies holds all handler dependencies
type HandlerDependencies struct {
	PurchaseHandler    *handlers.PurchaseHandler
	CompetitionHandler *handlers.CompetitionHandler
	WalletHandler      *handlers.WalletHandler
	Tokens             *jwt.TokenService
	PurchaseLimiter    *middleware.RateLimiter
	AllowedHosts       []string
}

// SetupRouter sets up the router
func SetupRouter(deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(deps.AllowedHosts))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		public.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(deps.Tokens))

	// Payment collaborator
	payment := protected.Group("")
	payment.Use(middleware.RequireRole(jwt.RolePayment))
	{
		purchase := []gin.HandlerFunc{deps.PurchaseHandler.CreatePurchase}
		if deps.PurchaseLimiter != nil {
			purchase = append([]gin.HandlerFunc{deps.PurchaseLimiter.Handler()}, purchase...)
		}
		payment.POST("/purchases", purchase...)
	}

	// Users
	users := protected.Group("")
	users.Use(middleware.RequireRole(jwt.RoleUser, jwt.RoleAdmin))
	{
		users.GET("/wallet", deps.WalletHandler.GetBalance)
		users.GET("/wallet/transactions", deps.WalletHandler.GetTransactions)
		users.GET("/withdrawals", deps.WalletHandler.ListWithdrawals)
		users.POST("/withdrawals", deps.WalletHandler.RequestWithdrawal)
		users.POST("/entries/:id/settle", deps.PurchaseHandler.SettleEntry)
		users.GET("/competitions/:id", deps.CompetitionHandler.GetCompetition)
		users.GET("/competitions/:id/instant-wins", deps.CompetitionHandler.GetInstantWins)
	}

	// Admin
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(jwt.RoleAdmin))
	{
		competitions := admin.Group("/competitions")
		{
			competitions.POST("", deps.CompetitionHandler.CreateCompetition)
			competitions.POST("/:id/activate", deps.CompetitionHandler.ActivateCompetition)
			competitions.POST("/:id/deactivate", deps.CompetitionHandler.DeactivateCompetition)
			competitions.POST("/:id/prize-pool", deps.CompetitionHandler.GeneratePrizePool)
			competitions.POST("/:id/draw", deps.CompetitionHandler.ExecuteDraw)
			competitions.GET("/:id/draw", deps.CompetitionHandler.GetDraw)
			competitions.POST("/:id/draw/finalize", deps.CompetitionHandler.FinalizeDraw)
			competitions.DELETE("/:id/winner", deps.CompetitionHandler.ClearWinner)
		}

		withdrawals := admin.Group("/withdrawals")
		{
			withdrawals.POST("/:id/approve", deps.WalletHandler.ApproveWithdrawal)
			withdrawals.POST("/:id/complete", deps.WalletHandler.CompleteWithdrawal)
			withdrawals.POST("/:id/reject", deps.WalletHandler.RejectWithdrawal)
		}

		adminUsers := admin.Group("/users")
		{
			adminUsers.POST("/:id/adjustments", deps.WalletHandler.AdjustBalance)
			adminUsers.GET("/:id/reconcile", deps.WalletHandler.ReconcileLedger)
		}
	}

	return router
}
