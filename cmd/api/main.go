package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ArowuTest/competitions-backend/api/routes"
	"github.com/ArowuTest/competitions-backend/internal/config"
	"github.com/ArowuTest/competitions-backend/internal/handlers"
	"github.com/ArowuTest/competitions-backend/internal/middleware"
	mongorepo "github.com/ArowuTest/competitions-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/competitions-backend/internal/scheduler"
	"github.com/ArowuTest/competitions-backend/internal/services"
	"github.com/ArowuTest/competitions-backend/pkg/jwt"
	"github.com/ArowuTest/competitions-backend/pkg/mongodb"
	"github.com/ArowuTest/competitions-backend/pkg/notifier"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)
	if strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)
	indexCtx, cancel := context.WithTimeout(ctx, cfg.MongoDB.Timeout)
	err = mongorepo.EnsureIndexes(indexCtx, db)
	cancel()
	if err != nil {
		slog.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}
	store := mongorepo.NewStore(mongoClient.Client(), db)

	// Services
	ledgerService := services.NewLedgerService(store, store.Accounts(), store.LedgerTransactions())
	allocator := services.NewAllocator(store.Competitions())
	settlementService := services.NewSettlementService(store, store.Entries(), store.InstantPrizes(), store.InstantWinTickets(), ledgerService)
	purchaseService := services.NewPurchaseService(store, store.Competitions(), store.Entries(), allocator, settlementService, ledgerService)
	prizePoolService := services.NewPrizePoolService(store, store.Competitions(), store.InstantPrizes(), store.InstantWinTickets())
	winnerNotifier := notifier.NewWebhookNotifier(cfg.Notifier.WebhookURL, cfg.Notifier.Mock, cfg.Notifier.Timeout)
	drawService := services.NewDrawService(store, store.Competitions(), store.Entries(), store.Draws(), winnerNotifier, cfg.Draw.IDPrefix)
	withdrawalService := services.NewWithdrawalService(store, store.Withdrawals(), ledgerService)
	competitionService := services.NewCompetitionService(store.Competitions())

	// Handlers
	tokens := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	router := routes.SetupRouter(routes.HandlerDependencies{
		PurchaseHandler:    handlers.NewPurchaseHandler(purchaseService, settlementService),
		CompetitionHandler: handlers.NewCompetitionHandler(competitionService, prizePoolService, drawService),
		WalletHandler:      handlers.NewWalletHandler(ledgerService, withdrawalService),
		Tokens:             tokens,
		PurchaseLimiter:    limiter,
		AllowedHosts:       cfg.Server.AllowedHosts,
	})

	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs, err = scheduler.New(competitionService, cfg.Scheduler.CloseExpiredSpec, cfg.MongoDB.Timeout)
		if err != nil {
			slog.Error("Failed to configure scheduler", "error", err)
			os.Exit(1)
		}
		jobs.Start()
	}

	limiterDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Cleanup(10000)
			case <-limiterDone:
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	close(limiterDone)
	if jobs != nil {
		jobs.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exiting")
}

func setupLogger(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l})))
}
