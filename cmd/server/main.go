package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mealbuddy/server/internal/config"
	"github.com/mealbuddy/server/internal/database"
	"github.com/mealbuddy/server/internal/handlers"
	"github.com/mealbuddy/server/internal/logging"
	"github.com/mealbuddy/server/internal/metrics"
	"github.com/mealbuddy/server/internal/middleware"
	"github.com/mealbuddy/server/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("Starting MealBuddy server...")

	// Connect to PostgreSQL
	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(context.Background(), cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	// Run migrations
	logger.Info("Running database migrations...")
	version, err := database.RunMigrations(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("Database schema ready", map[string]interface{}{
		"version": version,
	})

	// Connect to Redis
	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(context.Background(), cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()

	// Metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Initialize services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	broker := services.NewRedisBroker(redisDB.Client)
	sessions := services.NewRedisSessionStore(redisDB.Client)

	identity := services.NewSessionIdentity(sessions)
	userService := services.NewUserService(dbAdapter)
	requestService := services.NewRequestService(dbAdapter, logger, collector)
	matchService := services.NewMatchService(dbAdapter, logger, collector)
	chatService := services.NewChatService(dbAdapter, broker, logger, collector)
	recommender := services.NewRecommendationClient(cfg.Recommendations, logger, collector)
	notifier := services.NewEmailNotifier(&cfg.Email, logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	profileHandler := handlers.NewProfileHandler(userService)
	requestHandler := handlers.NewRequestHandler(requestService, userService, notifier, logger)
	matchHandler := handlers.NewMatchHandler(matchService, notifier)
	chatHandler := handlers.NewChatHandler(chatService, matchService, requestService, userService, recommender, logger)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(identity)
	requestLogger := middleware.NewRequestLogger(logger)
	inviteRateLimiter := middleware.NewRateLimiter(redisDB.Client, 30, time.Hour, "ratelimit:invites")

	requireAuth := authMiddleware.RequireAuth

	// Set up router
	mux := http.NewServeMux()

	// Health and metrics endpoints (no auth)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)
	mux.Handle("GET /metrics", metrics.Handler(registry))

	// Profile endpoints
	mux.Handle("GET /api/profile", requireAuth(http.HandlerFunc(profileHandler.Get)))
	mux.Handle("PUT /api/profile", requireAuth(http.HandlerFunc(profileHandler.Update)))
	mux.Handle("GET /api/users", requireAuth(http.HandlerFunc(profileHandler.GetPublic)))

	// Request endpoints
	mux.Handle("POST /api/requests", requireAuth(http.HandlerFunc(requestHandler.Create)))
	mux.Handle("GET /api/requests", requireAuth(http.HandlerFunc(requestHandler.ListCandidates)))
	mux.Handle("GET /api/requests/mine", requireAuth(http.HandlerFunc(requestHandler.ListMine)))
	mux.Handle("GET /api/requests/{id}", requireAuth(http.HandlerFunc(requestHandler.Get)))
	mux.Handle("POST /api/requests/{id}/invites",
		requireAuth(inviteRateLimiter.Limit(http.HandlerFunc(requestHandler.CreateInvite))))

	// Match endpoints
	mux.Handle("GET /api/requests/{id}/match-status", requireAuth(http.HandlerFunc(matchHandler.Status)))
	mux.Handle("POST /api/requests/{id}/match", requireAuth(http.HandlerFunc(matchHandler.Create)))
	mux.Handle("DELETE /api/requests/{id}/match", requireAuth(http.HandlerFunc(matchHandler.Delete)))
	mux.Handle("GET /api/matches", requireAuth(http.HandlerFunc(matchHandler.List)))
	mux.Handle("DELETE /api/matches/{id}", requireAuth(http.HandlerFunc(matchHandler.Unmatch)))

	// Chat endpoints
	mux.Handle("GET /api/matches/{id}/messages", requireAuth(http.HandlerFunc(chatHandler.ListMessages)))
	mux.Handle("POST /api/matches/{id}/messages", requireAuth(http.HandlerFunc(chatHandler.SendMessage)))
	mux.Handle("GET /api/matches/{id}/stream", requireAuth(http.HandlerFunc(chatHandler.Stream)))
	mux.Handle("GET /api/matches/{id}/suggestions", requireAuth(http.HandlerFunc(chatHandler.Suggestions)))

	// Authenticate runs outermost so the request logger can attribute
	// requests to a user.
	var handler http.Handler = mux
	handler = requestLogger.Apply(handler)
	handler = authMiddleware.Authenticate(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// The chat stream holds its connection open; WriteTimeout would cut
		// long-lived subscriptions off, so rely on IdleTimeout instead.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}
