// LetsGo.ai - AI event concierge server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/letsgo-ai/concierge/internal/api"
	"github.com/letsgo-ai/concierge/internal/auth"
	"github.com/letsgo-ai/concierge/internal/backend"
	"github.com/letsgo-ai/concierge/internal/config"
	"github.com/letsgo-ai/concierge/internal/conversation"
	"github.com/letsgo-ai/concierge/internal/middleware"
	"github.com/letsgo-ai/concierge/internal/store"
	"github.com/letsgo-ai/concierge/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

// sessionSweepInterval controls how often expired browser sessions are
// purged from the store.
const sessionSweepInterval = time.Hour

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "auth_enabled", cfg.AuthEnabled())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	client := backend.New(cfg.BackendBaseURL)
	conversations := conversation.NewManager(client, cfg.PageSize)

	provider := auth.NewGoogleProvider(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RedirectURL)
	authSvc := auth.NewService(provider, repo, cfg.Session.TTL, cfg.Session.DeleteConfirmWindow)

	handler := api.NewHandler(conversations, client, authSvc, cfg)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(corsOrigins(cfg)))
	r.Use(authSvc.Middleware())

	handler.RegisterRoutes(r)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conversations.StartEvictionWorker(ctx, cfg.ConversationTTL)
	slog.Info("Conversation eviction worker started", "ttl", cfg.ConversationTTL)

	go sweepExpiredSessions(ctx, repo)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// corsOrigins derives the allowed cross-origin list from configuration.
// The embedded SPA is same-origin; a separately hosted frontend needs
// its origin listed explicitly so session cookies survive.
func corsOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{cfg.FrontendURL}
}

// sweepExpiredSessions periodically purges expired browser sessions.
func sweepExpiredSessions(ctx context.Context, repo store.Repository) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.DeleteExpiredSessions(ctx)
			if err != nil {
				slog.Error("Expired session sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("Expired sessions purged", "count", deleted)
			}
		}
	}
}
