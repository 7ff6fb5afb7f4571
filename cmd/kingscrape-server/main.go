package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mudassirfayaz/Kings-Properties/api"
	"github.com/mudassirfayaz/Kings-Properties/api/handler"
	"github.com/mudassirfayaz/Kings-Properties/browser"
	"github.com/mudassirfayaz/Kings-Properties/cache"
	"github.com/mudassirfayaz/Kings-Properties/config"
	"github.com/mudassirfayaz/Kings-Properties/notify"
	"github.com/mudassirfayaz/Kings-Properties/scraper"
	"github.com/mudassirfayaz/Kings-Properties/storage"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	_ = godotenv.Load()
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("kingscrape server starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"target", cfg.Target.URL,
	)

	// ── 3. Launch the browser session ───────────────────────────────
	session, err := browser.NewSession(cfg.Browser)
	if err != nil {
		slog.Error("failed to launch browser", "error", err)
		os.Exit(1)
	}
	defer session.Close()

	// ── 4. Wire the run orchestrator ────────────────────────────────
	orc := scraper.NewOrchestrator(session, cfg)

	// ── 5. Result cache ─────────────────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries)

	// ── 6. Optional sinks ───────────────────────────────────────────
	sinks := &handler.Sinks{Webhook: cfg.Webhook}

	if cfg.Storage.PostgresDSN != "" {
		store, err := storage.NewPostgresStore(cfg.Storage.PostgresDSN)
		if err != nil {
			slog.Error("postgres sink unavailable", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		sinks.Store = store
		slog.Info("postgres sink enabled")
	}

	if cfg.AMQP.URL != "" {
		pub, err := notify.NewPublisher(cfg.AMQP)
		if err != nil {
			slog.Error("amqp sink unavailable", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		sinks.Publisher = pub
		slog.Info("amqp sink enabled", "exchange", cfg.AMQP.Exchange)
	}

	// ── 7. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(orc, session, cfg, cc, sinks, startTime)

	// ── 8. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 9. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// session.Close() runs via defer: parks pooled tabs and kills Chrome.
	slog.Info("kingscrape server stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}
