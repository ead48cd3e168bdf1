package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"chronocheck/internal/config"
	"chronocheck/internal/core"
	"chronocheck/internal/db"
	httpserver "chronocheck/internal/http"
	"chronocheck/internal/llm"
	"chronocheck/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(telemetry.Options{
			ServiceName: cfg.Telemetry.ServiceName,
			Pretty:      cfg.Telemetry.Pretty,
			SampleRatio: cfg.Telemetry.SampleRatio,
		}, logger)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	backend, err := newBackend(cfg.Backend, logger)
	if err != nil {
		return err
	}
	tokens, err := llm.NewTokenCounter(cfg.Backend.Model)
	if err != nil {
		logger.Warn("token counting disabled", slog.String("error", err.Error()))
		tokens = nil
	}

	store, publisher, watcher, closeStore, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	consult := core.NewConsultService(store, core.NewDispatcher(backend, tokens, logger), logger)
	consult.Publisher = publisher

	go purgeIdleSessions(ctx, store, cfg.Storage.SessionTTL, logger)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           httpserver.NewServer(consult, watcher, cfg.Server.ProgressInterval, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", srv.Addr), slog.String("backend", cfg.Backend.Type), slog.String("storage", cfg.Storage.Type))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newBackend builds the configured AI backend. A real backend is wrapped so
// failed bill audits still show the sample report when demo_fallback is on.
func newBackend(cfg config.BackendConfig, logger *slog.Logger) (llm.Backend, error) {
	switch strings.ToLower(cfg.Type) {
	case "demo":
		return llm.DemoBackend{}, nil
	case "openai", "":
		if cfg.APIKey == "" {
			return nil, errors.New("backend.api_key (or OPENAI_API_KEY) must be set for the openai backend")
		}
		var b llm.Backend = llm.NewOpenAIBackend(llm.OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		})
		if cfg.DemoFallback {
			b = llm.WithDemoFallback(b, logger)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Type)
	}
}

// openStore opens the configured session store. Postgres also provides the
// cross-replica notifier; the other stores notify in-process.
func openStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (core.SessionStore, core.SessionPublisher, httpserver.SessionWatcher, func(), error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		local := core.NewLocalNotifier()
		return core.NewMemoryStore(), local, local, func() {}, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, nil, nil, nil, errors.New("storage.dsn (or DATABASE_URL) must be set for postgres")
		}
		conn, err := openSQL(ctx, "postgres", cfg.DSN)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		notifier := db.NewNotifier(conn, cfg.DSN, cfg.NotifyChannel, logger)
		return db.NewRepository(conn, "postgres"), notifier, notifier, func() { _ = conn.Close() }, nil
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "chronocheck.db"
		}
		conn, err := openSQL(ctx, "sqlite", dsn)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		local := core.NewLocalNotifier()
		return db.NewRepository(conn, "sqlite"), local, local, func() { _ = conn.Close() }, nil
	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

func openSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// A single writer avoids SQLITE_BUSY under concurrent requests.
		conn.SetMaxOpenConns(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := db.Migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return conn, nil
}

// purgeIdleSessions discards sessions idle for longer than ttl.
func purgeIdleSessions(ctx context.Context, store core.SessionStore, ttl time.Duration, logger *slog.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeIdle(ctx, now.Add(-ttl))
			if err != nil {
				logger.Warn("session purge failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				logger.Info("purged idle sessions", slog.Int("count", n))
			}
		}
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
