// cmd/intake-server/main.go
package main

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taf-intake/internal/api"
	"taf-intake/internal/common/config"
	"taf-intake/internal/common/database"
	"taf-intake/internal/common/logger"
	"taf-intake/internal/common/observability"
	"taf-intake/internal/intake/assembler"
	"taf-intake/internal/intake/blacklist"
	"taf-intake/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting TAF intake server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	obs := observability.New(cfg.App.Name, nil)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- PostgreSQL (optional) ---
	var db *sql.DB
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	switch {
	case stderrors.Is(err, database.ErrNotConfigured):
		zapLog.Warn("PostgreSQL not configured, submissions will be refused and listings empty")
	case err != nil:
		zapLog.Fatal("postgres open failed", zap.Error(err))
	default:
		err = retryWithBackoff(func() error {
			return pg.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		db = pg.GetDB()
		zapLog.Info("PostgreSQL connected successfully")
	}

	pgStore := store.NewPostgresStore(db, log)
	if db != nil {
		if err := pgStore.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
	}
	var recordStore store.Store = pgStore

	// --- Redis listing cache (optional) ---
	if cfg.Cache.Enabled {
		rc := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return rc.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("Redis unavailable, listing cache disabled", zap.Error(err))
			rc.Close()
		} else {
			defer rc.Close()
			recordStore = store.NewCachedStore(recordStore, rc.Client, config.GetDuration(cfg.Cache.ListTTL), log)
			zapLog.Info("Redis listing cache enabled", zap.Int("ttlMs", cfg.Cache.ListTTL))
		}
	}

	// --- Intake pipeline ---
	gate, err := blacklist.FromConfig(cfg.Blacklist.IDs, cfg.Blacklist.Path)
	if err != nil {
		zapLog.Fatal("blacklist load failed", zap.Error(err))
	}
	zapLog.Info("Blacklist loaded", zap.Int("entries", gate.Len()))

	asm := assembler.New(assembler.LoadConfig(cfg.Intake), gate, log)

	router := api.New(api.Deps{
		Config:        cfg,
		Store:         recordStore,
		Gate:          gate,
		Assembler:     asm,
		Observability: obs,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error during HTTP shutdown", zap.Error(err))
	}

	zapLog.Info("TAF intake server stopped gracefully")
}
