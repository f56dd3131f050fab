// Package main is the entry point for the fakturo API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fakturo/internal/domain/document"
	"fakturo/internal/domain/numbering"
	v1 "fakturo/internal/infrastructure/http/v1"
	"fakturo/internal/infrastructure/storage/postgres"
	"fakturo/pkg/logger"
)

func main() {
	// Local development convenience; absence of the file is fine.
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting fakturo server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv(log, "DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	if lockTimeout := getEnvDuration("DB_LOCK_TIMEOUT", 0); lockTimeout > 0 {
		poolCfg.LockTimeout = lockTimeout
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Storage ---
	documentRepo := postgres.NewDocumentRepo(txManager)
	clientRepo := postgres.NewClientRepo(txManager)
	currencyRepo := postgres.NewCurrencyRepo(txManager)
	itemRepo := postgres.NewItemRepo(txManager)
	vatReasonRepo := postgres.NewVATReasonRepo(txManager)
	sequenceStore := postgres.NewSequenceStore(txManager)

	auditLog, err := postgres.NewAuditLog(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit log", "error", err)
	}

	// --- Domain services ---
	allocator := numbering.New(sequenceStore)

	composer := document.NewComposer(
		documentRepo,
		clientRepo,
		currencyRepo,
		currencyRepo,
		itemRepo,
		vatReasonRepo,
		allocator,
		txManager,
		auditLog,
	)
	transformer := document.NewTransformer(documentRepo, allocator, txManager, auditLog)
	service := document.NewService(documentRepo, txManager, auditLog)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:        pool,
		Composer:    composer,
		Transformer: transformer,
		Service:     service,
		Allocator:   allocator,
		Logger:      log,
		JWTSecret:   []byte(mustEnv(log, "JWT_SECRET")),
	})

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(log *logger.Logger, key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalw("required environment variable not set", "key", key)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
