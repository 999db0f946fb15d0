package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/debit-card-service/internal/config"
	"github.com/Dan9191/debit-card-service/internal/currency"
	"github.com/Dan9191/debit-card-service/internal/handler"
	"github.com/Dan9191/debit-card-service/internal/notify"
	"github.com/Dan9191/debit-card-service/internal/repository"
	"github.com/Dan9191/debit-card-service/internal/scheduler"
	"github.com/Dan9191/debit-card-service/internal/service"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	if cfg.UsesDefaultJWTSecret() {
		logger.Warn("JWT_SECRET is not set, tokens are signed with the development default")
	}

	// Initialize store
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	currencies, err := currency.LoadFile(cfg.CurrencyFile)
	if err != nil {
		logger.Fatalf("Failed to load currencies: %v", err)
	}
	logger.Infof("Accepted currencies: %v", currencies.Codes())

	var notifier service.Notifier = notify.Noop{}
	if cfg.SMTPHost != "" {
		notifier = notify.NewSender(cfg, logger)
	}

	// Initialize layers
	svc := service.NewService(store, logger, cfg,
		service.WithCurrencies(currencies),
		service.WithNotifier(notifier),
	)
	h := handler.NewHandler(svc, logger)
	r := handler.NewRouter(h, cfg, logger)

	var sweeper *scheduler.ExpirySweeper
	if cfg.ExpirySweepSchedule != "" {
		sweeper = scheduler.NewExpirySweeper(svc, logger)
		if err := sweeper.Start(cfg.ExpirySweepSchedule); err != nil {
			logger.Fatalf("Failed to start expiry sweeper: %v", err)
		}
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", addr)
		serverErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	case sig := <-stop:
		logger.Infof("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if sweeper != nil {
		sweeper.Stop(ctx)
	}
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}

// openStore connects the configured store and returns a function releasing it
func openStore(cfg *config.Config, logger *logrus.Logger) (repository.Store, func(), error) {
	if cfg.DBDriver == config.DriverMemory {
		logger.Warn("Using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := repository.NewRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, func() { db.Close() }, nil
}
