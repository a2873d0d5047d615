package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	_ "github.com/ubdirahman/loan-management-app/docs"
	"github.com/ubdirahman/loan-management-app/internal/api"
	"github.com/ubdirahman/loan-management-app/internal/batch"
	"github.com/ubdirahman/loan-management-app/internal/config"
	"github.com/ubdirahman/loan-management-app/internal/domain/customer"
	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
	"github.com/ubdirahman/loan-management-app/internal/domain/loan"
	"github.com/ubdirahman/loan-management-app/internal/domain/user"
	"github.com/ubdirahman/loan-management-app/internal/event"
	"github.com/ubdirahman/loan-management-app/internal/export"
	"github.com/ubdirahman/loan-management-app/internal/infrastructure/database/postgres"
	"github.com/ubdirahman/loan-management-app/internal/infrastructure/kv"
	"github.com/ubdirahman/loan-management-app/internal/infrastructure/logging"
)

// @title Loan Management API
// @version 1.0
// @description API for keeping books of customers, their loans and payments, with JSON and CSV exports.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	repos, closeStorage := initializeStorage(cfg, logger)
	defer closeStorage()

	rabbitMQConn, eventPublisher := setupEventPublisher(cfg, logger)
	services := initializeServices(repos, eventPublisher, logger)

	sweepJob := batch.NewOverdueSweepJob(services.Loans, logger)
	cronScheduler := startBatchJobs(cfg, logger, sweepJob)

	router := api.SetupRouter(services, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, rabbitMQConn, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

// repositories groups the storage layer so the rest of the wiring does not
// care which driver backs it.
type repositories struct {
	Users     user.Repository
	Customers customer.Repository
	Loans     loan.Repository
}

// exportSource adapts the two repositories to the exporter's read interface.
// A single repository type cannot implement it directly because customer and
// loan FindAll collide.
type exportSource struct {
	customers customer.Repository
	loans     loan.Repository
}

func (s exportSource) FindAllCustomers(ctx context.Context, userKey string) ([]ledger.Customer, error) {
	return s.customers.FindAll(ctx, userKey)
}

func (s exportSource) FindAllLoans(ctx context.Context, userKey string) ([]ledger.Loan, error) {
	return s.loans.FindAll(ctx, userKey)
}

func (s exportSource) FindAllPayments(ctx context.Context, userKey string) ([]ledger.Payment, error) {
	return s.loans.FindAllPayments(ctx, userKey)
}

func initializeStorage(cfg *config.Config, logger *slog.Logger) (repositories, func()) {
	switch cfg.Storage.Driver {
	case "postgres":
		return initializePostgres(cfg, logger)
	case "redis":
		return initializeRedis(cfg, logger)
	default:
		logger.Error("Unknown storage driver", "driver", cfg.Storage.Driver)
		os.Exit(1)
		return repositories{}, nil
	}
}

func initializePostgres(cfg *config.Config, logger *slog.Logger) (repositories, func()) {
	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(context.Background(), cfg.Storage.Postgres.URL, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}

	repos := repositories{
		Users:     postgres.NewUserRepository(dbPool, logger),
		Customers: postgres.NewCustomerRepository(dbPool, logger),
		Loans:     postgres.NewLoanRepository(dbPool, logger),
	}
	return repos, func() { closeDatabase(dbPool, logger) }
}

func initializeRedis(cfg *config.Config, logger *slog.Logger) (repositories, func()) {
	logger.Info("Initializing Redis store...")
	store, err := kv.NewRedisStore(context.Background(), cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, logger)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err, "addr", cfg.Storage.Redis.Addr)
		os.Exit(1)
	}

	backend := kv.NewBackend(store)
	repos := repositories{
		Users:     kv.NewUserRepository(backend, logger),
		Customers: kv.NewCustomerRepository(backend, logger),
		Loans:     kv.NewLoanRepository(backend, logger),
	}
	return repos, func() {
		logger.Info("Closing Redis store...")
		if err := store.Close(); err != nil {
			logger.Error("Failed to close Redis store gracefully", "error", err)
		}
	}
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

func setupEventPublisher(cfg *config.Config, logger *slog.Logger) (*amqp.Connection, event.EventPublisher) {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, events will not be published.")
		return nil, event.NewNoopEventPublisher()
	}

	conn, err := connectRabbitMQ(cfg.RabbitMQ.URL, logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, continuing without events", "error", err)
		return nil, event.NewNoopEventPublisher()
	}

	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to initialize RabbitMQ publisher, continuing without events", "error", err)
		return conn, event.NewNoopEventPublisher()
	}
	return conn, publisher
}

func connectRabbitMQ(uri string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	retryCount := 5
	for i := 1; i <= retryCount; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")

			go func() {
				blockChan := conn.NotifyBlocked(make(chan amqp.Blocking))
				closeChan := conn.NotifyClose(make(chan *amqp.Error))

				select {
				case b := <-blockChan:
					logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
				case e := <-closeChan:
					logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
				}
			}()

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", retryCount),
			slog.Any("error", err),
		)
		time.Sleep(time.Duration(i*2) * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", retryCount, err)
}

func initializeServices(repos repositories, publisher event.EventPublisher, logger *slog.Logger) api.Services {
	logger.Info("Initializing application components...")

	return api.Services{
		Users:     user.NewService(repos.Users, logger),
		Customers: customer.NewService(repos.Customers, repos.Loans, publisher, logger),
		Loans:     loan.NewService(repos.Loans, repos.Customers, publisher, logger),
		Export: export.NewService(exportSource{
			customers: repos.Customers,
			loans:     repos.Loans,
		}, logger),
	}
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, rabbitConn *amqp.Connection,
	shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	triggerReason := waitForShutdownTrigger(shutdownChan, serverErrors, logger)

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	stopCronScheduler(cronScheduler, logger)
	closeRabbitMQConnection(rabbitConn, logger)
	shutdownHTTPServer(srv, serverErrors, logger)

	logger.Info("Application shutdown process complete.")
}

func waitForShutdownTrigger(shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) string {
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
		return "signal: " + sig.String()
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		logger.Info("Server goroutine finished before signal.", "error", err)
		return "server exited"
	}
}

func stopCronScheduler(cronScheduler *cron.Cron, logger *slog.Logger) {
	if cronScheduler == nil {
		return
	}
	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}

func closeRabbitMQConnection(rabbitConn *amqp.Connection, logger *slog.Logger) {
	if rabbitConn != nil && !rabbitConn.IsClosed() {
		logger.Info("Closing RabbitMQ connection...")
		if err := rabbitConn.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
		} else {
			logger.Info("RabbitMQ connection closed.")
		}
	} else if rabbitConn == nil {
		logger.Info("RabbitMQ connection was not established, skipping close.")
	} else {
		logger.Info("RabbitMQ connection already closed, skipping close.")
	}
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server graceful shutdown failed", "error", err)
		} else {
			logger.Info("HTTP server shutdown initiated.")
		}
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, sweepJob *batch.OverdueSweepJob) *cron.Cron {
	if !cfg.Batch.Enabled {
		logger.Info("Batch jobs disabled.")
		return nil
	}

	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Batch.OverdueCron
	if scheduleSpec == "" {
		scheduleSpec = "0 1 * * *"
		logger.Warn("Overdue sweep schedule not configured, using default", "schedule", scheduleSpec)
	}

	runSweep := func() {
		jobLogger := logger.With("job_name", "OverdueSweep")
		jobLogger.Info("Cron triggered: Running overdue sweep job.")

		ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
		defer cancel()

		if runErr := sweepJob.Run(ctx); runErr != nil {
			jobLogger.Error("Overdue sweep job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Overdue sweep job finished successfully.")
		}
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(runSweep))
	if err != nil {
		logger.Error("Failed to schedule overdue sweep job", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled overdue sweep job", "schedule", scheduleSpec, "job_id", jobID)
	}

	if cfg.Batch.RunOnStartup {
		go runSweep()
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}
