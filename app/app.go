package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go-bank-ledger/config"
	"go-bank-ledger/db"
	"go-bank-ledger/handler"
	"go-bank-ledger/logger"
	"go-bank-ledger/repository"
	"go-bank-ledger/repository/memory"
	"go-bank-ledger/router"
	"go-bank-ledger/service"

	"github.com/redis/go-redis/v9"
)

// App is a fully wired ledger service.
type App struct {
	Config *config.Config
	DB     *sql.DB
	Redis  *redis.Client
	Router http.Handler
}

type stores struct {
	accounts     repository.IAccountRepository
	transactions repository.ITransactionRepository
	users        repository.IUserRepository
	uow          repository.UnitOfWork
}

// New connects the configured backends and wires all layers together.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	var s stores
	if cfg.Database.Driver == "memory" {
		logger.Log.Warn("Using the in-memory store; data will not survive a restart")
		store := memory.NewStore()
		s = stores{accounts: store, transactions: store, users: store, uow: store}
	} else {
		database, err := db.Connect(cfg)
		if err != nil {
			return nil, err
		}
		a.DB = database

		if cfg.Database.Migrate {
			if err := db.Migrate(cfg.DSN()); err != nil {
				a.Close()
				return nil, err
			}
		}

		accountRepo := repository.NewAccountRepository(database)
		transactionRepo := repository.NewTransactionRepository(database)
		s = stores{
			accounts:     accountRepo,
			transactions: transactionRepo,
			users:        repository.NewUserRepository(database, accountRepo),
			uow:          repository.NewUnitOfWork(database, accountRepo, transactionRepo),
		}
	}

	var cache service.ICacheClient = service.NoopCache{}
	if cfg.Redis.Enabled {
		client, err := db.ConnectRedis(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = client
		cache = client
	}

	a.Router = wire(cfg, s, cache)
	return a, nil
}

// NewTestApp builds an App on the in-memory store without touching the
// network.
func NewTestApp(cfg *config.Config) *App {
	store := memory.NewStore()
	s := stores{accounts: store, transactions: store, users: store, uow: store}
	return &App{Config: cfg, Router: wire(cfg, s, service.NoopCache{})}
}

func wire(cfg *config.Config, s stores, cache service.ICacheClient) http.Handler {
	accountService := service.NewAccountService(s.accounts, cache, cfg.Redis.TTL)
	authService := service.NewAuthService(s.users, cfg.JWT.SecretKey, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	userService := service.NewUserService(s.users, authService)
	ledgerService := service.NewLedgerService(accountService, s.users, s.uow)
	historyService := service.NewHistoryService(accountService, s.transactions, cfg.Ledger.HistoryPageSize)

	return router.NewRouter(
		handler.NewUserHandler(userService, authService),
		handler.NewAccountHandler(accountService),
		handler.NewTransactionHandler(ledgerService, historyService),
		authService,
	)
}

// Close releases the database and cache connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close database")
		}
	}
}

func Run() {
	if err := config.LoadConfig("."); err != nil {
		logger.Log.Fatalf("Error loading configuration: %v", err)
	}
	cfg := &config.AppConfig
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	logger.Log.Info("Configuration loaded successfully")

	application, err := New(context.Background(), cfg)
	if err != nil {
		logger.Log.Fatalf("Error initializing application: %v", err)
	}
	defer application.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      application.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
		return
	}

	logger.Log.Info("Server exited properly")
}
