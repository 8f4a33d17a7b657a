package db

import (
	"database/sql"
	"fmt"

	"go-bank-ledger/config"
	"go-bank-ledger/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// Connect opens the Postgres database with the configured driver: "postgres"
// uses lib/pq, "pgx" uses pgx's database/sql adapter.
func Connect(cfg *config.Config) (*sql.DB, error) {
	driver := cfg.Database.Driver
	logger.Log.WithField("connection", cfg.SafeDSN()).WithField("driver", driver).Info("Attempting to connect to the database")

	db, err := sql.Open(driver, cfg.DSN())
	if err != nil {
		logger.Log.WithError(err).Error("Failed to open database connection")
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	if err = db.Ping(); err != nil {
		logger.Log.WithError(err).Error("Failed to ping database")
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Log.Info("Database connection established successfully")
	return db, nil
}
