package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go-bank-ledger/logger"
	"go-bank-ledger/model"
)

type UserRepository struct {
	DB       *sql.DB
	accounts *AccountRepository
}

func NewUserRepository(db *sql.DB, accounts *AccountRepository) *UserRepository {
	return &UserRepository{DB: db, accounts: accounts}
}

// CreateUser inserts the user and opens its account in the same transaction,
// so a user never exists without an account.
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) (*model.Account, error) {
	log := logger.Log.WithField("username", user.Username)
	log.Info("Executing query to create a new user")

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO users (username, email, password) VALUES ($1, $2, $3) RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query, user.Username, user.Email, user.Password).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, constraintUsername) {
			return nil, ErrDuplicateUsername
		}
		log.WithError(err).Error("Failed to execute create user query")
		return nil, err
	}

	account, err := r.accounts.createAccount(ctx, tx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}
	return account, nil
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getUser(ctx, `SELECT id, username, email, password, created_at FROM users WHERE username = $1`, username)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getUser(ctx, `SELECT id, username, email, password, created_at FROM users WHERE id = $1`, id)
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	user := &model.User{}
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}
