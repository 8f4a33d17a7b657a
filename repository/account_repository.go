package repository

import (
	"context"
	"database/sql"
	"errors"

	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/money"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

const accountColumns = `id, user_id, account_number, balance, created_at`

// CreateAccount opens the owner's primary account with a zero balance.
func (r *AccountRepository) CreateAccount(ctx context.Context, userID int64) (*model.Account, error) {
	return r.createAccount(ctx, r.DB, userID)
}

func (r *AccountRepository) createAccount(ctx context.Context, q querier, userID int64) (*model.Account, error) {
	account := &model.Account{UserID: userID, AccountNumber: uuid.New()}
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":        userID,
		"account_number": account.AccountNumber,
	})
	log.Info("Executing query to create a new account")

	query := `INSERT INTO accounts (user_id, account_number) VALUES ($1, $2) RETURNING id, balance, created_at`
	err := q.QueryRowContext(ctx, query, userID, account.AccountNumber).Scan(&account.ID, &account.Balance, &account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, constraintAccountOwn) {
			log.Info("Owner already has an account")
			return nil, ErrAlreadyExists
		}
		log.WithError(err).Error("Failed to execute create account query")
		return nil, err
	}
	return account, nil
}

func (r *AccountRepository) GetAccountByOwner(ctx context.Context, userID int64) (*model.Account, error) {
	return r.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID)
}

func (r *AccountRepository) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	return r.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepository) GetAccountByNumber(ctx context.Context, number uuid.UUID) (*model.Account, error) {
	return r.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number)
}

func (r *AccountRepository) getAccount(ctx context.Context, query string, arg interface{}) (*model.Account, error) {
	account := &model.Account{}
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.UserID, &account.AccountNumber, &account.Balance, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Log.WithError(err).WithField("lookup", arg).Error("Failed to execute get account query")
		return nil, err
	}
	return account, nil
}

// lockAccount takes the row lock that serializes balance changes.
func (r *AccountRepository) lockAccount(ctx context.Context, tx *sql.Tx, accountID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// applyDelta performs the guarded update. The non-negative check lives in
// the WHERE clause so the check and the write are one statement.
func (r *AccountRepository) applyDelta(ctx context.Context, tx *sql.Tx, accountID int64, delta money.Money) (money.Money, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": accountID,
		"delta":      delta.String(),
	})
	log.Debug("Executing query to apply balance delta")

	var balance money.Money
	query := `UPDATE accounts SET balance = balance + $1 WHERE id = $2 AND balance + $1 >= 0 RETURNING balance`
	err := tx.QueryRowContext(ctx, query, delta, accountID).Scan(&balance)
	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, sql.ErrNoRows):
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists); err != nil {
			return money.Money{}, err
		}
		if !exists {
			return money.Money{}, ErrNotFound
		}
		return money.Money{}, ErrInsufficientFunds
	case isNumericOverflow(err):
		return money.Money{}, money.ErrAmountOutOfRange
	case isCheckViolation(err):
		return money.Money{}, ErrInsufficientFunds
	default:
		log.WithError(err).Error("Failed to execute apply delta query")
		return money.Money{}, err
	}
}
