package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/money"
)

// SQLUnitOfWork runs ledger mutations inside one database transaction with
// the touched account rows locked FOR UPDATE.
type SQLUnitOfWork struct {
	DB           *sql.DB
	accounts     *AccountRepository
	transactions *TransactionRepository
}

func NewUnitOfWork(db *sql.DB, accounts *AccountRepository, transactions *TransactionRepository) *SQLUnitOfWork {
	return &SQLUnitOfWork{DB: db, accounts: accounts, transactions: transactions}
}

func (u *SQLUnitOfWork) Atomically(ctx context.Context, accountIDs []int64, fn func(tx Tx) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	locked := make(map[int64]bool, len(accountIDs))
	for _, id := range LockOrder(accountIDs) {
		if err := u.accounts.lockAccount(ctx, tx, id); err != nil {
			return err
		}
		locked[id] = true
	}

	if err := fn(&sqlTx{tx: tx, locked: locked, uow: u}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Log.WithError(err).Error("Failed to commit ledger transaction")
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

type sqlTx struct {
	tx     *sql.Tx
	locked map[int64]bool
	uow    *SQLUnitOfWork
}

func (t *sqlTx) ApplyDelta(ctx context.Context, accountID int64, delta money.Money) (money.Money, error) {
	if !t.locked[accountID] {
		return money.Money{}, fmt.Errorf("account %d is not locked by this unit of work", accountID)
	}
	return t.uow.accounts.applyDelta(ctx, t.tx, accountID, delta)
}

func (t *sqlTx) AppendTransaction(ctx context.Context, tr *model.Transaction) error {
	if !t.locked[tr.AccountID] {
		return fmt.Errorf("account %d is not locked by this unit of work", tr.AccountID)
	}
	return t.uow.transactions.appendTransaction(ctx, t.tx, tr)
}
