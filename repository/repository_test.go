package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"go-bank-ledger/model"
	"go-bank-ledger/money"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lockQuery = regexp.QuoteMeta(`SELECT id FROM accounts WHERE id = $1 FOR UPDATE`)

func newMockUnitOfWork(t *testing.T) (*SQLUnitOfWork, sqlmock.Sqlmock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewUnitOfWork(db, NewAccountRepository(db), NewTransactionRepository(db)), dbMock
}

func TestLockOrder(t *testing.T) {
	assert.Equal(t, []int64{1, 3, 7}, LockOrder([]int64{7, 3, 7, 1}))
	assert.Empty(t, LockOrder(nil))
}

func TestUnitOfWork_Atomically(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("locks in ascending order and commits", func(t *testing.T) {
		uow, dbMock := newMockUnitOfWork(t)

		dbMock.ExpectBegin()
		dbMock.ExpectQuery(lockQuery).WithArgs(int64(3)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		dbMock.ExpectQuery(lockQuery).WithArgs(int64(7)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		dbMock.ExpectQuery(`UPDATE accounts SET balance = balance \+ \$1`).
			WithArgs("-10.00", int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("40.00"))
		dbMock.ExpectQuery(`INSERT INTO transactions`).
			WithArgs("01TESTULID", int64(7), "withdrawal", "out", "10.00", "Withdrawal", at).
			WillReturnRows(sqlmock.NewRows([]string{"seq", "created_at"}).AddRow(11, at))
		dbMock.ExpectCommit()

		tr := &model.Transaction{
			ID: "01TESTULID", AccountID: 7, Kind: model.KindWithdrawal, Direction: model.DirectionOut,
			Amount: money.MustParse("10"), Timestamp: at, Description: "Withdrawal",
		}
		var balance money.Money
		err := uow.Atomically(ctx, []int64{7, 3, 7}, func(tx Tx) error {
			var err error
			balance, err = tx.ApplyDelta(ctx, 7, tr.Amount.Neg())
			if err != nil {
				return err
			}
			return tx.AppendTransaction(ctx, tr)
		})

		require.NoError(t, err)
		assert.Equal(t, "40.00", balance.String())
		assert.Equal(t, int64(11), tr.Seq)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("callback error rolls back", func(t *testing.T) {
		uow, dbMock := newMockUnitOfWork(t)
		boom := errors.New("boom")

		dbMock.ExpectBegin()
		dbMock.ExpectQuery(lockQuery).WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		dbMock.ExpectRollback()

		err := uow.Atomically(ctx, []int64{1}, func(tx Tx) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("missing account", func(t *testing.T) {
		uow, dbMock := newMockUnitOfWork(t)

		dbMock.ExpectBegin()
		dbMock.ExpectQuery(lockQuery).WithArgs(int64(5)).WillReturnRows(sqlmock.NewRows([]string{"id"}))
		dbMock.ExpectRollback()

		called := false
		err := uow.Atomically(ctx, []int64{5}, func(tx Tx) error { called = true; return nil })

		assert.ErrorIs(t, err, ErrNotFound)
		assert.False(t, called)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("insufficient funds", func(t *testing.T) {
		uow, dbMock := newMockUnitOfWork(t)

		dbMock.ExpectBegin()
		dbMock.ExpectQuery(lockQuery).WithArgs(int64(2)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
		dbMock.ExpectQuery(`UPDATE accounts SET balance`).WillReturnRows(sqlmock.NewRows([]string{"balance"}))
		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`)).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		dbMock.ExpectRollback()

		err := uow.Atomically(ctx, []int64{2}, func(tx Tx) error {
			_, err := tx.ApplyDelta(ctx, 2, money.MustParse("-999"))
			return err
		})

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unlocked account is rejected", func(t *testing.T) {
		uow, dbMock := newMockUnitOfWork(t)

		dbMock.ExpectBegin()
		dbMock.ExpectQuery(lockQuery).WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		dbMock.ExpectRollback()

		err := uow.Atomically(ctx, []int64{1}, func(tx Tx) error {
			_, err := tx.ApplyDelta(ctx, 2, money.MustParse("1"))
			return err
		})

		assert.Error(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("commit error", func(t *testing.T) {
		uow, dbMock := newMockUnitOfWork(t)

		dbMock.ExpectBegin()
		dbMock.ExpectQuery(lockQuery).WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		dbMock.ExpectCommit().WillReturnError(errors.New("commit failed"))

		err := uow.Atomically(ctx, []int64{1}, func(tx Tx) error { return nil })

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "could not commit transaction")
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestAccountRepository_CreateAccount(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAccountRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		dbMock.ExpectQuery(`INSERT INTO accounts`).
			WithArgs(int64(9), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "created_at"}).AddRow(4, "0.00", now))

		account, err := repo.CreateAccount(ctx, 9)

		require.NoError(t, err)
		assert.Equal(t, int64(4), account.ID)
		assert.Equal(t, int64(9), account.UserID)
		assert.True(t, account.Balance.IsZero())
		assert.NotEqual(t, uuid.Nil, account.AccountNumber)
	})

	t.Run("duplicate owner", func(t *testing.T) {
		dbMock.ExpectQuery(`INSERT INTO accounts`).
			WithArgs(int64(9), sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "accounts_user_id_key"})

		_, err := repo.CreateAccount(ctx, 9)

		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestAccountRepository_GetAccountByNumber(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAccountRepository(db)
	number := uuid.New()
	columns := []string{"id", "user_id", "account_number", "balance", "created_at"}

	dbMock.ExpectQuery(`FROM accounts WHERE account_number = \$1`).
		WithArgs(number).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(1, 2, number.String(), "12.50", time.Now()))
	dbMock.ExpectQuery(`FROM accounts WHERE account_number = \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(columns))

	account, err := repo.GetAccountByNumber(context.Background(), number)
	require.NoError(t, err)
	assert.Equal(t, number, account.AccountNumber)
	assert.Equal(t, "12.50", account.Balance.String())

	_, err = repo.GetAccountByNumber(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTransactionRepository_ListForOwner(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTransactionRepository(db)
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	cursor := &Cursor{Timestamp: at, Seq: 40}

	dbMock.ExpectQuery(`WHERE a.user_id = \$1 AND t.seq <= \$2 AND t.transaction_type = \$3 AND \(t.created_at, t.seq\) < \(\$4, \$5\) ORDER BY t.created_at DESC, t.seq DESC LIMIT \$6`).
		WithArgs(int64(1), int64(50), "deposit", at, int64(40), 2).
		WillReturnRows(sqlmock.NewRows([]string{"seq", "id", "account_id", "transaction_type", "direction", "amount", "created_at", "description"}).
			AddRow(39, "01B", 3, "deposit", "in", "5.00", at, "Deposit").
			AddRow(12, "01A", 3, "deposit", "in", "7.25", at.Add(-time.Hour), "salary"))

	page, err := repo.ListForOwner(context.Background(), HistoryQuery{
		UserID: 1, Kind: model.KindDeposit, MaxSeq: 50, After: cursor, Limit: 2,
	})

	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "01B", page[0].ID)
	assert.Equal(t, model.KindDeposit, page[0].Kind)
	assert.Equal(t, "7.25", page[1].Amount.String())
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestUserRepository_CreateUser(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db, NewAccountRepository(db))
	now := time.Now()

	t.Run("user and account commit together", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(`INSERT INTO users`).
			WithArgs("alice", "alice@example.com", "hash").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))
		dbMock.ExpectQuery(`INSERT INTO accounts`).
			WithArgs(int64(1), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "created_at"}).AddRow(10, "0", now))
		dbMock.ExpectCommit()

		user := &model.User{Username: "alice", Email: "alice@example.com", Password: "hash"}
		account, err := repo.CreateUser(context.Background(), user)

		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, int64(10), account.ID)
	})

	t.Run("duplicate username rolls back", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})
		dbMock.ExpectRollback()

		_, err := repo.CreateUser(context.Background(), &model.User{Username: "alice"})

		assert.ErrorIs(t, err, ErrDuplicateUsername)
	})

	assert.NoError(t, dbMock.ExpectationsWereMet())
}
