// Package repository defines the account store and transaction log contracts
// and their Postgres implementation.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go-bank-ledger/model"
	"go-bank-ledger/money"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyExists     = errors.New("account already exists for owner")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// IAccountRepository reads and creates accounts. Balances only change through
// a Tx.
type IAccountRepository interface {
	CreateAccount(ctx context.Context, userID int64) (*model.Account, error)
	GetAccountByOwner(ctx context.Context, userID int64) (*model.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*model.Account, error)
	GetAccountByNumber(ctx context.Context, number uuid.UUID) (*model.Account, error)
}

// ITransactionRepository is the read side of the transaction log.
type ITransactionRepository interface {
	// LastSeq returns the highest sequence number in the log, 0 when empty.
	LastSeq(ctx context.Context) (int64, error)
	// ListForOwner returns one page of the owner's transactions ordered by
	// (timestamp, seq) descending.
	ListForOwner(ctx context.Context, q HistoryQuery) ([]*model.Transaction, error)
}

// IUserRepository stores owner identities.
type IUserRepository interface {
	// CreateUser inserts the user together with its primary account.
	CreateUser(ctx context.Context, user *model.User) (*model.Account, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// Tx is the set of mutations available inside a unit of work. Everything done
// through a Tx commits or rolls back together.
type Tx interface {
	// ApplyDelta adds delta to the balance and returns the new balance. It
	// fails with ErrInsufficientFunds, leaving the balance untouched, when the
	// result would be negative.
	ApplyDelta(ctx context.Context, accountID int64, delta money.Money) (money.Money, error)
	// AppendTransaction writes t to the log and fills in Seq. Timestamp is
	// raised to the account's latest timestamp if the clock went backwards.
	AppendTransaction(ctx context.Context, t *model.Transaction) error
}

// UnitOfWork runs fn while holding exclusive locks on accountIDs. Locks are
// taken in ascending id order. fn's mutations are committed only when it
// returns nil.
type UnitOfWork interface {
	Atomically(ctx context.Context, accountIDs []int64, fn func(tx Tx) error) error
}

// Cursor marks the last row of a previous page.
type Cursor struct {
	Timestamp time.Time
	Seq       int64
}

// HistoryQuery selects a page of an owner's transactions.
type HistoryQuery struct {
	UserID int64
	// Kind filters by transaction kind when non-empty.
	Kind model.TransactionKind
	// MaxSeq bounds the listing to rows that existed when it started.
	MaxSeq int64
	// After resumes strictly past this row. Nil starts from the newest row.
	After *Cursor
	Limit int
}

// Before reports whether t sorts after c in newest-first order.
func (c *Cursor) Before(t *model.Transaction) bool {
	if t.Timestamp.Equal(c.Timestamp) {
		return t.Seq < c.Seq
	}
	return t.Timestamp.Before(c.Timestamp)
}

// LockOrder returns ids sorted ascending without duplicates.
func LockOrder(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	out = append(out, ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	n := 0
	for i, id := range out {
		if i > 0 && id == out[n-1] {
			continue
		}
		out[n] = id
		n++
	}
	return out[:n]
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
