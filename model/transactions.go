package model

import (
	"fmt"
	"time"

	"go-bank-ledger/money"
)

type TransactionKind string

const (
	KindDeposit    TransactionKind = "deposit"
	KindWithdrawal TransactionKind = "withdrawal"
	KindTransfer   TransactionKind = "transfer"
)

// ParseTransactionKind validates a kind coming from a query string.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch k := TransactionKind(s); k {
	case KindDeposit, KindWithdrawal, KindTransfer:
		return k, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Direction tells which side of the balance a transaction moved.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Transaction is one append-only ledger row. A transfer writes two of them,
// one per account.
type Transaction struct {
	ID          string          `json:"id"`
	Seq         int64           `json:"-"`
	AccountID   int64           `json:"-"`
	Kind        TransactionKind `json:"transaction_type"`
	Direction   Direction       `json:"direction"`
	Amount      money.Money     `json:"amount"`
	Timestamp   time.Time       `json:"timestamp"`
	Description string          `json:"description"`
}

// Delta is the signed change this transaction applied to its account.
func (t *Transaction) Delta() money.Money {
	if t.Direction == DirectionOut {
		return t.Amount.Neg()
	}
	return t.Amount
}

// DirectionOf returns the direction implied by a kind for single-sided
// operations.
func DirectionOf(kind TransactionKind) Direction {
	if kind == KindWithdrawal {
		return DirectionOut
	}
	return DirectionIn
}
