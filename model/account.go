package model

import (
	"time"

	"go-bank-ledger/money"

	"github.com/google/uuid"
)

// Account is a user's ledger account. ID is the internal row id and is never
// used by callers; AccountNumber is the only external address.
type Account struct {
	ID            int64       `json:"-"`
	UserID        int64       `json:"-"`
	AccountNumber uuid.UUID   `json:"account_number"`
	Balance       money.Money `json:"balance"`
	CreatedAt     time.Time   `json:"created_at"`
}
