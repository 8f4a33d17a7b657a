// file: model/request.go

package model

import (
	"bytes"
	"encoding/json"
)

// RegisterRequest defines the payload for creating a new user.
// It includes validation tags to ensure data integrity at the entry point.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email"`
	// bcrypt only looks at the first 72 bytes.
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for obtaining a token pair.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// AmountInput is the raw text of an amount. Both "12.50" and 12.50 are
// accepted; the ledger parses the text strictly, so a missing or malformed
// amount is reported as an invalid amount rather than a bad request body.
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = AmountInput(s)
		return nil
	}
	*a = AmountInput(data)
	return nil
}

func (a AmountInput) String() string {
	return string(a)
}

type DepositRequest struct {
	Amount      AmountInput `json:"amount"`
	Description string      `json:"description" validate:"max=500"`
}

type WithdrawalRequest struct {
	Amount      AmountInput `json:"amount"`
	Description string      `json:"description" validate:"max=500"`
}

type TransferRequest struct {
	ReceiverAccountNumber string      `json:"receiver_account_number" validate:"required"`
	Amount                AmountInput `json:"amount"`
}
