package model

import "go-bank-ledger/money"

// OperationResponse is returned by deposit, withdrawal and transfer.
type OperationResponse struct {
	Detail  string      `json:"detail"`
	Balance money.Money `json:"balance"`
}

type RegisterResponse struct {
	User          *User  `json:"user"`
	AccountNumber string `json:"account_number"`
}
