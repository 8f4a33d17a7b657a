package service

import (
	"errors"
	"fmt"
)

// Ledger error kinds. Every error returned by the services matches exactly
// one of these with errors.Is.
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNoAccount         = errors.New("user has no bank account")
	ErrAccountNotFound   = errors.New("receiver account not found")
	ErrSameAccount       = errors.New("cannot transfer to the same account")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyExists     = errors.New("account already exists")
	ErrInternal          = errors.New("internal error")

	ErrUsernameTaken      = errors.New("a user with that username already exists")
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrInvalidToken       = errors.New("token is invalid or expired")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidAmount, "InvalidAmount"},
	{ErrNoAccount, "NoAccount"},
	{ErrAccountNotFound, "AccountNotFound"},
	{ErrSameAccount, "SameAccount"},
	{ErrInsufficientFunds, "InsufficientFunds"},
	{ErrAlreadyExists, "AlreadyExists"},
	{ErrUsernameTaken, "UsernameTaken"},
	{ErrInvalidCredentials, "InvalidCredentials"},
	{ErrInvalidToken, "InvalidToken"},
}

// ErrorKind returns the stable name of err's kind, "Internal" for anything
// that is not a business-rule error. It returns "" for nil.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}

func internal(err error) error {
	return fmt.Errorf("%w: %w", ErrInternal, err)
}
