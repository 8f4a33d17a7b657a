package handler

import (
	"errors"
	"net/http"

	"go-bank-ledger/common"
	"go-bank-ledger/service"
)

var errorResponses = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrInvalidAmount, http.StatusBadRequest, "Invalid amount."},
	{service.ErrNoAccount, http.StatusBadRequest, "User has no bank account."},
	{service.ErrAccountNotFound, http.StatusNotFound, "Receiver account not found."},
	{service.ErrSameAccount, http.StatusBadRequest, "Cannot transfer to the same account."},
	{service.ErrInsufficientFunds, http.StatusBadRequest, "Insufficient funds."},
	{service.ErrAlreadyExists, http.StatusConflict, "Account already exists."},
	{service.ErrUsernameTaken, http.StatusBadRequest, "A user with that username already exists."},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "No active account found with the given credentials."},
	{service.ErrInvalidToken, http.StatusUnauthorized, "Token is invalid or expired."},
}

// toAppError maps a service error to its HTTP representation. Anything that
// is not a known business error becomes an opaque 500.
func toAppError(err error) *common.AppError {
	kind := service.ErrorKind(err)
	for _, resp := range errorResponses {
		if errors.Is(err, resp.err) {
			return common.NewAppError(resp.status, resp.message, nil).WithKind(kind)
		}
	}
	return common.NewAppError(http.StatusInternalServerError, "Internal server error.", err).WithKind(kind)
}
