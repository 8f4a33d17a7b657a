package handler

import (
	"fmt"
	"net/http"

	"go-bank-ledger/common"
	"go-bank-ledger/model"
	"go-bank-ledger/money"
	"go-bank-ledger/service"
)

// TransactionHandler serves the balance-changing endpoints and the history.
type TransactionHandler struct {
	ledger  *service.LedgerService
	history *service.HistoryService
}

func NewTransactionHandler(ledger *service.LedgerService, history *service.HistoryService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger, history: history}
}

// displayAmount renders an accepted amount with two fractional digits.
func displayAmount(raw model.AmountInput) string {
	amount, err := money.Parse(raw.String())
	if err != nil {
		return raw.String()
	}
	return amount.String()
}

// Deposit godoc
// @Summary      Deposit money
// @Description  Credits the caller's account. Amounts are decimal strings with at most two fractional digits.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        deposit body model.DepositRequest true "Amount and optional description"
// @Success      200  {object}  model.OperationResponse
// @Failure      400  {object}  common.AppError "Invalid amount or no account"
// @Failure      401  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /deposit [post]
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) *common.AppError {
	owner, appErr := requireOwner(r)
	if appErr != nil {
		return appErr
	}
	var req model.DepositRequest
	if appErr := common.DecodeAndValidate(w, r, &req); appErr != nil {
		return appErr
	}

	balance, err := h.ledger.Deposit(r.Context(), owner, req.Amount.String(), req.Description)
	if err != nil {
		return toAppError(err)
	}

	common.WriteJSON(w, http.StatusOK, model.OperationResponse{
		Detail:  fmt.Sprintf("Successfully deposited %s to your account.", displayAmount(req.Amount)),
		Balance: balance,
	})
	return nil
}

// Withdraw godoc
// @Summary      Withdraw money
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        withdrawal body model.WithdrawalRequest true "Amount and optional description"
// @Success      200  {object}  model.OperationResponse
// @Failure      400  {object}  common.AppError "Invalid amount, no account or insufficient funds"
// @Failure      401  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /withdrawal [post]
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) *common.AppError {
	owner, appErr := requireOwner(r)
	if appErr != nil {
		return appErr
	}
	var req model.WithdrawalRequest
	if appErr := common.DecodeAndValidate(w, r, &req); appErr != nil {
		return appErr
	}

	balance, err := h.ledger.Withdraw(r.Context(), owner, req.Amount.String(), req.Description)
	if err != nil {
		return toAppError(err)
	}

	common.WriteJSON(w, http.StatusOK, model.OperationResponse{
		Detail:  fmt.Sprintf("Successfully withdrew %s from your account.", displayAmount(req.Amount)),
		Balance: balance,
	})
	return nil
}

// Transfer godoc
// @Summary      Transfer money to another account
// @Description  Moves money from the caller's account to the account with the given number. The response carries the sender's new balance.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        transfer body model.TransferRequest true "Receiver account number and amount"
// @Success      200  {object}  model.OperationResponse
// @Failure      400  {object}  common.AppError "Invalid amount, same account or insufficient funds"
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError "Receiver account not found"
// @Failure      500  {object}  common.AppError
// @Router       /transfer [post]
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) *common.AppError {
	owner, appErr := requireOwner(r)
	if appErr != nil {
		return appErr
	}
	var req model.TransferRequest
	if appErr := common.DecodeAndValidate(w, r, &req); appErr != nil {
		return appErr
	}

	balance, err := h.ledger.Transfer(r.Context(), owner, req.ReceiverAccountNumber, req.Amount.String())
	if err != nil {
		return toAppError(err)
	}

	common.WriteJSON(w, http.StatusOK, model.OperationResponse{
		Detail:  fmt.Sprintf("Successfully transferred %s to account %s", displayAmount(req.Amount), req.ReceiverAccountNumber),
		Balance: balance,
	})
	return nil
}

// ListTransactions godoc
// @Summary      List the caller's transaction history
// @Description  Newest first. Optionally filtered by transaction_type.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        transaction_type query string false "deposit, withdrawal or transfer"
// @Success      200  {array}   model.Transaction
// @Failure      400  {object}  common.AppError "Unknown transaction type or no account"
// @Failure      401  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /transactions [get]
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) *common.AppError {
	owner, appErr := requireOwner(r)
	if appErr != nil {
		return appErr
	}

	var kind model.TransactionKind
	if raw := r.URL.Query().Get("transaction_type"); raw != "" {
		parsed, err := model.ParseTransactionKind(raw)
		if err != nil {
			return common.NewAppError(http.StatusBadRequest, "transaction_type must be one of deposit, withdrawal, transfer", nil).
				WithKind("InvalidRequest")
		}
		kind = parsed
	}

	transactions, err := h.history.List(r.Context(), owner.UserID, kind)
	if err != nil {
		return toAppError(err)
	}

	common.WriteJSON(w, http.StatusOK, transactions)
	return nil
}
