package handler

import (
	"net/http"

	"go-bank-ledger/common"
	"go-bank-ledger/logger"
	"go-bank-ledger/service"

	"github.com/sirupsen/logrus"
)

type AccountHandler struct {
	service *service.AccountService
}

func NewAccountHandler(service *service.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// GetAccount godoc
// @Summary      Show the caller's bank account
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.Account
// @Failure      400  {object}  common.AppError "User has no bank account"
// @Failure      401  {object}  common.AppError
// @Router       /account [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	owner, appErr := requireOwner(r)
	if appErr != nil {
		return appErr
	}

	account, err := h.service.GetAccount(r.Context(), owner.UserID)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"user_id": owner.UserID}).WithError(err).Info("Account lookup failed")
		return toAppError(err)
	}

	common.WriteJSON(w, http.StatusOK, account)
	return nil
}
