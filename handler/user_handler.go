package handler

import (
	"net/http"

	"go-bank-ledger/common"
	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/service"
)

type UserHandler struct {
	users *service.UserService
	auth  *service.AuthService
}

func NewUserHandler(users *service.UserService, auth *service.AuthService) *UserHandler {
	return &UserHandler{users: users, auth: auth}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a user together with its bank account.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        user body model.RegisterRequest true "User details"
// @Success      201  {object}  model.RegisterResponse
// @Failure      400  {object}  common.AppError "Validation failed or username taken"
// @Failure      500  {object}  common.AppError
// @Router       /register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if appErr := common.DecodeAndValidate(w, r, &req); appErr != nil {
		return appErr
	}

	user, account, err := h.users.Register(r.Context(), req)
	if err != nil {
		return toAppError(err)
	}

	common.WriteJSON(w, http.StatusCreated, model.RegisterResponse{
		User:          user,
		AccountNumber: account.AccountNumber.String(),
	})
	return nil
}

// Login godoc
// @Summary      Obtain a token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials body model.LoginRequest true "Username and password"
// @Success      200  {object}  model.TokenPair
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError "Invalid credentials"
// @Router       /token [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if appErr := common.DecodeAndValidate(w, r, &req); appErr != nil {
		return appErr
	}

	pair, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		logger.Log.WithField("username", req.Username).Info("Login failed")
		return toAppError(err)
	}

	common.WriteJSON(w, http.StatusOK, pair)
	return nil
}

// Refresh godoc
// @Summary      Exchange a refresh token for a new access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token body model.RefreshRequest true "Refresh token"
// @Success      200  {object}  model.AccessToken
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError "Invalid or expired refresh token"
// @Router       /token/refresh [post]
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if appErr := common.DecodeAndValidate(w, r, &req); appErr != nil {
		return appErr
	}

	access, err := h.auth.Refresh(r.Context(), req.Refresh)
	if err != nil {
		return toAppError(err)
	}

	common.WriteJSON(w, http.StatusOK, access)
	return nil
}
