package service

import (
	"context"
	"errors"

	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"
)

// UserService handles registration.
type UserService struct {
	userRepo repository.IUserRepository
	auth     *AuthService
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.IUserRepository, auth *AuthService) *UserService {
	return &UserService{userRepo: userRepo, auth: auth}
}

// Register creates the user and its primary account atomically.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, *model.Account, error) {
	hashed, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, nil, internal(err)
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashed,
	}
	account, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, nil, ErrUsernameTaken
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, nil, ErrAlreadyExists
		}
		return nil, nil, internal(err)
	}

	logger.Log.WithField("user_id", user.ID).WithField("account_number", account.AccountNumber).Info("User registered")
	return user, account, nil
}
