package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService hashes passwords and issues and verifies JWTs.
type AuthService struct {
	users      repository.IUserRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(users repository.IUserRepository, secret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Login verifies the credentials and issues an access/refresh pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.TokenPair, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, internal(err)
	}
	if !s.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	access, err := s.generateToken(user, model.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(user, model.TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &model.TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.AccessToken, error) {
	claims, err := s.ParseToken(refreshToken, model.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, internal(err)
	}
	access, err := s.generateToken(user, model.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &model.AccessToken{Access: access}, nil
}

func (s *AuthService) generateToken(user *model.User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &model.AppClaims{
		UserID:    user.ID,
		Username:  user.Username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to sign JWT")
		return "", internal(fmt.Errorf("failed to sign token string: %w", err))
	}
	return tokenString, nil
}

// ParseToken validates signature, expiry and token type.
func (s *AuthService) ParseToken(tokenString, wantType string) (*model.AppClaims, error) {
	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid || claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
