// file: service/account_service.go

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AccountService resolves owners and account numbers to accounts. The owner
// to account id mapping never changes once created, so it is cached without
// invalidation; balances are always read from the store.
type AccountService struct {
	repo  repository.IAccountRepository
	cache ICacheClient
	ttl   time.Duration
}

func NewAccountService(repo repository.IAccountRepository, cache ICacheClient, ttl time.Duration) *AccountService {
	if cache == nil {
		cache = NoopCache{}
	}
	return &AccountService{repo: repo, cache: cache, ttl: ttl}
}

func ownerCacheKey(userID int64) string {
	return fmt.Sprintf("accounts:owner:%d", userID)
}

// CreateAccount opens the owner's primary account.
func (s *AccountService) CreateAccount(ctx context.Context, userID int64) (*model.Account, error) {
	account, err := s.repo.CreateAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, internal(err)
	}
	return account, nil
}

// GetAccount returns the owner's account with its current balance.
func (s *AccountService) GetAccount(ctx context.Context, userID int64) (*model.Account, error) {
	account, err := s.repo.GetAccountByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoAccount
		}
		return nil, internal(err)
	}
	return account, nil
}

// PrimaryAccountID resolves the owner's account id, using the cache first.
func (s *AccountService) PrimaryAccountID(ctx context.Context, userID int64) (int64, error) {
	key := ownerCacheKey(userID)

	cached, err := s.cache.Get(ctx, key).Result()
	if err == nil {
		if id, convErr := strconv.ParseInt(cached, 10, 64); convErr == nil {
			return id, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Log.WithError(err).WithField("key", key).Warn("Account cache read failed")
	}

	account, err := s.GetAccount(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := s.cache.Set(ctx, key, strconv.FormatInt(account.ID, 10), s.ttl).Err(); err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("Account cache write failed")
	}
	return account.ID, nil
}

// AccountByNumber resolves an external account token. Malformed tokens are
// reported the same way as unknown ones.
func (s *AccountService) AccountByNumber(ctx context.Context, number string) (*model.Account, error) {
	parsed, err := uuid.Parse(number)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	account, err := s.repo.GetAccountByNumber(ctx, parsed)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, internal(err)
	}
	return account, nil
}
