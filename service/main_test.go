package service

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"
	"go-bank-ledger/repository/memory"

	"github.com/bxcodec/faker/v3"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestMain runs setup before any tests in this package are executed.
func TestMain(m *testing.M) {
	logger.Init("error", "json")
	logger.Log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fixture struct {
	store    *memory.Store
	accounts *AccountService
	ledger   *LedgerService
	history  *HistoryService
	auth     *AuthService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithUoW(t, nil)
}

// newFixtureWithUoW lets a test wrap the store's unit of work.
func newFixtureWithUoW(t *testing.T, wrap func(repository.UnitOfWork) repository.UnitOfWork) *fixture {
	t.Helper()
	store := memory.NewStore()
	var uow repository.UnitOfWork = store
	if wrap != nil {
		uow = wrap(store)
	}

	accounts := NewAccountService(store, nil, time.Minute)
	auth := NewAuthService(store, "test-secret", 15*time.Minute, 24*time.Hour)
	auth.bcryptCost = bcrypt.MinCost

	return &fixture{
		store:    store,
		accounts: accounts,
		ledger:   NewLedgerService(accounts, store, uow),
		history:  NewHistoryService(accounts, store, 3),
		auth:     auth,
		users:    NewUserService(store, auth),
	}
}

// register creates a user with a random name and returns it as an Owner
// together with its account.
func (f *fixture) register(t *testing.T) (Owner, *model.Account) {
	t.Helper()
	user := &model.User{Username: faker.Username() + faker.UUIDDigit(), Email: faker.Email()}
	account, err := f.store.CreateUser(context.Background(), user)
	require.NoError(t, err)
	return Owner{UserID: user.ID, Username: user.Username}, account
}

func (f *fixture) balance(t *testing.T, owner Owner) string {
	t.Helper()
	account, err := f.accounts.GetAccount(context.Background(), owner.UserID)
	require.NoError(t, err)
	return account.Balance.String()
}

func (f *fixture) logLen(t *testing.T) int64 {
	t.Helper()
	n, err := f.store.LastSeq(context.Background())
	require.NoError(t, err)
	return n
}
