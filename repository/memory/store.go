// Package memory is an in-process implementation of the repository
// contracts. Each account has its own mutex that serializes units of work;
// reads take only the store's read lock and see committed state.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-bank-ledger/model"
	"go-bank-ledger/money"
	"go-bank-ledger/repository"

	"github.com/google/uuid"
)

type accountState struct {
	// lock is held for the whole of a unit of work touching this account.
	lock    sync.Mutex
	account model.Account
	lastAt  time.Time
}

type Store struct {
	mu sync.RWMutex

	users      map[int64]*model.User
	byUsername map[string]int64
	nextUserID int64

	accounts      map[int64]*accountState
	byOwner       map[int64]int64
	byNumber      map[uuid.UUID]int64
	nextAccountID int64

	// log is append-only; a row's Seq is its index + 1.
	log []model.Transaction

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:      make(map[int64]*model.User),
		byUsername: make(map[string]int64),
		accounts:   make(map[int64]*accountState),
		byOwner:    make(map[int64]int64),
		byNumber:   make(map[uuid.UUID]int64),
		now:        time.Now,
	}
}

var (
	_ repository.IAccountRepository     = (*Store)(nil)
	_ repository.ITransactionRepository = (*Store)(nil)
	_ repository.IUserRepository        = (*Store)(nil)
	_ repository.UnitOfWork             = (*Store)(nil)
)

func (s *Store) CreateUser(ctx context.Context, user *model.User) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[user.Username]; taken {
		return nil, repository.ErrDuplicateUsername
	}
	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = s.now()

	stored := *user
	s.users[user.ID] = &stored
	s.byUsername[user.Username] = user.ID

	return s.createAccountLocked(user.ID)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := *s.users[id]
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := *u
	return &user, nil
}

func (s *Store) CreateAccount(ctx context.Context, userID int64) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAccountLocked(userID)
}

func (s *Store) createAccountLocked(userID int64) (*model.Account, error) {
	if _, exists := s.byOwner[userID]; exists {
		return nil, repository.ErrAlreadyExists
	}
	s.nextAccountID++
	state := &accountState{account: model.Account{
		ID:            s.nextAccountID,
		UserID:        userID,
		AccountNumber: uuid.New(),
		CreatedAt:     s.now(),
	}}
	s.accounts[state.account.ID] = state
	s.byOwner[userID] = state.account.ID
	s.byNumber[state.account.AccountNumber] = state.account.ID

	account := state.account
	return &account, nil
}

func (s *Store) GetAccountByOwner(ctx context.Context, userID int64) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(s.byOwner[userID])
}

func (s *Store) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(id)
}

func (s *Store) GetAccountByNumber(ctx context.Context, number uuid.UUID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(s.byNumber[number])
}

// snapshot must be called with s.mu held.
func (s *Store) snapshot(id int64) (*model.Account, error) {
	state, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	account := state.account
	return &account, nil
}

func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.log)), nil
}

func (s *Store) ListForOwner(ctx context.Context, q repository.HistoryQuery) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	upTo := q.MaxSeq
	if upTo > int64(len(s.log)) {
		upTo = int64(len(s.log))
	}

	var matched []*model.Transaction
	for i := int64(0); i < upTo; i++ {
		t := s.log[i]
		if s.accounts[t.AccountID].account.UserID != q.UserID {
			continue
		}
		if q.Kind != "" && t.Kind != q.Kind {
			continue
		}
		if q.After != nil && !q.After.Before(&t) {
			continue
		}
		matched = append(matched, &t)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Timestamp.Equal(b.Timestamp) {
			return a.Seq > b.Seq
		}
		return a.Timestamp.After(b.Timestamp)
	})
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// Atomically locks the accounts in ascending id order, runs fn against a
// staging area and publishes the staged balances and rows only if fn
// succeeds.
func (s *Store) Atomically(ctx context.Context, accountIDs []int64, fn func(tx repository.Tx) error) error {
	ids := repository.LockOrder(accountIDs)

	states := make([]*accountState, 0, len(ids))
	s.mu.RLock()
	for _, id := range ids {
		state, ok := s.accounts[id]
		if !ok {
			s.mu.RUnlock()
			return repository.ErrNotFound
		}
		states = append(states, state)
	}
	s.mu.RUnlock()

	for _, state := range states {
		state.lock.Lock()
	}
	defer func() {
		for i := len(states) - 1; i >= 0; i-- {
			states[i].lock.Unlock()
		}
	}()

	tx := &memTx{store: s, balances: make(map[int64]money.Money, len(states))}
	s.mu.RLock()
	for _, state := range states {
		tx.balances[state.account.ID] = state.account.Balance
	}
	s.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}

	s.commit(tx)
	return nil
}

func (s *Store) commit(tx *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, balance := range tx.balances {
		s.accounts[id].account.Balance = balance
	}
	for _, t := range tx.pending {
		state := s.accounts[t.AccountID]
		if t.Timestamp.Before(state.lastAt) {
			t.Timestamp = state.lastAt
		}
		state.lastAt = t.Timestamp
		t.Seq = int64(len(s.log)) + 1
		s.log = append(s.log, *t)
	}
}

// memTx stages changes for the accounts locked by Atomically.
type memTx struct {
	store    *Store
	balances map[int64]money.Money
	pending  []*model.Transaction
}

func (tx *memTx) ApplyDelta(ctx context.Context, accountID int64, delta money.Money) (money.Money, error) {
	current, ok := tx.balances[accountID]
	if !ok {
		return money.Money{}, fmt.Errorf("account %d is not locked by this unit of work", accountID)
	}
	next, err := current.Add(delta)
	if err != nil {
		return money.Money{}, err
	}
	if next.IsNegative() {
		return money.Money{}, repository.ErrInsufficientFunds
	}
	tx.balances[accountID] = next
	return next, nil
}

func (tx *memTx) AppendTransaction(ctx context.Context, t *model.Transaction) error {
	if _, ok := tx.balances[t.AccountID]; !ok {
		return fmt.Errorf("account %d is not locked by this unit of work", t.AccountID)
	}
	tx.pending = append(tx.pending, t)
	return nil
}
