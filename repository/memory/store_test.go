package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-bank-ledger/model"
	"go-bank-ledger/money"
	"go-bank-ledger/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserWithAccount(t *testing.T, s *Store, name string) *model.Account {
	t.Helper()
	account, err := s.CreateUser(context.Background(), &model.User{Username: name})
	require.NoError(t, err)
	return account
}

func deposit(t *testing.T, s *Store, accountID int64, amount string, at time.Time) {
	t.Helper()
	ctx := context.Background()
	err := s.Atomically(ctx, []int64{accountID}, func(tx repository.Tx) error {
		if _, err := tx.ApplyDelta(ctx, accountID, money.MustParse(amount)); err != nil {
			return err
		}
		return tx.AppendTransaction(ctx, &model.Transaction{
			AccountID: accountID, Kind: model.KindDeposit, Direction: model.DirectionIn,
			Amount: money.MustParse(amount), Timestamp: at,
		})
	})
	require.NoError(t, err)
}

func TestStore_UsersAndAccounts(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	account := newUserWithAccount(t, s, "alice")

	_, err := s.CreateUser(ctx, &model.User{Username: "alice"})
	assert.ErrorIs(t, err, repository.ErrDuplicateUsername)

	_, err = s.CreateAccount(ctx, account.UserID)
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	byNumber, err := s.GetAccountByNumber(ctx, account.AccountNumber)
	require.NoError(t, err)
	assert.Equal(t, account.ID, byNumber.ID)

	byOwner, err := s.GetAccountByOwner(ctx, account.UserID)
	require.NoError(t, err)
	assert.Equal(t, account.AccountNumber, byOwner.AccountNumber)

	_, err = s.GetAccountByOwner(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	user, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, account.UserID, user.ID)
}

func TestStore_AtomicallyRollsBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := newUserWithAccount(t, s, "a")
	b := newUserWithAccount(t, s, "b")
	deposit(t, s, a.ID, "50", time.Now())

	boom := errors.New("boom")
	err := s.Atomically(ctx, []int64{b.ID, a.ID}, func(tx repository.Tx) error {
		if _, err := tx.ApplyDelta(ctx, a.ID, money.MustParse("-30")); err != nil {
			return err
		}
		if _, err := tx.ApplyDelta(ctx, b.ID, money.MustParse("30")); err != nil {
			return err
		}
		require.NoError(t, tx.AppendTransaction(ctx, &model.Transaction{AccountID: a.ID, Kind: model.KindTransfer}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	gotA, _ := s.GetAccountByID(ctx, a.ID)
	gotB, _ := s.GetAccountByID(ctx, b.ID)
	assert.Equal(t, "50.00", gotA.Balance.String())
	assert.True(t, gotB.Balance.IsZero())

	seq, _ := s.LastSeq(ctx)
	assert.Equal(t, int64(1), seq)
}

func TestStore_ApplyDeltaGuards(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := newUserWithAccount(t, s, "a")
	b := newUserWithAccount(t, s, "b")

	err := s.Atomically(ctx, []int64{a.ID}, func(tx repository.Tx) error {
		_, err := tx.ApplyDelta(ctx, a.ID, money.MustParse("-0.01"))
		return err
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientFunds)

	err = s.Atomically(ctx, []int64{a.ID}, func(tx repository.Tx) error {
		_, err := tx.ApplyDelta(ctx, b.ID, money.MustParse("1"))
		return err
	})
	assert.Error(t, err)

	err = s.Atomically(ctx, []int64{a.ID, 404}, func(tx repository.Tx) error { return nil })
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_TimestampsNeverGoBackwards(t *testing.T) {
	s := NewStore()
	a := newUserWithAccount(t, s, "a")
	later := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	deposit(t, s, a.ID, "1", later)
	deposit(t, s, a.ID, "1", later.Add(-time.Minute))

	page, err := s.ListForOwner(context.Background(), repository.HistoryQuery{UserID: a.UserID, MaxSeq: 10, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].Timestamp.Equal(later))
	assert.Equal(t, int64(2), page[0].Seq)
	assert.Equal(t, int64(1), page[1].Seq)
}

func TestStore_ListForOwnerPaging(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := newUserWithAccount(t, s, "a")
	other := newUserWithAccount(t, s, "other")
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		deposit(t, s, a.ID, "1", start.Add(time.Duration(i)*time.Second))
	}
	deposit(t, s, other.ID, "9", start)

	first, err := s.ListForOwner(ctx, repository.HistoryQuery{UserID: a.UserID, MaxSeq: 6, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(5), first[0].Seq)
	assert.Equal(t, int64(4), first[1].Seq)

	last := first[1]
	second, err := s.ListForOwner(ctx, repository.HistoryQuery{
		UserID: a.UserID, MaxSeq: 6, Limit: 10,
		After: &repository.Cursor{Timestamp: last.Timestamp, Seq: last.Seq},
	})
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.Equal(t, int64(1), second[2].Seq)

	bounded, err := s.ListForOwner(ctx, repository.HistoryQuery{UserID: a.UserID, MaxSeq: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, bounded, 2)

	withdrawals, err := s.ListForOwner(ctx, repository.HistoryQuery{UserID: a.UserID, Kind: model.KindWithdrawal, MaxSeq: 6, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, withdrawals)
}

func TestStore_OpposingUnitsDoNotDeadlock(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := newUserWithAccount(t, s, "a")
	b := newUserWithAccount(t, s, "b")
	deposit(t, s, a.ID, "1000", time.Now())
	deposit(t, s, b.ID, "1000", time.Now())

	move := func(from, to int64) error {
		return s.Atomically(ctx, []int64{from, to}, func(tx repository.Tx) error {
			if _, err := tx.ApplyDelta(ctx, from, money.MustParse("-1")); err != nil {
				return err
			}
			_, err := tx.ApplyDelta(ctx, to, money.MustParse("1"))
			return err
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); assert.NoError(t, move(a.ID, b.ID)) }()
		go func() { defer wg.Done(); assert.NoError(t, move(b.ID, a.ID)) }()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("transfers in opposite directions deadlocked")
	}

	gotA, _ := s.GetAccountByID(ctx, a.ID)
	gotB, _ := s.GetAccountByID(ctx, b.ID)
	total, err := gotA.Balance.Add(gotB.Balance)
	require.NoError(t, err)
	assert.Equal(t, "2000.00", total.String())
}
