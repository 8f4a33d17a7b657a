package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/money"
	"go-bank-ledger/repository"

	"github.com/sirupsen/logrus"
)

const (
	defaultDepositDescription    = "Deposit"
	defaultWithdrawalDescription = "Withdrawal"
)

// Owner is an authenticated caller.
type Owner struct {
	UserID   int64
	Username string
}

// LedgerService performs the balance-changing operations. Each operation
// validates its input, resolves accounts, and then runs a single unit of work
// in which balance changes and transaction rows commit together.
type LedgerService struct {
	accounts *AccountService
	users    repository.IUserRepository
	uow      repository.UnitOfWork
	ids      *idGenerator
	now      func() time.Time
}

func NewLedgerService(accounts *AccountService, users repository.IUserRepository, uow repository.UnitOfWork) *LedgerService {
	return &LedgerService{
		accounts: accounts,
		users:    users,
		uow:      uow,
		ids:      newIDGenerator(),
		now:      time.Now,
	}
}

// parseAmount accepts only positive, in-range amounts with at most two
// fractional digits.
func parseAmount(raw string) (money.Money, error) {
	amount, err := money.Parse(raw)
	if err != nil || !amount.IsPositive() {
		return money.Money{}, ErrInvalidAmount
	}
	return amount, nil
}

func (s *LedgerService) newTransaction(accountID int64, kind model.TransactionKind, dir model.Direction, amount money.Money, at time.Time, description string) *model.Transaction {
	return &model.Transaction{
		ID:          s.ids.next(at),
		AccountID:   accountID,
		Kind:        kind,
		Direction:   dir,
		Amount:      amount,
		Timestamp:   at,
		Description: description,
	}
}

// translate maps store errors raised inside a unit of work to ledger kinds.
func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientFunds):
		return ErrInsufficientFunds
	case errors.Is(err, money.ErrAmountOutOfRange):
		return ErrInvalidAmount
	default:
		return internal(err)
	}
}

// Deposit credits amount to the owner's account and returns the new balance.
func (s *LedgerService) Deposit(ctx context.Context, owner Owner, rawAmount, description string) (money.Money, error) {
	return s.single(ctx, owner, model.KindDeposit, rawAmount, description)
}

// Withdraw debits amount from the owner's account and returns the new
// balance. The balance is never allowed below zero.
func (s *LedgerService) Withdraw(ctx context.Context, owner Owner, rawAmount, description string) (money.Money, error) {
	return s.single(ctx, owner, model.KindWithdrawal, rawAmount, description)
}

func (s *LedgerService) single(ctx context.Context, owner Owner, kind model.TransactionKind, rawAmount, description string) (money.Money, error) {
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return money.Money{}, err
	}

	accountID, err := s.accounts.PrimaryAccountID(ctx, owner.UserID)
	if err != nil {
		return money.Money{}, err
	}

	dir := model.DirectionOf(kind)
	delta := amount
	if dir == model.DirectionOut {
		delta = amount.Neg()
	}
	if description == "" {
		description = defaultDepositDescription
		if kind == model.KindWithdrawal {
			description = defaultWithdrawalDescription
		}
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id":          owner.UserID,
		"account_id":       accountID,
		"transaction_type": kind,
		"amount":           amount.String(),
	})

	// The unit runs to completion even if the caller goes away.
	unitCtx := context.WithoutCancel(ctx)
	var balance money.Money
	err = s.uow.Atomically(unitCtx, []int64{accountID}, func(tx repository.Tx) error {
		var err error
		if balance, err = tx.ApplyDelta(unitCtx, accountID, delta); err != nil {
			return err
		}
		return tx.AppendTransaction(unitCtx, s.newTransaction(accountID, kind, dir, amount, s.now(), description))
	})
	if err != nil {
		err = translate(err)
		if errors.Is(err, ErrInternal) {
			log.WithError(err).Error("Ledger operation failed")
		} else {
			log.WithError(err).Info("Ledger operation rejected")
		}
		return money.Money{}, err
	}

	log.WithField("balance", balance.String()).Info("Ledger operation completed")
	return balance, nil
}

// Transfer moves amount from the owner's account to the account identified by
// receiverNumber. Both balance changes and both transaction rows commit
// together; the sender's new balance is returned.
func (s *LedgerService) Transfer(ctx context.Context, owner Owner, receiverNumber, rawAmount string) (money.Money, error) {
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return money.Money{}, err
	}

	senderID, err := s.accounts.PrimaryAccountID(ctx, owner.UserID)
	if err != nil {
		return money.Money{}, err
	}

	receiver, err := s.accounts.AccountByNumber(ctx, receiverNumber)
	if err != nil {
		return money.Money{}, err
	}
	if receiver.ID == senderID {
		return money.Money{}, ErrSameAccount
	}

	// Resolved before the unit starts so nothing but ledger writes happens
	// while the accounts are locked.
	receiverUser, err := s.users.GetUserByID(ctx, receiver.UserID)
	if err != nil {
		return money.Money{}, internal(fmt.Errorf("could not load receiver owner: %w", err))
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id":         owner.UserID,
		"from_account_id": senderID,
		"to_account_id":   receiver.ID,
		"amount":          amount.String(),
	})
	log.Info("Starting money transfer process")

	unitCtx := context.WithoutCancel(ctx)
	var balance money.Money
	err = s.uow.Atomically(unitCtx, []int64{senderID, receiver.ID}, func(tx repository.Tx) error {
		var err error
		if balance, err = tx.ApplyDelta(unitCtx, senderID, amount.Neg()); err != nil {
			return err
		}
		if _, err = tx.ApplyDelta(unitCtx, receiver.ID, amount); err != nil {
			return err
		}

		at := s.now()
		out := s.newTransaction(senderID, model.KindTransfer, model.DirectionOut, amount, at,
			"Transfer to "+receiverUser.Username)
		in := s.newTransaction(receiver.ID, model.KindTransfer, model.DirectionIn, amount, at,
			"Transfer from "+owner.Username)
		if err := tx.AppendTransaction(unitCtx, out); err != nil {
			return err
		}
		return tx.AppendTransaction(unitCtx, in)
	})
	if err != nil {
		err = translate(err)
		if errors.Is(err, ErrInternal) {
			log.WithError(err).Error("Transfer failed")
		} else {
			log.WithError(err).Info("Transfer rejected")
		}
		return money.Money{}, err
	}

	log.Info("Transaction completed successfully")
	return balance, nil
}
