package service

import (
	"context"
	"iter"

	"go-bank-ledger/model"
	"go-bank-ledger/repository"
)

// HistoryService is the read-only view over the transaction log.
type HistoryService struct {
	accounts     *AccountService
	transactions repository.ITransactionRepository
	pageSize     int
}

func NewHistoryService(accounts *AccountService, transactions repository.ITransactionRepository, pageSize int) *HistoryService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &HistoryService{accounts: accounts, transactions: transactions, pageSize: pageSize}
}

// History returns the owner's transactions newest first, optionally filtered
// by kind. The sequence is lazy and fetches one page at a time. It is bounded
// by the log as it was when History was called, and ranging over it again
// restarts from the newest row.
func (s *HistoryService) History(ctx context.Context, userID int64, kind model.TransactionKind) (iter.Seq2[*model.Transaction, error], error) {
	if _, err := s.accounts.PrimaryAccountID(ctx, userID); err != nil {
		return nil, err
	}
	maxSeq, err := s.transactions.LastSeq(ctx)
	if err != nil {
		return nil, internal(err)
	}

	return func(yield func(*model.Transaction, error) bool) {
		var after *repository.Cursor
		for {
			page, err := s.transactions.ListForOwner(ctx, repository.HistoryQuery{
				UserID: userID,
				Kind:   kind,
				MaxSeq: maxSeq,
				After:  after,
				Limit:  s.pageSize,
			})
			if err != nil {
				yield(nil, internal(err))
				return
			}
			for _, t := range page {
				if !yield(t, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			last := page[len(page)-1]
			after = &repository.Cursor{Timestamp: last.Timestamp, Seq: last.Seq}
		}
	}, nil
}

// List drains History into a slice.
func (s *HistoryService) List(ctx context.Context, userID int64, kind model.TransactionKind) ([]*model.Transaction, error) {
	seq, err := s.History(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	transactions := []*model.Transaction{}
	for t, err := range seq {
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}
