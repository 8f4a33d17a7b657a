package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go-bank-ledger/logger"
	"go-bank-ledger/model"

	"github.com/sirupsen/logrus"
)

// TransactionRepository implements ITransactionRepository.
type TransactionRepository struct {
	DB *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

// appendTransaction inserts t inside the caller's transaction. created_at is
// clamped to the account's latest row to keep per-account timestamps
// non-decreasing.
func (r *TransactionRepository) appendTransaction(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id":   t.ID,
		"account_id":       t.AccountID,
		"transaction_type": t.Kind,
		"amount":           t.Amount.String(),
	})
	log.Debug("Executing query to append a transaction")

	query := `
		INSERT INTO transactions (id, account_id, transaction_type, direction, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6,
			GREATEST($7::timestamptz, COALESCE((SELECT max(created_at) FROM transactions WHERE account_id = $2), $7::timestamptz)))
		RETURNING seq, created_at`
	err := tx.QueryRowContext(ctx, query,
		t.ID, t.AccountID, string(t.Kind), string(t.Direction), t.Amount, t.Description, t.Timestamp,
	).Scan(&t.Seq, &t.Timestamp)
	if err != nil {
		log.WithError(err).Error("Failed to execute append transaction query")
		return err
	}
	return nil
}

func (r *TransactionRepository) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(max(seq), 0) FROM transactions`).Scan(&seq); err != nil {
		logger.Log.WithError(err).Error("Failed to read last transaction sequence")
		return 0, err
	}
	return seq, nil
}

// ListForOwner retrieves one page of an owner's history, newest first.
func (r *TransactionRepository) ListForOwner(ctx context.Context, q HistoryQuery) ([]*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": q.UserID,
		"kind":    q.Kind,
		"max_seq": q.MaxSeq,
	})

	var sb strings.Builder
	sb.WriteString(`
		SELECT t.seq, t.id, t.account_id, t.transaction_type, t.direction, t.amount, t.created_at, t.description
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.user_id = $1 AND t.seq <= $2`)
	args := []interface{}{q.UserID, q.MaxSeq}

	if q.Kind != "" {
		args = append(args, string(q.Kind))
		fmt.Fprintf(&sb, ` AND t.transaction_type = $%d`, len(args))
	}
	if q.After != nil {
		args = append(args, q.After.Timestamp, q.After.Seq)
		fmt.Fprintf(&sb, ` AND (t.created_at, t.seq) < ($%d, $%d)`, len(args)-1, len(args))
	}
	args = append(args, q.Limit)
	fmt.Fprintf(&sb, ` ORDER BY t.created_at DESC, t.seq DESC LIMIT $%d`, len(args))

	rows, err := r.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for transactions by owner")
		return nil, err
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		var t model.Transaction
		var kind, direction string
		if err := rows.Scan(&t.Seq, &t.ID, &t.AccountID, &kind, &direction, &t.Amount, &t.Timestamp, &t.Description); err != nil {
			log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		t.Kind = model.TransactionKind(kind)
		t.Direction = model.Direction(direction)
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}
