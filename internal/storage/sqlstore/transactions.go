package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/models"
)

const transactionColumns = `id, user_id, house_id, type, amount, status, reference, description, created_at`

type transactionRow struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	HouseID     sql.NullString  `db:"house_id"`
	Type        string          `db:"type"`
	Amount      decimal.Decimal `db:"amount"`
	Status      string          `db:"status"`
	Reference   string          `db:"reference"`
	Description string          `db:"description"`
	CreatedAt   int64           `db:"created_at"`
}

// CreateTransaction appends a ledger entry. Returns errs.ErrDuplicate if a
// top-up reference was already used.
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt == 0 {
		tx.CreatedAt = time.Now().Unix()
	}

	_, err := s.exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, nullString(tx.HouseID), string(tx.Type), tx.Amount,
		string(tx.Status), tx.Reference, tx.Description, tx.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: reference %s", errs.ErrDuplicate, tx.Reference)
	}
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// ListTransactions retrieves a user's transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID string, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []transactionRow
	if err := s.sel(ctx, &rows,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	txs := make([]*models.Transaction, len(rows))
	for i, r := range rows {
		txs[i] = &models.Transaction{
			ID:          r.ID,
			UserID:      r.UserID,
			HouseID:     r.HouseID.String,
			Type:        models.TransactionType(r.Type),
			Amount:      r.Amount,
			Status:      models.TransactionStatus(r.Status),
			Reference:   r.Reference,
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
		}
	}
	return txs, nil
}
