package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/houseshare/internal/models"
	"github.com/mmynk/houseshare/internal/storage"
)

const billColumns = `id, house_id, name, amount, due_date, target_amount, assigned_all, created_by, created_at`

type billRow struct {
	ID           string              `db:"id"`
	HouseID      string              `db:"house_id"`
	Name         string              `db:"name"`
	Amount       decimal.Decimal     `db:"amount"`
	DueDate      int64               `db:"due_date"`
	TargetAmount decimal.NullDecimal `db:"target_amount"`
	AssignedAll  bool                `db:"assigned_all"`
	CreatedBy    string              `db:"created_by"`
	CreatedAt    int64               `db:"created_at"`
}

type paymentRow struct {
	TenantID   string          `db:"tenant_id"`
	Paid       bool            `db:"paid"`
	AmountPaid decimal.Decimal `db:"amount_paid"`
	PaidAt     int64           `db:"paid_at"`
}

func (r *billRow) toModel() *models.Bill {
	return &models.Bill{
		ID:           r.ID,
		HouseID:      r.HouseID,
		Name:         r.Name,
		Amount:       r.Amount,
		DueDate:      r.DueDate,
		TargetAmount: r.TargetAmount,
		AssignedTo:   models.Assignment{All: r.AssignedAll},
		Payments:     make(map[string]models.Payment),
		CreatedBy:    r.CreatedBy,
		CreatedAt:    r.CreatedAt,
	}
}

// CreateBill persists a new bill with its explicit assignees.
func (s *Store) CreateBill(ctx context.Context, bill *models.Bill) error {
	// Generate IDs if not set
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.CreatedAt == 0 {
		bill.CreatedAt = time.Now().Unix()
	}
	if bill.Payments == nil {
		bill.Payments = make(map[string]models.Payment)
	}

	return s.InTx(ctx, func(tx storage.Store) error {
		st := tx.(*Store)
		_, err := st.exec(ctx,
			`INSERT INTO bills (`+billColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			bill.ID, bill.HouseID, bill.Name, bill.Amount, bill.DueDate,
			bill.TargetAmount, bill.AssignedTo.All, bill.CreatedBy, bill.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bill: %w", err)
		}

		if bill.AssignedTo.All {
			return nil
		}
		for _, userID := range bill.AssignedTo.TenantIDs {
			if _, err := st.exec(ctx,
				`INSERT INTO bill_assignees (bill_id, user_id) VALUES (?, ?)`,
				bill.ID, userID,
			); err != nil {
				return fmt.Errorf("failed to insert bill assignee: %w", err)
			}
		}
		return nil
	})
}

// GetBill retrieves a bill by ID, including assignees and payments.
func (s *Store) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	var row billRow
	err := s.get(ctx, &row, `SELECT `+billColumns+` FROM bills WHERE id = ?`+s.forUpdate(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("bill", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	bill := row.toModel()
	if err := s.loadBillDetails(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// ListBillsByHouse retrieves all bills scoped to a house in creation order.
func (s *Store) ListBillsByHouse(ctx context.Context, houseID string) ([]*models.Bill, error) {
	var rows []billRow
	if err := s.sel(ctx, &rows,
		`SELECT `+billColumns+` FROM bills WHERE house_id = ? ORDER BY created_at, id`, houseID,
	); err != nil {
		return nil, fmt.Errorf("failed to list bills by house: %w", err)
	}

	bills := make([]*models.Bill, 0, len(rows))
	for i := range rows {
		bill := rows[i].toModel()
		if err := s.loadBillDetails(ctx, bill); err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, nil
}

func (s *Store) loadBillDetails(ctx context.Context, bill *models.Bill) error {
	if !bill.AssignedTo.All {
		if err := s.sel(ctx, &bill.AssignedTo.TenantIDs,
			`SELECT user_id FROM bill_assignees WHERE bill_id = ? ORDER BY user_id`, bill.ID,
		); err != nil {
			return fmt.Errorf("failed to get bill assignees: %w", err)
		}
	}

	var payments []paymentRow
	if err := s.sel(ctx, &payments,
		`SELECT tenant_id, paid, amount_paid, paid_at FROM bill_payments WHERE bill_id = ?`, bill.ID,
	); err != nil {
		return fmt.Errorf("failed to get bill payments: %w", err)
	}
	for _, p := range payments {
		bill.Payments[p.TenantID] = models.Payment{
			TenantID:   p.TenantID,
			Paid:       p.Paid,
			AmountPaid: p.AmountPaid,
			PaidAt:     p.PaidAt,
		}
	}
	return nil
}

// SavePayment upserts the single payment entry for a tenant.
func (s *Store) SavePayment(ctx context.Context, billID string, payment models.Payment) error {
	_, err := s.exec(ctx,
		`INSERT INTO bill_payments (bill_id, tenant_id, paid, amount_paid, paid_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (bill_id, tenant_id) DO UPDATE
		 SET paid = excluded.paid, amount_paid = excluded.amount_paid, paid_at = excluded.paid_at`,
		billID, payment.TenantID, payment.Paid, payment.AmountPaid, payment.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// DeleteBillsByHouse removes every bill of a house together with its child rows.
func (s *Store) DeleteBillsByHouse(ctx context.Context, houseID string) error {
	return s.InTx(ctx, func(tx storage.Store) error {
		st := tx.(*Store)
		if _, err := st.exec(ctx,
			`DELETE FROM bill_payments WHERE bill_id IN (SELECT id FROM bills WHERE house_id = ?)`, houseID,
		); err != nil {
			return fmt.Errorf("failed to delete bill payments: %w", err)
		}
		if _, err := st.exec(ctx,
			`DELETE FROM bill_assignees WHERE bill_id IN (SELECT id FROM bills WHERE house_id = ?)`, houseID,
		); err != nil {
			return fmt.Errorf("failed to delete bill assignees: %w", err)
		}
		if _, err := st.exec(ctx, `DELETE FROM bills WHERE house_id = ?`, houseID); err != nil {
			return fmt.Errorf("failed to delete bills: %w", err)
		}
		return nil
	})
}
