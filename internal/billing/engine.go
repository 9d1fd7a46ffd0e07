// Package billing creates house bills and settles per-tenant payments.
//
// A bill's Amount is what each assigned tenant owes individually, not a share of
// a total. Each (bill, tenant) pair moves from unpaid to paid exactly once.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/houseshare/internal/authz"
	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/lock"
	"github.com/mmynk/houseshare/internal/metrics"
	"github.com/mmynk/houseshare/internal/models"
	"github.com/mmynk/houseshare/internal/storage"
	"github.com/mmynk/houseshare/internal/wallet"
)

// Method is how a tenant pays a bill.
type Method string

const (
	MethodWallet  Method = "wallet"
	MethodGateway Method = "gateway"

	// methodPaystack is accepted as an alias of MethodGateway.
	methodPaystack Method = "paystack"
)

// label is the metric label for m. Unrecognised methods share one label.
func (m Method) label() string {
	switch m {
	case MethodWallet, MethodGateway, methodPaystack:
		return string(m)
	}
	return "other"
}

// BillInput describes a new bill.
type BillInput struct {
	Name    string
	Amount  decimal.Decimal
	DueDate int64

	// AssignedTo lists tenant IDs. Empty, or the single entry models.AssignedAll,
	// assigns the bill to every tenant.
	AssignedTo []string

	TargetAmount decimal.NullDecimal
}

// PayResult is the outcome of a successful bill payment.
type PayResult struct {
	Payment models.Payment
	Balance decimal.Decimal
}

// Engine implements bill operations.
type Engine struct {
	store storage.Store
	locks lock.Locker
}

// NewEngine creates a bill Engine. locks must be the same Locker the wallet
// ledger uses so that bill payments and other debits serialize per user.
func NewEngine(store storage.Store, locks lock.Locker) *Engine {
	return &Engine{store: store, locks: locks}
}

// CreateBill creates a bill in the actor's house. Admin or sub-admin only.
func (e *Engine) CreateBill(ctx context.Context, actorID string, input BillInput) (*models.Bill, error) {
	assignment, err := validateInput(&input)
	if err != nil {
		return nil, err
	}

	actor, err := e.store.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.InHouse() {
		return nil, fmt.Errorf("%w: not in a house", errs.ErrUnauthorized)
	}

	house, err := e.store.GetHouse(ctx, actor.HouseID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(house, actorID, authz.Elevated); err != nil {
		return nil, err
	}
	for _, id := range assignment.TenantIDs {
		if !house.HasTenant(id) {
			return nil, fmt.Errorf("%w: assignee %s is not a tenant", errs.ErrValidation, id)
		}
	}

	bill := &models.Bill{
		HouseID:      house.ID,
		Name:         input.Name,
		Amount:       input.Amount,
		DueDate:      input.DueDate,
		TargetAmount: input.TargetAmount,
		AssignedTo:   assignment,
		Payments:     map[string]models.Payment{},
		CreatedBy:    actorID,
	}
	if err := e.store.CreateBill(ctx, bill); err != nil {
		slog.Error("CreateBill failed", "house_id", house.ID, "error", err)
		return nil, err
	}

	slog.Info("Bill created", "bill_id", bill.ID, "house_id", house.ID, "amount", bill.Amount)
	return bill, nil
}

func validateInput(input *BillInput) (models.Assignment, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return models.Assignment{}, fmt.Errorf("%w: bill name required", errs.ErrValidation)
	}
	if !input.Amount.IsPositive() {
		return models.Assignment{}, fmt.Errorf("%w: amount must be positive", errs.ErrValidation)
	}
	if !models.ValidMoney(input.Amount) {
		return models.Assignment{}, fmt.Errorf("%w: amount %s out of range", errs.ErrValidation, input.Amount)
	}
	if input.DueDate <= 0 {
		return models.Assignment{}, fmt.Errorf("%w: due date required", errs.ErrValidation)
	}
	if input.TargetAmount.Valid {
		if input.TargetAmount.Decimal.IsNegative() || !models.ValidMoney(input.TargetAmount.Decimal) {
			return models.Assignment{}, fmt.Errorf("%w: invalid target amount", errs.ErrValidation)
		}
	}

	if len(input.AssignedTo) == 0 || (len(input.AssignedTo) == 1 && input.AssignedTo[0] == models.AssignedAll) {
		return models.Assignment{All: true}, nil
	}

	ids := make([]string, 0, len(input.AssignedTo))
	for _, id := range input.AssignedTo {
		if id == "" || id == models.AssignedAll {
			return models.Assignment{}, fmt.Errorf("%w: invalid assignee %q", errs.ErrValidation, id)
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return models.Assignment{TenantIDs: ids}, nil
}

// ListBills returns the bills of the user's house with payments resolved to
// tenant identity. A user without a house has no bills.
func (e *Engine) ListBills(ctx context.Context, userID string) ([]*models.Bill, error) {
	user, err := e.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.InHouse() {
		return []*models.Bill{}, nil
	}

	bills, err := e.store.ListBillsByHouse(ctx, user.HouseID)
	if err != nil {
		return nil, err
	}

	var payerIDs []string
	for _, b := range bills {
		for id := range b.Payments {
			payerIDs = append(payerIDs, id)
		}
	}
	if len(payerIDs) == 0 {
		return bills, nil
	}

	users, err := e.store.GetUsersByIDs(ctx, payerIDs)
	if err != nil {
		return nil, err
	}
	for _, b := range bills {
		for id, p := range b.Payments {
			if u, ok := users[id]; ok {
				p.TenantName = u.DisplayName
				p.TenantEmail = u.Email
				b.Payments[id] = p
			}
		}
	}
	return bills, nil
}

// PayBill settles payerID's share of billID. Only MethodWallet settles; any
// other method fails with ErrUnsupportedMethod after the bill is found payable
// by payerID.
func (e *Engine) PayBill(ctx context.Context, payerID, billID string, method Method) (result *PayResult, err error) {
	defer func() { metrics.RecordBillPayment(method.label(), err) }()

	payer, err := e.store.GetUserByID(ctx, payerID)
	if err != nil {
		return nil, err
	}
	if !payer.InHouse() {
		return nil, fmt.Errorf("%w: bill %s", errs.ErrNotFound, billID)
	}
	houseID := payer.HouseID

	release, err := lock.All(ctx, e.locks, lock.UserKey(payerID), lock.HouseKey(houseID))
	if err != nil {
		return nil, err
	}
	defer release()

	err = e.store.InTx(ctx, func(tx storage.Store) error {
		payer, err := tx.GetUserByID(ctx, payerID)
		if err != nil {
			return err
		}
		if payer.HouseID != houseID {
			return fmt.Errorf("%w: house membership changed", errs.ErrConflict)
		}

		bill, err := tx.GetBill(ctx, billID)
		if err != nil {
			return err
		}
		if bill.HouseID != houseID {
			return fmt.Errorf("%w: bill %s", errs.ErrNotFound, billID)
		}
		if !bill.AssignedTo.Includes(payerID) {
			return errs.ErrNotAssigned
		}
		if bill.IsPaidBy(payerID) {
			return errs.ErrAlreadyPaid
		}
		if method != MethodWallet {
			return fmt.Errorf("%w: %s", errs.ErrUnsupportedMethod, method)
		}

		balance, err := wallet.DebitTx(ctx, tx, payerID, bill.Amount)
		if err != nil {
			return err
		}

		payment := models.Payment{
			TenantID:   payerID,
			Paid:       true,
			AmountPaid: bill.Amount,
			PaidAt:     time.Now().Unix(),
		}
		if err := tx.SavePayment(ctx, bill.ID, payment); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, &models.Transaction{
			UserID:      payerID,
			HouseID:     houseID,
			Type:        models.TxPayment,
			Amount:      bill.Amount,
			Status:      models.TxSuccess,
			Reference:   bill.ID,
			Description: "Payment for " + bill.Name,
		}); err != nil {
			return err
		}
		if _, err := wallet.CreditHouseTx(ctx, tx, houseID, bill.Amount); err != nil {
			return err
		}

		result = &PayResult{Payment: payment, Balance: balance}
		return nil
	})
	if err != nil {
		if errs.KindOf(err) == errs.KindInternal && !errors.Is(err, context.Canceled) {
			slog.Error("PayBill failed", "bill_id", billID, "user_id", payerID, "error", err)
		}
		return nil, err
	}

	slog.Info("Bill paid", "bill_id", billID, "user_id", payerID, "amount", result.Payment.AmountPaid)
	return result, nil
}
