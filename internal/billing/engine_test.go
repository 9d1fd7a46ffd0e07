package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/lock"
	"github.com/mmynk/houseshare/internal/membership"
	"github.com/mmynk/houseshare/internal/metrics"
	"github.com/mmynk/houseshare/internal/models"
	"github.com/mmynk/houseshare/internal/storage/sqlstore"
	"github.com/mmynk/houseshare/internal/storage/storetest"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	store   *sqlstore.Store
	engine  *Engine
	members *membership.Service
	house   *models.House
	admin   *models.User
	tenant  *models.User
}

// newFixture creates a house with an admin and one tenant holding tenantBalance.
func newFixture(t *testing.T, tenantBalance string) *fixture {
	t.Helper()
	ctx := context.Background()

	store := storetest.New(t)
	locks := lock.NewLocal()
	f := &fixture{
		store:   store,
		engine:  NewEngine(store, locks),
		members: membership.NewService(store, locks),
		admin:   storetest.CreateUser(t, store, "admin", "0"),
		tenant:  storetest.CreateUser(t, store, "tenant", tenantBalance),
	}

	house, err := f.members.CreateHouse(ctx, f.admin.ID, "H")
	require.NoError(t, err)
	f.house, err = f.members.JoinHouse(ctx, f.tenant.ID, house.JoinCode)
	require.NoError(t, err)
	return f
}

func (f *fixture) createBill(t *testing.T, amount string, assignedTo ...string) *models.Bill {
	t.Helper()
	bill, err := f.engine.CreateBill(context.Background(), f.admin.ID, BillInput{
		Name:       "Electricity",
		Amount:     dec(amount),
		DueDate:    time.Now().Add(7 * 24 * time.Hour).Unix(),
		AssignedTo: assignedTo,
	})
	require.NoError(t, err)
	return bill
}

func TestCreateBill(t *testing.T) {
	ctx := context.Background()
	due := time.Now().Unix()

	t.Run("defaults to all tenants", func(t *testing.T) {
		f := newFixture(t, "0")
		bill := f.createBill(t, "5000")

		assert.True(t, bill.AssignedTo.All)
		assert.Empty(t, bill.Payments)
		assert.Equal(t, f.house.ID, bill.HouseID)
		assert.False(t, bill.TargetAmount.Valid)
	})

	t.Run("sub-admin may create", func(t *testing.T) {
		f := newFixture(t, "0")
		_, err := f.members.ManageMember(ctx, f.admin.ID, membership.ActionPromote, f.tenant.ID)
		require.NoError(t, err)

		bill, err := f.engine.CreateBill(ctx, f.tenant.ID, BillInput{
			Name:         "Internet",
			Amount:       dec("100"),
			DueDate:      due,
			AssignedTo:   []string{f.tenant.ID, f.tenant.ID},
			TargetAmount: decimal.NewNullDecimal(dec("1000")),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{f.tenant.ID}, bill.AssignedTo.TenantIDs)
		assert.True(t, bill.TargetAmount.Valid)
	})

	t.Run("plain tenant rejected", func(t *testing.T) {
		f := newFixture(t, "0")
		_, err := f.engine.CreateBill(ctx, f.tenant.ID, BillInput{Name: "X", Amount: dec("1"), DueDate: due})
		assert.ErrorIs(t, err, errs.ErrUnauthorized)

		bills, err := f.engine.ListBills(ctx, f.admin.ID)
		require.NoError(t, err)
		assert.Empty(t, bills)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture(t, "0")
		outsider := storetest.CreateUser(t, f.store, "outsider", "0")

		tests := []struct {
			name  string
			input BillInput
		}{
			{"missing name", BillInput{Amount: dec("1"), DueDate: due}},
			{"zero amount", BillInput{Name: "X", Amount: decimal.Zero, DueDate: due}},
			{"missing due date", BillInput{Name: "X", Amount: dec("1")}},
			{"negative target", BillInput{Name: "X", Amount: dec("1"), DueDate: due, TargetAmount: decimal.NewNullDecimal(dec("-5"))}},
			{"assignee not a tenant", BillInput{Name: "X", Amount: dec("1"), DueDate: due, AssignedTo: []string{outsider.ID}}},
			{"all mixed with ids", BillInput{Name: "X", Amount: dec("1"), DueDate: due, AssignedTo: []string{models.AssignedAll, f.tenant.ID}}},
			{"sub-cent amount", BillInput{Name: "X", Amount: dec("0.0000000000000000000000001"), DueDate: due}},
			{"three decimal places", BillInput{Name: "X", Amount: dec("10.001"), DueDate: due}},
			{"huge amount", BillInput{Name: "X", Amount: dec("1e30"), DueDate: due}},
			{"tiny exponent", BillInput{Name: "X", Amount: dec("1e-50000000"), DueDate: due}},
			{"sub-cent target", BillInput{Name: "X", Amount: dec("1"), DueDate: due, TargetAmount: decimal.NewNullDecimal(dec("0.005"))}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.engine.CreateBill(ctx, f.admin.ID, tt.input)
				assert.ErrorIs(t, err, errs.ErrValidation)
			})
		}
	})
}

func TestPayBill(t *testing.T) {
	ctx := context.Background()

	t.Run("insufficient balance leaves everything unchanged", func(t *testing.T) {
		f := newFixture(t, "3000")
		bill := f.createBill(t, "5000")

		_, err := f.engine.PayBill(ctx, f.tenant.ID, bill.ID, MethodWallet)
		assert.ErrorIs(t, err, errs.ErrInsufficientBalance)

		assert.True(t, dec("3000").Equal(storetest.MustUser(t, f.store, f.tenant.ID).WalletBalance))
		got, err := f.store.GetBill(ctx, bill.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Payments)
		txs, err := f.store.ListTransactions(ctx, f.tenant.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, txs)
	})

	t.Run("wallet payment debits and records", func(t *testing.T) {
		f := newFixture(t, "6000")
		bill := f.createBill(t, "5000")

		result, err := f.engine.PayBill(ctx, f.tenant.ID, bill.ID, MethodWallet)
		require.NoError(t, err)
		assert.True(t, dec("1000").Equal(result.Balance))
		assert.True(t, result.Payment.Paid)
		assert.True(t, dec("5000").Equal(result.Payment.AmountPaid))

		assert.True(t, dec("1000").Equal(storetest.MustUser(t, f.store, f.tenant.ID).WalletBalance))
		assert.True(t, dec("5000").Equal(storetest.MustHouse(t, f.store, f.house.ID).WalletBalance))

		txs, err := f.store.ListTransactions(ctx, f.tenant.ID, 10)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, models.TxPayment, txs[0].Type)
		assert.Equal(t, bill.ID, txs[0].Reference)

		bills, err := f.engine.ListBills(ctx, f.tenant.ID)
		require.NoError(t, err)
		require.Len(t, bills, 1)
		p := bills[0].Payments[f.tenant.ID]
		assert.True(t, p.Paid)
		assert.Equal(t, "tenant", p.TenantName)
		assert.Equal(t, "tenant@example.com", p.TenantEmail)
		assert.True(t, dec("5000").Equal(bills[0].Collected()))

		_, err = f.engine.PayBill(ctx, f.tenant.ID, bill.ID, MethodWallet)
		assert.ErrorIs(t, err, errs.ErrAlreadyPaid)
		assert.True(t, dec("1000").Equal(storetest.MustUser(t, f.store, f.tenant.ID).WalletBalance))
	})

	t.Run("not assigned", func(t *testing.T) {
		f := newFixture(t, "6000")
		bill := f.createBill(t, "100", f.admin.ID)

		_, err := f.engine.PayBill(ctx, f.tenant.ID, bill.ID, MethodWallet)
		assert.ErrorIs(t, err, errs.ErrNotAssigned)
	})

	t.Run("bill in another house is not found", func(t *testing.T) {
		f := newFixture(t, "6000")
		bill := f.createBill(t, "100")

		other := storetest.CreateUser(t, f.store, "other", "6000")
		_, err := f.members.CreateHouse(ctx, other.ID, "Other")
		require.NoError(t, err)

		_, err = f.engine.PayBill(ctx, other.ID, bill.ID, MethodWallet)
		assert.ErrorIs(t, err, errs.ErrNotFound)

		_, err = f.engine.PayBill(ctx, f.tenant.ID, "missing", MethodWallet)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("gateway method unsupported", func(t *testing.T) {
		f := newFixture(t, "6000")
		bill := f.createBill(t, "100")

		_, err := f.engine.PayBill(ctx, f.tenant.ID, bill.ID, MethodGateway)
		assert.ErrorIs(t, err, errs.ErrUnsupportedMethod)
		_, err = f.engine.PayBill(ctx, f.tenant.ID, bill.ID, Method("cash"))
		assert.ErrorIs(t, err, errs.ErrUnsupportedMethod)
		assert.True(t, dec("6000").Equal(storetest.MustUser(t, f.store, f.tenant.ID).WalletBalance))
	})

	t.Run("bill checks precede method support", func(t *testing.T) {
		f := newFixture(t, "6000")
		bill := f.createBill(t, "100", f.admin.ID)

		_, err := f.engine.PayBill(ctx, f.tenant.ID, "missing", Method("cash"))
		assert.ErrorIs(t, err, errs.ErrNotFound)
		_, err = f.engine.PayBill(ctx, f.tenant.ID, bill.ID, MethodGateway)
		assert.ErrorIs(t, err, errs.ErrNotAssigned)

		_, err = f.engine.PayBill(ctx, f.admin.ID, bill.ID, MethodWallet)
		assert.ErrorIs(t, err, errs.ErrInsufficientBalance)
	})

	t.Run("concurrent payments of one bill pay once", func(t *testing.T) {
		f := newFixture(t, "6000")
		bill := f.createBill(t, "1000")

		var paid, already atomic.Int32
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.engine.PayBill(ctx, f.tenant.ID, bill.ID, MethodWallet)
				switch {
				case err == nil:
					paid.Add(1)
				case errors.Is(err, errs.ErrAlreadyPaid):
					already.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), paid.Load())
		assert.Equal(t, int32(9), already.Load())
		assert.True(t, dec("5000").Equal(storetest.MustUser(t, f.store, f.tenant.ID).WalletBalance))
	})
}

func TestListBills_NoHouse(t *testing.T) {
	store := storetest.New(t)
	engine := NewEngine(store, lock.NewLocal())
	u := storetest.CreateUser(t, store, "u1", "0")

	bills, err := engine.ListBills(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, bills)
}

// seriesCount returns how many label combinations the named metric has.
func seriesCount(t *testing.T, name string) int {
	t.Helper()
	families, err := metrics.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	return 0
}

func TestPayBill_UnknownMethodsShareOneLabel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "6000")
	bill := f.createBill(t, "100")

	_, err := f.engine.PayBill(ctx, f.tenant.ID, bill.ID, Method("warmup"))
	require.ErrorIs(t, err, errs.ErrUnsupportedMethod)
	before := seriesCount(t, "houseshare_bills_payments_total")

	for i := range 200 {
		_, err := f.engine.PayBill(ctx, f.tenant.ID, bill.ID, Method(fmt.Sprintf("junk-%d", i)))
		require.ErrorIs(t, err, errs.ErrUnsupportedMethod)
	}

	assert.Equal(t, before, seriesCount(t, "houseshare_bills_payments_total"))
}
