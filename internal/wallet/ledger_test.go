package wallet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/lock"
	"github.com/mmynk/houseshare/internal/models"
	"github.com/mmynk/houseshare/internal/storage/sqlstore"
	"github.com/mmynk/houseshare/internal/storage/storetest"
)

// fakeGateway answers from a fixed table of references.
type fakeGateway struct {
	results map[string]*Verification
	err     error
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (*Verification, error) {
	if g.err != nil {
		return nil, g.err
	}
	v, ok := g.results[reference]
	if !ok {
		return &Verification{Status: "failed"}, nil
	}
	return v, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestLedger(t *testing.T, gw Gateway) (*Ledger, *sqlstore.Store) {
	t.Helper()
	store := storetest.New(t)
	return NewLedger(store, lock.NewLocal(), gw), store
}

// newHouse creates a house administered by admin with the given wallet balance.
func newHouse(t *testing.T, store *sqlstore.Store, admin *models.User, balance string) *models.House {
	t.Helper()
	ctx := context.Background()

	house := &models.House{
		Name:          "H",
		AdminID:       admin.ID,
		JoinCode:      "123456",
		TenantIDs:     []string{admin.ID},
		SubAdminIDs:   []string{},
		ChatSettings:  models.DefaultChatSettings(),
		WalletBalance: dec(balance),
	}
	require.NoError(t, store.CreateHouse(ctx, house))
	require.NoError(t, store.SetUserHouse(ctx, admin.ID, house.ID, models.RoleAdmin))
	return house
}

func TestTopUp(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{results: map[string]*Verification{
		"ok-ref":   {Status: StatusSuccess, Amount: dec("2500")},
		"zero-ref": {Status: StatusSuccess, Amount: decimal.Zero},
	}}

	t.Run("verified reference credits and records", func(t *testing.T) {
		ledger, store := newTestLedger(t, gw)
		u := storetest.CreateUser(t, store, "u1", "100")

		balance, err := ledger.TopUp(ctx, u.ID, "ok-ref")
		require.NoError(t, err)
		assert.True(t, dec("2600").Equal(balance), "balance = %s", balance)
		assert.True(t, dec("2600").Equal(storetest.MustUser(t, store, u.ID).WalletBalance))

		txs, err := ledger.Transactions(ctx, u.ID, 10)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, models.TxTopUp, txs[0].Type)
		assert.Equal(t, models.TxSuccess, txs[0].Status)
		assert.Equal(t, "ok-ref", txs[0].Reference)
		assert.True(t, dec("2500").Equal(txs[0].Amount))
	})

	t.Run("reference credits once", func(t *testing.T) {
		ledger, store := newTestLedger(t, gw)
		u := storetest.CreateUser(t, store, "u1", "0")

		_, err := ledger.TopUp(ctx, u.ID, "ok-ref")
		require.NoError(t, err)
		_, err = ledger.TopUp(ctx, u.ID, "ok-ref")
		assert.ErrorIs(t, err, errs.ErrReferenceUsed)
		assert.True(t, dec("2500").Equal(storetest.MustUser(t, store, u.ID).WalletBalance))
	})

	failures := []struct {
		name string
		gw   Gateway
		ref  string
	}{
		{"gateway reports failure", gw, "bad-ref"},
		{"gateway errors", &fakeGateway{err: errors.New("timeout")}, "ok-ref"},
		{"non-positive amount", gw, "zero-ref"},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			ledger, store := newTestLedger(t, tt.gw)
			u := storetest.CreateUser(t, store, "u1", "100")

			_, err := ledger.TopUp(ctx, u.ID, tt.ref)
			assert.ErrorIs(t, err, errs.ErrPaymentVerificationFailed)

			assert.True(t, dec("100").Equal(storetest.MustUser(t, store, u.ID).WalletBalance))
			txs, err := ledger.Transactions(ctx, u.ID, 10)
			require.NoError(t, err)
			assert.Empty(t, txs)
		})
	}

	t.Run("empty reference", func(t *testing.T) {
		ledger, store := newTestLedger(t, gw)
		u := storetest.CreateUser(t, store, "u1", "0")

		_, err := ledger.TopUp(ctx, u.ID, " ")
		assert.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestDebit(t *testing.T) {
	ctx := context.Background()

	t.Run("insufficient balance changes nothing", func(t *testing.T) {
		ledger, store := newTestLedger(t, &fakeGateway{})
		u := storetest.CreateUser(t, store, "u1", "3000")

		_, err := ledger.Debit(ctx, u.ID, dec("5000"))
		assert.ErrorIs(t, err, errs.ErrInsufficientBalance)
		assert.True(t, dec("3000").Equal(storetest.MustUser(t, store, u.ID).WalletBalance))
	})

	t.Run("exact balance reaches zero", func(t *testing.T) {
		ledger, store := newTestLedger(t, &fakeGateway{})
		u := storetest.CreateUser(t, store, "u1", "5000")

		balance, err := ledger.Debit(ctx, u.ID, dec("5000"))
		require.NoError(t, err)
		assert.True(t, balance.IsZero())
	})

	t.Run("non-positive amount", func(t *testing.T) {
		ledger, store := newTestLedger(t, &fakeGateway{})
		u := storetest.CreateUser(t, store, "u1", "5000")

		_, err := ledger.Debit(ctx, u.ID, dec("-1"))
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("concurrent debits never overdraw", func(t *testing.T) {
		ledger, store := newTestLedger(t, &fakeGateway{})
		u := storetest.CreateUser(t, store, "u1", "1000")

		const workers = 20
		var ok, insufficient atomic.Int32
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := ledger.Debit(ctx, u.ID, dec("150"))
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, errs.ErrInsufficientBalance):
					insufficient.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(6), ok.Load())
		assert.Equal(t, int32(workers-6), insufficient.Load())
		assert.True(t, dec("100").Equal(storetest.MustUser(t, store, u.ID).WalletBalance))
	})
}

func TestHouseWithdraw(t *testing.T) {
	ctx := context.Background()
	bank := BankDetails{AccountName: "Ada", AccountNumber: "0123456789"}

	t.Run("admin withdraws", func(t *testing.T) {
		ledger, store := newTestLedger(t, &fakeGateway{})
		admin := storetest.CreateUser(t, store, "admin", "0")
		house := newHouse(t, store, admin, "1000")

		balance, txn, err := ledger.HouseWithdraw(ctx, admin.ID, house.ID, dec("400"), bank)
		require.NoError(t, err)
		assert.True(t, dec("600").Equal(balance))
		assert.Equal(t, models.TxWithdrawal, txn.Type)
		assert.Equal(t, "House withdrawal to Ada (0123456789)", txn.Description)
		assert.True(t, dec("600").Equal(storetest.MustHouse(t, store, house.ID).WalletBalance))

		houseID, hb, err := ledger.HouseBalance(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, house.ID, houseID)
		assert.True(t, dec("600").Equal(hb))
	})

	t.Run("insufficient house balance", func(t *testing.T) {
		ledger, store := newTestLedger(t, &fakeGateway{})
		admin := storetest.CreateUser(t, store, "admin", "0")
		house := newHouse(t, store, admin, "100")

		_, _, err := ledger.HouseWithdraw(ctx, admin.ID, house.ID, dec("400"), bank)
		assert.ErrorIs(t, err, errs.ErrInsufficientHouseBalance)
		assert.True(t, dec("100").Equal(storetest.MustHouse(t, store, house.ID).WalletBalance))
	})

	t.Run("non-admin rejected", func(t *testing.T) {
		ledger, store := newTestLedger(t, &fakeGateway{})
		admin := storetest.CreateUser(t, store, "admin", "0")
		other := storetest.CreateUser(t, store, "other", "0")
		house := newHouse(t, store, admin, "1000")

		_, _, err := ledger.HouseWithdraw(ctx, other.ID, house.ID, dec("400"), bank)
		assert.ErrorIs(t, err, errs.ErrUnauthorized)

		txs, err := ledger.Transactions(ctx, other.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, txs)
	})

	t.Run("missing bank details", func(t *testing.T) {
		ledger, store := newTestLedger(t, &fakeGateway{})
		admin := storetest.CreateUser(t, store, "admin", "0")
		house := newHouse(t, store, admin, "1000")

		_, _, err := ledger.HouseWithdraw(ctx, admin.ID, house.ID, dec("1"), BankDetails{AccountName: "Ada"})
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("amount outside money range", func(t *testing.T) {
		ledger, store := newTestLedger(t, &fakeGateway{})
		admin := storetest.CreateUser(t, store, "admin", "0")
		house := newHouse(t, store, admin, "1000")

		for _, amount := range []string{"0.001", "1e-9", "1e30"} {
			_, _, err := ledger.HouseWithdraw(ctx, admin.ID, house.ID, dec(amount), bank)
			assert.ErrorIs(t, err, errs.ErrValidation, "amount %s", amount)
		}
		assert.True(t, dec("1000").Equal(storetest.MustHouse(t, store, house.ID).WalletBalance))
	})

	t.Run("house balance without a house", func(t *testing.T) {
		ledger, store := newTestLedger(t, &fakeGateway{})
		u := storetest.CreateUser(t, store, "u1", "0")

		houseID, hb, err := ledger.HouseBalance(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, houseID)
		assert.True(t, hb.IsZero())
	})
}

func TestPaystackVerify(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/transaction/verify/good":
			w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"success","amount":250050,"reference":"good"}}`))
		case "/transaction/verify/abandoned":
			w.Write([]byte(`{"status":true,"data":{"status":"abandoned","amount":0}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
		}
	}))
	defer server.Close()

	gw := NewPaystack(PaystackConfig{BaseURL: server.URL + "/", SecretKey: "sk_test"})
	ctx := context.Background()

	v, err := gw.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, "/transaction/verify/good", gotPath)
	assert.Equal(t, StatusSuccess, v.Status)
	assert.True(t, dec("2500.5").Equal(v.Amount), "amount = %s", v.Amount)

	v, err = gw.Verify(ctx, "abandoned")
	require.NoError(t, err)
	assert.Equal(t, "abandoned", v.Status)

	_, err = gw.Verify(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transaction reference not found")

	// Wired into the ledger, a rejected reference is a verification failure.
	store := storetest.New(t)
	ledger := NewLedger(store, lock.NewLocal(), gw)
	u := storetest.CreateUser(t, store, "u1", "0")
	_, err = ledger.TopUp(ctx, u.ID, "abandoned")
	assert.ErrorIs(t, err, errs.ErrPaymentVerificationFailed)

	balance, err := ledger.TopUp(ctx, u.ID, "good")
	require.NoError(t, err)
	assert.True(t, dec("2500.5").Equal(balance))
}
