package sqlstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/models"
	"github.com/mmynk/houseshare/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "houseshare-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustCreateUser(t *testing.T, store *Store, name string) *models.User {
	t.Helper()
	user := models.NewUser(name+"@example.com", name, "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", name, err)
	}
	return user
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateUser and lookups", func(t *testing.T) {
		alice := mustCreateUser(t, store, "alice")

		byID, err := store.GetUserByID(ctx, alice.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if byID.Email != "alice@example.com" {
			t.Errorf("Email mismatch: got %s", byID.Email)
		}
		if !byID.WalletBalance.IsZero() {
			t.Errorf("Expected zero wallet, got %s", byID.WalletBalance)
		}
		if byID.Role != models.RoleTenant {
			t.Errorf("Expected tenant label, got %s", byID.Role)
		}

		byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if byEmail.ID != alice.ID {
			t.Errorf("ID mismatch: got %s, want %s", byEmail.ID, alice.ID)
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup := models.NewUser("alice@example.com", "Other", "hash")
		err := store.CreateUser(ctx, dup)
		if !errors.Is(err, errs.ErrDuplicate) {
			t.Errorf("Expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("missing user is NotFound", func(t *testing.T) {
		_, err := store.GetUserByID(ctx, "nonexistent-id")
		if !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GetUsersByIDs omits missing users", func(t *testing.T) {
		bob := mustCreateUser(t, store, "bob")
		users, err := store.GetUsersByIDs(ctx, []string{bob.ID, "ghost"})
		if err != nil {
			t.Fatalf("GetUsersByIDs failed: %v", err)
		}
		if len(users) != 1 || users[bob.ID] == nil {
			t.Errorf("Expected only bob, got %v", users)
		}
	})

	t.Run("SwapWalletBalance is compare-and-swap", func(t *testing.T) {
		carol := mustCreateUser(t, store, "carol")
		hundred := decimal.NewFromInt(100)

		if err := store.SwapWalletBalance(ctx, carol.ID, decimal.Zero, hundred); err != nil {
			t.Fatalf("SwapWalletBalance failed: %v", err)
		}
		err := store.SwapWalletBalance(ctx, carol.ID, decimal.Zero, decimal.NewFromInt(5))
		if !errors.Is(err, errs.ErrConflict) {
			t.Errorf("Expected ErrConflict for stale balance, got %v", err)
		}

		got, _ := store.GetUserByID(ctx, carol.ID)
		if !got.WalletBalance.Equal(hundred) {
			t.Errorf("Balance = %s, want 100", got.WalletBalance)
		}
	})
}

func TestHouses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")
	carol := mustCreateUser(t, store, "carol")

	house := &models.House{
		Name:          "Maple St",
		AdminID:       alice.ID,
		JoinCode:      "123456",
		TenantIDs:     []string{alice.ID, bob.ID, carol.ID},
		SubAdminIDs:   []string{bob.ID},
		ChatSettings:  models.DefaultChatSettings(),
		WalletBalance: decimal.Zero,
	}

	t.Run("CreateHouse keeps tenant order", func(t *testing.T) {
		if err := store.CreateHouse(ctx, house); err != nil {
			t.Fatalf("CreateHouse failed: %v", err)
		}
		if house.ID == "" || house.Version != 1 {
			t.Fatalf("Expected ID and version 1, got %q/%d", house.ID, house.Version)
		}

		got, err := store.GetHouseByJoinCode(ctx, "123456")
		if err != nil {
			t.Fatalf("GetHouseByJoinCode failed: %v", err)
		}
		want := []string{alice.ID, bob.ID, carol.ID}
		for i := range want {
			if got.TenantIDs[i] != want[i] {
				t.Errorf("Tenant %d = %s, want %s", i, got.TenantIDs[i], want[i])
			}
		}
		if !got.HasSubAdmin(bob.ID) {
			t.Error("Expected bob to be a sub-admin")
		}
		if !got.ChatSettings.AllowEveryoneToPost || !got.ChatSettings.AnnouncementsEnabled {
			t.Errorf("Chat settings not persisted: %+v", got.ChatSettings)
		}
	})

	t.Run("duplicate join code is rejected", func(t *testing.T) {
		other := &models.House{Name: "Other", AdminID: carol.ID, JoinCode: "123456", TenantIDs: []string{carol.ID}}
		err := store.CreateHouse(ctx, other)
		if !errors.Is(err, errs.ErrDuplicate) {
			t.Errorf("Expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("UpdateHouse bumps version and rejects stale writes", func(t *testing.T) {
		fresh, _ := store.GetHouse(ctx, house.ID)
		stale, _ := store.GetHouse(ctx, house.ID)

		fresh.RemoveTenant(carol.ID)
		if err := store.UpdateHouse(ctx, fresh); err != nil {
			t.Fatalf("UpdateHouse failed: %v", err)
		}
		if fresh.Version != 2 {
			t.Errorf("Version = %d, want 2", fresh.Version)
		}

		stale.Demote(bob.ID)
		err := store.UpdateHouse(ctx, stale)
		if !errors.Is(err, errs.ErrConflict) {
			t.Errorf("Expected ErrConflict, got %v", err)
		}

		got, _ := store.GetHouse(ctx, house.ID)
		if got.HasTenant(carol.ID) {
			t.Error("carol should have been removed")
		}
		if !got.HasSubAdmin(bob.ID) {
			t.Error("stale demote must not be applied")
		}
	})

	t.Run("UpdateHouse on a missing house is NotFound", func(t *testing.T) {
		err := store.UpdateHouse(ctx, &models.House{ID: "nonexistent-id", Version: 1})
		if !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteHouse", func(t *testing.T) {
		if err := store.DeleteHouse(ctx, house.ID); err != nil {
			t.Fatalf("DeleteHouse failed: %v", err)
		}
		_, err := store.GetHouse(ctx, house.ID)
		if !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteHouse(ctx, house.ID); !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for second delete, got %v", err)
		}
	})
}

func TestBills(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")
	house := &models.House{Name: "Oak", AdminID: alice.ID, JoinCode: "654321", TenantIDs: []string{alice.ID, bob.ID}}
	if err := store.CreateHouse(ctx, house); err != nil {
		t.Fatalf("CreateHouse failed: %v", err)
	}

	t.Run("CreateBill with explicit assignees", func(t *testing.T) {
		bill := &models.Bill{
			HouseID:      house.ID,
			Name:         "Internet",
			Amount:       decimal.NewFromInt(2500),
			DueDate:      1700000000,
			TargetAmount: decimal.NewNullDecimal(decimal.NewFromInt(5000)),
			AssignedTo:   models.Assignment{TenantIDs: []string{bob.ID}},
			CreatedBy:    alice.ID,
		}
		if err := store.CreateBill(ctx, bill); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		got, err := store.GetBill(ctx, bill.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if got.AssignedTo.All {
			t.Error("Expected explicit assignment")
		}
		if !got.AssignedTo.Includes(bob.ID) || got.AssignedTo.Includes(alice.ID) {
			t.Errorf("Assignees mismatch: %v", got.AssignedTo.TenantIDs)
		}
		if !got.TargetAmount.Valid || !got.TargetAmount.Decimal.Equal(decimal.NewFromInt(5000)) {
			t.Errorf("TargetAmount mismatch: %+v", got.TargetAmount)
		}
		if !got.Amount.Equal(decimal.NewFromInt(2500)) {
			t.Errorf("Amount = %s, want 2500", got.Amount)
		}
	})

	t.Run("SavePayment keeps one entry per tenant", func(t *testing.T) {
		bill := &models.Bill{
			HouseID:    house.ID,
			Name:       "Electricity",
			Amount:     decimal.NewFromInt(5000),
			DueDate:    1700000000,
			AssignedTo: models.Assignment{All: true},
			CreatedBy:  alice.ID,
		}
		if err := store.CreateBill(ctx, bill); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		unpaid := models.Payment{TenantID: bob.ID, AmountPaid: decimal.Zero}
		paid := models.Payment{TenantID: bob.ID, Paid: true, AmountPaid: decimal.NewFromInt(5000), PaidAt: 1700000100}
		if err := store.SavePayment(ctx, bill.ID, unpaid); err != nil {
			t.Fatalf("SavePayment failed: %v", err)
		}
		if err := store.SavePayment(ctx, bill.ID, paid); err != nil {
			t.Fatalf("SavePayment failed: %v", err)
		}

		got, _ := store.GetBill(ctx, bill.ID)
		if len(got.Payments) != 1 {
			t.Fatalf("Expected 1 payment entry, got %d", len(got.Payments))
		}
		if !got.IsPaidBy(bob.ID) {
			t.Error("Expected bob to be paid")
		}
		if !got.Collected().Equal(decimal.NewFromInt(5000)) {
			t.Errorf("Collected = %s, want 5000", got.Collected())
		}
	})

	t.Run("ListBillsByHouse and DeleteBillsByHouse", func(t *testing.T) {
		bills, err := store.ListBillsByHouse(ctx, house.ID)
		if err != nil {
			t.Fatalf("ListBillsByHouse failed: %v", err)
		}
		if len(bills) != 2 {
			t.Fatalf("Expected 2 bills, got %d", len(bills))
		}

		if err := store.DeleteBillsByHouse(ctx, house.ID); err != nil {
			t.Fatalf("DeleteBillsByHouse failed: %v", err)
		}
		bills, _ = store.ListBillsByHouse(ctx, house.ID)
		if len(bills) != 0 {
			t.Errorf("Expected no bills after delete, got %d", len(bills))
		}
	})

	t.Run("GetBill returns error for nonexistent bill", func(t *testing.T) {
		_, err := store.GetBill(ctx, "nonexistent-id")
		if !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestInTx(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := mustCreateUser(t, store, "alice")

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.InTx(ctx, func(tx storage.Store) error {
			if err := tx.SwapWalletBalance(ctx, alice.ID, decimal.Zero, decimal.NewFromInt(10)); err != nil {
				return err
			}
			if err := tx.CreateTransaction(ctx, &models.Transaction{
				UserID: alice.ID, Type: models.TxTopUp, Amount: decimal.NewFromInt(10), Status: models.TxSuccess,
			}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Expected boom, got %v", err)
		}

		got, _ := store.GetUserByID(ctx, alice.ID)
		if !got.WalletBalance.IsZero() {
			t.Errorf("Balance should be rolled back, got %s", got.WalletBalance)
		}
		txs, _ := store.ListTransactions(ctx, alice.ID, 10)
		if len(txs) != 0 {
			t.Errorf("Transactions should be rolled back, got %d", len(txs))
		}
	})

	t.Run("commit and nested InTx", func(t *testing.T) {
		err := store.InTx(ctx, func(tx storage.Store) error {
			return tx.InTx(ctx, func(inner storage.Store) error {
				return inner.SwapWalletBalance(ctx, alice.ID, decimal.Zero, decimal.NewFromInt(10))
			})
		})
		if err != nil {
			t.Fatalf("InTx failed: %v", err)
		}
		got, _ := store.GetUserByID(ctx, alice.ID)
		if !got.WalletBalance.Equal(decimal.NewFromInt(10)) {
			t.Errorf("Balance = %s, want 10", got.WalletBalance)
		}
	})
}

func TestListTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := mustCreateUser(t, store, "alice")

	for i, amount := range []int64{10, 20, 30} {
		err := store.CreateTransaction(ctx, &models.Transaction{
			UserID:    alice.ID,
			Type:      models.TxTopUp,
			Amount:    decimal.NewFromInt(amount),
			Status:    models.TxSuccess,
			Reference: "ref",
			CreatedAt: int64(1700000000 + i),
		})
		if err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
	}

	txs, err := store.ListTransactions(ctx, alice.ID, 2)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(txs))
	}
	if !txs[0].Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Newest first: got %s, want 30", txs[0].Amount)
	}
}
