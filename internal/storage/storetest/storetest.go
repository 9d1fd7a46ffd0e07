// Package storetest provides helpers for tests that need a real store.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/houseshare/internal/models"
	"github.com/mmynk/houseshare/internal/storage/sqlstore"
)

// New opens a SQLite store in a temp directory that is removed when the test ends.
func New(t testing.TB) *sqlstore.Store {
	t.Helper()

	store, err := sqlstore.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// CreateUser registers a user with the given wallet balance.
func CreateUser(t testing.TB, store *sqlstore.Store, name, balance string) *models.User {
	t.Helper()

	user := models.NewUser(name+"@example.com", name, "not-a-real-hash")
	user.WalletBalance = decimal.RequireFromString(balance)
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

// MustUser re-reads a user from the store.
func MustUser(t testing.TB, store *sqlstore.Store, id string) *models.User {
	t.Helper()

	user, err := store.GetUserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to get user %s: %v", id, err)
	}
	return user
}

// MustHouse re-reads a house from the store.
func MustHouse(t testing.TB, store *sqlstore.Store, id string) *models.House {
	t.Helper()

	house, err := store.GetHouse(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to get house %s: %v", id, err)
	}
	return house
}
