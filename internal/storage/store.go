// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/houseshare/internal/models"
)

// Store defines the persistence port used by the membership, wallet and billing packages.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the domain code.
//
// Lookups of missing records return an error wrapping errs.ErrNotFound.
type Store interface {
	UserStore
	HouseStore
	BillStore
	LedgerStore

	// InTx runs fn in a single database transaction. The Store passed to fn is
	// bound to that transaction; fn must not use the outer Store. If fn returns an
	// error the transaction is rolled back. Calling InTx on a transaction-bound
	// Store runs fn in the existing transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error

	// Close releases any resources held by the store.
	Close() error
}

// UserStore persists user accounts and their wallet balances.
type UserStore interface {
	// CreateUser inserts a new user. Returns errs.ErrDuplicate if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUsersByIDs returns a map of user ID to User. Missing users are omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// SetUserHouse sets the user's house and role label. An empty houseID clears it.
	SetUserHouse(ctx context.Context, userID, houseID string, role models.UserRole) error

	// ClearHouseForUsers clears the house of every user currently pointing at houseID.
	ClearHouseForUsers(ctx context.Context, houseID string) error

	// SwapWalletBalance sets the balance to next only if it currently equals prev.
	// Returns errs.ErrConflict if the balance moved in between.
	SwapWalletBalance(ctx context.Context, userID string, prev, next decimal.Decimal) error
}

// HouseStore persists houses and their membership lists.
type HouseStore interface {
	// CreateHouse inserts a new house with its tenants and sub-admins.
	// Returns errs.ErrDuplicate if the join code is taken.
	CreateHouse(ctx context.Context, house *models.House) error

	GetHouse(ctx context.Context, id string) (*models.House, error)
	GetHouseByJoinCode(ctx context.Context, code string) (*models.House, error)

	// UpdateHouse writes name, admin, chat settings, tenants and sub-admins, if the
	// stored version still equals house.Version. On success house.Version is bumped.
	// Returns errs.ErrConflict on a version mismatch.
	UpdateHouse(ctx context.Context, house *models.House) error

	// SwapHouseBalance sets the house wallet to next only if it currently equals prev.
	SwapHouseBalance(ctx context.Context, houseID string, prev, next decimal.Decimal) error

	// DeleteHouse removes the house and its membership rows. Bills and users are
	// not touched; callers orchestrate those steps.
	DeleteHouse(ctx context.Context, id string) error
}

// BillStore persists bills and their per-tenant payments.
type BillStore interface {
	CreateBill(ctx context.Context, bill *models.Bill) error
	GetBill(ctx context.Context, id string) (*models.Bill, error)
	ListBillsByHouse(ctx context.Context, houseID string) ([]*models.Bill, error)

	// SavePayment inserts or replaces the single payment entry for (billID, payment.TenantID).
	SavePayment(ctx context.Context, billID string, payment models.Payment) error

	// DeleteBillsByHouse removes every bill scoped to houseID, with payments and assignees.
	DeleteBillsByHouse(ctx context.Context, houseID string) error
}

// LedgerStore persists wallet transactions.
type LedgerStore interface {
	// CreateTransaction appends an entry. Returns errs.ErrDuplicate if a top-up
	// with the same reference exists.
	CreateTransaction(ctx context.Context, tx *models.Transaction) error

	// ListTransactions returns the user's most recent transactions first.
	ListTransactions(ctx context.Context, userID string, limit int) ([]*models.Transaction, error)
}
