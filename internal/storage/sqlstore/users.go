package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/models"
)

const userColumns = `id, email, display_name, password_hash, role, wallet_balance, house_id, created_at, updated_at`

type userRow struct {
	ID            string          `db:"id"`
	Email         string          `db:"email"`
	DisplayName   string          `db:"display_name"`
	PasswordHash  string          `db:"password_hash"`
	Role          string          `db:"role"`
	WalletBalance decimal.Decimal `db:"wallet_balance"`
	HouseID       sql.NullString  `db:"house_id"`
	CreatedAt     int64           `db:"created_at"`
	UpdatedAt     int64           `db:"updated_at"`
}

func (r *userRow) toModel() *models.User {
	return &models.User{
		ID:            r.ID,
		Email:         r.Email,
		DisplayName:   r.DisplayName,
		PasswordHash:  r.PasswordHash,
		Role:          models.UserRole(r.Role),
		WalletBalance: r.WalletBalance,
		HouseID:       r.HouseID.String,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// CreateUser inserts a new user into the database.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		string(user.Role),
		user.WalletBalance,
		nullString(user.HouseID),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email %s", errs.ErrDuplicate, user.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID. Inside a transaction the row is
// locked on drivers that support it.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var row userRow
	err := s.get(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = ?`+s.forUpdate(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return row.toModel(), nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	err := s.get(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return row.toModel(), nil
}

// GetUsersByIDs retrieves multiple users by their IDs.
// Users that don't exist are omitted from the result.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build users query: %w", err)
	}

	var rows []userRow
	if err := s.sel(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	for i := range rows {
		users[rows[i].ID] = rows[i].toModel()
	}
	return users, nil
}

// SetUserHouse points the user at houseID (or clears it) and updates the role label.
func (s *Store) SetUserHouse(ctx context.Context, userID, houseID string, role models.UserRole) error {
	res, err := s.exec(ctx,
		`UPDATE users SET house_id = ?, role = ?, updated_at = ? WHERE id = ?`,
		nullString(houseID), string(role), time.Now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set user house: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("user", userID)
	}
	return nil
}

// ClearHouseForUsers detaches every user from houseID.
func (s *Store) ClearHouseForUsers(ctx context.Context, houseID string) error {
	_, err := s.exec(ctx,
		`UPDATE users SET house_id = NULL, role = ?, updated_at = ? WHERE house_id = ?`,
		string(models.RoleTenant), time.Now().Unix(), houseID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear house for users: %w", err)
	}
	return nil
}

// SwapWalletBalance updates the wallet balance if it still equals prev.
func (s *Store) SwapWalletBalance(ctx context.Context, userID string, prev, next decimal.Decimal) error {
	return s.swap(ctx, "wallet balance",
		`UPDATE users SET wallet_balance = ?, updated_at = ? WHERE id = ? AND wallet_balance = ?`,
		next, time.Now().Unix(), userID, prev,
	)
}
