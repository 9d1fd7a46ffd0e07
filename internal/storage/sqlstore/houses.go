package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/models"
	"github.com/mmynk/houseshare/internal/storage"
)

const houseColumns = `id, name, admin_id, join_code, allow_everyone_to_post, announcements_enabled, wallet_balance, version, created_at`

type houseRow struct {
	ID                   string          `db:"id"`
	Name                 string          `db:"name"`
	AdminID              string          `db:"admin_id"`
	JoinCode             string          `db:"join_code"`
	AllowEveryoneToPost  bool            `db:"allow_everyone_to_post"`
	AnnouncementsEnabled bool            `db:"announcements_enabled"`
	WalletBalance        decimal.Decimal `db:"wallet_balance"`
	Version              int64           `db:"version"`
	CreatedAt            int64           `db:"created_at"`
}

func (r *houseRow) toModel() *models.House {
	return &models.House{
		ID:       r.ID,
		Name:     r.Name,
		AdminID:  r.AdminID,
		JoinCode: r.JoinCode,
		ChatSettings: models.ChatSettings{
			AllowEveryoneToPost:  r.AllowEveryoneToPost,
			AnnouncementsEnabled: r.AnnouncementsEnabled,
		},
		WalletBalance: r.WalletBalance,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
	}
}

// CreateHouse persists a new house with its member lists.
func (s *Store) CreateHouse(ctx context.Context, house *models.House) error {
	if house.ID == "" {
		house.ID = uuid.New().String()
	}
	if house.CreatedAt == 0 {
		house.CreatedAt = time.Now().Unix()
	}
	if house.Version == 0 {
		house.Version = 1
	}

	return s.InTx(ctx, func(tx storage.Store) error {
		st := tx.(*Store)
		_, err := st.exec(ctx,
			`INSERT INTO houses (`+houseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			house.ID, house.Name, house.AdminID, house.JoinCode,
			house.ChatSettings.AllowEveryoneToPost, house.ChatSettings.AnnouncementsEnabled,
			house.WalletBalance, house.Version, house.CreatedAt,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: join code %s", errs.ErrDuplicate, house.JoinCode)
		}
		if err != nil {
			return fmt.Errorf("failed to insert house: %w", err)
		}
		return st.writeMembers(ctx, house)
	})
}

// GetHouse retrieves a house by ID, including tenants and sub-admins.
func (s *Store) GetHouse(ctx context.Context, id string) (*models.House, error) {
	return s.getHouseWhere(ctx, "id", id)
}

// GetHouseByJoinCode retrieves a house by its exact join code.
func (s *Store) GetHouseByJoinCode(ctx context.Context, code string) (*models.House, error) {
	return s.getHouseWhere(ctx, "join_code", code)
}

func (s *Store) getHouseWhere(ctx context.Context, column, value string) (*models.House, error) {
	var row houseRow
	err := s.get(ctx, &row, `SELECT `+houseColumns+` FROM houses WHERE `+column+` = ?`+s.forUpdate(), value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("house", value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get house: %w", err)
	}

	house := row.toModel()
	if err := s.sel(ctx, &house.TenantIDs,
		`SELECT user_id FROM house_tenants WHERE house_id = ? ORDER BY position`, house.ID); err != nil {
		return nil, fmt.Errorf("failed to get tenants: %w", err)
	}
	if err := s.sel(ctx, &house.SubAdminIDs,
		`SELECT user_id FROM house_sub_admins WHERE house_id = ? ORDER BY position`, house.ID); err != nil {
		return nil, fmt.Errorf("failed to get sub-admins: %w", err)
	}
	return house, nil
}

// UpdateHouse writes the house if nobody else updated it since it was read.
func (s *Store) UpdateHouse(ctx context.Context, house *models.House) error {
	return s.InTx(ctx, func(tx storage.Store) error {
		st := tx.(*Store)
		res, err := st.exec(ctx,
			`UPDATE houses SET name = ?, admin_id = ?, allow_everyone_to_post = ?, announcements_enabled = ?, version = version + 1
			 WHERE id = ? AND version = ?`,
			house.Name, house.AdminID,
			house.ChatSettings.AllowEveryoneToPost, house.ChatSettings.AnnouncementsEnabled,
			house.ID, house.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update house: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := st.GetHouse(ctx, house.ID); err != nil {
				return err
			}
			return fmt.Errorf("%w: house %s", errs.ErrConflict, house.ID)
		}

		if _, err := st.exec(ctx, `DELETE FROM house_tenants WHERE house_id = ?`, house.ID); err != nil {
			return fmt.Errorf("failed to clear tenants: %w", err)
		}
		if _, err := st.exec(ctx, `DELETE FROM house_sub_admins WHERE house_id = ?`, house.ID); err != nil {
			return fmt.Errorf("failed to clear sub-admins: %w", err)
		}
		if err := st.writeMembers(ctx, house); err != nil {
			return err
		}

		house.Version++
		return nil
	})
}

func (s *Store) writeMembers(ctx context.Context, house *models.House) error {
	for i, userID := range house.TenantIDs {
		if _, err := s.exec(ctx,
			`INSERT INTO house_tenants (house_id, user_id, position) VALUES (?, ?, ?)`,
			house.ID, userID, i,
		); err != nil {
			return fmt.Errorf("failed to insert tenant: %w", err)
		}
	}
	for i, userID := range house.SubAdminIDs {
		if _, err := s.exec(ctx,
			`INSERT INTO house_sub_admins (house_id, user_id, position) VALUES (?, ?, ?)`,
			house.ID, userID, i,
		); err != nil {
			return fmt.Errorf("failed to insert sub-admin: %w", err)
		}
	}
	return nil
}

// SwapHouseBalance updates the house wallet if it still equals prev.
func (s *Store) SwapHouseBalance(ctx context.Context, houseID string, prev, next decimal.Decimal) error {
	return s.swap(ctx, "house balance",
		`UPDATE houses SET wallet_balance = ? WHERE id = ? AND wallet_balance = ?`,
		next, houseID, prev,
	)
}

// DeleteHouse removes a house and its membership rows.
func (s *Store) DeleteHouse(ctx context.Context, id string) error {
	return s.InTx(ctx, func(tx storage.Store) error {
		st := tx.(*Store)
		if _, err := st.exec(ctx, `DELETE FROM house_sub_admins WHERE house_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete sub-admins: %w", err)
		}
		if _, err := st.exec(ctx, `DELETE FROM house_tenants WHERE house_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete tenants: %w", err)
		}
		res, err := st.exec(ctx, `DELETE FROM houses WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete house: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return notFound("house", id)
		}
		return nil
	})
}
