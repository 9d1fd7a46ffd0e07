// Package membership implements house creation, joining, leaving, member
// management and deletion.
//
// Every mutation locks the affected house (and users) and then re-reads state
// inside a store transaction, so concurrent requests against the same house are
// applied one at a time and never lose tenant or sub-admin updates.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/houseshare/internal/authz"
	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/lock"
	"github.com/mmynk/houseshare/internal/metrics"
	"github.com/mmynk/houseshare/internal/models"
	"github.com/mmynk/houseshare/internal/storage"
)

// maxCodeAttempts bounds join code regeneration on collisions.
const maxCodeAttempts = 5

// Action is a member management action.
type Action string

const (
	ActionAdd     Action = "add"
	ActionRemove  Action = "remove"
	ActionPromote Action = "promote"
	ActionDemote  Action = "demote"
)

// label is the metric label for a. Unrecognised actions share one label.
func (a Action) label() string {
	switch a {
	case ActionAdd, ActionRemove, ActionPromote, ActionDemote:
		return string(a)
	}
	return "invalid"
}

// CodeGenerator returns a candidate join code.
type CodeGenerator func() string

// RandomCode returns a 6-digit code uniform in [100000, 999999].
func RandomCode() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

// Service implements the membership operations.
type Service struct {
	store   storage.Store
	locks   lock.Locker
	newCode CodeGenerator
}

// Option configures a Service.
type Option func(*Service)

// WithCodeGenerator replaces the join code generator.
func WithCodeGenerator(g CodeGenerator) Option {
	return func(s *Service) { s.newCode = g }
}

// NewService creates a membership Service.
func NewService(store storage.Store, locks lock.Locker, opts ...Option) *Service {
	s := &Service{store: store, locks: locks, newCode: RandomCode}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HouseDetails is a house with its tenants resolved to user records, plus the
// chat permissions of the user who asked for it.
type HouseDetails struct {
	House   *models.House
	Members map[string]*models.User

	CanPost     bool
	CanAnnounce bool
}

// ChatSettingsUpdate carries optional chat setting changes. Nil fields are left as is.
type ChatSettingsUpdate struct {
	AllowEveryoneToPost  *bool
	AnnouncementsEnabled *bool
}

// CreateHouse creates a house with creatorID as admin and sole tenant.
func (s *Service) CreateHouse(ctx context.Context, creatorID, name string) (house *models.House, err error) {
	defer func() { metrics.RecordMembership("create", err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: house name required", errs.ErrValidation)
	}

	unlock, err := s.locks.Lock(ctx, lock.UserKey(creatorID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	creator, err := s.store.GetUserByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if creator.InHouse() {
		return nil, fmt.Errorf("%w: user %s is in house %s", errs.ErrAlreadyInHouse, creatorID, creator.HouseID)
	}

	house = &models.House{
		Name:          name,
		AdminID:       creatorID,
		TenantIDs:     []string{creatorID},
		SubAdminIDs:   []string{},
		ChatSettings:  models.DefaultChatSettings(),
		WalletBalance: decimal.Zero,
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		house.JoinCode = s.newCode()
		err = s.store.InTx(ctx, func(tx storage.Store) error {
			if err := tx.CreateHouse(ctx, house); err != nil {
				return err
			}
			return tx.SetUserHouse(ctx, creatorID, house.ID, models.RoleAdmin)
		})
		if err == nil {
			slog.Info("House created", "house_id", house.ID, "admin_id", creatorID, "attempts", attempt)
			return house, nil
		}
		if !errors.Is(err, errs.ErrDuplicate) {
			slog.Error("CreateHouse failed", "user_id", creatorID, "error", err)
			return nil, err
		}
		slog.Warn("Join code collision, regenerating", "attempt", attempt)
	}

	return nil, fmt.Errorf("%w after %d attempts", errs.ErrJoinCodeExhausted, maxCodeAttempts)
}

// JoinHouse adds userID to the house with the given join code.
func (s *Service) JoinHouse(ctx context.Context, userID, code string) (house *models.House, err error) {
	defer func() { metrics.RecordMembership("join", err) }()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errs.ErrInvalidCode
	}

	found, err := s.store.GetHouseByJoinCode(ctx, code)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrInvalidCode
	}
	if err != nil {
		return nil, err
	}

	release, err := lock.All(ctx, s.locks, lock.UserKey(userID), lock.HouseKey(found.ID))
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.store.InTx(ctx, func(tx storage.Store) error {
		user, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		house, err = tx.GetHouse(ctx, found.ID)
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrInvalidCode
		}
		if err != nil {
			return err
		}

		if house.HasTenant(userID) {
			return errs.ErrAlreadyMember
		}
		if user.InHouse() && user.HouseID != house.ID {
			return fmt.Errorf("%w: user %s is in house %s", errs.ErrAlreadyInHouse, userID, user.HouseID)
		}

		house.AddTenant(userID)
		if err := tx.UpdateHouse(ctx, house); err != nil {
			return err
		}
		return tx.SetUserHouse(ctx, userID, house.ID, models.RoleTenant)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("User joined house", "house_id", house.ID, "user_id", userID)
	return house, nil
}

// ManageMember applies an admin action to targetID within the actor's house.
func (s *Service) ManageMember(ctx context.Context, actorID string, action Action, targetID string) (house *models.House, err error) {
	defer func() { metrics.RecordMembership("manage_"+action.label(), err) }()

	switch action {
	case ActionAdd, ActionRemove, ActionPromote, ActionDemote:
	default:
		return nil, fmt.Errorf("%w: unknown action %q", errs.ErrValidation, action)
	}
	if targetID == "" {
		return nil, fmt.Errorf("%w: user id required", errs.ErrValidation)
	}

	actor, err := s.store.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.InHouse() {
		return nil, fmt.Errorf("%w: not in a house", errs.ErrUnauthorized)
	}
	houseID := actor.HouseID

	release, err := lock.All(ctx, s.locks, lock.HouseKey(houseID), lock.UserKey(targetID))
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.store.InTx(ctx, func(tx storage.Store) error {
		house, err = tx.GetHouse(ctx, houseID)
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w: house no longer exists", errs.ErrUnauthorized)
		}
		if err != nil {
			return err
		}
		if err := authz.Require(house, actorID, authz.AdminOnly); err != nil {
			return err
		}

		target, err := tx.GetUserByID(ctx, targetID)
		if err != nil {
			return err
		}
		return applyAction(ctx, tx, house, action, target)
	})
	if err != nil {
		slog.Warn("ManageMember failed", "house_id", houseID, "action", action, "target", targetID, "error", err)
		return nil, err
	}

	slog.Info("Member managed", "house_id", houseID, "action", action, "target", targetID)
	return house, nil
}

func applyAction(ctx context.Context, tx storage.Store, house *models.House, action Action, target *models.User) error {
	isTenant := house.HasTenant(target.ID)

	switch action {
	case ActionAdd:
		if target.InHouse() && target.HouseID != house.ID {
			return fmt.Errorf("%w: user %s is in house %s", errs.ErrAlreadyInHouse, target.ID, target.HouseID)
		}
		if !house.AddTenant(target.ID) {
			return nil
		}
		if err := tx.UpdateHouse(ctx, house); err != nil {
			return err
		}
		return tx.SetUserHouse(ctx, target.ID, house.ID, models.RoleTenant)

	case ActionRemove:
		if target.ID == house.AdminID {
			return errs.ErrCannotRemoveAdmin
		}
		if !isTenant {
			return fmt.Errorf("%w: user %s is not a member", errs.ErrNotFound, target.ID)
		}
		house.RemoveTenant(target.ID)
		if err := tx.UpdateHouse(ctx, house); err != nil {
			return err
		}
		return tx.SetUserHouse(ctx, target.ID, "", models.RoleTenant)

	case ActionPromote:
		if target.ID == house.AdminID {
			return fmt.Errorf("%w: the admin cannot be a sub-admin", errs.ErrValidation)
		}
		if !isTenant {
			return fmt.Errorf("%w: user %s is not a member", errs.ErrNotFound, target.ID)
		}
		if !house.Promote(target.ID) {
			return nil
		}
		if err := tx.UpdateHouse(ctx, house); err != nil {
			return err
		}
		return tx.SetUserHouse(ctx, target.ID, house.ID, models.RoleSubAdmin)

	case ActionDemote:
		if !isTenant {
			return fmt.Errorf("%w: user %s is not a member", errs.ErrNotFound, target.ID)
		}
		if !house.HasSubAdmin(target.ID) {
			return nil
		}
		house.Demote(target.ID)
		if err := tx.UpdateHouse(ctx, house); err != nil {
			return err
		}
		return tx.SetUserHouse(ctx, target.ID, house.ID, authz.RoleOf(house, target.ID).Label())
	}
	return nil
}

// LeaveHouse removes userID from their house. If the admin leaves, the first
// remaining tenant becomes admin. If the last tenant leaves, the house and its
// bills are deleted.
func (s *Service) LeaveHouse(ctx context.Context, userID string) (err error) {
	defer func() { metrics.RecordMembership("leave", err) }()

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.InHouse() {
		return errs.ErrNotInHouse
	}
	houseID := user.HouseID

	release, err := lock.All(ctx, s.locks, lock.UserKey(userID), lock.HouseKey(houseID))
	if err != nil {
		return err
	}
	defer release()

	var newAdmin string
	var deleted bool
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		house, err := tx.GetHouse(ctx, houseID)
		if err != nil {
			return err
		}

		wasAdmin := house.AdminID == userID
		house.RemoveTenant(userID)

		if len(house.TenantIDs) == 0 {
			deleted = true
			if err := tx.DeleteBillsByHouse(ctx, house.ID); err != nil {
				return err
			}
			if err := tx.DeleteHouse(ctx, house.ID); err != nil {
				return err
			}
			return tx.SetUserHouse(ctx, userID, "", models.RoleTenant)
		}

		if wasAdmin {
			newAdmin = house.TenantIDs[0]
			house.AdminID = newAdmin
			house.Demote(newAdmin)
			if err := tx.SetUserHouse(ctx, newAdmin, house.ID, models.RoleAdmin); err != nil {
				return err
			}
		}
		if err := tx.UpdateHouse(ctx, house); err != nil {
			return err
		}
		return tx.SetUserHouse(ctx, userID, "", models.RoleTenant)
	})
	if err != nil {
		return err
	}

	slog.Info("User left house", "house_id", houseID, "user_id", userID,
		"new_admin", newAdmin, "house_deleted", deleted)
	return nil
}

// DeleteHouse deletes the actor's house. Every tenant is detached and every
// bill scoped to the house is deleted.
func (s *Service) DeleteHouse(ctx context.Context, actorID string) (err error) {
	defer func() { metrics.RecordMembership("delete", err) }()

	actor, err := s.store.GetUserByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.InHouse() {
		return fmt.Errorf("%w: house not found", errs.ErrNotFound)
	}
	houseID := actor.HouseID

	unlock, err := s.locks.Lock(ctx, lock.HouseKey(houseID))
	if err != nil {
		return err
	}
	defer unlock()

	err = s.store.InTx(ctx, func(tx storage.Store) error {
		house, err := tx.GetHouse(ctx, houseID)
		if err != nil {
			return err
		}
		if err := authz.Require(house, actorID, authz.AdminOnly); err != nil {
			return err
		}
		if err := tx.ClearHouseForUsers(ctx, house.ID); err != nil {
			return err
		}
		if err := tx.DeleteBillsByHouse(ctx, house.ID); err != nil {
			return err
		}
		return tx.DeleteHouse(ctx, house.ID)
	})
	if err != nil {
		return err
	}

	slog.Info("House deleted", "house_id", houseID, "actor_id", actorID)
	return nil
}

// GetHouse returns the caller's house with its members.
func (s *Service) GetHouse(ctx context.Context, userID string) (*HouseDetails, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.InHouse() {
		return nil, errs.ErrNotInHouse
	}

	house, err := s.store.GetHouse(ctx, user.HouseID)
	if err != nil {
		return nil, err
	}
	members, err := s.store.GetUsersByIDs(ctx, house.TenantIDs)
	if err != nil {
		return nil, err
	}
	return &HouseDetails{
		House:       house,
		Members:     members,
		CanPost:     authz.CanPost(house, userID, false),
		CanAnnounce: authz.CanPost(house, userID, true),
	}, nil
}

// UpdateChatSettings changes the chat settings of the actor's house. Admin only.
func (s *Service) UpdateChatSettings(ctx context.Context, actorID string, update ChatSettingsUpdate) (settings models.ChatSettings, err error) {
	defer func() { metrics.RecordMembership("chat_settings", err) }()

	actor, err := s.store.GetUserByID(ctx, actorID)
	if err != nil {
		return settings, err
	}
	if !actor.InHouse() {
		return settings, errs.ErrNotInHouse
	}
	houseID := actor.HouseID

	unlock, err := s.locks.Lock(ctx, lock.HouseKey(houseID))
	if err != nil {
		return settings, err
	}
	defer unlock()

	err = s.store.InTx(ctx, func(tx storage.Store) error {
		house, err := tx.GetHouse(ctx, houseID)
		if err != nil {
			return err
		}
		if err := authz.Require(house, actorID, authz.AdminOnly); err != nil {
			return err
		}
		if update.AllowEveryoneToPost != nil {
			house.ChatSettings.AllowEveryoneToPost = *update.AllowEveryoneToPost
		}
		if update.AnnouncementsEnabled != nil {
			house.ChatSettings.AnnouncementsEnabled = *update.AnnouncementsEnabled
		}
		settings = house.ChatSettings
		return tx.UpdateHouse(ctx, house)
	})
	return settings, err
}
