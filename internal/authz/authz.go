// Package authz derives a caller's authority within a house.
//
// Authority always comes from House.AdminID and House.SubAdminIDs, never from
// the User.Role display label.
package authz

import (
	"fmt"
	"slices"

	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/models"
)

// Role is a caller's derived authority in a house.
type Role int

const (
	RoleNone Role = iota
	RoleTenant
	RoleSubAdmin
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleSubAdmin:
		return "sub-admin"
	case RoleTenant:
		return "tenant"
	default:
		return "none"
	}
}

// Label returns the display label matching the derived role.
func (r Role) Label() models.UserRole {
	switch r {
	case RoleAdmin:
		return models.RoleAdmin
	case RoleSubAdmin:
		return models.RoleSubAdmin
	default:
		return models.RoleTenant
	}
}

var (
	// AdminOnly gates house deletion, member management, chat settings and withdrawals.
	AdminOnly = []Role{RoleAdmin}
	// Elevated gates bill creation.
	Elevated = []Role{RoleAdmin, RoleSubAdmin}
	// Members is any tenant of the house.
	Members = []Role{RoleAdmin, RoleSubAdmin, RoleTenant}
)

// RoleOf returns userID's role in house. A nil house yields RoleNone.
func RoleOf(house *models.House, userID string) Role {
	switch {
	case house == nil || userID == "":
		return RoleNone
	case house.AdminID == userID:
		return RoleAdmin
	case house.HasSubAdmin(userID):
		return RoleSubAdmin
	case house.HasTenant(userID):
		return RoleTenant
	default:
		return RoleNone
	}
}

// Require fails with errs.ErrUnauthorized unless userID holds one of the allowed roles.
func Require(house *models.House, userID string, allowed []Role) error {
	role := RoleOf(house, userID)
	if slices.Contains(allowed, role) {
		return nil
	}
	return fmt.Errorf("%w: role %s", errs.ErrUnauthorized, role)
}

// CanPost reports whether userID may post to the house chat. GetHouse reports
// the result to clients and the chat service enforces it. Announcements are
// reserved for admins and sub-admins; plain messages need AllowEveryoneToPost
// unless the poster is elevated.
func CanPost(house *models.House, userID string, announcement bool) bool {
	role := RoleOf(house, userID)
	if role == RoleNone {
		return false
	}
	elevated := role == RoleAdmin || role == RoleSubAdmin
	if announcement {
		return elevated && house.ChatSettings.AnnouncementsEnabled
	}
	return elevated || house.ChatSettings.AllowEveryoneToPost
}
