package models

import (
	"slices"

	"github.com/shopspring/decimal"
)

// ChatSettings are consumed by the chat service for posting permissions.
type ChatSettings struct {
	AllowEveryoneToPost  bool
	AnnouncementsEnabled bool
}

// DefaultChatSettings lets every tenant post and enables announcements.
func DefaultChatSettings() ChatSettings {
	return ChatSettings{AllowEveryoneToPost: true, AnnouncementsEnabled: true}
}

// House is a shared-tenancy group.
//
// Invariants maintained by the membership package:
//   - AdminID is always in TenantIDs
//   - SubAdminIDs is a subset of TenantIDs and never contains AdminID
type House struct {
	ID       string
	Name     string
	AdminID  string
	JoinCode string

	// TenantIDs is in join order. The first remaining tenant inherits the
	// admin role when the admin leaves.
	TenantIDs   []string
	SubAdminIDs []string

	ChatSettings ChatSettings

	// WalletBalance is the house wallet, funded by wallet bill payments.
	WalletBalance decimal.Decimal

	// Version is bumped on every membership update and used for compare-and-swap.
	Version int64

	CreatedAt int64
}

// HasTenant reports whether userID is a member of the house.
func (h *House) HasTenant(userID string) bool {
	return slices.Contains(h.TenantIDs, userID)
}

// HasSubAdmin reports whether userID is a sub-admin of the house.
func (h *House) HasSubAdmin(userID string) bool {
	return slices.Contains(h.SubAdminIDs, userID)
}

// AddTenant appends userID to the tenants. Returns false if already present.
func (h *House) AddTenant(userID string) bool {
	if h.HasTenant(userID) {
		return false
	}
	h.TenantIDs = append(h.TenantIDs, userID)
	return true
}

// RemoveTenant strips userID from both the tenants and the sub-admins.
func (h *House) RemoveTenant(userID string) {
	h.TenantIDs = without(h.TenantIDs, userID)
	h.SubAdminIDs = without(h.SubAdminIDs, userID)
}

// Promote adds userID to the sub-admins. Returns false if already present.
func (h *House) Promote(userID string) bool {
	if h.HasSubAdmin(userID) {
		return false
	}
	h.SubAdminIDs = append(h.SubAdminIDs, userID)
	return true
}

// Demote strips userID from the sub-admins.
func (h *House) Demote(userID string) {
	h.SubAdminIDs = without(h.SubAdminIDs, userID)
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
