package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/houseshare/internal/authz"
	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/membership"
	"github.com/mmynk/houseshare/internal/models"
	"github.com/mmynk/houseshare/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:            u.ID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		Role:          string(u.Role),
		HouseID:       u.HouseID,
		WalletBalance: u.WalletBalance.String(),
		CreatedAt:     u.CreatedAt,
	}
}

func toAPIHouse(h *models.House) *api.House {
	return &api.House{
		ID:          h.ID,
		Name:        h.Name,
		AdminID:     h.AdminID,
		JoinCode:    h.JoinCode,
		TenantIDs:   h.TenantIDs,
		SubAdminIDs: h.SubAdminIDs,
		ChatSettings: api.ChatSettings{
			AllowEveryoneToPost:  h.ChatSettings.AllowEveryoneToPost,
			AnnouncementsEnabled: h.ChatSettings.AnnouncementsEnabled,
		},
		WalletBalance: h.WalletBalance.String(),
		CreatedAt:     h.CreatedAt,
	}
}

// toAPIHouseDetails lists members in tenant order with their role in the house.
func toAPIHouseDetails(d *membership.HouseDetails) *api.House {
	out := toAPIHouse(d.House)
	out.Permissions = &api.Permissions{CanPost: d.CanPost, CanAnnounce: d.CanAnnounce}
	out.Members = make([]api.Member, 0, len(d.House.TenantIDs))
	for _, id := range d.House.TenantIDs {
		m := api.Member{UserID: id, Role: string(authz.RoleOf(d.House, id).Label())}
		if u, ok := d.Members[id]; ok {
			m.DisplayName = u.DisplayName
			m.Email = u.Email
		}
		out.Members = append(out.Members, m)
	}
	return out
}

func toAPIPayment(p models.Payment) api.Payment {
	return api.Payment{
		TenantID:    p.TenantID,
		TenantName:  p.TenantName,
		TenantEmail: p.TenantEmail,
		Paid:        p.Paid,
		AmountPaid:  p.AmountPaid.String(),
		PaidAt:      p.PaidAt,
	}
}

func toAPIBill(b *models.Bill) *api.Bill {
	out := &api.Bill{
		ID:         b.ID,
		HouseID:    b.HouseID,
		Name:       b.Name,
		Amount:     b.Amount.String(),
		DueDate:    b.DueDate,
		AssignedTo: []string{models.AssignedAll},
		Payments:   []api.Payment{},
		Collected:  b.Collected().String(),
		CreatedBy:  b.CreatedBy,
		CreatedAt:  b.CreatedAt,
	}
	if !b.AssignedTo.All {
		out.AssignedTo = b.AssignedTo.TenantIDs
	}
	if b.TargetAmount.Valid {
		out.TargetAmount = b.TargetAmount.Decimal.String()
	}
	for _, p := range b.PaymentList() {
		out.Payments = append(out.Payments, toAPIPayment(p))
	}
	return out
}

func toAPITransaction(t *models.Transaction) *api.Transaction {
	return &api.Transaction{
		ID:          t.ID,
		HouseID:     t.HouseID,
		Type:        string(t.Type),
		Amount:      t.Amount.String(),
		Status:      string(t.Status),
		Reference:   t.Reference,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

// maxAmountLen bounds the raw text of an amount field.
const maxAmountLen = 32

// parseAmount parses a plain decimal money string from a request field.
// Exponent notation and more than two decimal places are rejected.
func parseAmount(field, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if len(value) > maxAmountLen || strings.ContainsAny(value, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %s must be a plain decimal amount", errs.ErrValidation, field)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a number", errs.ErrValidation, field, value)
	}
	if !models.ValidMoney(d) {
		return decimal.Zero, fmt.Errorf("%w: %s %q has too many digits", errs.ErrValidation, field, value)
	}
	return d, nil
}
