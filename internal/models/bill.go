package models

import (
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// AssignedAll is the wire sentinel for a bill assigned to every current tenant.
const AssignedAll = "all"

// Assignment says who owes a bill.
type Assignment struct {
	// All means every current tenant of the house, evaluated at payment time.
	All bool

	// TenantIDs is the explicit set when All is false.
	TenantIDs []string
}

// Includes reports whether userID is covered by the assignment.
func (a Assignment) Includes(userID string) bool {
	return a.All || slices.Contains(a.TenantIDs, userID)
}

// Bill is a fixed per-tenant charge scoped to a house.
//
// Amount is what each assigned tenant owes individually. TargetAmount is an
// informational aggregate goal and is not enforced against the payments.
type Bill struct {
	ID           string
	HouseID      string
	Name         string
	Amount       decimal.Decimal
	DueDate      int64
	TargetAmount decimal.NullDecimal
	AssignedTo   Assignment

	// Payments holds at most one entry per tenant, keyed by tenant ID.
	Payments map[string]Payment

	CreatedBy string
	CreatedAt int64
}

// Payment is a tenant's settlement status for one bill.
// The only transition is unpaid to paid.
type Payment struct {
	TenantID   string
	Paid       bool
	AmountPaid decimal.Decimal
	PaidAt     int64

	// TenantName and TenantEmail are filled when listing bills.
	TenantName  string
	TenantEmail string
}

// IsPaidBy reports whether tenantID has a paid entry.
func (b *Bill) IsPaidBy(tenantID string) bool {
	p, ok := b.Payments[tenantID]
	return ok && p.Paid
}

// Collected is the sum of all paid amounts.
func (b *Bill) Collected() decimal.Decimal {
	total := decimal.Zero
	for _, p := range b.Payments {
		if p.Paid {
			total = total.Add(p.AmountPaid)
		}
	}
	return total
}

// PaymentList returns the payments ordered by payment time.
func (b *Bill) PaymentList() []Payment {
	out := make([]Payment, 0, len(b.Payments))
	for _, p := range b.Payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PaidAt != out[j].PaidAt {
			return out[i].PaidAt < out[j].PaidAt
		}
		return out[i].TenantID < out[j].TenantID
	})
	return out
}
