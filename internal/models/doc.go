// Package models defines the core domain models for Houseshare.
//
// # Models
//
//   - User: a registered account with a wallet balance and at most one house
//   - House: a shared-tenancy group with an admin, tenants, sub-admins and a join code
//   - Bill: a per-tenant charge scoped to a house, with one payment entry per tenant
//   - Transaction: an append-only wallet ledger entry
//
// # Design Principles
//
// 1. **Ids, not pointers**: House and User reference each other by id only. Neither owns
// the other's lifetime; cascades are explicit steps in the membership package.
// 2. **Derived authority**: User.Role is a display label. Who may do what is derived from
// House.AdminID and House.SubAdminIDs (see package authz).
// 3. **Exact money**: amounts are shopspring decimals, never floats.
package models
