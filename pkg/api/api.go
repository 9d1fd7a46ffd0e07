// Package api defines the houseshare.v1 RPC messages.
//
// Messages are plain JSON structs carried by the codec in package apiconnect.
// Money is a decimal string (e.g. "5000", "2500.5") so no precision is lost on the wire.
package api

// User is a registered account.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	Role          string `json:"role"`
	HouseID       string `json:"houseId,omitempty"`
	WalletBalance string `json:"walletBalance"`
	CreatedAt     int64  `json:"createdAt"`
}

// ChatSettings control who may post in the house chat.
type ChatSettings struct {
	AllowEveryoneToPost  bool `json:"allowEveryoneToPost"`
	AnnouncementsEnabled bool `json:"announcementsEnabled"`
}

// Member is a tenant of a house with its role.
type Member struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// House is a shared-tenancy group.
type House struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	AdminID       string       `json:"adminId"`
	JoinCode      string       `json:"joinCode"`
	TenantIDs     []string     `json:"tenantIds"`
	SubAdminIDs   []string     `json:"subAdminIds"`
	Members       []Member     `json:"members,omitempty"`
	Permissions   *Permissions `json:"permissions,omitempty"`
	ChatSettings  ChatSettings `json:"chatSettings"`
	WalletBalance string       `json:"walletBalance"`
	CreatedAt     int64        `json:"createdAt"`
}

// Permissions are the caller's chat rights in a house.
type Permissions struct {
	CanPost     bool `json:"canPost"`
	CanAnnounce bool `json:"canAnnounce"`
}

// Payment is one tenant's settlement of a bill.
type Payment struct {
	TenantID    string `json:"tenantId"`
	TenantName  string `json:"tenantName,omitempty"`
	TenantEmail string `json:"tenantEmail,omitempty"`
	Paid        bool   `json:"paid"`
	AmountPaid  string `json:"amountPaid"`
	PaidAt      int64  `json:"paidAt"`
}

// Bill is a fixed per-tenant charge. AssignedTo is ["all"] or a list of tenant IDs.
type Bill struct {
	ID           string    `json:"id"`
	HouseID      string    `json:"houseId"`
	Name         string    `json:"name"`
	Amount       string    `json:"amount"`
	DueDate      int64     `json:"dueDate"`
	TargetAmount string    `json:"targetAmount,omitempty"`
	AssignedTo   []string  `json:"assignedTo"`
	Payments     []Payment `json:"payments"`
	Collected    string    `json:"collected"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    int64     `json:"createdAt"`
}

// Transaction is a wallet ledger entry.
type Transaction struct {
	ID          string `json:"id"`
	HouseID     string `json:"houseId,omitempty"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	Reference   string `json:"reference,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}

// BankDetails is the destination of a house withdrawal.
type BankDetails struct {
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName,omitempty"`
}

// Auth messages.

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// House messages.

type CreateHouseRequest struct {
	Name string `json:"name"`
}

type CreateHouseResponse struct {
	House *House `json:"house"`
}

type JoinHouseRequest struct {
	Code string `json:"code"`
}

type JoinHouseResponse struct {
	House *House `json:"house"`
}

type GetHouseRequest struct{}

type GetHouseResponse struct {
	House *House `json:"house"`
}

// ManageMemberRequest applies Action ("add", "remove", "promote", "demote") to UserID.
type ManageMemberRequest struct {
	Action string `json:"action"`
	UserID string `json:"userId"`
}

type ManageMemberResponse struct {
	House *House `json:"house"`
}

type LeaveHouseRequest struct{}

type LeaveHouseResponse struct {
	OK bool `json:"ok"`
}

type DeleteHouseRequest struct{}

type DeleteHouseResponse struct {
	OK bool `json:"ok"`
}

// UpdateChatSettingsRequest changes only the fields that are set.
type UpdateChatSettingsRequest struct {
	AllowEveryoneToPost  *bool `json:"allowEveryoneToPost,omitempty"`
	AnnouncementsEnabled *bool `json:"announcementsEnabled,omitempty"`
}

type UpdateChatSettingsResponse struct {
	ChatSettings ChatSettings `json:"chatSettings"`
}

// Bill messages.

type CreateBillRequest struct {
	Name         string   `json:"name"`
	Amount       string   `json:"amount"`
	DueDate      int64    `json:"dueDate"`
	AssignedTo   []string `json:"assignedTo,omitempty"`
	TargetAmount string   `json:"targetAmount,omitempty"`
}

type CreateBillResponse struct {
	Bill *Bill `json:"bill"`
}

type ListBillsRequest struct{}

type ListBillsResponse struct {
	Bills []*Bill `json:"bills"`
}

// PayBillRequest pays the caller's share. Method is "wallet" or "gateway".
type PayBillRequest struct {
	BillID string `json:"billId"`
	Method string `json:"method"`
}

type PayBillResponse struct {
	Payment *Payment `json:"payment"`
	Balance string   `json:"balance"`
}

// Wallet messages.

type TopUpRequest struct {
	Reference string `json:"reference"`
}

type TopUpResponse struct {
	Balance string `json:"balance"`
}

type GetBalanceRequest struct{}

type GetBalanceResponse struct {
	Balance string `json:"balance"`
}

type GetHouseBalanceRequest struct{}

type GetHouseBalanceResponse struct {
	HouseID string `json:"houseId,omitempty"`
	Balance string `json:"balance"`
}

type HouseWithdrawRequest struct {
	Amount      string      `json:"amount"`
	BankDetails BankDetails `json:"bankDetails"`
}

type HouseWithdrawResponse struct {
	Balance     string       `json:"balance"`
	Transaction *Transaction `json:"transaction"`
}

type ListTransactionsRequest struct {
	Limit int `json:"limit,omitempty"`
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}
