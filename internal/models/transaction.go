package models

import "github.com/shopspring/decimal"

// TransactionType is the kind of wallet movement.
type TransactionType string

const (
	TxTopUp      TransactionType = "topup"
	TxPayment    TransactionType = "payment"
	TxWithdrawal TransactionType = "withdrawal"
)

// TransactionStatus is fixed when the transaction is recorded.
type TransactionStatus string

const (
	TxPending TransactionStatus = "pending"
	TxSuccess TransactionStatus = "success"
	TxFailed  TransactionStatus = "failed"
)

// Transaction is an append-only ledger entry.
type Transaction struct {
	ID      string
	UserID  string
	HouseID string
	Type    TransactionType
	Amount  decimal.Decimal
	Status  TransactionStatus

	// Reference is the external payment reference (top-ups) or the bill ID (payments).
	Reference string

	// Description is free text, e.g. the withdrawal destination.
	Description string

	CreatedAt int64
}
