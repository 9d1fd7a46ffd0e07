// Package wallet implements per-user wallets and the house wallet.
//
// Balances change only through read-check-swap sequences: the user (or house)
// lock is held, the balance is re-read inside a store transaction and written
// back with a compare-and-swap, and the ledger entry is appended in that same
// transaction. A balance therefore never goes negative and a credit is never
// recorded without its transaction.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/houseshare/internal/authz"
	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/lock"
	"github.com/mmynk/houseshare/internal/metrics"
	"github.com/mmynk/houseshare/internal/models"
	"github.com/mmynk/houseshare/internal/storage"
)

// StatusSuccess is the only gateway status that credits a wallet.
const StatusSuccess = "success"

// Verification is a gateway's answer for a payment reference.
type Verification struct {
	Status string
	Amount decimal.Decimal
}

// Gateway verifies externally initiated payments.
type Gateway interface {
	Verify(ctx context.Context, reference string) (*Verification, error)
}

// BankDetails is the destination of a house withdrawal.
type BankDetails struct {
	AccountName   string
	AccountNumber string
	BankName      string
}

// Ledger implements wallet operations.
type Ledger struct {
	store   storage.Store
	locks   lock.Locker
	gateway Gateway
}

// NewLedger creates a Ledger.
func NewLedger(store storage.Store, locks lock.Locker, gateway Gateway) *Ledger {
	return &Ledger{store: store, locks: locks, gateway: gateway}
}

// TopUp verifies reference with the gateway and credits the verified amount.
func (l *Ledger) TopUp(ctx context.Context, userID, reference string) (balance decimal.Decimal, err error) {
	defer func() { metrics.RecordWallet("topup", err) }()

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return decimal.Zero, fmt.Errorf("%w: reference required", errs.ErrValidation)
	}

	v, err := l.gateway.Verify(ctx, reference)
	if err != nil {
		slog.Warn("Gateway verification errored", "user_id", userID, "reference", reference, "error", err)
		return decimal.Zero, fmt.Errorf("%w: %v", errs.ErrPaymentVerificationFailed, err)
	}
	if v.Status != StatusSuccess {
		return decimal.Zero, fmt.Errorf("%w: status %q", errs.ErrPaymentVerificationFailed, v.Status)
	}
	if !v.Amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive amount %s", errs.ErrPaymentVerificationFailed, v.Amount)
	}

	unlock, err := l.locks.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return decimal.Zero, err
	}
	defer unlock()

	err = l.store.InTx(ctx, func(tx storage.Store) error {
		user, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		balance = user.WalletBalance.Add(v.Amount)
		if err := tx.SwapWalletBalance(ctx, userID, user.WalletBalance, balance); err != nil {
			return err
		}
		return tx.CreateTransaction(ctx, &models.Transaction{
			UserID:    userID,
			HouseID:   user.HouseID,
			Type:      models.TxTopUp,
			Amount:    v.Amount,
			Status:    models.TxSuccess,
			Reference: reference,
		})
	})
	if errors.Is(err, errs.ErrDuplicate) {
		return decimal.Zero, fmt.Errorf("%w: %s", errs.ErrReferenceUsed, reference)
	}
	if err != nil {
		return decimal.Zero, err
	}

	slog.Info("Wallet topped up", "user_id", userID, "amount", v.Amount, "balance", balance)
	return balance, nil
}

// Debit takes amount from the user's wallet and returns the new balance.
func (l *Ledger) Debit(ctx context.Context, userID string, amount decimal.Decimal) (balance decimal.Decimal, err error) {
	defer func() { metrics.RecordWallet("debit", err) }()

	unlock, err := l.locks.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return decimal.Zero, err
	}
	defer unlock()

	err = l.store.InTx(ctx, func(tx storage.Store) error {
		balance, err = DebitTx(ctx, tx, userID, amount)
		return err
	})
	return balance, err
}

// DebitTx debits within an existing transaction. The caller must hold the
// user's lock.
func DebitTx(ctx context.Context, tx storage.Store, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", errs.ErrValidation)
	}

	user, err := tx.GetUserByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if user.WalletBalance.LessThan(amount) {
		return decimal.Zero, fmt.Errorf("%w: have %s, need %s", errs.ErrInsufficientBalance, user.WalletBalance, amount)
	}

	next := user.WalletBalance.Sub(amount)
	if err := tx.SwapWalletBalance(ctx, userID, user.WalletBalance, next); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

// CreditHouseTx adds amount to the house wallet within an existing transaction.
// The caller must hold the house lock.
func CreditHouseTx(ctx context.Context, tx storage.Store, houseID string, amount decimal.Decimal) (decimal.Decimal, error) {
	house, err := tx.GetHouse(ctx, houseID)
	if err != nil {
		return decimal.Zero, err
	}
	next := house.WalletBalance.Add(amount)
	if err := tx.SwapHouseBalance(ctx, houseID, house.WalletBalance, next); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

// HouseWithdraw takes amount from the house wallet. Admin only.
func (l *Ledger) HouseWithdraw(ctx context.Context, actorID, houseID string, amount decimal.Decimal, bank BankDetails) (balance decimal.Decimal, txn *models.Transaction, err error) {
	defer func() { metrics.RecordWallet("house_withdraw", err) }()

	if !amount.IsPositive() || !models.ValidMoney(amount) {
		return decimal.Zero, nil, fmt.Errorf("%w: invalid amount %s", errs.ErrValidation, amount)
	}
	if strings.TrimSpace(bank.AccountName) == "" || strings.TrimSpace(bank.AccountNumber) == "" {
		return decimal.Zero, nil, fmt.Errorf("%w: account name and number required", errs.ErrValidation)
	}

	unlock, err := l.locks.Lock(ctx, lock.HouseKey(houseID))
	if err != nil {
		return decimal.Zero, nil, err
	}
	defer unlock()

	err = l.store.InTx(ctx, func(tx storage.Store) error {
		house, err := tx.GetHouse(ctx, houseID)
		if err != nil {
			return err
		}
		if err := authz.Require(house, actorID, authz.AdminOnly); err != nil {
			return err
		}
		if house.WalletBalance.LessThan(amount) {
			return fmt.Errorf("%w: have %s, need %s", errs.ErrInsufficientHouseBalance, house.WalletBalance, amount)
		}

		balance = house.WalletBalance.Sub(amount)
		if err := tx.SwapHouseBalance(ctx, houseID, house.WalletBalance, balance); err != nil {
			return err
		}

		txn = &models.Transaction{
			UserID:      actorID,
			HouseID:     houseID,
			Type:        models.TxWithdrawal,
			Amount:      amount,
			Status:      models.TxSuccess,
			Description: withdrawalDescription(bank),
		}
		return tx.CreateTransaction(ctx, txn)
	})
	if err != nil {
		return decimal.Zero, nil, err
	}

	slog.Info("House withdrawal", "house_id", houseID, "actor_id", actorID, "amount", amount, "balance", balance)
	return balance, txn, nil
}

func withdrawalDescription(bank BankDetails) string {
	desc := fmt.Sprintf("House withdrawal to %s (%s)", bank.AccountName, bank.AccountNumber)
	if bank.BankName != "" {
		desc += ", " + bank.BankName
	}
	return desc
}

// Balance returns the user's wallet balance.
func (l *Ledger) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	user, err := l.store.GetUserByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return user.WalletBalance, nil
}

// HouseBalance returns the wallet balance of the user's house. A user without a
// house has a zero house balance and an empty house ID.
func (l *Ledger) HouseBalance(ctx context.Context, userID string) (houseID string, balance decimal.Decimal, err error) {
	user, err := l.store.GetUserByID(ctx, userID)
	if err != nil {
		return "", decimal.Zero, err
	}
	if !user.InHouse() {
		return "", decimal.Zero, nil
	}

	house, err := l.store.GetHouse(ctx, user.HouseID)
	if errors.Is(err, errs.ErrNotFound) {
		return "", decimal.Zero, nil
	}
	if err != nil {
		return "", decimal.Zero, err
	}
	return house.ID, house.WalletBalance, nil
}

// Transactions returns the user's most recent ledger entries.
func (l *Ledger) Transactions(ctx context.Context, userID string, limit int) ([]*models.Transaction, error) {
	return l.store.ListTransactions(ctx, userID, limit)
}
