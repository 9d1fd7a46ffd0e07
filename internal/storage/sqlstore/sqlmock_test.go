package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

func TestSwapWalletBalance_NoRowsIsConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET wallet_balance = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SwapWalletBalance(context.Background(), "u1", decimal.NewFromInt(10), decimal.NewFromInt(5))
	if !errors.Is(err, errs.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateBill_RollsBackOnAssigneeFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bills")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bill_assignees")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	bill := &models.Bill{
		HouseID:    "h1",
		Name:       "Water",
		Amount:     decimal.NewFromInt(100),
		AssignedTo: models.Assignment{TenantIDs: []string{"u1"}},
		CreatedBy:  "u1",
	}
	err := store.CreateBill(context.Background(), bill)
	if err == nil {
		t.Fatal("Expected error from failing assignee insert")
	}
	if errs.KindOf(err) != errs.KindInternal {
		t.Errorf("Expected internal error, got kind %v", errs.KindOf(err))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteHouse_MissingIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM house_sub_admins")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM house_tenants")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM houses")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.DeleteHouse(context.Background(), "missing")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
