package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/houseshare/internal/errs"
	"github.com/mmynk/houseshare/internal/wallet"
	"github.com/mmynk/houseshare/pkg/api"
)

// maxTransactions caps a ListTransactions page.
const maxTransactions = 200

// WalletService implements the Connect WalletService.
type WalletService struct {
	ledger *wallet.Ledger
}

// NewWalletService creates a new WalletService.
func NewWalletService(ledger *wallet.Ledger) *WalletService {
	return &WalletService{ledger: ledger}
}

// TopUp verifies a gateway reference and credits the caller's wallet.
func (s *WalletService) TopUp(ctx context.Context, req *connect.Request[api.TopUpRequest]) (*connect.Response[api.TopUpResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("TopUp request received", "user_id", userID, "reference", req.Msg.Reference)

	balance, err := s.ledger.TopUp(ctx, userID, req.Msg.Reference)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.TopUpResponse{Balance: balance.String()}), nil
}

// GetBalance returns the caller's wallet balance.
func (s *WalletService) GetBalance(ctx context.Context, req *connect.Request[api.GetBalanceRequest]) (*connect.Response[api.GetBalanceResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetBalanceResponse{Balance: balance.String()}), nil
}

// GetHouseBalance returns the caller's house wallet balance, zero without a house.
func (s *WalletService) GetHouseBalance(ctx context.Context, req *connect.Request[api.GetHouseBalanceRequest]) (*connect.Response[api.GetHouseBalanceResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	houseID, balance, err := s.ledger.HouseBalance(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetHouseBalanceResponse{HouseID: houseID, Balance: balance.String()}), nil
}

// HouseWithdraw withdraws from the caller's house wallet. Admin only.
func (s *WalletService) HouseWithdraw(ctx context.Context, req *connect.Request[api.HouseWithdrawRequest]) (*connect.Response[api.HouseWithdrawResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("HouseWithdraw request received", "user_id", userID, "amount", req.Msg.Amount)

	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}

	houseID, _, err := s.ledger.HouseBalance(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if houseID == "" {
		return nil, toConnectError(errs.ErrNotInHouse)
	}

	bank := wallet.BankDetails{
		AccountName:   req.Msg.BankDetails.AccountName,
		AccountNumber: req.Msg.BankDetails.AccountNumber,
		BankName:      req.Msg.BankDetails.BankName,
	}
	balance, txn, err := s.ledger.HouseWithdraw(ctx, userID, houseID, amount, bank)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.HouseWithdrawResponse{
		Balance:     balance.String(),
		Transaction: toAPITransaction(txn),
	}), nil
}

// ListTransactions returns the caller's ledger entries, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	limit := min(req.Msg.Limit, maxTransactions)
	txs, err := s.ledger.Transactions(ctx, userID, limit)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*api.Transaction, len(txs))
	for i, t := range txs {
		out[i] = toAPITransaction(t)
	}
	return connect.NewResponse(&api.ListTransactionsResponse{Transactions: out}), nil
}
