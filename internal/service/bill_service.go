package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/houseshare/internal/billing"
	"github.com/mmynk/houseshare/pkg/api"
)

// BillService implements the Connect BillService.
type BillService struct {
	engine *billing.Engine
}

// NewBillService creates a new BillService.
func NewBillService(engine *billing.Engine) *BillService {
	return &BillService{engine: engine}
}

// CreateBill creates a bill in the caller's house. Admin or sub-admin only.
func (s *BillService) CreateBill(ctx context.Context, req *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateBill request received",
		"user_id", userID,
		"name", req.Msg.Name,
		"amount", req.Msg.Amount,
		"assignees", len(req.Msg.AssignedTo),
	)

	input := billing.BillInput{
		Name:       req.Msg.Name,
		DueDate:    req.Msg.DueDate,
		AssignedTo: req.Msg.AssignedTo,
	}
	if input.Amount, err = parseAmount("amount", req.Msg.Amount); err != nil {
		return nil, toConnectError(err)
	}
	if req.Msg.TargetAmount != "" {
		target, err := parseAmount("targetAmount", req.Msg.TargetAmount)
		if err != nil {
			return nil, toConnectError(err)
		}
		input.TargetAmount = decimal.NewNullDecimal(target)
	}

	bill, err := s.engine.CreateBill(ctx, userID, input)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.CreateBillResponse{Bill: toAPIBill(bill)}), nil
}

// ListBills returns the bills of the caller's house.
func (s *BillService) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	bills, err := s.engine.ListBills(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*api.Bill, len(bills))
	for i, b := range bills {
		out[i] = toAPIBill(b)
	}

	slog.Debug("ListBills successful", "user_id", userID, "count", len(out))
	return connect.NewResponse(&api.ListBillsResponse{Bills: out}), nil
}

// PayBill pays the caller's share of a bill.
func (s *BillService) PayBill(ctx context.Context, req *connect.Request[api.PayBillRequest]) (*connect.Response[api.PayBillResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("PayBill request received", "user_id", userID, "bill_id", req.Msg.BillID, "method", req.Msg.Method)

	method := billing.Method(req.Msg.Method)
	if method == "" {
		method = billing.MethodWallet
	}

	result, err := s.engine.PayBill(ctx, userID, req.Msg.BillID, method)
	if err != nil {
		return nil, toConnectError(err)
	}

	payment := toAPIPayment(result.Payment)
	return connect.NewResponse(&api.PayBillResponse{
		Payment: &payment,
		Balance: result.Balance.String(),
	}), nil
}
