package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/houseshare/pkg/api"
)

// WalletServiceName is the fully-qualified name of the WalletService service.
const WalletServiceName = "houseshare.v1.WalletService"

const (
	WalletServiceTopUpProcedure            = "/houseshare.v1.WalletService/TopUp"
	WalletServiceGetBalanceProcedure       = "/houseshare.v1.WalletService/GetBalance"
	WalletServiceGetHouseBalanceProcedure  = "/houseshare.v1.WalletService/GetHouseBalance"
	WalletServiceHouseWithdrawProcedure    = "/houseshare.v1.WalletService/HouseWithdraw"
	WalletServiceListTransactionsProcedure = "/houseshare.v1.WalletService/ListTransactions"
)

// WalletServiceHandler is implemented by the wallet service.
type WalletServiceHandler interface {
	TopUp(context.Context, *connect.Request[api.TopUpRequest]) (*connect.Response[api.TopUpResponse], error)
	GetBalance(context.Context, *connect.Request[api.GetBalanceRequest]) (*connect.Response[api.GetBalanceResponse], error)
	GetHouseBalance(context.Context, *connect.Request[api.GetHouseBalanceRequest]) (*connect.Response[api.GetHouseBalanceResponse], error)
	HouseWithdraw(context.Context, *connect.Request[api.HouseWithdrawRequest]) (*connect.Response[api.HouseWithdrawResponse], error)
	ListTransactions(context.Context, *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error)
}

// NewWalletServiceHandler builds an HTTP handler from the service implementation.
func NewWalletServiceHandler(svc WalletServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		WalletServiceTopUpProcedure:            connect.NewUnaryHandler(WalletServiceTopUpProcedure, svc.TopUp, opts...),
		WalletServiceGetBalanceProcedure:       connect.NewUnaryHandler(WalletServiceGetBalanceProcedure, svc.GetBalance, opts...),
		WalletServiceGetHouseBalanceProcedure:  connect.NewUnaryHandler(WalletServiceGetHouseBalanceProcedure, svc.GetHouseBalance, opts...),
		WalletServiceHouseWithdrawProcedure:    connect.NewUnaryHandler(WalletServiceHouseWithdrawProcedure, svc.HouseWithdraw, opts...),
		WalletServiceListTransactionsProcedure: connect.NewUnaryHandler(WalletServiceListTransactionsProcedure, svc.ListTransactions, opts...),
	}
	return "/" + WalletServiceName + "/", route(routes)
}

// WalletServiceClient is a client for the houseshare.v1.WalletService service.
type WalletServiceClient struct {
	topUp            *connect.Client[api.TopUpRequest, api.TopUpResponse]
	getBalance       *connect.Client[api.GetBalanceRequest, api.GetBalanceResponse]
	getHouseBalance  *connect.Client[api.GetHouseBalanceRequest, api.GetHouseBalanceResponse]
	houseWithdraw    *connect.Client[api.HouseWithdrawRequest, api.HouseWithdrawResponse]
	listTransactions *connect.Client[api.ListTransactionsRequest, api.ListTransactionsResponse]
}

// NewWalletServiceClient constructs a client for the houseshare.v1.WalletService service.
func NewWalletServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *WalletServiceClient {
	opts = clientOptions(opts)
	return &WalletServiceClient{
		topUp:            connect.NewClient[api.TopUpRequest, api.TopUpResponse](httpClient, baseURL+WalletServiceTopUpProcedure, opts...),
		getBalance:       connect.NewClient[api.GetBalanceRequest, api.GetBalanceResponse](httpClient, baseURL+WalletServiceGetBalanceProcedure, opts...),
		getHouseBalance:  connect.NewClient[api.GetHouseBalanceRequest, api.GetHouseBalanceResponse](httpClient, baseURL+WalletServiceGetHouseBalanceProcedure, opts...),
		houseWithdraw:    connect.NewClient[api.HouseWithdrawRequest, api.HouseWithdrawResponse](httpClient, baseURL+WalletServiceHouseWithdrawProcedure, opts...),
		listTransactions: connect.NewClient[api.ListTransactionsRequest, api.ListTransactionsResponse](httpClient, baseURL+WalletServiceListTransactionsProcedure, opts...),
	}
}

func (c *WalletServiceClient) TopUp(ctx context.Context, req *connect.Request[api.TopUpRequest]) (*connect.Response[api.TopUpResponse], error) {
	return c.topUp.CallUnary(ctx, req)
}

func (c *WalletServiceClient) GetBalance(ctx context.Context, req *connect.Request[api.GetBalanceRequest]) (*connect.Response[api.GetBalanceResponse], error) {
	return c.getBalance.CallUnary(ctx, req)
}

func (c *WalletServiceClient) GetHouseBalance(ctx context.Context, req *connect.Request[api.GetHouseBalanceRequest]) (*connect.Response[api.GetHouseBalanceResponse], error) {
	return c.getHouseBalance.CallUnary(ctx, req)
}

func (c *WalletServiceClient) HouseWithdraw(ctx context.Context, req *connect.Request[api.HouseWithdrawRequest]) (*connect.Response[api.HouseWithdrawResponse], error) {
	return c.houseWithdraw.CallUnary(ctx, req)
}

func (c *WalletServiceClient) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	return c.listTransactions.CallUnary(ctx, req)
}
