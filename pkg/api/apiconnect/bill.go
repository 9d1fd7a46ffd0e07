package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/houseshare/pkg/api"
)

// BillServiceName is the fully-qualified name of the BillService service.
const BillServiceName = "houseshare.v1.BillService"

const (
	BillServiceCreateBillProcedure = "/houseshare.v1.BillService/CreateBill"
	BillServiceListBillsProcedure  = "/houseshare.v1.BillService/ListBills"
	BillServicePayBillProcedure    = "/houseshare.v1.BillService/PayBill"
)

// BillServiceHandler is implemented by the bill service.
type BillServiceHandler interface {
	CreateBill(context.Context, *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error)
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
	PayBill(context.Context, *connect.Request[api.PayBillRequest]) (*connect.Response[api.PayBillResponse], error)
}

// NewBillServiceHandler builds an HTTP handler from the service implementation.
func NewBillServiceHandler(svc BillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		BillServiceCreateBillProcedure: connect.NewUnaryHandler(BillServiceCreateBillProcedure, svc.CreateBill, opts...),
		BillServiceListBillsProcedure:  connect.NewUnaryHandler(BillServiceListBillsProcedure, svc.ListBills, opts...),
		BillServicePayBillProcedure:    connect.NewUnaryHandler(BillServicePayBillProcedure, svc.PayBill, opts...),
	}
	return "/" + BillServiceName + "/", route(routes)
}

// BillServiceClient is a client for the houseshare.v1.BillService service.
type BillServiceClient struct {
	createBill *connect.Client[api.CreateBillRequest, api.CreateBillResponse]
	listBills  *connect.Client[api.ListBillsRequest, api.ListBillsResponse]
	payBill    *connect.Client[api.PayBillRequest, api.PayBillResponse]
}

// NewBillServiceClient constructs a client for the houseshare.v1.BillService service.
func NewBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BillServiceClient {
	opts = clientOptions(opts)
	return &BillServiceClient{
		createBill: connect.NewClient[api.CreateBillRequest, api.CreateBillResponse](httpClient, baseURL+BillServiceCreateBillProcedure, opts...),
		listBills:  connect.NewClient[api.ListBillsRequest, api.ListBillsResponse](httpClient, baseURL+BillServiceListBillsProcedure, opts...),
		payBill:    connect.NewClient[api.PayBillRequest, api.PayBillResponse](httpClient, baseURL+BillServicePayBillProcedure, opts...),
	}
}

func (c *BillServiceClient) CreateBill(ctx context.Context, req *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error) {
	return c.createBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

func (c *BillServiceClient) PayBill(ctx context.Context, req *connect.Request[api.PayBillRequest]) (*connect.Response[api.PayBillResponse], error) {
	return c.payBill.CallUnary(ctx, req)
}
