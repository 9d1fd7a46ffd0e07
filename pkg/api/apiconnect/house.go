package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/houseshare/pkg/api"
)

// HouseServiceName is the fully-qualified name of the HouseService service.
const HouseServiceName = "houseshare.v1.HouseService"

const (
	HouseServiceCreateHouseProcedure        = "/houseshare.v1.HouseService/CreateHouse"
	HouseServiceJoinHouseProcedure          = "/houseshare.v1.HouseService/JoinHouse"
	HouseServiceGetHouseProcedure           = "/houseshare.v1.HouseService/GetHouse"
	HouseServiceManageMemberProcedure       = "/houseshare.v1.HouseService/ManageMember"
	HouseServiceLeaveHouseProcedure         = "/houseshare.v1.HouseService/LeaveHouse"
	HouseServiceDeleteHouseProcedure        = "/houseshare.v1.HouseService/DeleteHouse"
	HouseServiceUpdateChatSettingsProcedure = "/houseshare.v1.HouseService/UpdateChatSettings"
)

// HouseServiceHandler is implemented by the house membership service.
type HouseServiceHandler interface {
	CreateHouse(context.Context, *connect.Request[api.CreateHouseRequest]) (*connect.Response[api.CreateHouseResponse], error)
	JoinHouse(context.Context, *connect.Request[api.JoinHouseRequest]) (*connect.Response[api.JoinHouseResponse], error)
	GetHouse(context.Context, *connect.Request[api.GetHouseRequest]) (*connect.Response[api.GetHouseResponse], error)
	ManageMember(context.Context, *connect.Request[api.ManageMemberRequest]) (*connect.Response[api.ManageMemberResponse], error)
	LeaveHouse(context.Context, *connect.Request[api.LeaveHouseRequest]) (*connect.Response[api.LeaveHouseResponse], error)
	DeleteHouse(context.Context, *connect.Request[api.DeleteHouseRequest]) (*connect.Response[api.DeleteHouseResponse], error)
	UpdateChatSettings(context.Context, *connect.Request[api.UpdateChatSettingsRequest]) (*connect.Response[api.UpdateChatSettingsResponse], error)
}

// NewHouseServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewHouseServiceHandler(svc HouseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		HouseServiceCreateHouseProcedure:        connect.NewUnaryHandler(HouseServiceCreateHouseProcedure, svc.CreateHouse, opts...),
		HouseServiceJoinHouseProcedure:          connect.NewUnaryHandler(HouseServiceJoinHouseProcedure, svc.JoinHouse, opts...),
		HouseServiceGetHouseProcedure:           connect.NewUnaryHandler(HouseServiceGetHouseProcedure, svc.GetHouse, opts...),
		HouseServiceManageMemberProcedure:       connect.NewUnaryHandler(HouseServiceManageMemberProcedure, svc.ManageMember, opts...),
		HouseServiceLeaveHouseProcedure:         connect.NewUnaryHandler(HouseServiceLeaveHouseProcedure, svc.LeaveHouse, opts...),
		HouseServiceDeleteHouseProcedure:        connect.NewUnaryHandler(HouseServiceDeleteHouseProcedure, svc.DeleteHouse, opts...),
		HouseServiceUpdateChatSettingsProcedure: connect.NewUnaryHandler(HouseServiceUpdateChatSettingsProcedure, svc.UpdateChatSettings, opts...),
	}
	return "/" + HouseServiceName + "/", route(routes)
}

// HouseServiceClient is a client for the houseshare.v1.HouseService service.
type HouseServiceClient struct {
	createHouse        *connect.Client[api.CreateHouseRequest, api.CreateHouseResponse]
	joinHouse          *connect.Client[api.JoinHouseRequest, api.JoinHouseResponse]
	getHouse           *connect.Client[api.GetHouseRequest, api.GetHouseResponse]
	manageMember       *connect.Client[api.ManageMemberRequest, api.ManageMemberResponse]
	leaveHouse         *connect.Client[api.LeaveHouseRequest, api.LeaveHouseResponse]
	deleteHouse        *connect.Client[api.DeleteHouseRequest, api.DeleteHouseResponse]
	updateChatSettings *connect.Client[api.UpdateChatSettingsRequest, api.UpdateChatSettingsResponse]
}

// NewHouseServiceClient constructs a client for the houseshare.v1.HouseService service.
func NewHouseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *HouseServiceClient {
	opts = clientOptions(opts)
	return &HouseServiceClient{
		createHouse:        connect.NewClient[api.CreateHouseRequest, api.CreateHouseResponse](httpClient, baseURL+HouseServiceCreateHouseProcedure, opts...),
		joinHouse:          connect.NewClient[api.JoinHouseRequest, api.JoinHouseResponse](httpClient, baseURL+HouseServiceJoinHouseProcedure, opts...),
		getHouse:           connect.NewClient[api.GetHouseRequest, api.GetHouseResponse](httpClient, baseURL+HouseServiceGetHouseProcedure, opts...),
		manageMember:       connect.NewClient[api.ManageMemberRequest, api.ManageMemberResponse](httpClient, baseURL+HouseServiceManageMemberProcedure, opts...),
		leaveHouse:         connect.NewClient[api.LeaveHouseRequest, api.LeaveHouseResponse](httpClient, baseURL+HouseServiceLeaveHouseProcedure, opts...),
		deleteHouse:        connect.NewClient[api.DeleteHouseRequest, api.DeleteHouseResponse](httpClient, baseURL+HouseServiceDeleteHouseProcedure, opts...),
		updateChatSettings: connect.NewClient[api.UpdateChatSettingsRequest, api.UpdateChatSettingsResponse](httpClient, baseURL+HouseServiceUpdateChatSettingsProcedure, opts...),
	}
}

func (c *HouseServiceClient) CreateHouse(ctx context.Context, req *connect.Request[api.CreateHouseRequest]) (*connect.Response[api.CreateHouseResponse], error) {
	return c.createHouse.CallUnary(ctx, req)
}

func (c *HouseServiceClient) JoinHouse(ctx context.Context, req *connect.Request[api.JoinHouseRequest]) (*connect.Response[api.JoinHouseResponse], error) {
	return c.joinHouse.CallUnary(ctx, req)
}

func (c *HouseServiceClient) GetHouse(ctx context.Context, req *connect.Request[api.GetHouseRequest]) (*connect.Response[api.GetHouseResponse], error) {
	return c.getHouse.CallUnary(ctx, req)
}

func (c *HouseServiceClient) ManageMember(ctx context.Context, req *connect.Request[api.ManageMemberRequest]) (*connect.Response[api.ManageMemberResponse], error) {
	return c.manageMember.CallUnary(ctx, req)
}

func (c *HouseServiceClient) LeaveHouse(ctx context.Context, req *connect.Request[api.LeaveHouseRequest]) (*connect.Response[api.LeaveHouseResponse], error) {
	return c.leaveHouse.CallUnary(ctx, req)
}

func (c *HouseServiceClient) DeleteHouse(ctx context.Context, req *connect.Request[api.DeleteHouseRequest]) (*connect.Response[api.DeleteHouseResponse], error) {
	return c.deleteHouse.CallUnary(ctx, req)
}

func (c *HouseServiceClient) UpdateChatSettings(ctx context.Context, req *connect.Request[api.UpdateChatSettingsRequest]) (*connect.Response[api.UpdateChatSettingsResponse], error) {
	return c.updateChatSettings.CallUnary(ctx, req)
}

// route dispatches on the exact procedure path.
func route(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
