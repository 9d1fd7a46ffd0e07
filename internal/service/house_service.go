package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/houseshare/internal/membership"
	"github.com/mmynk/houseshare/pkg/api"
)

// HouseService implements the Connect HouseService.
type HouseService struct {
	members *membership.Service
}

// NewHouseService creates a new HouseService.
func NewHouseService(members *membership.Service) *HouseService {
	return &HouseService{members: members}
}

// CreateHouse creates a house with the caller as admin.
func (s *HouseService) CreateHouse(ctx context.Context, req *connect.Request[api.CreateHouseRequest]) (*connect.Response[api.CreateHouseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateHouse request received", "user_id", userID, "name", req.Msg.Name)

	house, err := s.members.CreateHouse(ctx, userID, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.CreateHouseResponse{House: toAPIHouse(house)}), nil
}

// JoinHouse adds the caller to the house with the given join code.
func (s *HouseService) JoinHouse(ctx context.Context, req *connect.Request[api.JoinHouseRequest]) (*connect.Response[api.JoinHouseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("JoinHouse request received", "user_id", userID)

	house, err := s.members.JoinHouse(ctx, userID, req.Msg.Code)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.JoinHouseResponse{House: toAPIHouse(house)}), nil
}

// GetHouse returns the caller's house with its members.
func (s *HouseService) GetHouse(ctx context.Context, req *connect.Request[api.GetHouseRequest]) (*connect.Response[api.GetHouseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	details, err := s.members.GetHouse(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetHouseResponse{House: toAPIHouseDetails(details)}), nil
}

// ManageMember adds, removes, promotes or demotes a member. Admin only.
func (s *HouseService) ManageMember(ctx context.Context, req *connect.Request[api.ManageMemberRequest]) (*connect.Response[api.ManageMemberResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ManageMember request received",
		"user_id", userID,
		"action", req.Msg.Action,
		"target", req.Msg.UserID,
	)

	house, err := s.members.ManageMember(ctx, userID, membership.Action(req.Msg.Action), req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.ManageMemberResponse{House: toAPIHouse(house)}), nil
}

// LeaveHouse removes the caller from their house.
func (s *HouseService) LeaveHouse(ctx context.Context, req *connect.Request[api.LeaveHouseRequest]) (*connect.Response[api.LeaveHouseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.members.LeaveHouse(ctx, userID); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.LeaveHouseResponse{OK: true}), nil
}

// DeleteHouse deletes the caller's house. Admin only.
func (s *HouseService) DeleteHouse(ctx context.Context, req *connect.Request[api.DeleteHouseRequest]) (*connect.Response[api.DeleteHouseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteHouse request received", "user_id", userID)

	if err := s.members.DeleteHouse(ctx, userID); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.DeleteHouseResponse{OK: true}), nil
}

// UpdateChatSettings changes the house chat settings. Admin only.
func (s *HouseService) UpdateChatSettings(ctx context.Context, req *connect.Request[api.UpdateChatSettingsRequest]) (*connect.Response[api.UpdateChatSettingsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	settings, err := s.members.UpdateChatSettings(ctx, userID, membership.ChatSettingsUpdate{
		AllowEveryoneToPost:  req.Msg.AllowEveryoneToPost,
		AnnouncementsEnabled: req.Msg.AnnouncementsEnabled,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.UpdateChatSettingsResponse{
		ChatSettings: api.ChatSettings{
			AllowEveryoneToPost:  settings.AllowEveryoneToPost,
			AnnouncementsEnabled: settings.AnnouncementsEnabled,
		},
	}), nil
}
