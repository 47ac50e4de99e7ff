package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/ledger"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/pkg/api"
	"github.com/mmynk/groupledger/pkg/api/apiconnect"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	apiconnect.UnimplementedGroupServiceHandler
	engine  *ledger.Engine
	retrier *Retrier
}

// NewGroupService creates a new GroupService on top of the ledger engine.
func NewGroupService(engine *ledger.Engine, retrier *Retrier) *GroupService {
	return &GroupService{engine: engine, retrier: retrier}
}

// CreateGroup creates a new group with the caller as creator and member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberIDs),
	)

	group, err := s.engine.CreateGroup(ctx, ledger.NewGroup{
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		CreatorID:   actor,
		MemberIDs:   req.Msg.MemberIDs,
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group and its members.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	details, err := s.engine.GetGroup(ctx, req.Msg.GroupID, actor)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&api.GetGroupResponse{
		Group:   toAPIGroup(details.Group),
		Members: toAPIMembers(details.Members),
	}), nil
}

// ListGroups retrieves the caller's groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.engine.ListGroups(ctx, actor)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g)
	}
	slog.Info("ListGroups successful", "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// UpdateGroup changes one group setting per call.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	set := 0
	for _, isSet := range []bool{msg.Name != nil, msg.Description != nil, msg.Simplified != nil} {
		if isSet {
			set++
		}
	}
	if set != 1 {
		return nil, invalidArgument(errors.New("exactly one of name, description or simplified must be set"))
	}
	slog.Info("UpdateGroup request received", "group_id", msg.GroupID)

	group, err := retryValue(ctx, s.retrier, "update_group", func(ctx context.Context) (*models.Group, error) {
		switch {
		case msg.Name != nil:
			return s.engine.RenameGroup(ctx, msg.GroupID, actor, *msg.Name)
		case msg.Description != nil:
			return s.engine.UpdateDescription(ctx, msg.GroupID, actor, *msg.Description)
		default:
			return s.engine.SetSimplified(ctx, msg.GroupID, actor, *msg.Simplified)
		}
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&api.UpdateGroupResponse{Group: toAPIGroup(group)}), nil
}

// InviteMember invites a user to the group.
func (s *GroupService) InviteMember(ctx context.Context, req *connect.Request[api.InviteMemberRequest]) (*connect.Response[api.InviteMemberResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("InviteMember request received", "group_id", req.Msg.GroupID, "user_id", req.Msg.UserID)

	inv, err := retryValue(ctx, s.retrier, "invite_member", func(ctx context.Context) (*models.Invitation, error) {
		return s.engine.InviteMember(ctx, req.Msg.GroupID, actor, req.Msg.UserID)
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&api.InviteMemberResponse{Invitation: toAPIInvitation(inv)}), nil
}

// AcceptInvitation joins the caller to the inviting group.
func (s *GroupService) AcceptInvitation(ctx context.Context, req *connect.Request[api.AcceptInvitationRequest]) (*connect.Response[api.AcceptInvitationResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	member, err := retryValue(ctx, s.retrier, "accept_invitation", func(ctx context.Context) (*models.Member, error) {
		return s.engine.AcceptInvitation(ctx, req.Msg.InvitationID, actor)
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&api.AcceptInvitationResponse{Member: &api.Member{
		UserID:   member.UserID,
		AddedBy:  member.AddedBy,
		JoinedAt: member.JoinedAt,
	}}), nil
}

// DropInvitation withdraws or declines an invitation.
func (s *GroupService) DropInvitation(ctx context.Context, req *connect.Request[api.DropInvitationRequest]) (*connect.Response[api.DropInvitationResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	err = s.retrier.Do(ctx, "drop_invitation", func(ctx context.Context) error {
		return s.engine.DropInvitation(ctx, req.Msg.InvitationID, actor)
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&api.DropInvitationResponse{}), nil
}

// RemoveMember removes a settled member, or lets the caller leave.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	userID := req.Msg.UserID
	if userID == "" {
		userID = actor
	}
	slog.Info("RemoveMember request received", "group_id", req.Msg.GroupID, "user_id", userID)

	err = s.retrier.Do(ctx, "remove_member", func(ctx context.Context) error {
		return s.engine.RemoveMember(ctx, req.Msg.GroupID, actor, userID)
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&api.RemoveMemberResponse{}), nil
}

// DeleteGroup deletes a settled group.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	err = s.retrier.Do(ctx, "delete_group", func(ctx context.Context) error {
		return s.engine.DeleteGroup(ctx, req.Msg.GroupID, actor)
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}
