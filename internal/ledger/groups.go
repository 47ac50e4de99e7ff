package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/storage"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 1000
)

// NewGroup is a request to create a group.
type NewGroup struct {
	Name        string
	Description string
	CreatorID   string

	// MemberIDs join alongside the creator.
	MemberIDs []string
}

// GroupDetails is a group with its current members.
type GroupDetails struct {
	Group   *models.Group
	Members []models.Member
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "must not be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", invalid("name", "must be at most %d characters", maxNameLength)
	}
	return name, nil
}

func validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return "", invalid("description", "must be at most %d characters", maxDescriptionLength)
	}
	return description, nil
}

// CreateGroup creates a group whose members are the creator plus
// req.MemberIDs and records group_created.
func (e *Engine) CreateGroup(ctx context.Context, req NewGroup) (*models.Group, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}
	description, err := validateDescription(req.Description)
	if err != nil {
		return nil, err
	}
	if req.CreatorID == "" {
		return nil, invalid("creator_id", "must not be empty")
	}
	for _, id := range req.MemberIDs {
		if id == "" {
			return nil, invalid("member_ids", "must not contain empty IDs")
		}
	}
	memberIDs := dedupe(append([]string{req.CreatorID}, req.MemberIDs...))

	group := &models.Group{
		Name:        name,
		Description: description,
		CreatorID:   req.CreatorID,
	}
	err = e.run(ctx, "create_group", "", func(ctx context.Context, u *unit) error {
		group.CreatedAt = u.now
		if err := u.tx.CreateGroup(ctx, group); err != nil {
			return err
		}
		u.groupID = group.ID
		for _, id := range memberIDs {
			m := &models.Member{GroupID: group.ID, UserID: id, AddedBy: req.CreatorID, JoinedAt: u.now}
			if err := u.tx.AddMember(ctx, m); err != nil {
				return err
			}
		}
		return u.record(ctx, groupActivity(models.ActivityGroupCreated, group, req.CreatorID, memberIDs,
			map[string]any{"members": toAny(memberIDs)}))
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// CheckMember returns ErrNotFound for an unknown group and ErrNotAMember
// when userID does not belong to it.
func (e *Engine) CheckMember(ctx context.Context, groupID, userID string) error {
	return e.read(ctx, "check_member", groupID, func(ctx context.Context, tx storage.Tx) error {
		return checkMember(ctx, tx, groupID, userID)
	})
}

func checkMember(ctx context.Context, tx storage.Tx, groupID, userID string) error {
	if _, err := tx.GetGroup(ctx, groupID); err != nil {
		return err
	}
	u := &unit{tx: tx, groupID: groupID}
	return u.requireMember(ctx, userID)
}

// GetGroup returns the group and its members. actorID must be a member.
func (e *Engine) GetGroup(ctx context.Context, groupID, actorID string) (*GroupDetails, error) {
	var details GroupDetails
	err := e.read(ctx, "get_group", groupID, func(ctx context.Context, tx storage.Tx) error {
		if err := checkMember(ctx, tx, groupID, actorID); err != nil {
			return err
		}
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		members, err := tx.ListMembers(ctx, groupID)
		if err != nil {
			return err
		}
		details = GroupDetails{Group: group, Members: members}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// ListGroups returns the groups userID belongs to.
func (e *Engine) ListGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	var groups []*models.Group
	err := e.read(ctx, "list_groups", "", func(ctx context.Context, tx storage.Tx) error {
		var err error
		groups, err = tx.ListUserGroups(ctx, userID)
		return err
	})
	return groups, err
}

// updateGroup applies change to the group and records one activity built
// from the returned kind and metadata.
func (e *Engine) updateGroup(ctx context.Context, op, groupID, actorID string,
	change func(g *models.Group) (models.ActivityKind, map[string]any),
) (*models.Group, error) {
	var group *models.Group
	err := e.mutate(ctx, op, groupID, func(ctx context.Context, u *unit) error {
		if err := u.requireMember(ctx, actorID); err != nil {
			return err
		}
		var err error
		if group, err = u.tx.GetGroup(ctx, groupID); err != nil {
			return err
		}
		kind, metadata := change(group)
		if err := u.tx.UpdateGroup(ctx, group); err != nil {
			return err
		}
		audience, err := u.memberIDs(ctx)
		if err != nil {
			return err
		}
		return u.record(ctx, groupActivity(kind, group, actorID, audience, metadata))
	})
	if err != nil {
		return nil, err
	}
	group.Version++
	return group, nil
}

// RenameGroup changes the group name and records changed_group_name.
func (e *Engine) RenameGroup(ctx context.Context, groupID, actorID, name string) (*models.Group, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	return e.updateGroup(ctx, "rename_group", groupID, actorID, func(g *models.Group) (models.ActivityKind, map[string]any) {
		old := g.Name
		g.Name = name
		return models.ActivityGroupRenamed, map[string]any{"old_name": old, "new_name": name}
	})
}

// UpdateDescription changes the group description and records
// changed_group_description.
func (e *Engine) UpdateDescription(ctx context.Context, groupID, actorID, description string) (*models.Group, error) {
	description, err := validateDescription(description)
	if err != nil {
		return nil, err
	}
	return e.updateGroup(ctx, "update_description", groupID, actorID, func(g *models.Group) (models.ActivityKind, map[string]any) {
		g.Description = description
		return models.ActivityGroupDescription, map[string]any{"new_description": description}
	})
}

// SetSimplified selects the balance view rendered to clients and records
// group_simplified. Stored balances are untouched.
func (e *Engine) SetSimplified(ctx context.Context, groupID, actorID string, simplified bool) (*models.Group, error) {
	return e.updateGroup(ctx, "set_simplified", groupID, actorID, func(g *models.Group) (models.ActivityKind, map[string]any) {
		g.Simplified = simplified
		return models.ActivityGroupSimplified, map[string]any{"state": simplified}
	})
}

// InviteMember creates a pending invitation for userID and records
// member_invited. The invitee must not already be a member or invited.
func (e *Engine) InviteMember(ctx context.Context, groupID, actorID, userID string) (*models.Invitation, error) {
	if userID == "" {
		return nil, invalid("user_id", "must not be empty")
	}
	inv := &models.Invitation{GroupID: groupID, UserID: userID, InvitedBy: actorID}
	err := e.mutate(ctx, "invite_member", groupID, func(ctx context.Context, u *unit) error {
		if err := u.requireMember(ctx, actorID); err != nil {
			return err
		}
		member, err := u.tx.IsMember(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if member {
			return invalid("user_id", "user %s is already a member", userID)
		}

		inv.CreatedAt = u.now
		if err := u.tx.CreateInvitation(ctx, inv); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return &ValidationError{Field: "user_id", Reason: "user " + userID + " is already invited", Err: err}
			}
			return err
		}

		group, err := u.tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		audience, err := u.memberIDs(ctx)
		if err != nil {
			return err
		}
		return u.record(ctx, groupActivity(models.ActivityMemberInvited, group, actorID, append(audience, userID),
			map[string]any{"invitation_id": inv.ID, "user_id": userID}))
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// AcceptInvitation makes the invitee a member and records member_joined.
// Only the invitee may accept.
func (e *Engine) AcceptInvitation(ctx context.Context, invitationID, userID string) (*models.Member, error) {
	var member *models.Member
	err := e.run(ctx, "accept_invitation", "", func(ctx context.Context, u *unit) error {
		inv, err := u.tx.GetInvitation(ctx, invitationID)
		if err != nil {
			return err
		}
		if inv.UserID != userID {
			return fmt.Errorf("%w: invitation %s", ErrNotFound, invitationID)
		}
		if err := u.lock(ctx, inv.GroupID); err != nil {
			return err
		}

		member = &models.Member{GroupID: inv.GroupID, UserID: userID, AddedBy: inv.InvitedBy, JoinedAt: u.now}
		if err := u.tx.AddMember(ctx, member); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return &ValidationError{Field: "invitation_id", Reason: "already a member", Err: err}
			}
			return err
		}
		if err := u.tx.DeleteInvitation(ctx, invitationID); err != nil {
			return err
		}

		group, err := u.tx.GetGroup(ctx, inv.GroupID)
		if err != nil {
			return err
		}
		audience, err := u.memberIDs(ctx)
		if err != nil {
			return err
		}
		return u.record(ctx, groupActivity(models.ActivityMemberJoined, group, userID, audience,
			map[string]any{"user_id": userID, "invited_by": inv.InvitedBy}))
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// DropInvitation deletes a pending invitation and records
// invitation_dropped. The invitee or any member may drop it.
func (e *Engine) DropInvitation(ctx context.Context, invitationID, actorID string) error {
	return e.run(ctx, "drop_invitation", "", func(ctx context.Context, u *unit) error {
		inv, err := u.tx.GetInvitation(ctx, invitationID)
		if err != nil {
			return err
		}
		if err := u.lock(ctx, inv.GroupID); err != nil {
			return err
		}
		if actorID != inv.UserID {
			if err := u.requireMember(ctx, actorID); err != nil {
				return err
			}
		}
		if err := u.tx.DeleteInvitation(ctx, invitationID); err != nil {
			return err
		}

		group, err := u.tx.GetGroup(ctx, inv.GroupID)
		if err != nil {
			return err
		}
		audience, err := u.memberIDs(ctx)
		if err != nil {
			return err
		}
		return u.record(ctx, groupActivity(models.ActivityInvitationDropped, group, actorID, dedupe(append(audience, inv.UserID)),
			map[string]any{"invitation_id": inv.ID, "user_id": inv.UserID}))
	})
}

// RemoveMember takes userID out of the group. When actorID is userID this
// is a leave and records member_left; otherwise member_removed. The member
// must be settled with everyone; their balance rows and invitations are
// cleaned up in the same transaction.
func (e *Engine) RemoveMember(ctx context.Context, groupID, actorID, userID string) error {
	return e.mutate(ctx, "remove_member", groupID, func(ctx context.Context, u *unit) error {
		if err := u.requireMember(ctx, actorID); err != nil {
			return err
		}
		if err := u.requireMember(ctx, userID); err != nil {
			return err
		}
		if err := u.ledger.AssertMemberSettled(ctx, userID); err != nil {
			return err
		}

		audience, err := u.memberIDs(ctx)
		if err != nil {
			return err
		}
		if err := u.tx.DeleteBalancesForUser(ctx, groupID, userID); err != nil {
			return err
		}
		if err := u.tx.DeleteInvitationsForUser(ctx, groupID, userID); err != nil {
			return err
		}
		if err := u.tx.RemoveMember(ctx, groupID, userID); err != nil {
			return err
		}

		group, err := u.tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		kind := models.ActivityMemberRemoved
		if actorID == userID {
			kind = models.ActivityMemberLeft
		}
		return u.record(ctx, groupActivity(kind, group, actorID, audience, map[string]any{"user_id": userID}))
	})
}

// DeleteGroup removes a settled group and everything it owns. The
// group_deleted activity is delivered to hooks only, since the group's
// activity log is deleted with it.
func (e *Engine) DeleteGroup(ctx context.Context, groupID, actorID string) error {
	return e.mutate(ctx, "delete_group", groupID, func(ctx context.Context, u *unit) error {
		if err := u.requireMember(ctx, actorID); err != nil {
			return err
		}
		if err := u.ledger.AssertSettled(ctx); err != nil {
			return err
		}

		group, err := u.tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		audience, err := u.memberIDs(ctx)
		if err != nil {
			return err
		}
		if err := u.tx.DeleteGroup(ctx, groupID); err != nil {
			return err
		}
		u.skipBump = true
		u.emit(groupActivity(models.ActivityGroupDeleted, group, actorID, audience, nil))
		return nil
	})
}
