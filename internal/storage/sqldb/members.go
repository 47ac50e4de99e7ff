package sqldb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/storage"
)

// IsMember reports whether userID currently belongs to the group.
func (t *tx) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var one int
	err := t.queryRow(ctx,
		"SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	).Scan(&one)
	if err != nil {
		err = t.d.mapErr(err)
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return true, nil
}

// ListMembers returns members in join order.
func (t *tx) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	rows, err := t.query(ctx,
		`SELECT group_id, user_id, added_by, joined_at FROM group_members
		 WHERE group_id = ? ORDER BY joined_at, user_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.AddedBy, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// AddMember inserts a membership. Returns storage.ErrDuplicate if the user
// is already a member.
func (t *tx) AddMember(ctx context.Context, m *models.Member) error {
	if m.JoinedAt == 0 {
		m.JoinedAt = time.Now().Unix()
	}
	_, err := t.exec(ctx,
		"INSERT INTO group_members (group_id, user_id, added_by, joined_at) VALUES (?, ?, ?, ?)",
		m.GroupID, m.UserID, m.AddedBy, m.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership.
func (t *tx) RemoveMember(ctx context.Context, groupID, userID string) error {
	res, err := t.exec(ctx,
		"DELETE FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return rowsAffected(res, "member")
}

// CreateInvitation persists a pending invitation.
func (t *tx) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CreatedAt == 0 {
		inv.CreatedAt = time.Now().Unix()
	}
	_, err := t.exec(ctx,
		"INSERT INTO invitations (id, group_id, user_id, invited_by, created_at) VALUES (?, ?, ?, ?, ?)",
		inv.ID, inv.GroupID, inv.UserID, inv.InvitedBy, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invitation: %w", err)
	}
	return nil
}

// GetInvitation retrieves an invitation by ID.
func (t *tx) GetInvitation(ctx context.Context, invitationID string) (*models.Invitation, error) {
	inv := &models.Invitation{}
	err := t.queryRow(ctx,
		"SELECT id, group_id, user_id, invited_by, created_at FROM invitations WHERE id = ?",
		invitationID,
	).Scan(&inv.ID, &inv.GroupID, &inv.UserID, &inv.InvitedBy, &inv.CreatedAt)
	if err != nil {
		err = t.d.mapErr(err)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: invitation %s", storage.ErrNotFound, invitationID)
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// DeleteInvitation removes an invitation by ID.
func (t *tx) DeleteInvitation(ctx context.Context, invitationID string) error {
	res, err := t.exec(ctx, "DELETE FROM invitations WHERE id = ?", invitationID)
	if err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	return rowsAffected(res, "invitation")
}

// DeleteInvitationsForUser removes invitations to or from userID.
func (t *tx) DeleteInvitationsForUser(ctx context.Context, groupID, userID string) error {
	_, err := t.exec(ctx,
		"DELETE FROM invitations WHERE group_id = ? AND (user_id = ? OR invited_by = ?)",
		groupID, userID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete invitations: %w", err)
	}
	return nil
}
