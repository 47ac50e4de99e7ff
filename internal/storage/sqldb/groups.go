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

// LockGroup reads the group version, holding a row lock where the dialect
// supports one.
func (t *tx) LockGroup(ctx context.Context, groupID string) (int64, error) {
	var version int64
	err := t.queryRow(ctx,
		"SELECT version FROM expense_groups WHERE id = ?"+t.d.LockClause,
		groupID,
	).Scan(&version)
	if err != nil {
		err = t.d.mapErr(err)
		if errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("%w: group %s", storage.ErrNotFound, groupID)
		}
		return 0, fmt.Errorf("failed to lock group: %w", err)
	}
	return version, nil
}

// BumpGroupVersion is a compare-and-set on the group version.
func (t *tx) BumpGroupVersion(ctx context.Context, groupID string, expected int64) error {
	res, err := t.exec(ctx,
		"UPDATE expense_groups SET version = version + 1 WHERE id = ? AND version = ?",
		groupID, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to bump group version: %w", err)
	}
	if err := rowsAffected(res, "group"); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: group %s changed since version %d", storage.ErrConflict, groupID, expected)
		}
		return err
	}
	return nil
}

// CreateGroup persists a new group. ID and CreatedAt are generated if unset.
func (t *tx) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	_, err := t.exec(ctx,
		`INSERT INTO expense_groups (id, name, description, creator_id, simplified, version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.Description, group.CreatorID, group.Simplified, group.Version, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (t *tx) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := t.queryRow(ctx,
		`SELECT id, name, description, creator_id, simplified, version, created_at
		 FROM expense_groups WHERE id = ?`,
		groupID,
	).Scan(&group.ID, &group.Name, &group.Description, &group.CreatorID,
		&group.Simplified, &group.Version, &group.CreatedAt)
	if err != nil {
		err = t.d.mapErr(err)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: group %s", storage.ErrNotFound, groupID)
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// ListUserGroups retrieves every group userID is a member of.
func (t *tx) ListUserGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := t.query(ctx,
		`SELECT g.id, g.name, g.description, g.creator_id, g.simplified, g.version, g.created_at
		 FROM expense_groups g JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ? ORDER BY g.created_at DESC, g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.Description, &group.CreatorID,
			&group.Simplified, &group.Version, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// UpdateGroup updates the mutable group fields.
func (t *tx) UpdateGroup(ctx context.Context, group *models.Group) error {
	res, err := t.exec(ctx,
		"UPDATE expense_groups SET name = ?, description = ?, simplified = ? WHERE id = ?",
		group.Name, group.Description, group.Simplified, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return rowsAffected(res, "group")
}

// DeleteGroup removes a group; foreign keys cascade to everything it owns.
func (t *tx) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := t.exec(ctx, "DELETE FROM expense_groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return rowsAffected(res, "group")
}
