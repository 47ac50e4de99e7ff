package ledger

import (
	"context"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/storage"
)

// ListActivities returns the group's activity feed, newest first.
func (e *Engine) ListActivities(ctx context.Context, groupID string) ([]*models.Activity, error) {
	var feed []*models.Activity
	err := e.read(ctx, "list_activities", groupID, func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.GetGroup(ctx, groupID); err != nil {
			return err
		}
		var err error
		feed, err = tx.ListActivities(ctx, groupID)
		return err
	})
	return feed, err
}

// ListUserActivities returns every activity addressed to userID across all
// of their groups, newest first.
func (e *Engine) ListUserActivities(ctx context.Context, userID string) ([]*models.Activity, error) {
	var feed []*models.Activity
	err := e.read(ctx, "list_user_activities", "", func(ctx context.Context, tx storage.Tx) error {
		var err error
		feed, err = tx.ListUserActivities(ctx, userID)
		return err
	})
	return feed, err
}
