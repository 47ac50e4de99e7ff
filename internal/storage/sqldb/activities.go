package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mmynk/groupledger/internal/models"
)

// Metadata is stored as the protojson form of a google.protobuf.Struct,
// which restricts it to JSON-compatible values.
func encodeMetadata(m map[string]any) (string, error) {
	if m == nil {
		m = map[string]any{}
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return "", fmt.Errorf("invalid activity metadata: %w", err)
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode activity metadata: %w", err)
	}
	return string(b), nil
}

func decodeMetadata(raw string) (map[string]any, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("failed to decode activity metadata: %w", err)
	}
	return s.AsMap(), nil
}

// CreateActivity appends an activity entry and its audience.
// IDs are UUIDv7 so that entries created in the same second keep their order.
func (t *tx) CreateActivity(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate activity id: %w", err)
		}
		a.ID = id.String()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}

	metadata, err := encodeMetadata(a.Metadata)
	if err != nil {
		return err
	}

	_, err = t.exec(ctx,
		`INSERT INTO activities (id, group_id, kind, actor_id, created_at, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.GroupID, string(a.Kind), a.ActorID, a.CreatedAt, metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	seen := make(map[string]bool, len(a.AffectedUserIDs))
	for _, userID := range a.AffectedUserIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		_, err = t.exec(ctx,
			"INSERT INTO activity_users (activity_id, user_id) VALUES (?, ?)",
			a.ID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert activity user: %w", err)
		}
	}
	return nil
}

// ListActivities returns a group's feed, newest first.
func (t *tx) ListActivities(ctx context.Context, groupID string) ([]*models.Activity, error) {
	return t.listActivities(ctx,
		`SELECT id, group_id, kind, actor_id, created_at, metadata FROM activities
		 WHERE group_id = ? ORDER BY created_at DESC, id DESC`,
		groupID,
	)
}

// ListUserActivities returns every entry addressed to userID, newest first.
func (t *tx) ListUserActivities(ctx context.Context, userID string) ([]*models.Activity, error) {
	return t.listActivities(ctx,
		`SELECT a.id, a.group_id, a.kind, a.actor_id, a.created_at, a.metadata
		 FROM activities a JOIN activity_users u ON u.activity_id = a.id
		 WHERE u.user_id = ? ORDER BY a.created_at DESC, a.id DESC`,
		userID,
	)
}

func (t *tx) listActivities(ctx context.Context, query string, args ...any) ([]*models.Activity, error) {
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	var activities []*models.Activity
	for rows.Next() {
		a := &models.Activity{}
		var kind, metadata string
		if err := rows.Scan(&a.ID, &a.GroupID, &kind, &a.ActorID, &a.CreatedAt, &metadata); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Kind = models.ActivityKind(kind)
		if a.Metadata, err = decodeMetadata(metadata); err != nil {
			rows.Close()
			return nil, err
		}
		activities = append(activities, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	for _, a := range activities {
		users, err := t.query(ctx,
			"SELECT user_id FROM activity_users WHERE activity_id = ? ORDER BY user_id",
			a.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get activity users: %w", err)
		}
		for users.Next() {
			var userID string
			if err := users.Scan(&userID); err != nil {
				users.Close()
				return nil, fmt.Errorf("failed to scan activity user: %w", err)
			}
			a.AffectedUserIDs = append(a.AffectedUserIDs, userID)
		}
		users.Close()
		if err := users.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate activity users: %w", err)
		}
	}
	return activities, nil
}
