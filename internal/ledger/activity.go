package ledger

import (
	"context"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/storage"
)

// Recorder appends activity entries. It runs inside the transaction of the
// operation that produced the entry, so a failed operation leaves no entry
// behind.
type Recorder interface {
	Record(ctx context.Context, tx storage.ActivityTx, activity *models.Activity) error
}

// StoreRecorder writes entries to the activity tables of the store.
type StoreRecorder struct{}

func (StoreRecorder) Record(ctx context.Context, tx storage.ActivityTx, activity *models.Activity) error {
	return tx.CreateActivity(ctx, activity)
}

func groupActivity(kind models.ActivityKind, group *models.Group, actorID string, audience []string, metadata map[string]any) *models.Activity {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["group_name"] = group.Name
	return &models.Activity{
		GroupID:         group.ID,
		Kind:            kind,
		ActorID:         actorID,
		AffectedUserIDs: audience,
		Metadata:        metadata,
	}
}

func expenseActivity(kind models.ActivityKind, e *models.Expense, actorID string) *models.Activity {
	audience := []string{actorID, e.PayerID}
	contributions := make([]any, 0, len(e.Contributions))
	for _, c := range e.Contributions {
		audience = append(audience, c.UserID)
		contributions = append(contributions, map[string]any{
			"user_id": c.UserID,
			"share":   c.Share.String(),
		})
	}

	metadata := map[string]any{
		"expense_id":    e.ID,
		"kind":          string(e.Kind),
		"description":   e.Description,
		"payer_id":      e.PayerID,
		"amount":        e.Total.String(),
		"contributions": contributions,
	}
	if e.Kind == models.KindSettleUp && len(e.Contributions) == 1 {
		metadata["from"] = e.PayerID
		metadata["to"] = e.Contributions[0].UserID
	}

	return &models.Activity{
		GroupID:         e.GroupID,
		Kind:            kind,
		ActorID:         actorID,
		AffectedUserIDs: dedupe(audience),
		Metadata:        metadata,
	}
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// dedupe drops empty and repeated IDs, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
