package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/storage"
)

// DefaultDescription is used for expenses posted without one.
const DefaultDescription = "Expense"

const maxIdempotencyKeyLength = 255

// ExpenseRequest is a request to post an expense or settle-up.
type ExpenseRequest struct {
	GroupID string
	ActorID string
	Kind    models.ExpenseKind
	PayerID string

	Description string

	// Total is optional. When non-zero it must equal the sum of the shares.
	Total money.Amount

	Contributions []models.Contribution

	// IdempotencyKey makes retries safe: a second post with the same key
	// returns the first expense and changes nothing.
	IdempotencyKey string
}

// validate checks everything that does not need the store and returns the
// expense total.
func (r *ExpenseRequest) validate() (money.Amount, error) {
	switch {
	case r.GroupID == "":
		return 0, invalid("group_id", "must not be empty")
	case r.ActorID == "":
		return 0, invalid("actor_id", "must not be empty")
	case r.PayerID == "":
		return 0, invalid("payer_id", "must not be empty")
	case !r.Kind.Valid():
		return 0, invalid("kind", "unknown expense kind %q", r.Kind)
	case len(r.Contributions) == 0:
		return 0, invalid("contributions", "at least one contribution is required")
	case utf8.RuneCountInString(r.Description) > maxDescriptionLength:
		return 0, invalid("description", "must be at most %d characters", maxDescriptionLength)
	case len(r.IdempotencyKey) > maxIdempotencyKeyLength:
		return 0, invalid("idempotency_key", "must be at most %d bytes", maxIdempotencyKeyLength)
	}

	seen := make(map[string]bool, len(r.Contributions))
	var total money.Amount
	for _, c := range r.Contributions {
		if c.UserID == "" {
			return 0, invalid("contributions", "user_id must not be empty")
		}
		if seen[c.UserID] {
			return 0, invalid("contributions", "duplicate contributor %s", c.UserID)
		}
		seen[c.UserID] = true
		if c.Share < 0 {
			return 0, invalid("contributions", "share of %s must not be negative", c.UserID)
		}
		if c.Share > money.Max-total {
			return 0, invalid("contributions", "total exceeds %s", money.Max)
		}
		total += c.Share
	}

	if r.Kind == models.KindSettleUp {
		if len(r.Contributions) != 1 {
			return 0, invalid("contributions", "a settle-up has exactly one recipient")
		}
		c := r.Contributions[0]
		if c.UserID == r.PayerID {
			return 0, invalid("contributions", "%s cannot settle up with themselves", r.PayerID)
		}
		if c.Share == 0 {
			return 0, invalid("contributions", "a settle-up amount must be positive")
		}
	}
	if total == 0 {
		return 0, invalid("contributions", "shares must add up to a positive total")
	}
	if r.Total != 0 && r.Total != total {
		return 0, invalid("total", "%s does not match the sum of shares %s", r.Total, total)
	}
	return total, nil
}

// deltas returns the ledger changes of e: every contributor other than the
// payer owes the payer their share.
func deltas(e *models.Expense) []models.PairwiseBalance {
	var out []models.PairwiseBalance
	for _, c := range e.Contributions {
		if c.UserID == e.PayerID || c.Share == 0 {
			continue
		}
		out = append(out, models.PairwiseBalance{
			GroupID:    e.GroupID,
			DebtorID:   c.UserID,
			CreditorID: e.PayerID,
			Amount:     c.Share,
		})
	}
	return out
}

// PostExpense validates req, persists the expense and its contributions,
// applies its ledger deltas and records expense_added or settled_up, all
// in one transaction.
func (e *Engine) PostExpense(ctx context.Context, req ExpenseRequest) (*models.Expense, error) {
	start := time.Now()
	total, err := req.validate()
	if err != nil {
		e.finish(ctx, "post_expense", req.GroupID, err, start)
		return nil, err
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = DefaultDescription
	}
	expense := &models.Expense{
		GroupID:        req.GroupID,
		Kind:           req.Kind,
		Description:    description,
		PayerID:        req.PayerID,
		Total:          total,
		Contributions:  slices.Clone(req.Contributions),
		CreatedBy:      req.ActorID,
		IdempotencyKey: req.IdempotencyKey,
	}

	replayed := false
	err = e.mutate(ctx, "post_expense", req.GroupID, func(ctx context.Context, u *unit) error {
		// Replays are held to the same membership rules as the first post.
		if err := requireMembers(ctx, u, req); err != nil {
			return err
		}

		if req.IdempotencyKey != "" {
			prior, err := u.tx.FindExpenseByIdempotencyKey(ctx, req.GroupID, req.IdempotencyKey)
			switch {
			case err == nil:
				if !sameExpense(prior, expense) {
					return invalid("idempotency_key", "already used for a different expense")
				}
				expense = prior
				replayed = true
				u.skipBump = true
				return nil
			case !errors.Is(err, storage.ErrNotFound):
				return err
			}
		}

		expense.CreatedAt = u.now
		expense.UpdatedAt = u.now
		if err := u.tx.CreateExpense(ctx, expense); err != nil {
			return err
		}
		for _, d := range deltas(expense) {
			if err := u.ledger.ApplyDelta(ctx, d.DebtorID, d.CreditorID, d.Amount); err != nil {
				return err
			}
		}

		kind := models.ActivityExpenseAdded
		if expense.Kind == models.KindSettleUp {
			kind = models.ActivitySettledUp
		}
		return u.record(ctx, expenseActivity(kind, expense, req.ActorID))
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		slog.InfoContext(ctx, "Replayed idempotent expense",
			"group_id", req.GroupID,
			"expense_id", expense.ID,
			"idempotency_key", req.IdempotencyKey,
		)
	}
	return expense, nil
}

func requireMembers(ctx context.Context, u *unit, req ExpenseRequest) error {
	check := func(field, userID string) error {
		ok, err := u.tx.IsMember(ctx, req.GroupID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return notAMember(field, userID)
		}
		return nil
	}

	if err := check("actor_id", req.ActorID); err != nil {
		return err
	}
	if err := check("payer_id", req.PayerID); err != nil {
		return err
	}
	for _, c := range req.Contributions {
		if err := check("contributions", c.UserID); err != nil {
			return err
		}
	}
	return nil
}

// sameExpense reports whether a replayed request describes the stored
// expense. The description takes part, after defaulting.
func sameExpense(stored, requested *models.Expense) bool {
	return stored.Kind == requested.Kind &&
		stored.Description == requested.Description &&
		stored.PayerID == requested.PayerID &&
		stored.Total == requested.Total &&
		slices.Equal(stored.Contributions, requested.Contributions)
}

// DeleteExpense soft-deletes an expense, applies the reverse of its ledger
// deltas and records expense_deleted, in one transaction.
func (e *Engine) DeleteExpense(ctx context.Context, groupID, actorID, expenseID string) (*models.Expense, error) {
	var expense *models.Expense
	err := e.mutate(ctx, "delete_expense", groupID, func(ctx context.Context, u *unit) error {
		if err := u.requireMember(ctx, actorID); err != nil {
			return err
		}
		var err error
		if expense, err = u.tx.GetExpense(ctx, expenseID); err != nil {
			return err
		}
		if expense.GroupID != groupID {
			return fmt.Errorf("%w: expense %s in group %s", ErrNotFound, expenseID, groupID)
		}
		if expense.Deleted {
			return invalid("expense_id", "expense %s is already deleted", expenseID)
		}

		for _, d := range deltas(expense) {
			if err := u.ledger.ApplyDelta(ctx, d.CreditorID, d.DebtorID, d.Amount); err != nil {
				if errors.Is(err, ErrNotAMember) {
					return &ValidationError{Field: "expense_id", Reason: "a participant has left the group", Err: err}
				}
				return err
			}
		}

		if err := u.tx.MarkExpenseDeleted(ctx, expenseID, u.now); err != nil {
			return err
		}
		expense.Deleted = true
		expense.UpdatedAt = u.now
		return u.record(ctx, expenseActivity(models.ActivityExpenseDeleted, expense, actorID))
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses returns the group's expenses, newest first, including
// deleted ones.
func (e *Engine) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	var expenses []*models.Expense
	err := e.read(ctx, "list_expenses", groupID, func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.GetGroup(ctx, groupID); err != nil {
			return err
		}
		var err error
		expenses, err = tx.ListExpenses(ctx, groupID)
		return err
	})
	return expenses, err
}
