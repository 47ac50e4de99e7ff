package ledger

import (
	"context"

	"github.com/mmynk/groupledger/internal/calculator"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/storage"
)

// GroupBalances returns the raw pairwise balances of the group, or the
// simplified settlement plan when simplified is set. The plan is computed
// on read and never stored.
func (e *Engine) GroupBalances(ctx context.Context, groupID string, simplified bool) ([]models.PairwiseBalance, error) {
	var rows []models.PairwiseBalance
	err := e.read(ctx, "group_balances", groupID, func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.GetGroup(ctx, groupID); err != nil {
			return err
		}
		var err error
		rows, err = view(ctx, NewLedger(tx, groupID), simplified)
		return err
	})
	return rows, err
}

// DisplayBalances is GroupBalances in the view selected by the group's
// simplified flag.
func (e *Engine) DisplayBalances(ctx context.Context, groupID string) (*models.Group, []models.PairwiseBalance, error) {
	var group *models.Group
	var rows []models.PairwiseBalance
	err := e.read(ctx, "group_balances", groupID, func(ctx context.Context, tx storage.Tx) error {
		var err error
		if group, err = tx.GetGroup(ctx, groupID); err != nil {
			return err
		}
		rows, err = view(ctx, NewLedger(tx, groupID), group.Simplified)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return group, rows, nil
}

// MemberBalances returns the rows of the chosen view that touch userID.
func (e *Engine) MemberBalances(ctx context.Context, groupID, userID string, simplified bool) ([]models.PairwiseBalance, error) {
	rows, err := e.GroupBalances(ctx, groupID, simplified)
	if err != nil {
		return nil, err
	}
	var mine []models.PairwiseBalance
	for _, b := range rows {
		if b.Touches(userID) {
			mine = append(mine, b)
		}
	}
	return mine, nil
}

// AssertSettled fails with an *OutstandingBalanceError while any raw
// balance exists in the group.
func (e *Engine) AssertSettled(ctx context.Context, groupID string) error {
	return e.read(ctx, "assert_settled", groupID, func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.GetGroup(ctx, groupID); err != nil {
			return err
		}
		return NewLedger(tx, groupID).AssertSettled(ctx)
	})
}

// AssertMemberSettled fails with an *OutstandingBalanceError while any raw
// balance touching userID exists in the group.
func (e *Engine) AssertMemberSettled(ctx context.Context, groupID, userID string) error {
	return e.read(ctx, "assert_member_settled", groupID, func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.GetGroup(ctx, groupID); err != nil {
			return err
		}
		return NewLedger(tx, groupID).AssertMemberSettled(ctx, userID)
	})
}

func view(ctx context.Context, l *Ledger, simplified bool) ([]models.PairwiseBalance, error) {
	rows, err := l.Balances(ctx)
	if err != nil || !simplified {
		return rows, err
	}
	edges := calculator.Simplify(rows)
	plan := make([]models.PairwiseBalance, len(edges))
	for i, edge := range edges {
		plan[i] = models.PairwiseBalance{
			GroupID:    l.groupID,
			DebtorID:   edge.From,
			CreditorID: edge.To,
			Amount:     edge.Amount,
		}
	}
	return plan, nil
}
