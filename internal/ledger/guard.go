package ledger

import "context"

// AssertSettled fails with an *OutstandingBalanceError unless the group has
// no balance rows. It always reads raw balances, whatever the group's
// display mode.
func (l *Ledger) AssertSettled(ctx context.Context) error {
	rows, err := l.Balances(ctx)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return &OutstandingBalanceError{GroupID: l.groupID, Balances: rows}
	}
	return nil
}

// AssertMemberSettled is AssertSettled restricted to rows touching userID.
func (l *Ledger) AssertMemberSettled(ctx context.Context, userID string) error {
	rows, err := l.BalancesFor(ctx, userID)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return &OutstandingBalanceError{GroupID: l.groupID, UserID: userID, Balances: rows}
	}
	return nil
}
