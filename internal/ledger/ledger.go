// Package ledger is the balance ledger and debt-simplification engine.
//
// Every mutation runs inside one storage transaction that first locks the
// group, then re-validates membership, applies pairwise balance deltas,
// appends activity entries, and finally bumps the group version. Either all
// of it commits or none of it does.
package ledger

import (
	"context"
	"fmt"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/storage"
)

// Ledger is the pairwise balance table of one group, bound to a transaction.
type Ledger struct {
	tx      storage.Tx
	groupID string
}

// NewLedger binds the ledger of groupID to tx. The caller is expected to
// hold the group lock for any mutation.
func NewLedger(tx storage.Tx, groupID string) *Ledger {
	return &Ledger{tx: tx, groupID: groupID}
}

// Balance returns what a owes b: positive when a owes b, negative when b
// owes a, zero when neither row exists.
func (l *Ledger) Balance(ctx context.Context, a, b string) (money.Amount, error) {
	if a == b {
		return 0, nil
	}
	owed, ok, err := l.tx.GetBalanceRow(ctx, l.groupID, a, b)
	if err != nil {
		return 0, err
	}
	if ok {
		return owed, nil
	}
	owing, _, err := l.tx.GetBalanceRow(ctx, l.groupID, b, a)
	if err != nil {
		return 0, err
	}
	return -owing, nil
}

// ApplyDelta increases what debtor owes creditor by amount.
//
// An opposing creditor->debtor row absorbs the delta first: it shrinks,
// disappears at exactly zero, or flips direction when overshot. At most one
// row per pair survives.
func (l *Ledger) ApplyDelta(ctx context.Context, debtor, creditor string, amount money.Amount) error {
	if debtor == creditor {
		return fmt.Errorf("%w: %s cannot owe themselves", ErrInvalidParticipant, debtor)
	}
	if amount <= 0 || amount > money.Max {
		return invalid("amount", "delta %s must be positive and at most %s", amount, money.Max)
	}
	for _, userID := range []string{debtor, creditor} {
		ok, err := l.tx.IsMember(ctx, l.groupID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s in group %s", ErrNotAMember, userID, l.groupID)
		}
	}

	opposing, ok, err := l.tx.GetBalanceRow(ctx, l.groupID, creditor, debtor)
	if err != nil {
		return err
	}
	if ok {
		switch {
		case opposing > amount:
			return l.put(ctx, creditor, debtor, opposing-amount)
		case opposing == amount:
			return l.tx.DeleteBalanceRow(ctx, l.groupID, creditor, debtor)
		default:
			if err := l.tx.DeleteBalanceRow(ctx, l.groupID, creditor, debtor); err != nil {
				return err
			}
			return l.put(ctx, debtor, creditor, amount-opposing)
		}
	}

	current, _, err := l.tx.GetBalanceRow(ctx, l.groupID, debtor, creditor)
	if err != nil {
		return err
	}
	if current > money.Max-amount {
		return invalid("amount", "balance between %s and %s would exceed %s", debtor, creditor, money.Max)
	}
	return l.put(ctx, debtor, creditor, current+amount)
}

func (l *Ledger) put(ctx context.Context, debtor, creditor string, amount money.Amount) error {
	return l.tx.PutBalanceRow(ctx, models.PairwiseBalance{
		GroupID:    l.groupID,
		DebtorID:   debtor,
		CreditorID: creditor,
		Amount:     amount,
	})
}

// Balances returns every raw balance row of the group.
func (l *Ledger) Balances(ctx context.Context) ([]models.PairwiseBalance, error) {
	return l.tx.ListBalances(ctx, l.groupID)
}

// BalancesFor returns the raw rows touching userID.
func (l *Ledger) BalancesFor(ctx context.Context, userID string) ([]models.PairwiseBalance, error) {
	all, err := l.Balances(ctx)
	if err != nil {
		return nil, err
	}
	var rows []models.PairwiseBalance
	for _, b := range all {
		if b.Touches(userID) {
			rows = append(rows, b)
		}
	}
	return rows, nil
}
