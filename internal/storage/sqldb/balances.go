package sqldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/storage"
)

// GetBalanceRow returns the stored amount for one direction of a pair.
func (t *tx) GetBalanceRow(ctx context.Context, groupID, debtorID, creditorID string) (money.Amount, bool, error) {
	var amount int64
	err := t.queryRow(ctx,
		"SELECT amount FROM balances WHERE group_id = ? AND debtor_id = ? AND creditor_id = ?",
		groupID, debtorID, creditorID,
	).Scan(&amount)
	if err != nil {
		err = t.d.mapErr(err)
		if errors.Is(err, storage.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get balance: %w", err)
	}
	return money.Amount(amount), true, nil
}

// PutBalanceRow upserts a directed balance row.
func (t *tx) PutBalanceRow(ctx context.Context, b models.PairwiseBalance) error {
	_, err := t.exec(ctx,
		`INSERT INTO balances (group_id, debtor_id, creditor_id, amount) VALUES (?, ?, ?, ?)
		 ON CONFLICT (group_id, debtor_id, creditor_id) DO UPDATE SET amount = excluded.amount`,
		b.GroupID, b.DebtorID, b.CreditorID, int64(b.Amount),
	)
	if err != nil {
		return fmt.Errorf("failed to put balance: %w", err)
	}
	return nil
}

// DeleteBalanceRow removes one directed row if present.
func (t *tx) DeleteBalanceRow(ctx context.Context, groupID, debtorID, creditorID string) error {
	_, err := t.exec(ctx,
		"DELETE FROM balances WHERE group_id = ? AND debtor_id = ? AND creditor_id = ?",
		groupID, debtorID, creditorID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete balance: %w", err)
	}
	return nil
}

// ListBalances returns all rows of a group.
func (t *tx) ListBalances(ctx context.Context, groupID string) ([]models.PairwiseBalance, error) {
	rows, err := t.query(ctx,
		`SELECT group_id, debtor_id, creditor_id, amount FROM balances
		 WHERE group_id = ? ORDER BY debtor_id, creditor_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	var balances []models.PairwiseBalance
	for rows.Next() {
		var b models.PairwiseBalance
		var amount int64
		if err := rows.Scan(&b.GroupID, &b.DebtorID, &b.CreditorID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		b.Amount = money.Amount(amount)
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return balances, nil
}

// DeleteBalancesForUser removes every row with userID on either side.
func (t *tx) DeleteBalancesForUser(ctx context.Context, groupID, userID string) error {
	_, err := t.exec(ctx,
		"DELETE FROM balances WHERE group_id = ? AND (debtor_id = ? OR creditor_id = ?)",
		groupID, userID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete balances for user: %w", err)
	}
	return nil
}
