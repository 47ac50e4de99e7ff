package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/storage"
)

const expenseColumns = `id, group_id, kind, description, payer_id, total, created_by,
	idempotency_key, created_at, updated_at, deleted`

// CreateExpense persists an expense and its contributions.
// ID and timestamps are generated if unset.
func (t *tx) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	if e.UpdatedAt == 0 {
		e.UpdatedAt = e.CreatedAt
	}

	_, err := t.exec(ctx,
		`INSERT INTO expenses (`+expenseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GroupID, string(e.Kind), e.Description, e.PayerID, int64(e.Total), e.CreatedBy,
		nullString(e.IdempotencyKey), e.CreatedAt, e.UpdatedAt, e.Deleted,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, c := range e.Contributions {
		_, err = t.exec(ctx,
			"INSERT INTO contributions (expense_id, user_id, position, share) VALUES (?, ?, ?, ?)",
			e.ID, c.UserID, i, int64(c.Share),
		)
		if err != nil {
			return fmt.Errorf("failed to insert contribution: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	e := &models.Expense{}
	var kind string
	var total int64
	var key sql.NullString
	if err := row.Scan(&e.ID, &e.GroupID, &kind, &e.Description, &e.PayerID, &total, &e.CreatedBy,
		&key, &e.CreatedAt, &e.UpdatedAt, &e.Deleted); err != nil {
		return nil, err
	}
	e.Kind = models.ExpenseKind(kind)
	e.Total = money.Amount(total)
	if key.Valid {
		e.IdempotencyKey = key.String
	}
	return e, nil
}

func (t *tx) loadContributions(ctx context.Context, e *models.Expense) error {
	rows, err := t.query(ctx,
		"SELECT user_id, share FROM contributions WHERE expense_id = ? ORDER BY position",
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get contributions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Contribution
		var share int64
		if err := rows.Scan(&c.UserID, &share); err != nil {
			return fmt.Errorf("failed to scan contribution: %w", err)
		}
		c.Share = money.Amount(share)
		e.Contributions = append(e.Contributions, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return nil
}

func (t *tx) getExpenseWhere(ctx context.Context, what, where string, args ...any) (*models.Expense, error) {
	e, err := scanExpense(t.queryRow(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE "+where, args...))
	if err != nil {
		err = t.d.mapErr(err)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: expense %s", storage.ErrNotFound, what)
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if err := t.loadContributions(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetExpense retrieves an expense with its contributions.
func (t *tx) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return t.getExpenseWhere(ctx, expenseID, "id = ?", expenseID)
}

// FindExpenseByIdempotencyKey looks up a previously posted expense.
func (t *tx) FindExpenseByIdempotencyKey(ctx context.Context, groupID, key string) (*models.Expense, error) {
	return t.getExpenseWhere(ctx, "with key "+key, "group_id = ? AND idempotency_key = ?", groupID, key)
}

// ListExpenses returns the group's expenses, newest first, including
// soft-deleted ones.
func (t *tx) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := t.query(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY created_at DESC, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	// Contributions are loaded after the outer cursor is closed: a
	// transaction holds a single connection.
	for _, e := range expenses {
		if err := t.loadContributions(ctx, e); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// MarkExpenseDeleted sets the soft-delete flag.
func (t *tx) MarkExpenseDeleted(ctx context.Context, expenseID string, at int64) error {
	res, err := t.exec(ctx,
		"UPDATE expenses SET deleted = ?, updated_at = ? WHERE id = ?",
		true, at, expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return rowsAffected(res, "expense")
}
