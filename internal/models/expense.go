package models

import "github.com/mmynk/groupledger/internal/money"

// ExpenseKind distinguishes shared costs from direct payments.
type ExpenseKind string

const (
	// KindGroupExpense is a cost the payer advanced for some or all members.
	KindGroupExpense ExpenseKind = "group_expense"

	// KindSettleUp is a direct payment from the payer to one other member.
	KindSettleUp ExpenseKind = "settle_up"
)

// Valid reports whether k is a known kind.
func (k ExpenseKind) Valid() bool {
	return k == KindGroupExpense || k == KindSettleUp
}

// Expense is a posted expense or settle-up. It is never mutated after
// creation except for the soft-delete flag.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	GroupID string
	Kind    ExpenseKind

	// Description defaults to "Expense" when empty.
	Description string

	// PayerID is the member who paid.
	PayerID string

	// Total is the sum of all contribution shares.
	Total money.Amount

	// Contributions are ordered as submitted.
	Contributions []Contribution

	// CreatedBy is the member who recorded the expense.
	CreatedBy string

	// IdempotencyKey is optional and unique per group.
	IdempotencyKey string

	CreatedAt int64
	UpdatedAt int64

	Deleted bool
}

// Contribution is one member's share of an expense.
type Contribution struct {
	UserID string
	Share  money.Amount
}
