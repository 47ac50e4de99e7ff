// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
)

// TxFn runs inside a unit of work. Returning an error rolls back every
// write made through tx.
type TxFn func(ctx context.Context, tx Tx) error

// Store defines the unit-of-work boundary of the persistence layer.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the ledger.
type Store interface {
	// RunInTx executes fn in a single transaction. It commits when fn
	// returns nil and rolls back otherwise, including on context
	// cancellation and panics.
	RunInTx(ctx context.Context, fn TxFn) error

	// Close releases any resources held by the store.
	Close() error
}

// Tx is the set of operations available inside a transaction.
type Tx interface {
	GroupTx
	MemberTx
	BalanceTx
	ExpenseTx
	ActivityTx
}

// GroupTx covers group rows and their concurrency version.
type GroupTx interface {
	// LockGroup serializes the calling transaction against every other
	// writer of the group and returns the group's current version.
	// Returns ErrNotFound if the group does not exist.
	LockGroup(ctx context.Context, groupID string) (int64, error)

	// BumpGroupVersion advances the version if it still equals expected.
	// Returns ErrConflict otherwise.
	BumpGroupVersion(ctx context.Context, groupID string, expected int64) error

	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListUserGroups returns the groups userID belongs to, newest first.
	ListUserGroups(ctx context.Context, userID string) ([]*models.Group, error)

	// UpdateGroup persists name, description and the simplified flag.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes the group and cascades to every row it owns.
	DeleteGroup(ctx context.Context, groupID string) error
}

// MemberTx covers memberships and invitations.
type MemberTx interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)
	AddMember(ctx context.Context, member *models.Member) error
	RemoveMember(ctx context.Context, groupID, userID string) error

	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitation(ctx context.Context, invitationID string) (*models.Invitation, error)
	DeleteInvitation(ctx context.Context, invitationID string) error

	// DeleteInvitationsForUser removes invitations addressed to or sent by
	// userID within the group.
	DeleteInvitationsForUser(ctx context.Context, groupID, userID string) error
}

// BalanceTx is raw access to directed balance rows. Canonicalization lives
// in the ledger; these methods store exactly what they are given.
type BalanceTx interface {
	// GetBalanceRow returns the amount debtor owes creditor, or 0 and
	// false when no row exists.
	GetBalanceRow(ctx context.Context, groupID, debtorID, creditorID string) (money.Amount, bool, error)

	// PutBalanceRow inserts or replaces the (group, debtor, creditor) row.
	PutBalanceRow(ctx context.Context, balance models.PairwiseBalance) error

	DeleteBalanceRow(ctx context.Context, groupID, debtorID, creditorID string) error

	// ListBalances returns every row of the group ordered by debtor then creditor.
	ListBalances(ctx context.Context, groupID string) ([]models.PairwiseBalance, error)

	// DeleteBalancesForUser removes every row touching userID.
	DeleteBalancesForUser(ctx context.Context, groupID, userID string) error
}

// ExpenseTx covers expenses and their contributions.
type ExpenseTx interface {
	// CreateExpense persists the expense and its contributions.
	// Returns ErrDuplicate on a reused idempotency key.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// FindExpenseByIdempotencyKey returns ErrNotFound when no expense in the
	// group carries key.
	FindExpenseByIdempotencyKey(ctx context.Context, groupID, key string) (*models.Expense, error)

	ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error)
	MarkExpenseDeleted(ctx context.Context, expenseID string, at int64) error
}

// ActivityTx covers the append-only activity log.
type ActivityTx interface {
	CreateActivity(ctx context.Context, activity *models.Activity) error
	ListActivities(ctx context.Context, groupID string) ([]*models.Activity, error)
	ListUserActivities(ctx context.Context, userID string) ([]*models.Activity, error)
}
