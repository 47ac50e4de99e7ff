package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/storage"
)

var (
	// ErrValidation marks malformed input. It is never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotAMember is returned when a user is not a current member of the group.
	ErrNotAMember = errors.New("not a group member")

	// ErrInvalidParticipant is returned for a debt between a user and themselves.
	ErrInvalidParticipant = errors.New("invalid participant")

	// ErrOutstandingBalance is returned when a destructive operation finds
	// unsettled balances.
	ErrOutstandingBalance = errors.New("outstanding balance")

	// ErrConflict is returned when another transaction changed the group
	// concurrently. The whole operation may be retried.
	ErrConflict = storage.ErrConflict

	// ErrNotFound is returned when a group, expense or invitation does not exist.
	ErrNotFound = storage.ErrNotFound
)

// ValidationError describes a rejected input field. It matches
// ErrValidation and, when set, Err.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func notAMember(field, userID string) error {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf("user %s is not a member of the group", userID),
		Err:    ErrNotAMember,
	}
}

// OutstandingBalanceError lists the balance rows that blocked an operation.
// UserID is empty when the whole group was checked.
type OutstandingBalanceError struct {
	GroupID  string
	UserID   string
	Balances []models.PairwiseBalance
}

func (e *OutstandingBalanceError) Error() string {
	var b strings.Builder
	if e.UserID != "" {
		fmt.Fprintf(&b, "user %s has %d unsettled balance(s) in group %s", e.UserID, len(e.Balances), e.GroupID)
	} else {
		fmt.Fprintf(&b, "group %s has %d unsettled balance(s)", e.GroupID, len(e.Balances))
	}
	for i, bal := range e.Balances {
		if i == 3 {
			b.WriteString(", ...")
			break
		}
		fmt.Fprintf(&b, "; %s owes %s %s", bal.DebtorID, bal.CreditorID, bal.Amount)
	}
	return b.String()
}

func (e *OutstandingBalanceError) Unwrap() error {
	return ErrOutstandingBalance
}
