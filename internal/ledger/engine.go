package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/storage"
)

// Hook is called after a transaction commits, once for each activity the
// transaction produced. Hooks must not fail the operation; they run after
// the ledger is durable.
type Hook func(ctx context.Context, activity *models.Activity)

// Observer receives the outcome of every engine operation.
type Observer interface {
	ObserveOperation(operation string, err error, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, error, time.Duration) {}

// Engine exposes the ledger operations. It is safe for concurrent use;
// all state lives in the store.
type Engine struct {
	store    storage.Store
	recorder Recorder
	observer Observer
	hooks    []Hook
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder replaces the store-backed activity recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithObserver sets the operation observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithHook adds a post-commit hook.
func WithHook(h Hook) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, h) }
}

// New creates an Engine on top of store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		recorder: StoreRecorder{},
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// unit is the state of one transaction.
type unit struct {
	tx       storage.Tx
	recorder Recorder
	now      int64

	groupID  string
	ledger   *Ledger
	locked   bool
	version  int64
	skipBump bool

	events []*models.Activity
}

// lock binds the unit to groupID and takes the group lock.
func (u *unit) lock(ctx context.Context, groupID string) error {
	version, err := u.tx.LockGroup(ctx, groupID)
	if err != nil {
		return err
	}
	u.groupID = groupID
	u.ledger = NewLedger(u.tx, groupID)
	u.locked = true
	u.version = version
	return nil
}

// record appends a to the activity log and queues it for the hooks.
func (u *unit) record(ctx context.Context, a *models.Activity) error {
	if a.CreatedAt == 0 {
		a.CreatedAt = u.now
	}
	if err := u.recorder.Record(ctx, u.tx, a); err != nil {
		return fmt.Errorf("failed to record %s activity: %w", a.Kind, err)
	}
	u.events = append(u.events, a)
	return nil
}

// emit queues a for the hooks without storing it.
func (u *unit) emit(a *models.Activity) {
	if a.ID == "" {
		a.ID = uuid.Must(uuid.NewV7()).String()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = u.now
	}
	u.events = append(u.events, a)
}

func (u *unit) requireMember(ctx context.Context, userID string) error {
	ok, err := u.tx.IsMember(ctx, u.groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s in group %s", ErrNotAMember, userID, u.groupID)
	}
	return nil
}

func (u *unit) memberIDs(ctx context.Context) ([]string, error) {
	members, err := u.tx.ListMembers(ctx, u.groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids, nil
}

// run executes fn in one transaction. If fn locked a group, its version is
// bumped before commit unless fn opted out.
func (e *Engine) run(ctx context.Context, op, groupID string, fn func(ctx context.Context, u *unit) error) error {
	start := time.Now()
	var events []*models.Activity

	err := e.store.RunInTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		u := &unit{
			tx:       tx,
			recorder: e.recorder,
			now:      e.now().Unix(),
			groupID:  groupID,
		}
		if err := fn(ctx, u); err != nil {
			return err
		}
		if u.locked && !u.skipBump {
			if err := tx.BumpGroupVersion(ctx, u.groupID, u.version); err != nil {
				return err
			}
		}
		groupID = u.groupID
		events = u.events
		return nil
	})

	e.finish(ctx, op, groupID, err, start)
	if err == nil {
		for _, a := range events {
			for _, h := range e.hooks {
				h(ctx, a)
			}
		}
	}
	return err
}

// mutate is run with groupID locked before fn is called.
func (e *Engine) mutate(ctx context.Context, op, groupID string, fn func(ctx context.Context, u *unit) error) error {
	return e.run(ctx, op, groupID, func(ctx context.Context, u *unit) error {
		if err := u.lock(ctx, groupID); err != nil {
			return err
		}
		return fn(ctx, u)
	})
}

// read runs fn in a transaction for a consistent snapshot.
func (e *Engine) read(ctx context.Context, op, groupID string, fn func(ctx context.Context, tx storage.Tx) error) error {
	start := time.Now()
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return fn(ctx, tx)
	})
	e.finish(ctx, op, groupID, err, start)
	return err
}

func (e *Engine) finish(ctx context.Context, op, groupID string, err error, start time.Time) {
	elapsed := time.Since(start)
	e.observer.ObserveOperation(op, err, elapsed)

	switch {
	case err == nil:
		slog.DebugContext(ctx, "Ledger operation committed", "operation", op, "group_id", groupID, "duration", elapsed)
	case IsRejection(err):
		slog.WarnContext(ctx, "Ledger operation rejected", "operation", op, "group_id", groupID, "error", err)
	default:
		slog.ErrorContext(ctx, "Ledger operation failed", "operation", op, "group_id", groupID, "error", err)
	}
}

// IsRejection reports whether err is an expected outcome of bad input,
// missing entities, unsettled balances or contention, as opposed to a
// storage failure.
func IsRejection(err error) bool {
	for _, target := range []error{ErrValidation, ErrNotAMember, ErrInvalidParticipant, ErrOutstandingBalance, ErrNotFound, ErrConflict} {
		if errors.Is(err, target) {
			return true
		}
	}
	return errors.Is(err, context.Canceled)
}
