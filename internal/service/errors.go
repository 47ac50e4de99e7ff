package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/ledger"
	"github.com/mmynk/groupledger/internal/middleware"
)

var (
	errInternal     = errors.New("internal error")
	errUnauthorized = errors.New("no authenticated user")
)

// actorID returns the authenticated caller.
func actorID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errUnauthorized)
	}
	return userID, nil
}

// toConnectError maps ledger errors onto Connect codes. Unexpected errors
// are logged and replaced by a generic message.
func toConnectError(procedure string, err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	var code connect.Code
	switch {
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrInvalidParticipant):
		code = connect.CodeInvalidArgument
	case errors.Is(err, ledger.ErrNotAMember):
		code = connect.CodePermissionDenied
	case errors.Is(err, ledger.ErrOutstandingBalance):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, ledger.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, ledger.ErrConflict):
		code = connect.CodeAborted
	default:
		slog.Error("Unexpected error", "procedure", procedure, "error", err)
		return connect.NewError(connect.CodeInternal, errInternal)
	}
	return connect.NewError(code, err)
}

func invalidArgument(err error) error {
	return connect.NewError(connect.CodeInvalidArgument, err)
}
