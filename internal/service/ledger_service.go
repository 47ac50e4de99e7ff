package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/calculator"
	"github.com/mmynk/groupledger/internal/ledger"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/pkg/api"
	"github.com/mmynk/groupledger/pkg/api/apiconnect"
)

// LedgerService implements the Connect LedgerService.
type LedgerService struct {
	apiconnect.UnimplementedLedgerServiceHandler
	engine  *ledger.Engine
	retrier *Retrier
}

// NewLedgerService creates a LedgerService on top of the ledger engine.
func NewLedgerService(engine *ledger.Engine, retrier *Retrier) *LedgerService {
	return &LedgerService{engine: engine, retrier: retrier}
}

// PostExpense records a shared expense paid by one member.
func (s *LedgerService) PostExpense(ctx context.Context, req *connect.Request[api.PostExpenseRequest]) (*connect.Response[api.PostExpenseResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("PostExpense request received",
		"group_id", req.Msg.GroupID,
		"payer_id", req.Msg.PayerID,
		"contributions_count", len(req.Msg.Contributions),
		"split", req.Msg.Split != nil,
	)

	contributions, err := expenseContributions(req.Msg)
	if err != nil {
		return nil, err
	}
	expenseReq := ledger.ExpenseRequest{
		GroupID:        req.Msg.GroupID,
		ActorID:        actor,
		Kind:           models.KindGroupExpense,
		PayerID:        req.Msg.PayerID,
		Description:    req.Msg.Description,
		Contributions:  contributions,
		IdempotencyKey: req.Msg.IdempotencyKey,
	}
	if req.Msg.Total != "" {
		if expenseReq.Total, err = parseAmount("total", req.Msg.Total); err != nil {
			return nil, err
		}
	}

	expense, err := retryValue(ctx, s.retrier, "post_expense", func(ctx context.Context) (*models.Expense, error) {
		return s.engine.PostExpense(ctx, expenseReq)
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Expense posted", "group_id", expense.GroupID, "expense_id", expense.ID, "total", expense.Total)
	return connect.NewResponse(&api.PostExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// expenseContributions returns the explicit shares or the even split.
func expenseContributions(msg *api.PostExpenseRequest) ([]models.Contribution, error) {
	switch {
	case msg.Split != nil && len(msg.Contributions) > 0:
		return nil, invalidArgument(errors.New("set either contributions or split, not both"))
	case msg.Split != nil:
		total, err := parseAmount("split total", msg.Split.Total)
		if err != nil {
			return nil, err
		}
		contributions, err := calculator.SplitEvenly(total, msg.Split.ParticipantIDs)
		if err != nil {
			return nil, invalidArgument(fmt.Errorf("invalid split: %w", err))
		}
		return contributions, nil
	default:
		return parseContributions(msg.Contributions)
	}
}

// SettleUp records a direct payment between two members.
func (s *LedgerService) SettleUp(ctx context.Context, req *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	payer := req.Msg.PayerID
	if payer == "" {
		payer = actor
	}
	slog.Info("SettleUp request received",
		"group_id", req.Msg.GroupID,
		"payer_id", payer,
		"recipient_id", req.Msg.RecipientID,
	)

	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, err
	}
	expenseReq := ledger.ExpenseRequest{
		GroupID:        req.Msg.GroupID,
		ActorID:        actor,
		Kind:           models.KindSettleUp,
		PayerID:        payer,
		Description:    "Payment",
		Contributions:  []models.Contribution{{UserID: req.Msg.RecipientID, Share: amount}},
		IdempotencyKey: req.Msg.IdempotencyKey,
	}

	expense, err := retryValue(ctx, s.retrier, "settle_up", func(ctx context.Context) (*models.Expense, error) {
		return s.engine.PostExpense(ctx, expenseReq)
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	slog.Info("Settle-up posted", "group_id", expense.GroupID, "expense_id", expense.ID, "amount", expense.Total)
	return connect.NewResponse(&api.SettleUpResponse{Expense: toAPIExpense(expense)}), nil
}

// DeleteExpense soft-deletes an expense and reverses its balances.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteExpense request received", "group_id", req.Msg.GroupID, "expense_id", req.Msg.ExpenseID)

	expense, err := retryValue(ctx, s.retrier, "delete_expense", func(ctx context.Context) (*models.Expense, error) {
		return s.engine.DeleteExpense(ctx, req.Msg.GroupID, actor, req.Msg.ExpenseID)
	})
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&api.DeleteExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// ListExpenses returns the group's expenses, newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	if err := s.checkMember(ctx, req.Spec().Procedure, req.Msg.GroupID); err != nil {
		return nil, err
	}
	expenses, err := s.engine.ListExpenses(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// GetBalances returns the raw or simplified ledger with per-member totals.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	if err := s.checkMember(ctx, req.Spec().Procedure, req.Msg.GroupID); err != nil {
		return nil, err
	}

	var (
		rows       []models.PairwiseBalance
		simplified bool
		err        error
	)
	switch req.Msg.View {
	case api.ViewDefault:
		var group *models.Group
		group, rows, err = s.engine.DisplayBalances(ctx, req.Msg.GroupID)
		if err == nil {
			simplified = group.Simplified
		}
	case api.ViewRaw, api.ViewSimplified:
		simplified = req.Msg.View == api.ViewSimplified
		rows, err = s.engine.GroupBalances(ctx, req.Msg.GroupID, simplified)
	default:
		return nil, invalidArgument(fmt.Errorf("unknown view %q", req.Msg.View))
	}
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}

	summary := calculator.Summarize(rows)
	if req.Msg.UserID != "" {
		rows = filterBalances(rows, req.Msg.UserID)
		summary = filterSummary(summary, req.Msg.UserID)
	}

	return connect.NewResponse(&api.GetBalancesResponse{
		Simplified: simplified,
		Balances:   toAPIBalances(rows),
		Members:    toAPIMemberBalances(summary),
	}), nil
}

func filterBalances(rows []models.PairwiseBalance, userID string) []models.PairwiseBalance {
	var out []models.PairwiseBalance
	for _, b := range rows {
		if b.Touches(userID) {
			out = append(out, b)
		}
	}
	return out
}

func filterSummary(summary []calculator.MemberBalance, userID string) []calculator.MemberBalance {
	for _, m := range summary {
		if m.UserID == userID {
			return []calculator.MemberBalance{m}
		}
	}
	return nil
}

// CheckSettled reports whether the group or one member has no outstanding
// balances.
func (s *LedgerService) CheckSettled(ctx context.Context, req *connect.Request[api.CheckSettledRequest]) (*connect.Response[api.CheckSettledResponse], error) {
	if err := s.checkMember(ctx, req.Spec().Procedure, req.Msg.GroupID); err != nil {
		return nil, err
	}

	var err error
	if req.Msg.UserID != "" {
		err = s.engine.AssertMemberSettled(ctx, req.Msg.GroupID, req.Msg.UserID)
	} else {
		err = s.engine.AssertSettled(ctx, req.Msg.GroupID)
	}

	var outstanding *ledger.OutstandingBalanceError
	switch {
	case err == nil:
		return connect.NewResponse(&api.CheckSettledResponse{Settled: true}), nil
	case errors.As(err, &outstanding):
		return connect.NewResponse(&api.CheckSettledResponse{
			Settled:     false,
			Outstanding: toAPIBalances(outstanding.Balances),
		}), nil
	default:
		return nil, toConnectError(req.Spec().Procedure, err)
	}
}

// ListActivities returns a group's feed, or the caller's feed across
// groups when no group is given.
func (s *LedgerService) ListActivities(ctx context.Context, req *connect.Request[api.ListActivitiesRequest]) (*connect.Response[api.ListActivitiesResponse], error) {
	actor, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	var feed []*models.Activity
	if req.Msg.GroupID == "" {
		feed, err = s.engine.ListUserActivities(ctx, actor)
	} else {
		if err := s.checkMember(ctx, req.Spec().Procedure, req.Msg.GroupID); err != nil {
			return nil, err
		}
		feed, err = s.engine.ListActivities(ctx, req.Msg.GroupID)
	}
	if err != nil {
		return nil, toConnectError(req.Spec().Procedure, err)
	}
	return connect.NewResponse(&api.ListActivitiesResponse{Activities: toAPIActivities(feed)}), nil
}

func (s *LedgerService) checkMember(ctx context.Context, procedure, groupID string) error {
	actor, err := actorID(ctx)
	if err != nil {
		return err
	}
	if err := s.engine.CheckMember(ctx, groupID, actor); err != nil {
		return toConnectError(procedure, err)
	}
	return nil
}
