package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/pkg/api"
)

// LedgerServiceName is the fully-qualified name of the LedgerService.
const LedgerServiceName = PackageName + ".LedgerService"

// LedgerService procedure paths.
const (
	LedgerServicePostExpenseProcedure    = "/" + LedgerServiceName + "/PostExpense"
	LedgerServiceSettleUpProcedure       = "/" + LedgerServiceName + "/SettleUp"
	LedgerServiceDeleteExpenseProcedure  = "/" + LedgerServiceName + "/DeleteExpense"
	LedgerServiceListExpensesProcedure   = "/" + LedgerServiceName + "/ListExpenses"
	LedgerServiceGetBalancesProcedure    = "/" + LedgerServiceName + "/GetBalances"
	LedgerServiceCheckSettledProcedure   = "/" + LedgerServiceName + "/CheckSettled"
	LedgerServiceListActivitiesProcedure = "/" + LedgerServiceName + "/ListActivities"
)

// LedgerServiceClient is a client for the LedgerService.
type LedgerServiceClient interface {
	PostExpense(context.Context, *connect.Request[api.PostExpenseRequest]) (*connect.Response[api.PostExpenseResponse], error)
	SettleUp(context.Context, *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	CheckSettled(context.Context, *connect.Request[api.CheckSettledRequest]) (*connect.Response[api.CheckSettledResponse], error)
	ListActivities(context.Context, *connect.Request[api.ListActivitiesRequest]) (*connect.Response[api.ListActivitiesResponse], error)
}

// NewLedgerServiceClient constructs a client for the LedgerService at
// baseURL, e.g. http://localhost:8080.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ledgerServiceClient{
		postExpense:    connect.NewClient[api.PostExpenseRequest, api.PostExpenseResponse](httpClient, baseURL+LedgerServicePostExpenseProcedure, opts...),
		settleUp:       connect.NewClient[api.SettleUpRequest, api.SettleUpResponse](httpClient, baseURL+LedgerServiceSettleUpProcedure, opts...),
		deleteExpense:  connect.NewClient[api.DeleteExpenseRequest, api.DeleteExpenseResponse](httpClient, baseURL+LedgerServiceDeleteExpenseProcedure, opts...),
		listExpenses:   connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](httpClient, baseURL+LedgerServiceListExpensesProcedure, opts...),
		getBalances:    connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](httpClient, baseURL+LedgerServiceGetBalancesProcedure, opts...),
		checkSettled:   connect.NewClient[api.CheckSettledRequest, api.CheckSettledResponse](httpClient, baseURL+LedgerServiceCheckSettledProcedure, opts...),
		listActivities: connect.NewClient[api.ListActivitiesRequest, api.ListActivitiesResponse](httpClient, baseURL+LedgerServiceListActivitiesProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	postExpense    *connect.Client[api.PostExpenseRequest, api.PostExpenseResponse]
	settleUp       *connect.Client[api.SettleUpRequest, api.SettleUpResponse]
	deleteExpense  *connect.Client[api.DeleteExpenseRequest, api.DeleteExpenseResponse]
	listExpenses   *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	getBalances    *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
	checkSettled   *connect.Client[api.CheckSettledRequest, api.CheckSettledResponse]
	listActivities *connect.Client[api.ListActivitiesRequest, api.ListActivitiesResponse]
}

func (c *ledgerServiceClient) PostExpense(ctx context.Context, req *connect.Request[api.PostExpenseRequest]) (*connect.Response[api.PostExpenseResponse], error) {
	return c.postExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) SettleUp(ctx context.Context, req *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error) {
	return c.settleUp.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) CheckSettled(ctx context.Context, req *connect.Request[api.CheckSettledRequest]) (*connect.Response[api.CheckSettledResponse], error) {
	return c.checkSettled.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListActivities(ctx context.Context, req *connect.Request[api.ListActivitiesRequest]) (*connect.Response[api.ListActivitiesResponse], error) {
	return c.listActivities.CallUnary(ctx, req)
}

// LedgerServiceHandler is implemented by the LedgerService server.
type LedgerServiceHandler interface {
	PostExpense(context.Context, *connect.Request[api.PostExpenseRequest]) (*connect.Response[api.PostExpenseResponse], error)
	SettleUp(context.Context, *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	CheckSettled(context.Context, *connect.Request[api.CheckSettledRequest]) (*connect.Response[api.CheckSettledResponse], error)
	ListActivities(context.Context, *connect.Request[api.ListActivitiesRequest]) (*connect.Response[api.ListActivitiesResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and
// the handler itself.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + LedgerServiceName + "/", router{
		LedgerServicePostExpenseProcedure:    connect.NewUnaryHandler(LedgerServicePostExpenseProcedure, svc.PostExpense, opts...),
		LedgerServiceSettleUpProcedure:       connect.NewUnaryHandler(LedgerServiceSettleUpProcedure, svc.SettleUp, opts...),
		LedgerServiceDeleteExpenseProcedure:  connect.NewUnaryHandler(LedgerServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...),
		LedgerServiceListExpensesProcedure:   connect.NewUnaryHandler(LedgerServiceListExpensesProcedure, svc.ListExpenses, opts...),
		LedgerServiceGetBalancesProcedure:    connect.NewUnaryHandler(LedgerServiceGetBalancesProcedure, svc.GetBalances, opts...),
		LedgerServiceCheckSettledProcedure:   connect.NewUnaryHandler(LedgerServiceCheckSettledProcedure, svc.CheckSettled, opts...),
		LedgerServiceListActivitiesProcedure: connect.NewUnaryHandler(LedgerServiceListActivitiesProcedure, svc.ListActivities, opts...),
	}
}

// UnimplementedLedgerServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedLedgerServiceHandler struct{}

func (UnimplementedLedgerServiceHandler) PostExpense(context.Context, *connect.Request[api.PostExpenseRequest]) (*connect.Response[api.PostExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.LedgerService.PostExpense is not implemented"))
}

func (UnimplementedLedgerServiceHandler) SettleUp(context.Context, *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.LedgerService.SettleUp is not implemented"))
}

func (UnimplementedLedgerServiceHandler) DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.LedgerService.DeleteExpense is not implemented"))
}

func (UnimplementedLedgerServiceHandler) ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.LedgerService.ListExpenses is not implemented"))
}

func (UnimplementedLedgerServiceHandler) GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.LedgerService.GetBalances is not implemented"))
}

func (UnimplementedLedgerServiceHandler) CheckSettled(context.Context, *connect.Request[api.CheckSettledRequest]) (*connect.Response[api.CheckSettledResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.LedgerService.CheckSettled is not implemented"))
}

func (UnimplementedLedgerServiceHandler) ListActivities(context.Context, *connect.Request[api.ListActivitiesRequest]) (*connect.Response[api.ListActivitiesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.LedgerService.ListActivities is not implemented"))
}
