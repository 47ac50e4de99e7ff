package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/auth"
	"github.com/mmynk/groupledger/internal/ledger"
	"github.com/mmynk/groupledger/internal/middleware"
	"github.com/mmynk/groupledger/internal/storage/sqlite"
	"github.com/mmynk/groupledger/pkg/api"
	"github.com/mmynk/groupledger/pkg/api/apiconnect"
)

// testServer runs both services behind the real auth interceptor.
type testServer struct {
	url        string
	jwtManager *auth.JWTManager
}

type testClients struct {
	groups apiconnect.GroupServiceClient
	ledger apiconnect.LedgerServiceClient
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	engine := ledger.New(store)
	retrier := NewRetrier(3, time.Millisecond)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	interceptors := connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor())

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewLedgerServiceHandler(NewLedgerService(engine, retrier), interceptors))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(engine, retrier), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testServer{url: server.URL, jwtManager: jwtManager}
}

// as returns clients that call the server as userID.
func (s *testServer) as(t *testing.T, userID string) testClients {
	t.Helper()

	token, err := s.jwtManager.Generate(userID)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	opts := connect.WithInterceptors(middleware.BearerToken(token))
	return testClients{
		groups: apiconnect.NewGroupServiceClient(http.DefaultClient, s.url, opts),
		ledger: apiconnect.NewLedgerServiceClient(http.DefaultClient, s.url, opts),
	}
}

func createTestGroup(t *testing.T, c testClients, members ...string) string {
	t.Helper()

	resp, err := c.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{
		Name:      "Trip",
		MemberIDs: members,
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group.ID
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

func balanceSet(balances []api.Balance) map[string]string {
	out := make(map[string]string, len(balances))
	for _, b := range balances {
		out[b.DebtorID+"->"+b.CreditorID] = b.Amount
	}
	return out
}

func assertBalances(t *testing.T, got []api.Balance, want map[string]string) {
	t.Helper()
	set := balanceSet(got)
	if len(set) != len(want) {
		t.Fatalf("expected %d balances, got %v", len(want), set)
	}
	for k, v := range want {
		if set[k] != v {
			t.Errorf("balance %s: expected %s, got %q", k, v, set[k])
		}
	}
}

func TestLedgerServiceFlow(t *testing.T) {
	srv := setupTestServer(t)
	alice, bob, carol := srv.as(t, "alice"), srv.as(t, "bob"), srv.as(t, "carol")
	ctx := context.Background()

	groupID := createTestGroup(t, alice, "bob", "carol")

	posted, err := alice.ledger.PostExpense(ctx, connect.NewRequest(&api.PostExpenseRequest{
		GroupID:     groupID,
		PayerID:     "alice",
		Description: "Dinner",
		Split: &api.EvenSplit{
			Total:          "300",
			ParticipantIDs: []string{"alice", "bob", "carol"},
		},
	}))
	if err != nil {
		t.Fatalf("PostExpense failed: %v", err)
	}
	if posted.Msg.Expense.Total != "300.00" {
		t.Errorf("expected total 300.00, got %s", posted.Msg.Expense.Total)
	}
	if posted.Msg.Expense.CreatedBy != "alice" {
		t.Errorf("expected created_by alice, got %s", posted.Msg.Expense.CreatedBy)
	}

	_, err = bob.ledger.PostExpense(ctx, connect.NewRequest(&api.PostExpenseRequest{
		GroupID: groupID,
		PayerID: "bob",
		Total:   "120.00",
		Contributions: []api.Contribution{
			{UserID: "bob", Share: "60"},
			{UserID: "carol", Share: "60"},
		},
	}))
	if err != nil {
		t.Fatalf("PostExpense failed: %v", err)
	}

	raw := map[string]string{
		"bob->alice":   "100.00",
		"carol->alice": "100.00",
		"carol->bob":   "60.00",
	}
	simplified := map[string]string{
		"carol->alice": "160.00",
		"bob->alice":   "40.00",
	}

	t.Run("views", func(t *testing.T) {
		resp, err := carol.ledger.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("GetBalances failed: %v", err)
		}
		if resp.Msg.Simplified {
			t.Error("expected raw view by default")
		}
		assertBalances(t, resp.Msg.Balances, raw)

		resp, err = carol.ledger.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{
			GroupID: groupID,
			View:    api.ViewSimplified,
		}))
		if err != nil {
			t.Fatalf("GetBalances failed: %v", err)
		}
		assertBalances(t, resp.Msg.Balances, simplified)

		on := true
		if _, err := bob.groups.UpdateGroup(ctx, connect.NewRequest(&api.UpdateGroupRequest{
			GroupID:    groupID,
			Simplified: &on,
		})); err != nil {
			t.Fatalf("UpdateGroup failed: %v", err)
		}

		resp, err = alice.ledger.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("GetBalances failed: %v", err)
		}
		if !resp.Msg.Simplified {
			t.Error("expected simplified view after toggling the flag")
		}
		assertBalances(t, resp.Msg.Balances, simplified)

		// The flag never touches stored balances.
		resp, err = alice.ledger.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{
			GroupID: groupID,
			View:    api.ViewRaw,
		}))
		if err != nil {
			t.Fatalf("GetBalances failed: %v", err)
		}
		assertBalances(t, resp.Msg.Balances, raw)
	})

	t.Run("member filter", func(t *testing.T) {
		resp, err := bob.ledger.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{
			GroupID: groupID,
			View:    api.ViewRaw,
			UserID:  "bob",
		}))
		if err != nil {
			t.Fatalf("GetBalances failed: %v", err)
		}
		assertBalances(t, resp.Msg.Balances, map[string]string{
			"bob->alice": "100.00",
			"carol->bob": "60.00",
		})
		if len(resp.Msg.Members) != 1 || resp.Msg.Members[0].Net != "-40.00" {
			t.Errorf("expected bob's net -40.00, got %+v", resp.Msg.Members)
		}
	})

	t.Run("settle everything", func(t *testing.T) {
		check, err := alice.ledger.CheckSettled(ctx, connect.NewRequest(&api.CheckSettledRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("CheckSettled failed: %v", err)
		}
		if check.Msg.Settled || len(check.Msg.Outstanding) != 3 {
			t.Fatalf("expected 3 outstanding balances, got %+v", check.Msg)
		}

		_, err = alice.groups.DeleteGroup(ctx, connect.NewRequest(&api.DeleteGroupRequest{GroupID: groupID}))
		assertCode(t, err, connect.CodeFailedPrecondition)

		payments := []struct {
			from   testClients
			to     string
			amount string
		}{
			{from: bob, to: "alice", amount: "100"},
			{from: carol, to: "alice", amount: "100"},
			{from: carol, to: "bob", amount: "60"},
		}
		for _, p := range payments {
			if _, err := p.from.ledger.SettleUp(ctx, connect.NewRequest(&api.SettleUpRequest{
				GroupID:     groupID,
				RecipientID: p.to,
				Amount:      p.amount,
			})); err != nil {
				t.Fatalf("SettleUp to %s failed: %v", p.to, err)
			}
		}

		check, err = alice.ledger.CheckSettled(ctx, connect.NewRequest(&api.CheckSettledRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("CheckSettled failed: %v", err)
		}
		if !check.Msg.Settled {
			t.Fatalf("expected settled group, got %+v", check.Msg.Outstanding)
		}

		feed, err := carol.ledger.ListActivities(ctx, connect.NewRequest(&api.ListActivitiesRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("ListActivities failed: %v", err)
		}
		if got := feed.Msg.Activities[0].Kind; got != "settled_up" {
			t.Errorf("expected newest activity settled_up, got %s", got)
		}

		if _, err := alice.groups.DeleteGroup(ctx, connect.NewRequest(&api.DeleteGroupRequest{GroupID: groupID})); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		_, err = alice.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: groupID}))
		assertCode(t, err, connect.CodeNotFound)
	})
}

func TestSettleUpIdempotencyKey(t *testing.T) {
	srv := setupTestServer(t)
	alice, bob := srv.as(t, "alice"), srv.as(t, "bob")
	ctx := context.Background()

	groupID := createTestGroup(t, alice, "bob")

	req := &api.SettleUpRequest{
		GroupID:        groupID,
		RecipientID:    "alice",
		Amount:         "25.50",
		IdempotencyKey: "payment-1",
	}
	first, err := bob.ledger.SettleUp(ctx, connect.NewRequest(req))
	if err != nil {
		t.Fatalf("SettleUp failed: %v", err)
	}
	second, err := bob.ledger.SettleUp(ctx, connect.NewRequest(req))
	if err != nil {
		t.Fatalf("repeated SettleUp failed: %v", err)
	}
	if first.Msg.Expense.ID != second.Msg.Expense.ID {
		t.Errorf("expected the same expense, got %s and %s", first.Msg.Expense.ID, second.Msg.Expense.ID)
	}

	resp, err := alice.ledger.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	assertBalances(t, resp.Msg.Balances, map[string]string{"alice->bob": "25.50"})

	expenses, err := alice.ledger.ListExpenses(ctx, connect.NewRequest(&api.ListExpensesRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(expenses.Msg.Expenses) != 1 {
		t.Errorf("expected 1 expense, got %d", len(expenses.Msg.Expenses))
	}

	req.Amount = "30"
	_, err = bob.ledger.SettleUp(ctx, connect.NewRequest(req))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestDeleteExpenseReverses(t *testing.T) {
	srv := setupTestServer(t)
	alice := srv.as(t, "alice")
	ctx := context.Background()

	groupID := createTestGroup(t, alice, "bob")
	posted, err := alice.ledger.PostExpense(ctx, connect.NewRequest(&api.PostExpenseRequest{
		GroupID:       groupID,
		PayerID:       "alice",
		Contributions: []api.Contribution{{UserID: "bob", Share: "12.34"}},
	}))
	if err != nil {
		t.Fatalf("PostExpense failed: %v", err)
	}

	deleted, err := alice.ledger.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{
		GroupID:   groupID,
		ExpenseID: posted.Msg.Expense.ID,
	}))
	if err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if !deleted.Msg.Expense.Deleted {
		t.Error("expected expense to be marked deleted")
	}

	check, err := alice.ledger.CheckSettled(ctx, connect.NewRequest(&api.CheckSettledRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("CheckSettled failed: %v", err)
	}
	if !check.Msg.Settled {
		t.Errorf("expected settled group after delete, got %+v", check.Msg.Outstanding)
	}

	_, err = alice.ledger.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{
		GroupID:   groupID,
		ExpenseID: posted.Msg.Expense.ID,
	}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestGroupServiceMembership(t *testing.T) {
	srv := setupTestServer(t)
	alice, bob, dave := srv.as(t, "alice"), srv.as(t, "bob"), srv.as(t, "dave")
	ctx := context.Background()

	groupID := createTestGroup(t, alice, "bob")

	inv, err := bob.groups.InviteMember(ctx, connect.NewRequest(&api.InviteMemberRequest{
		GroupID: groupID,
		UserID:  "dave",
	}))
	if err != nil {
		t.Fatalf("InviteMember failed: %v", err)
	}

	_, err = dave.ledger.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{GroupID: groupID}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = alice.groups.AcceptInvitation(ctx, connect.NewRequest(&api.AcceptInvitationRequest{
		InvitationID: inv.Msg.Invitation.ID,
	}))
	assertCode(t, err, connect.CodeNotFound)

	joined, err := dave.groups.AcceptInvitation(ctx, connect.NewRequest(&api.AcceptInvitationRequest{
		InvitationID: inv.Msg.Invitation.ID,
	}))
	if err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
	if joined.Msg.Member.UserID != "dave" || joined.Msg.Member.AddedBy != "bob" {
		t.Errorf("unexpected member %+v", joined.Msg.Member)
	}

	details, err := dave.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if len(details.Msg.Members) != 3 {
		t.Errorf("expected 3 members, got %d", len(details.Msg.Members))
	}

	list, err := dave.groups.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{}))
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(list.Msg.Groups) != 1 || list.Msg.Groups[0].ID != groupID {
		t.Errorf("expected dave's group list to hold %s, got %+v", groupID, list.Msg.Groups)
	}

	if _, err := dave.ledger.SettleUp(ctx, connect.NewRequest(&api.SettleUpRequest{
		GroupID:     groupID,
		RecipientID: "alice",
		Amount:      "5",
	})); err != nil {
		t.Fatalf("SettleUp failed: %v", err)
	}

	// alice now owes dave, so neither may leave.
	_, err = dave.groups.RemoveMember(ctx, connect.NewRequest(&api.RemoveMemberRequest{GroupID: groupID}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	check, err := bob.ledger.CheckSettled(ctx, connect.NewRequest(&api.CheckSettledRequest{
		GroupID: groupID,
		UserID:  "bob",
	}))
	if err != nil {
		t.Fatalf("CheckSettled failed: %v", err)
	}
	if !check.Msg.Settled {
		t.Error("expected bob to be settled")
	}

	if _, err := alice.groups.RemoveMember(ctx, connect.NewRequest(&api.RemoveMemberRequest{
		GroupID: groupID,
		UserID:  "bob",
	})); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}

	feed, err := bob.ledger.ListActivities(ctx, connect.NewRequest(&api.ListActivitiesRequest{}))
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(feed.Msg.Activities) == 0 || feed.Msg.Activities[0].Kind != "member_removed" {
		t.Errorf("expected bob's feed to start with member_removed, got %+v", feed.Msg.Activities)
	}
}

func TestServiceErrors(t *testing.T) {
	srv := setupTestServer(t)
	alice := srv.as(t, "alice")
	ctx := context.Background()

	groupID := createTestGroup(t, alice, "bob")
	name := "Renamed"
	on := true

	tests := []struct {
		name string
		call func() error
		want connect.Code
	}{
		{
			name: "no token",
			call: func() error {
				client := apiconnect.NewGroupServiceClient(http.DefaultClient, srv.url)
				_, err := client.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{}))
				return err
			},
			want: connect.CodeUnauthenticated,
		},
		{
			name: "malformed amount",
			call: func() error {
				_, err := alice.ledger.PostExpense(ctx, connect.NewRequest(&api.PostExpenseRequest{
					GroupID:       groupID,
					PayerID:       "alice",
					Contributions: []api.Contribution{{UserID: "bob", Share: "1.005"}},
				}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "split and contributions",
			call: func() error {
				_, err := alice.ledger.PostExpense(ctx, connect.NewRequest(&api.PostExpenseRequest{
					GroupID:       groupID,
					PayerID:       "alice",
					Contributions: []api.Contribution{{UserID: "bob", Share: "1"}},
					Split:         &api.EvenSplit{Total: "2", ParticipantIDs: []string{"alice", "bob"}},
				}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "non-member contributor",
			call: func() error {
				_, err := alice.ledger.PostExpense(ctx, connect.NewRequest(&api.PostExpenseRequest{
					GroupID:       groupID,
					PayerID:       "alice",
					Contributions: []api.Contribution{{UserID: "mallory", Share: "1"}},
				}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "settle up with self",
			call: func() error {
				_, err := alice.ledger.SettleUp(ctx, connect.NewRequest(&api.SettleUpRequest{
					GroupID:     groupID,
					RecipientID: "alice",
					Amount:      "1",
				}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown view",
			call: func() error {
				_, err := alice.ledger.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{
					GroupID: groupID,
					View:    "sideways",
				}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "two updates at once",
			call: func() error {
				_, err := alice.groups.UpdateGroup(ctx, connect.NewRequest(&api.UpdateGroupRequest{
					GroupID:    groupID,
					Name:       &name,
					Simplified: &on,
				}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown group",
			call: func() error {
				_, err := alice.ledger.ListExpenses(ctx, connect.NewRequest(&api.ListExpensesRequest{GroupID: "missing"}))
				return err
			},
			want: connect.CodeNotFound,
		},
		{
			name: "outsider",
			call: func() error {
				_, err := srv.as(t, "mallory").groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: groupID}))
				return err
			},
			want: connect.CodePermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCode(t, tt.call(), tt.want)
		})
	}
}
