// Package api defines the wire messages of the groupledger RPC services.
//
// Messages are plain structs encoded as JSON (see Codec). Amounts are
// decimal strings with at most two fractional digits, e.g. "12.50".
// Timestamps are Unix seconds.
package api

// Group is a shared-expense group.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatorID   string `json:"creator_id"`
	Simplified  bool   `json:"simplified"`
	Version     int64  `json:"version"`
	CreatedAt   int64  `json:"created_at"`
}

// Member is a user's membership in a group.
type Member struct {
	UserID   string `json:"user_id"`
	AddedBy  string `json:"added_by"`
	JoinedAt int64  `json:"joined_at"`
}

// Invitation is a pending request for a user to join a group.
type Invitation struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	UserID    string `json:"user_id"`
	InvitedBy string `json:"invited_by"`
	CreatedAt int64  `json:"created_at"`
}

// Contribution is one member's share of an expense.
type Contribution struct {
	UserID string `json:"user_id"`
	Share  string `json:"share"`
}

// Expense kinds.
const (
	KindGroupExpense = "group_expense"
	KindSettleUp     = "settle_up"
)

// Expense is a posted expense or settle-up.
type Expense struct {
	ID             string         `json:"id"`
	GroupID        string         `json:"group_id"`
	Kind           string         `json:"kind"`
	Description    string         `json:"description"`
	PayerID        string         `json:"payer_id"`
	Total          string         `json:"total"`
	Contributions  []Contribution `json:"contributions"`
	CreatedBy      string         `json:"created_by"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	CreatedAt      int64          `json:"created_at"`
	UpdatedAt      int64          `json:"updated_at"`
	Deleted        bool           `json:"deleted,omitempty"`
}

// Balance is a directed debt: DebtorID owes CreditorID Amount.
type Balance struct {
	DebtorID   string `json:"debtor_id"`
	CreditorID string `json:"creditor_id"`
	Amount     string `json:"amount"`
}

// MemberBalance summarizes one member's position in a group. Net is
// positive when the member is owed money.
type MemberBalance struct {
	UserID string `json:"user_id"`
	Net    string `json:"net"`
	Owed   string `json:"owed"`
	Owes   string `json:"owes"`
}

// Activity is an entry of an activity feed.
type Activity struct {
	ID              string         `json:"id"`
	GroupID         string         `json:"group_id"`
	Kind            string         `json:"kind"`
	ActorID         string         `json:"actor_id"`
	AffectedUserIDs []string       `json:"affected_user_ids"`
	CreatedAt       int64          `json:"created_at"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Balance views.
const (
	// ViewDefault follows the group's simplified flag.
	ViewDefault    = ""
	ViewRaw        = "raw"
	ViewSimplified = "simplified"
)

// EvenSplit divides Total between ParticipantIDs in whole cents. Leftover
// cents go to participants in ascending ID order.
type EvenSplit struct {
	Total          string   `json:"total"`
	ParticipantIDs []string `json:"participant_ids"`
}

// PostExpenseRequest posts a group expense. Exactly one of Contributions
// and Split must be set. The actor is taken from the request credentials.
type PostExpenseRequest struct {
	GroupID        string         `json:"group_id"`
	PayerID        string         `json:"payer_id"`
	Description    string         `json:"description,omitempty"`
	Total          string         `json:"total,omitempty"`
	Contributions  []Contribution `json:"contributions,omitempty"`
	Split          *EvenSplit     `json:"split,omitempty"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
}

type PostExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

// SettleUpRequest records a direct payment from PayerID (default: the
// actor) to RecipientID.
type SettleUpRequest struct {
	GroupID        string `json:"group_id"`
	PayerID        string `json:"payer_id,omitempty"`
	RecipientID    string `json:"recipient_id"`
	Amount         string `json:"amount"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type SettleUpResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	GroupID   string `json:"group_id"`
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

// GetBalancesRequest selects a view of the group ledger. When UserID is
// set only balances touching that member are returned.
type GetBalancesRequest struct {
	GroupID string `json:"group_id"`
	View    string `json:"view,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

type GetBalancesResponse struct {
	Simplified bool            `json:"simplified"`
	Balances   []Balance       `json:"balances"`
	Members    []MemberBalance `json:"members"`
}

// CheckSettledRequest asks whether the group, or one member when UserID is
// set, has no outstanding balances.
type CheckSettledRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id,omitempty"`
}

type CheckSettledResponse struct {
	Settled     bool      `json:"settled"`
	Outstanding []Balance `json:"outstanding,omitempty"`
}

// ListActivitiesRequest returns a group feed, or the caller's feed across
// all groups when GroupID is empty.
type ListActivitiesRequest struct {
	GroupID string `json:"group_id,omitempty"`
}

type ListActivitiesResponse struct {
	Activities []*Activity `json:"activities"`
}

type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MemberIDs   []string `json:"member_ids,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group   *Group   `json:"group"`
	Members []Member `json:"members"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

// UpdateGroupRequest changes exactly one of the group's name, description
// or simplified flag.
type UpdateGroupRequest struct {
	GroupID     string  `json:"group_id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Simplified  *bool   `json:"simplified,omitempty"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type InviteMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

type InviteMemberResponse struct {
	Invitation *Invitation `json:"invitation"`
}

type AcceptInvitationRequest struct {
	InvitationID string `json:"invitation_id"`
}

type AcceptInvitationResponse struct {
	Member *Member `json:"member"`
}

type DropInvitationRequest struct {
	InvitationID string `json:"invitation_id"`
}

type DropInvitationResponse struct{}

// RemoveMemberRequest removes UserID from the group. An empty UserID means
// the caller leaves.
type RemoveMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id,omitempty"`
}

type RemoveMemberResponse struct{}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}
