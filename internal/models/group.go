package models

// Group represents a set of members who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Trip").
	Name string

	// Description is optional free text.
	Description string

	// CreatorID is the user who created the group.
	CreatorID string

	// Simplified selects which balance view is rendered to clients.
	// It never changes the stored pairwise balances.
	Simplified bool

	// Version is bumped on every ledger or membership mutation and is
	// used to detect concurrent structural changes.
	Version int64

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Member is one user's membership in a group.
type Member struct {
	GroupID string
	UserID  string

	// AddedBy is the member who invited or added this user.
	AddedBy string

	JoinedAt int64
}

// Invitation is a pending request for a user to join a group.
// At most one invitation exists per (group, user).
type Invitation struct {
	ID        string
	GroupID   string
	UserID    string
	InvitedBy string
	CreatedAt int64
}
