package models

// ActivityKind tags an activity entry and determines its metadata shape.
type ActivityKind string

const (
	ActivityGroupCreated      ActivityKind = "group_created"
	ActivityGroupSimplified   ActivityKind = "group_simplified"
	ActivityGroupRenamed      ActivityKind = "changed_group_name"
	ActivityGroupDescription  ActivityKind = "changed_group_description"
	ActivityGroupDeleted      ActivityKind = "group_deleted"
	ActivityMemberInvited     ActivityKind = "member_invited"
	ActivityInvitationDropped ActivityKind = "invitation_dropped"
	ActivityMemberJoined      ActivityKind = "member_joined"
	ActivityMemberLeft        ActivityKind = "member_left"
	ActivityMemberRemoved     ActivityKind = "member_removed"
	ActivityExpenseAdded      ActivityKind = "expense_added"
	ActivitySettledUp         ActivityKind = "settled_up"
	ActivityExpenseDeleted    ActivityKind = "expense_deleted"
)

// Activity is an immutable audit record of a ledger-affecting event.
// It is created once and only removed when its group is deleted.
type Activity struct {
	ID      string
	GroupID string
	Kind    ActivityKind
	ActorID string

	// AffectedUserIDs are the users who see this entry in their feed.
	AffectedUserIDs []string

	CreatedAt int64

	// Metadata is a kind-specific payload of JSON-compatible values.
	// Amounts are carried as decimal strings.
	Metadata map[string]any
}
