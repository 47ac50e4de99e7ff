// Package models defines the core domain models for the group ledger.
//
// # Models
//
//   - Group: a set of members sharing expenses, with a display-only
//     Simplified flag
//   - Member, Invitation: group membership and pending invites
//   - PairwiseBalance: one directed debt between two members of a group
//   - Expense, Contribution: a posted expense (or settle-up) and its shares
//   - Activity: an immutable audit entry for a ledger-affecting event
//   - SettlementEdge: one payment instruction from the debt simplifier
//
// # Design Principles
//
//  1. Amounts are money.Amount (integer minor units), never floats
//  2. Relationships are ID strings, not pointers
//  3. Timestamps are Unix seconds, as stored
package models
