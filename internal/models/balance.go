package models

import "github.com/mmynk/groupledger/internal/money"

// PairwiseBalance is a directed debt: DebtorID owes CreditorID Amount
// within GroupID.
//
// Stored rows always have Amount > 0, DebtorID != CreditorID, and at most
// one direction exists for any pair of members.
type PairwiseBalance struct {
	GroupID    string
	DebtorID   string
	CreditorID string
	Amount     money.Amount
}

// Touches reports whether userID is either side of the balance.
func (b PairwiseBalance) Touches(userID string) bool {
	return b.DebtorID == userID || b.CreditorID == userID
}

// SettlementEdge is one payment instruction produced by the debt simplifier:
// From pays To Amount.
type SettlementEdge struct {
	From   string
	To     string
	Amount money.Amount
}
