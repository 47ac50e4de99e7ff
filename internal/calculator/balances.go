package calculator

import (
	"sort"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
)

// MemberBalance summarizes one member's position across a group's ledger.
type MemberBalance struct {
	UserID string
	Net    money.Amount // Positive = owed money, Negative = owes money
	Owed   money.Amount // Total others owe this member
	Owes   money.Amount // Total this member owes others
}

// NetPositions computes, for every member touched by balances, the amount
// owed to them minus the amount they owe.
//
// Balances hold one row per pair and every row is capped at money.Max, so
// a member's net sums at most one row per counterparty. It stays exact for
// groups of up to money.MaxTerms+1 members (about 92,000).
func NetPositions(balances []models.PairwiseBalance) map[string]money.Amount {
	net := make(map[string]money.Amount)
	for _, b := range balances {
		net[b.CreditorID] += b.Amount
		net[b.DebtorID] -= b.Amount
	}
	return net
}

// EdgeNetPositions is NetPositions over simplifier output.
func EdgeNetPositions(edges []models.SettlementEdge) map[string]money.Amount {
	net := make(map[string]money.Amount)
	for _, e := range edges {
		net[e.To] += e.Amount
		net[e.From] -= e.Amount
	}
	return net
}

// Summarize returns per-member totals sorted by user ID.
func Summarize(balances []models.PairwiseBalance) []MemberBalance {
	byUser := make(map[string]*MemberBalance)
	get := func(id string) *MemberBalance {
		mb, ok := byUser[id]
		if !ok {
			mb = &MemberBalance{UserID: id}
			byUser[id] = mb
		}
		return mb
	}

	for _, b := range balances {
		get(b.CreditorID).Owed += b.Amount
		get(b.DebtorID).Owes += b.Amount
	}

	out := make([]MemberBalance, 0, len(byUser))
	for _, mb := range byUser {
		mb.Net = mb.Owed - mb.Owes
		out = append(out, *mb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

type party struct {
	id        string
	remaining money.Amount // always positive
}

// Simplify reduces raw pairwise balances to a minimal set of settlement
// edges that leaves every member with the same net position.
//
// Algorithm (minimum cash flow):
//   - net(member) = owed to member - owed by member
//   - split members into creditors (net > 0) and debtors (net < 0)
//   - repeatedly match the largest creditor with the largest debtor,
//     ties broken by ascending user ID, and settle min(credit, debt)
//
// Every step drains at least one party, so the result has at most n-1 edges
// for n members with a nonzero net. Output order follows the matching order
// and is stable for a given input only because of the tie-break rule.
func Simplify(balances []models.PairwiseBalance) []models.SettlementEdge {
	net := NetPositions(balances)

	var creditors, debtors []*party
	for id, amount := range net {
		switch {
		case amount > 0:
			creditors = append(creditors, &party{id: id, remaining: amount})
		case amount < 0:
			debtors = append(debtors, &party{id: id, remaining: -amount})
		}
	}

	var edges []models.SettlementEdge
	for len(creditors) > 0 && len(debtors) > 0 {
		ci := largest(creditors)
		di := largest(debtors)
		creditor, debtor := creditors[ci], debtors[di]

		amount := money.Min(creditor.remaining, debtor.remaining)
		edges = append(edges, models.SettlementEdge{
			From:   debtor.id,
			To:     creditor.id,
			Amount: amount,
		})

		creditor.remaining -= amount
		debtor.remaining -= amount
		if creditor.remaining == 0 {
			creditors = remove(creditors, ci)
		}
		if debtor.remaining == 0 {
			debtors = remove(debtors, di)
		}
	}

	return edges
}

// largest returns the index of the party with the largest remaining amount,
// preferring the smallest ID on ties.
func largest(parties []*party) int {
	best := 0
	for i := 1; i < len(parties); i++ {
		p, b := parties[i], parties[best]
		if p.remaining > b.remaining || (p.remaining == b.remaining && p.id < b.id) {
			best = i
		}
	}
	return best
}

func remove(parties []*party, i int) []*party {
	return append(parties[:i], parties[i+1:]...)
}
