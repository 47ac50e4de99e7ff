package calculator

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
)

func edge(debtor, creditor string, amount money.Amount) models.PairwiseBalance {
	return models.PairwiseBalance{GroupID: "g", DebtorID: debtor, CreditorID: creditor, Amount: amount}
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		name     string
		balances []models.PairwiseBalance
		want     []models.SettlementEdge
	}{
		{
			name:     "empty ledger",
			balances: nil,
			want:     nil,
		},
		{
			name:     "single debt passes through",
			balances: []models.PairwiseBalance{edge("B", "A", 100)},
			want:     []models.SettlementEdge{{From: "B", To: "A", Amount: 100}},
		},
		{
			name: "chain collapses to one payment",
			// A owes B 50, B owes C 50: B nets to zero
			balances: []models.PairwiseBalance{edge("A", "B", 50), edge("B", "C", 50)},
			want:     []models.SettlementEdge{{From: "A", To: "C", Amount: 50}},
		},
		{
			name: "cycle cancels entirely",
			balances: []models.PairwiseBalance{
				edge("A", "B", 30), edge("B", "C", 30), edge("C", "A", 30),
			},
			want: nil,
		},
		{
			name: "chained debts collapse onto the creditor",
			// B->A 100, C->A 100, B->C 40
			// net: A +200, B -140, C -60
			balances: []models.PairwiseBalance{
				edge("B", "A", 10000), edge("C", "A", 10000), edge("B", "C", 4000),
			},
			want: []models.SettlementEdge{
				{From: "B", To: "A", Amount: 14000},
				{From: "C", To: "A", Amount: 6000},
			},
		},
		{
			name: "ties broken by ascending id",
			balances: []models.PairwiseBalance{
				edge("D", "B", 100), edge("C", "A", 100),
			},
			want: []models.SettlementEdge{
				{From: "C", To: "A", Amount: 100},
				{From: "D", To: "B", Amount: 100},
			},
		},
		{
			name: "original docs example",
			// A owes B 200, A owes C 200, C owes B 100
			balances: []models.PairwiseBalance{
				edge("A", "B", 200), edge("A", "C", 200), edge("C", "B", 100),
			},
			want: []models.SettlementEdge{
				{From: "A", To: "B", Amount: 300},
				{From: "A", To: "C", Amount: 100},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Simplify(tt.balances)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Simplify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestSimplifyProperties checks conservation, minimality and determinism
// over random ledgers.
func TestSimplifyProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	users := []string{"u0", "u1", "u2", "u3", "u4", "u5", "u6", "u7"}

	for iter := 0; iter < 200; iter++ {
		var balances []models.PairwiseBalance
		n := rng.Intn(20)
		for i := 0; i < n; i++ {
			a, b := users[rng.Intn(len(users))], users[rng.Intn(len(users))]
			if a == b {
				continue
			}
			balances = append(balances, edge(a, b, money.Amount(rng.Intn(100000)+1)))
		}

		t.Run(fmt.Sprintf("ledger-%d", iter), func(t *testing.T) {
			edges := Simplify(balances)

			raw := NetPositions(balances)
			simplified := EdgeNetPositions(edges)
			nonZero := 0
			for _, u := range users {
				if raw[u] != simplified[u] {
					t.Fatalf("net(%s): raw %d != simplified %d", u, raw[u], simplified[u])
				}
				if raw[u] != 0 {
					nonZero++
				}
			}

			if nonZero > 0 && len(edges) > nonZero-1 {
				t.Errorf("got %d edges for %d nonzero members", len(edges), nonZero)
			}
			for _, e := range edges {
				if e.Amount <= 0 {
					t.Errorf("non-positive edge %+v", e)
				}
				if e.From == e.To {
					t.Errorf("self edge %+v", e)
				}
			}

			// Input order must not matter.
			shuffled := append([]models.PairwiseBalance(nil), balances...)
			rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
			if again := Simplify(shuffled); !reflect.DeepEqual(again, edges) {
				t.Errorf("Simplify not deterministic: %+v vs %+v", again, edges)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize([]models.PairwiseBalance{
		edge("B", "A", 100), edge("C", "A", 100), edge("B", "C", 40),
	})
	want := []MemberBalance{
		{UserID: "A", Net: 200, Owed: 200, Owes: 0},
		{UserID: "B", Net: -140, Owed: 0, Owes: 140},
		{UserID: "C", Net: -60, Owed: 40, Owes: 100},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestNetPositionsAtCapacity(t *testing.T) {
	n := int(money.MaxTerms)
	balances := make([]models.PairwiseBalance, n)
	for i := range balances {
		balances[i] = edge(fmt.Sprintf("d%06d", i), "creditor", money.Max)
	}

	net := NetPositions(balances)
	want := money.Amount(money.MaxTerms) * money.Max
	if got := net["creditor"]; got != want || got <= 0 {
		t.Fatalf("creditor net = %d, want %d", got, want)
	}
	if got := net["d000000"]; got != -money.Max {
		t.Errorf("debtor net = %d, want %d", got, -money.Max)
	}
}
