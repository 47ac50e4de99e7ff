package calculator

import (
	"testing"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
)

func TestSplitEvenly(t *testing.T) {
	tests := []struct {
		name         string
		total        money.Amount
		participants []string
		wantErr      bool
		validateFunc func(t *testing.T, shares []models.Contribution)
	}{
		{
			name:         "three-way even split",
			total:        30000,
			participants: []string{"A", "B", "C"},
			validateFunc: func(t *testing.T, shares []models.Contribution) {
				for _, c := range shares {
					if c.Share != 10000 {
						t.Errorf("%s share = %d, want 10000", c.UserID, c.Share)
					}
				}
			},
		},
		{
			name:         "remainder cents go to lowest ids",
			total:        1000,
			participants: []string{"carol", "alice", "bob"},
			validateFunc: func(t *testing.T, shares []models.Contribution) {
				// 1000 / 3 = 333 r 1; alice sorts first and takes the extra cent
				want := map[string]money.Amount{"alice": 334, "bob": 333, "carol": 333}
				for _, c := range shares {
					if c.Share != want[c.UserID] {
						t.Errorf("%s share = %d, want %d", c.UserID, c.Share, want[c.UserID])
					}
				}
				if shares[0].UserID != "carol" {
					t.Errorf("expected input order preserved, got %s first", shares[0].UserID)
				}
			},
		},
		{
			name:         "shares always sum to total",
			total:        10001,
			participants: []string{"A", "B", "C", "D", "E", "F", "G"},
			validateFunc: func(t *testing.T, shares []models.Contribution) {
				var sum money.Amount
				for _, c := range shares {
					sum += c.Share
				}
				if sum != 10001 {
					t.Errorf("sum = %d, want 10001", sum)
				}
			},
		},
		{
			name:         "no participants should error",
			total:        100,
			participants: []string{},
			wantErr:      true,
		},
		{
			name:         "negative total should error",
			total:        -1,
			participants: []string{"A"},
			wantErr:      true,
		},
		{
			name:         "duplicate participant should error",
			total:        100,
			participants: []string{"A", "A"},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := SplitEvenly(tt.total, tt.participants)
			if (err != nil) != tt.wantErr {
				t.Errorf("SplitEvenly() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.validateFunc != nil {
				tt.validateFunc(t, shares)
			}
		})
	}
}
