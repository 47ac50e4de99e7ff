package calculator

import (
	"fmt"
	"sort"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
)

// SplitEvenly divides total among participants in minor units.
// Leftover cents go one each to participants in ascending user ID order, so
// the shares always sum to total exactly. Contributions keep the order of
// participants.
func SplitEvenly(total money.Amount, participants []string) ([]models.Contribution, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}
	if total < 0 {
		return nil, fmt.Errorf("total cannot be negative")
	}

	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if p == "" {
			return nil, fmt.Errorf("participant id cannot be empty")
		}
		if seen[p] {
			return nil, fmt.Errorf("duplicate participant %q", p)
		}
		seen[p] = true
	}

	n := money.Amount(len(participants))
	base := total / n
	remainder := total % n

	sorted := append([]string(nil), participants...)
	sort.Strings(sorted)
	extra := make(map[string]bool, int(remainder))
	for _, p := range sorted[:remainder] {
		extra[p] = true
	}

	contributions := make([]models.Contribution, len(participants))
	for i, p := range participants {
		share := base
		if extra[p] {
			share++
		}
		contributions[i] = models.Contribution{UserID: p, Share: share}
	}
	return contributions, nil
}
