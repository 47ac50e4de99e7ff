package service

import (
	"fmt"

	"github.com/mmynk/groupledger/internal/calculator"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/pkg/api"
)

func parseAmount(field, s string) (money.Amount, error) {
	a, err := money.Parse(s)
	if err != nil {
		return 0, invalidArgument(fmt.Errorf("invalid %s: %w", field, err))
	}
	return a, nil
}

func parseContributions(in []api.Contribution) ([]models.Contribution, error) {
	out := make([]models.Contribution, len(in))
	for i, c := range in {
		share, err := parseAmount("share of "+c.UserID, c.Share)
		if err != nil {
			return nil, err
		}
		out[i] = models.Contribution{UserID: c.UserID, Share: share}
	}
	return out, nil
}

func toAPIGroup(g *models.Group) *api.Group {
	return &api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatorID:   g.CreatorID,
		Simplified:  g.Simplified,
		Version:     g.Version,
		CreatedAt:   g.CreatedAt,
	}
}

func toAPIMembers(members []models.Member) []api.Member {
	out := make([]api.Member, len(members))
	for i, m := range members {
		out[i] = api.Member{UserID: m.UserID, AddedBy: m.AddedBy, JoinedAt: m.JoinedAt}
	}
	return out
}

func toAPIInvitation(inv *models.Invitation) *api.Invitation {
	return &api.Invitation{
		ID:        inv.ID,
		GroupID:   inv.GroupID,
		UserID:    inv.UserID,
		InvitedBy: inv.InvitedBy,
		CreatedAt: inv.CreatedAt,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	contributions := make([]api.Contribution, len(e.Contributions))
	for i, c := range e.Contributions {
		contributions[i] = api.Contribution{UserID: c.UserID, Share: c.Share.String()}
	}
	return &api.Expense{
		ID:             e.ID,
		GroupID:        e.GroupID,
		Kind:           string(e.Kind),
		Description:    e.Description,
		PayerID:        e.PayerID,
		Total:          e.Total.String(),
		Contributions:  contributions,
		CreatedBy:      e.CreatedBy,
		IdempotencyKey: e.IdempotencyKey,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
		Deleted:        e.Deleted,
	}
}

func toAPIBalances(rows []models.PairwiseBalance) []api.Balance {
	out := make([]api.Balance, len(rows))
	for i, b := range rows {
		out[i] = api.Balance{DebtorID: b.DebtorID, CreditorID: b.CreditorID, Amount: b.Amount.String()}
	}
	return out
}

func toAPIMemberBalances(summary []calculator.MemberBalance) []api.MemberBalance {
	out := make([]api.MemberBalance, len(summary))
	for i, m := range summary {
		out[i] = api.MemberBalance{
			UserID: m.UserID,
			Net:    m.Net.String(),
			Owed:   m.Owed.String(),
			Owes:   m.Owes.String(),
		}
	}
	return out
}

func toAPIActivities(feed []*models.Activity) []*api.Activity {
	out := make([]*api.Activity, len(feed))
	for i, a := range feed {
		out[i] = &api.Activity{
			ID:              a.ID,
			GroupID:         a.GroupID,
			Kind:            string(a.Kind),
			ActorID:         a.ActorID,
			AffectedUserIDs: a.AffectedUserIDs,
			CreatedAt:       a.CreatedAt,
			Metadata:        a.Metadata,
		}
	}
	return out
}
