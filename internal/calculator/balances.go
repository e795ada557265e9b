package calculator

import (
	"slices"

	"github.com/mmynk/splitbook/internal/models"
)

// CalculateBalances computes each participant's net balance over the pending
// expenses.
//
// Algorithm:
// - Settled expenses are skipped entirely
// - Every roster member starts at 0, even with no expenses
// - For each expense: payer is credited the amount, each participant is
// debited their share
//
// IDs that are not on the roster (e.g. a removed participant) get a balance
// entry of their own so the sum of all balances stays zero.
func CalculateBalances(expenses []models.Expense, roster models.Roster) models.Balances {
	balances := make(models.Balances, len(roster))
	for _, p := range roster {
		balances[p.ID] = 0
	}

	for _, expense := range expenses {
		if !expense.IsPending() {
			continue
		}

		balances[expense.PaidBy] += expense.Amount
		for id, share := range CalculateSplit(expense, roster) {
			balances[id] -= share
		}
	}

	return balances
}

// UnknownParticipants returns balance keys that are not on the roster,
// sorted by ID.
func UnknownParticipants(balances models.Balances, roster models.Roster) []string {
	var unknown []string
	for id := range balances {
		if !roster.Contains(id) {
			unknown = append(unknown, id)
		}
	}
	slices.Sort(unknown)
	return unknown
}

// SummarizeMembers aggregates paid, owed and net amounts per participant over
// the pending expenses. Results follow roster order, then unknown IDs sorted.
func SummarizeMembers(expenses []models.Expense, roster models.Roster) []models.MemberBalance {
	byID := make(map[string]*models.MemberBalance, len(roster))
	order := make([]string, 0, len(roster))

	get := func(id string) *models.MemberBalance {
		if mb, ok := byID[id]; ok {
			return mb
		}
		mb := &models.MemberBalance{ParticipantID: id}
		byID[id] = mb
		return mb
	}

	for _, p := range roster {
		get(p.ID)
		order = append(order, p.ID)
	}

	for _, expense := range expenses {
		if !expense.IsPending() {
			continue
		}
		get(expense.PaidBy).Paid += expense.Amount
		for id, share := range CalculateSplit(expense, roster) {
			get(id).Owed += share
		}
	}

	var extra []string
	for id := range byID {
		if !roster.Contains(id) {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)
	order = append(order, extra...)

	summaries := make([]models.MemberBalance, 0, len(order))
	for _, id := range order {
		mb := byID[id]
		mb.Net = mb.Paid - mb.Owed
		summaries = append(summaries, *mb)
	}
	return summaries
}
