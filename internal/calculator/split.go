package calculator

import (
	"github.com/mmynk/splitbook/internal/models"
)

// EffectiveParticipants returns the IDs sharing an expense.
// An expense with no participants listed is shared by the whole roster.
// Duplicate IDs are dropped, first occurrence wins.
func EffectiveParticipants(expense models.Expense, roster models.Roster) []string {
	ids := expense.Participants
	if len(ids) == 0 {
		ids = roster.IDs()
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// CalculateSplit computes how much each participant owes for one expense.
// Keys are exactly the effective participants.
//
//   - equal: amount / n for each participant, no rounding
//   - custom: the declared share, or 0 when none was declared
//
// Custom shares that don't add up to the amount are not an error here;
// input validation rejects them before they are stored.
func CalculateSplit(expense models.Expense, roster models.Roster) map[string]float64 {
	participants := EffectiveParticipants(expense, roster)
	shares := make(map[string]float64, len(participants))
	if len(participants) == 0 {
		return shares
	}

	switch split := expense.SplitOrEqual().(type) {
	case models.EqualSplit:
		perPerson := expense.Amount / float64(len(participants))
		for _, id := range participants {
			shares[id] = perPerson
		}
	case models.CustomSplit:
		for _, id := range participants {
			shares[id] = split.Shares[id]
		}
	}

	return shares
}
