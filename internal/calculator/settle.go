package calculator

import (
	"cmp"
	"math"
	"slices"

	"github.com/mmynk/splitbook/internal/models"
)

type memberAmount struct {
	id     string
	amount float64 // remaining balance, signed
}

// PlanSettlements turns net balances into a list of payments that brings
// every balance to zero within models.Tolerance.
//
// Greedy two-pointer matching:
// - creditors (balance > ε) sorted largest first, debtors (balance < -ε)
// sorted most negative first; ties are ordered by ID
// - each step settles min(credit, |debt|) between the current pair and
// advances whichever side is paid off
//
// The plan is not guaranteed to have the fewest possible payments. If credits
// and debits don't balance, the leftover is dropped silently.
func PlanSettlements(balances models.Balances) []models.Settlement {
	var creditors, debtors []memberAmount
	for id, bal := range balances {
		switch {
		case bal > models.Tolerance:
			creditors = append(creditors, memberAmount{id: id, amount: bal})
		case bal < -models.Tolerance:
			debtors = append(debtors, memberAmount{id: id, amount: bal})
		}
	}

	slices.SortFunc(creditors, func(a, b memberAmount) int {
		if c := cmp.Compare(b.amount, a.amount); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	slices.SortFunc(debtors, func(a, b memberAmount) int {
		if c := cmp.Compare(a.amount, b.amount); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	settlements := []models.Settlement{}
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		creditor := &creditors[i]
		debtor := &debtors[j]

		amount := math.Min(creditor.amount, math.Abs(debtor.amount))
		if amount > models.Tolerance {
			settlements = append(settlements, models.Settlement{
				From:   debtor.id,
				To:     creditor.id,
				Amount: amount,
			})
		}

		creditor.amount -= amount
		debtor.amount += amount

		if creditor.amount <= models.Tolerance {
			i++
		}
		if debtor.amount >= -models.Tolerance {
			j++
		}
		// No progress possible; stop instead of spinning.
		if amount <= models.Tolerance {
			break
		}
	}

	return settlements
}

// ApplySettlements returns a copy of balances with every payment applied:
// the payer's balance rises and the receiver's falls by the amount.
func ApplySettlements(balances models.Balances, settlements []models.Settlement) models.Balances {
	out := balances.Clone()
	for _, s := range settlements {
		out[s.From] += s.Amount
		out[s.To] -= s.Amount
	}
	return out
}

// IsSettledUp reports whether every balance is within models.Tolerance of 0.
func IsSettledUp(balances models.Balances) bool {
	for _, bal := range balances {
		if math.Abs(bal) > models.Tolerance {
			return false
		}
	}
	return true
}
