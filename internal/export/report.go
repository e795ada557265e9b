// Package export builds the downloadable ledger report and loads it back.
package export

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitbook/internal/calculator"
	"github.com/mmynk/splitbook/internal/models"
)

// Report is the JSON backup format. It carries the roster, every expense with
// its computed shares, and the balances and settlement plan at export time.
type Report struct {
	ExportDate  time.Time              `json:"exportDate"`
	Summary     Summary                `json:"summary"`
	Users       []models.Participant   `json:"users"`
	Expenses    []ExpenseEntry         `json:"expenses"`
	Balances    []models.MemberBalance `json:"balances"`
	Settlements []models.Settlement    `json:"settlements"`
}

// Summary holds ledger totals. Amounts are rounded to cents.
type Summary struct {
	TotalExpenses int     `json:"totalExpenses"`
	TotalAmount   float64 `json:"totalAmount"`
	PendingAmount float64 `json:"pendingAmount"`
	SettledAmount float64 `json:"settledAmount"`
	PendingCount  int     `json:"pendingCount"`
	SettledCount  int     `json:"settledCount"`
}

// ExpenseEntry is one expense with payer name and resolved shares.
type ExpenseEntry struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Amount      float64          `json:"amount"`
	PaidBy      string           `json:"paidBy"`
	PaidByName  string           `json:"paidByName"`
	Date        time.Time        `json:"date"`
	Status      models.Status    `json:"status"`
	SplitType   models.SplitType `json:"splitType"`
	Splits      []ShareEntry     `json:"splits"`
}

// ShareEntry is what one participant owes for an expense.
type ShareEntry struct {
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	Amount   float64 `json:"amount"`
}

// BuildReport assembles the report for the given roster and expenses.
// Expenses keep the order they are passed in.
func BuildReport(roster models.Roster, expenses []models.Expense, now time.Time) Report {
	report := Report{
		ExportDate:  now.UTC(),
		Users:       append([]models.Participant{}, roster...),
		Expenses:    make([]ExpenseEntry, 0, len(expenses)),
		Balances:    calculator.SummarizeMembers(expenses, roster),
		Settlements: calculator.PlanSettlements(calculator.CalculateBalances(expenses, roster)),
	}

	var total, pending, settled decimal.Decimal
	for _, e := range expenses {
		amount := decimal.NewFromFloat(e.Amount)
		total = total.Add(amount)
		if e.IsPending() {
			pending = pending.Add(amount)
			report.Summary.PendingCount++
		} else {
			settled = settled.Add(amount)
			report.Summary.SettledCount++
		}
		report.Expenses = append(report.Expenses, entryFor(e, roster))
	}

	report.Summary.TotalExpenses = len(expenses)
	report.Summary.TotalAmount = cents(total)
	report.Summary.PendingAmount = cents(pending)
	report.Summary.SettledAmount = cents(settled)
	return report
}

func entryFor(e models.Expense, roster models.Roster) ExpenseEntry {
	shares := calculator.CalculateSplit(e, roster)
	entry := ExpenseEntry{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		PaidBy:      e.PaidBy,
		PaidByName:  roster.NameOf(e.PaidBy),
		Date:        e.Date,
		Status:      e.Status,
		SplitType:   e.SplitOrEqual().Type(),
		Splits:      make([]ShareEntry, 0, len(shares)),
	}
	for _, id := range calculator.EffectiveParticipants(e, roster) {
		entry.Splits = append(entry.Splits, ShareEntry{
			UserID:   id,
			UserName: roster.NameOf(id),
			Amount:   cents(decimal.NewFromFloat(shares[id])),
		})
	}
	return entry
}

func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
