package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/mmynk/splitbook/internal/models"
)

// Money formats an amount with two decimals.
func Money(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// netStyle colors a net balance: green when owed, red when owing.
func netStyle(net float64) string {
	switch {
	case net > models.Tolerance:
		return CreditStyle.Render("+" + Money(net))
	case net < -models.Tolerance:
		return DebitStyle.Render(Money(net))
	default:
		return SubtleStyle.Render(Money(math.Abs(net)))
	}
}

// RenderBalances writes the member table followed by the settlement plan.
func RenderBalances(w io.Writer, roster models.Roster, members []models.MemberBalance, settlements []models.Settlement) error {
	fmt.Fprintln(w, FormatTitle("Balances"))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("Member"),
		HeaderStyle.Render("Paid"),
		HeaderStyle.Render("Share"),
		HeaderStyle.Render("Net"))
	for _, mb := range members {
		name := roster.NameOf(mb.ParticipantID)
		if !roster.Contains(mb.ParticipantID) {
			name += SubtleStyle.Render(" (removed)")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, Money(mb.Paid), Money(mb.Owed), netStyle(mb.Net))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	return RenderSettlements(w, roster, settlements)
}

// RenderSettlements writes one line per transfer, or a settled-up message.
func RenderSettlements(w io.Writer, roster models.Roster, settlements []models.Settlement) error {
	fmt.Fprintln(w, FormatTitle("Settlements"))
	if len(settlements) == 0 {
		_, err := fmt.Fprintln(w, FormatSuccess("Everyone is settled up"))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, s := range settlements {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			roster.NameOf(s.From), ArrowIcon, roster.NameOf(s.To), Money(s.Amount))
	}
	return tw.Flush()
}

// RenderParticipants writes the roster.
func RenderParticipants(w io.Writer, roster models.Roster) error {
	if len(roster) == 0 {
		_, err := fmt.Fprintln(w, SubtleStyle.Render("No participants yet. Use 'splitbook participants add <name>'."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n", HeaderStyle.Render("ID"), HeaderStyle.Render("Name"), HeaderStyle.Render("Color"))
	for _, p := range roster {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.Color)
	}
	return tw.Flush()
}

// RenderExpenses writes one row per expense.
func RenderExpenses(w io.Writer, roster models.Roster, expenses []models.Expense) error {
	if len(expenses) == 0 {
		_, err := fmt.Fprintln(w, SubtleStyle.Render("No expenses recorded."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("ID"),
		HeaderStyle.Render("Date"),
		HeaderStyle.Render("Description"),
		HeaderStyle.Render("Amount"),
		HeaderStyle.Render("Paid By"),
		HeaderStyle.Render("Split"),
		HeaderStyle.Render("Status"))
	for _, e := range expenses {
		status := string(e.Status)
		if !e.IsPending() {
			status = SubtleStyle.Render(status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(e.ID),
			e.Date.Format("2006-01-02"),
			e.Description,
			Money(e.Amount),
			roster.NameOf(e.PaidBy),
			e.SplitOrEqual().Type(),
			status)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
