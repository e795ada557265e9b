package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitbook/internal/cli"
	"github.com/mmynk/splitbook/internal/models"
	"github.com/mmynk/splitbook/internal/storage"
)

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Record and manage expenses",
	}

	cmd.AddCommand(listExpensesCmd())
	cmd.AddCommand(addExpenseCmd())
	cmd.AddCommand(setStatusCmd("settle", "Mark an expense as settled", models.StatusSettled))
	cmd.AddCommand(setStatusCmd("reopen", "Mark a settled expense as pending again", models.StatusPending))
	cmd.AddCommand(settleAllCmd())
	cmd.AddCommand(deleteExpenseCmd())

	return cmd
}

func listExpensesCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := models.Status(status)
			if filter != "" && !filter.Valid() {
				return models.ErrInvalidStatus
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			roster, err := store.ListParticipants(ctx)
			if err != nil {
				return fmt.Errorf("failed to list participants: %w", err)
			}
			expenses, err := store.ListExpenses(ctx)
			if err != nil {
				return fmt.Errorf("failed to list expenses: %w", err)
			}

			if filter != "" {
				filtered := expenses[:0]
				for _, e := range expenses {
					if e.Status == filter {
						filtered = append(filtered, e)
					}
				}
				expenses = filtered
			}

			return cli.RenderExpenses(os.Stdout, roster, expenses)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only show pending or settled expenses")
	return cmd
}

func addExpenseCmd() *cobra.Command {
	var (
		description string
		amount      float64
		paidBy      string
		with        []string
		shares      []string
		date        string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new expense",
		Long: `Record a new pending expense.

Without --with the whole roster shares it. --share name=amount switches to a
custom split; the shares must add up to the amount.`,
		Example: `  splitbook expenses add -d Groceries -a 42.50 -p alice
  splitbook expenses add -d Hotel -a 200 -p bob --share alice=150 --share bob=50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			roster, err := store.ListParticipants(ctx)
			if err != nil {
				return fmt.Errorf("failed to list participants: %w", err)
			}

			e, err := buildExpense(roster, description, amount, paidBy, with, shares, date)
			if err != nil {
				return err
			}
			if err := e.Validate(); err != nil {
				return err
			}
			if err := roster.ValidateExpense(e); err != nil {
				return err
			}

			if err := store.CreateExpense(ctx, &e); err != nil {
				return fmt.Errorf("failed to create expense: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %s: %s paid %s", e.Description, roster.NameOf(e.PaidBy), cli.Money(e.Amount))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "what the expense was for")
	cmd.Flags().Float64VarP(&amount, "amount", "a", 0, "total amount paid")
	cmd.Flags().StringVarP(&paidBy, "paid-by", "p", "", "participant who paid (id or name)")
	cmd.Flags().StringSliceVarP(&with, "with", "w", nil, "participants sharing the cost (default: everyone)")
	cmd.Flags().StringArrayVar(&shares, "share", nil, "custom share as participant=amount, repeatable")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("paid-by")

	return cmd
}

// buildExpense turns command-line values into an expense. Participant
// references may be IDs or names.
func buildExpense(roster models.Roster, description string, amount float64, paidBy string, with, shares []string, date string) (models.Expense, error) {
	e := models.Expense{
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Split:       models.EqualSplit{},
		Status:      models.StatusPending,
		Date:        time.Now().UTC().Truncate(24 * time.Hour),
	}

	var err error
	if e.PaidBy, err = resolveParticipant(roster, paidBy); err != nil {
		return e, err
	}

	for _, ref := range with {
		id, err := resolveParticipant(roster, ref)
		if err != nil {
			return e, err
		}
		e.Participants = append(e.Participants, id)
	}

	if len(shares) > 0 {
		custom := models.CustomSplit{Shares: make(map[string]float64, len(shares))}
		for _, s := range shares {
			ref, value, ok := strings.Cut(s, "=")
			if !ok {
				return e, fmt.Errorf("invalid share %q: expected participant=amount", s)
			}
			id, err := resolveParticipant(roster, ref)
			if err != nil {
				return e, err
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return e, fmt.Errorf("invalid share amount %q: %w", value, err)
			}
			custom.Shares[id] += v
			if len(with) == 0 && !slices.Contains(e.Participants, id) {
				e.Participants = append(e.Participants, id)
			}
		}
		e.Split = custom
	}

	if date != "" {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return e, fmt.Errorf("invalid date %q: %w", date, err)
		}
		e.Date = d
	}

	return e, nil
}

func setStatusCmd(use, short string, status models.Status) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			e, err := findExpense(ctx, store, args[0])
			if err != nil {
				return err
			}
			e.Status = status
			if err := store.UpdateExpense(ctx, e); err != nil {
				return fmt.Errorf("failed to update expense: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s is now %s", e.Description, status)))
			return nil
		},
	}
}

func settleAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settle-all",
		Short: "Mark every pending expense as settled",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			expenses, err := store.ListExpenses(ctx)
			if err != nil {
				return fmt.Errorf("failed to list expenses: %w", err)
			}

			settled := 0
			for i := range expenses {
				if !expenses[i].IsPending() {
					continue
				}
				expenses[i].Status = models.StatusSettled
				if err := store.UpdateExpense(ctx, &expenses[i]); err != nil {
					return fmt.Errorf("failed to settle expense %s: %w", expenses[i].ID, err)
				}
				settled++
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Settled %d expenses", settled)))
			return nil
		},
	}
}

func deleteExpenseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			e, err := findExpense(ctx, store, args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteExpense(ctx, e.ID); err != nil {
				return fmt.Errorf("failed to delete expense: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Deleted " + e.Description))
			return nil
		},
	}
}

// findExpense looks an expense up by full ID or by the short prefix shown in
// 'expenses list'.
func findExpense(ctx context.Context, store storage.Store, ref string) (*models.Expense, error) {
	if e, err := store.GetExpense(ctx, ref); err == nil {
		return e, nil
	}

	expenses, err := store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var match *models.Expense
	for i := range expenses {
		if strings.HasPrefix(expenses[i].ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("expense prefix %q is ambiguous", ref)
			}
			match = &expenses[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("expense %s: %w", ref, storage.ErrNotFound)
	}
	return match, nil
}
