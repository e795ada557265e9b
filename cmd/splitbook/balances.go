package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitbook/internal/calculator"
	"github.com/mmynk/splitbook/internal/cli"
)

func balancesCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show balances and the suggested settlements",
		Long: `Compute every member's net balance over the pending expenses and list the
payments that settle everyone up.`,
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
			expenses, err := store.ListExpenses(ctx)
			if err != nil {
				return fmt.Errorf("failed to list expenses: %w", err)
			}

			balances := calculator.CalculateBalances(expenses, roster)
			settlements := calculator.PlanSettlements(balances)
			members := calculator.SummarizeMembers(expenses, roster)

			if err := cli.RenderBalances(os.Stdout, roster, members, settlements); err != nil {
				return err
			}

			if unknown := calculator.UnknownParticipants(balances, roster); len(unknown) > 0 {
				fmt.Println()
				fmt.Println(cli.FormatWarning(fmt.Sprintf("%d pending expense participant(s) are no longer on the roster", len(unknown))))
			}

			if verify {
				remaining := calculator.ApplySettlements(balances, settlements)
				fmt.Println()
				if calculator.IsSettledUp(remaining) {
					fmt.Println(cli.FormatSuccess("After these payments everyone is settled up"))
				} else {
					fmt.Println(cli.FormatWarning("Balances do not fully net out; some residue remains after these payments"))
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "check that the suggested payments settle every balance")
	return cmd
}
