package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitbook/internal/cli"
	"github.com/mmynk/splitbook/internal/export"
)

func exportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger as JSON or CSV",
		Long: `Write a report of every participant and expense, with computed shares,
balances and settlements. JSON reports can be loaded back with 'splitbook import'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "csv" {
				return fmt.Errorf("invalid format %q: must be json or csv", format)
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
			report := export.BuildReport(roster, expenses, time.Now())

			var w io.Writer = os.Stdout
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if format == "csv" {
				err = export.WriteCSV(w, report)
			} else {
				err = export.WriteJSON(w, report)
			}
			if err != nil {
				return err
			}

			if w != os.Stdout {
				fmt.Fprintln(os.Stderr, cli.FormatSuccess(fmt.Sprintf("Exported %d expenses to %s", report.Summary.TotalExpenses, output)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <report.json>",
		Short: "Import a JSON report written by 'splitbook export'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open report: %w", err)
			}
			defer f.Close()

			report, err := export.ReadJSON(f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := export.Import(ctx, store, report)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Imported %d participants, %d new and %d updated expenses",
				result.Participants, result.Created, result.Updated,
			)))
			return nil
		},
	}
}
