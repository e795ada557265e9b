package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitbook/internal/cli"
	"github.com/mmynk/splitbook/internal/models"
)

func participantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "participants",
		Aliases: []string{"people"},
		Short:   "Manage the roster",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all participants",
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
			return cli.RenderParticipants(os.Stdout, roster)
		},
	})

	var color string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a participant",
		Args:  cobra.ExactArgs(1),
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

			p := models.Participant{Name: strings.TrimSpace(args[0]), Color: color}
			if err := p.Validate(); err != nil {
				return err
			}
			if p.Color == "" {
				p.Color = roster.NextColor()
			}
			if err := store.SaveParticipant(ctx, &p); err != nil {
				return fmt.Errorf("failed to save participant: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added %s (%s)", p.Name, p.ID)))
			return nil
		},
	}
	add.Flags().StringVar(&color, "color", "", "display color (default: next palette color)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id|name>",
		Short: "Remove a participant; their expenses are kept",
		Args:  cobra.ExactArgs(1),
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
			id, err := resolveParticipant(roster, args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteParticipant(ctx, id); err != nil {
				return fmt.Errorf("failed to remove participant: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Removed " + roster.NameOf(id)))
			return nil
		},
	})

	return cmd
}

// resolveParticipant accepts a participant ID or a case-insensitive name.
func resolveParticipant(roster models.Roster, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if roster.Contains(ref) {
		return ref, nil
	}

	var matches []string
	for _, p := range roster {
		if strings.EqualFold(p.Name, ref) {
			matches = append(matches, p.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("%w: %q", models.ErrUnknownParticipant, ref)
	default:
		return "", fmt.Errorf("name %q is ambiguous, use one of the IDs %v", ref, matches)
	}
}
