package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/wire"
)

// JournalCmd returns the journal command
func JournalCmd() *cobra.Command {
	var limit int
	var decisions bool

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent turn receipts from the session journal",
		Long: `Every dispatch turn leaves a receipt in the journal database, and
every resolved junction leaves an audit row. This command lists the
most recent ones.

Examples:
  warden journal
  warden journal --limit 50
  warden journal --decisions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			journal := wire.Journal()
			if journal == nil {
				fmt.Println("Journaling is disabled or unavailable.")
				return nil
			}

			if decisions {
				rows, err := journal.RecentDecisions(ctx, limit)
				if err != nil {
					return fmt.Errorf("failed to read decisions: %w", err)
				}
				if len(rows) == 0 {
					fmt.Println("No decisions recorded yet.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "JUNCTION\tTYPE\tDECISION\tWHEN")
				fmt.Fprintln(w, "--------\t----\t--------\t----")
				for _, d := range rows {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.JunctionID, d.JunctionType, d.Decision, d.DecidedAt)
				}
				w.Flush()
				return nil
			}

			rows, err := journal.RecentTurns(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to read turns: %w", err)
			}
			if len(rows) == 0 {
				fmt.Println("No turns recorded yet.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "MODE\tJUNCTION\tDECISION\tMESSAGE\tWHEN")
			fmt.Fprintln(w, "----\t--------\t--------\t-------\t----")
			for _, t := range rows {
				junction := t.JunctionType
				if junction == "" {
					junction = "-"
				}
				decision := t.Decision
				if decision == "" {
					decision = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.Mode, junction, decision, t.Message, t.CreatedAt)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows to show")
	cmd.Flags().BoolVar(&decisions, "decisions", false, "show the decision audit log instead of turn receipts")

	return cmd
}
