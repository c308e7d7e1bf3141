package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/core/junction"
	"github.com/example/warden/internal/wire"
)

// JunctionCmd returns the junction command
func JunctionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "junction",
		Short: "Inspect and resolve pending decision points",
		Long: `A junction is a point where autonomous execution paused for a human
decision: an irreversible command, an external call, an ambiguous
choice, or an explicit blocker.

Exactly one junction can be pending at a time. Resolve it with approve,
skip, dismiss, or stop.`,
	}

	cmd.AddCommand(junctionShowCmd())
	cmd.AddCommand(junctionDecideCmd("approve", "Approve the pending action and continue"))
	cmd.AddCommand(junctionDecideCmd("skip", "Skip the pending action and continue"))
	cmd.AddCommand(junctionDismissCmd())
	cmd.AddCommand(junctionDecideCmd("stop", "Resolve the junction and stop autonomous looping"))
	cmd.AddCommand(junctionHistoryCmd())

	return cmd
}

func junctionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the pending junction, if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pending, err := wire.JunctionService().GetPending(ctx)
			if err != nil {
				return fmt.Errorf("failed to load junction: %w", err)
			}
			if pending == nil {
				fmt.Println("No junction pending.")
				return nil
			}

			fmt.Printf("Junction: %s\n", pending.ID)
			fmt.Printf("Type: %s\n", junctionColor(string(pending.Type)))
			if pending.Reason != "" {
				fmt.Printf("Reason: %s\n", pending.Reason)
			}
			fmt.Printf("Source: %s\n", pending.Source)
			fmt.Printf("Created: %s\n", pending.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			fmt.Println()
			fmt.Println(pending.Payload)
			fmt.Println()
			fmt.Println("Resolve with: warden junction approve|skip|dismiss|stop")
			return nil
		},
	}
}

func junctionDecideCmd(decision, short string) *cobra.Command {
	return &cobra.Command{
		Use:   decision,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolveJunction(decision, 0)
		},
	}
}

func junctionDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss [minutes]",
		Short: "Dismiss the pending junction and suppress repeats",
		Long: `Dismiss the pending junction. Identical junctions (same type and
payload) raised within the suppression window are auto-dismissed
instead of pausing again.

The optional minutes argument sizes the window; the configured default
applies otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes := 0
			if len(args) == 1 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil || parsed <= 0 {
					return fmt.Errorf("invalid suppression minutes %q", args[0])
				}
				minutes = parsed
			}
			return resolveJunction("dismiss", minutes)
		},
	}
}

func resolveJunction(decisionArg string, suppressMinutes int) error {
	ctx := context.Background()

	decision, ok := junction.ParseDecision(decisionArg)
	if !ok {
		return fmt.Errorf("unknown decision %q", decisionArg)
	}

	cleared, err := wire.JunctionService().ClearPending(ctx, decision, suppressMinutes)
	if err != nil {
		return fmt.Errorf("failed to resolve junction: %w", err)
	}
	if cleared == nil {
		fmt.Println("No junction pending.")
		return nil
	}

	fmt.Printf("✓ Junction %s resolved: %s\n", cleared.ID, decision)
	if decision == junction.DecisionDismiss {
		fmt.Println("Identical junctions will be auto-dismissed while the window lasts.")
	}
	return nil
}

func junctionHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show recently resolved junctions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			entries, err := wire.JunctionService().History(ctx)
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("No resolved junctions yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tDECISION\tDECIDED")
			fmt.Fprintln(w, "--\t----\t--------\t-------")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					e.ID,
					e.Type,
					e.Decision,
					e.DecidedAt.Format("2006-01-02 15:04"),
				)
			}
			w.Flush()
			return nil
		},
	}
}
