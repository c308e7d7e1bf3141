package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the supervisor state at a glance",
		Long: `Display the current supervisor state from .warden/ in the current
directory: operating gear, pending junction, and session counters.

This answers "where is the loop right now?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			state, err := wire.GearService().Current(ctx)
			if err != nil {
				return fmt.Errorf("failed to load gear state: %w", err)
			}

			fmt.Println("Warden Status")
			fmt.Println()
			fmt.Printf("Gear: %s (%d iteration(s) this gear)\n", modeColor(string(state.Mode)), state.Iterations)
			fmt.Printf("Session: %d iteration(s), %d finding(s), %d proposal(s)\n",
				state.SessionIterations,
				state.PatrolFindingsCount,
				state.DreamProposalsCount,
			)
			if state.NoProgressCount > 0 {
				fmt.Printf("No progress on %s for %d turn(s)\n", state.LastStepSignature, state.NoProgressCount)
			}
			fmt.Println()

			pending, err := wire.JunctionService().GetPending(ctx)
			if err != nil {
				return fmt.Errorf("failed to load junction: %w", err)
			}
			if pending == nil {
				fmt.Println("Junction: (none pending)")
				fmt.Println()
				fmt.Println("Run `warden run` to execute the next turn.")
				return nil
			}

			fmt.Printf("Junction: %s %s\n", junctionColor(string(pending.Type)), pending.ID)
			fmt.Printf("   %s\n", pending.Payload)
			fmt.Println()
			fmt.Println("Resolve with `warden junction approve|skip|dismiss|stop`.")
			return nil
		},
	}
}
