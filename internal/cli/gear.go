package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/core/gear"
	"github.com/example/warden/internal/wire"
)

// GearCmd returns the gear command
func GearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gear",
		Short: "Inspect and steer the operating mode state machine",
		Long: `The supervisor runs in one of three gears:
  ACTIVE - executing the next unfinished plan step
  PATROL - scanning for new issues
  DREAM  - consolidating knowledge and proposing objectives

Gears normally shift on their own. The subcommands here inspect the
current gear and record explicit human overrides.`,
	}

	cmd.AddCommand(gearShowCmd())
	cmd.AddCommand(gearShiftCmd())
	cmd.AddCommand(gearOverrideCmd())

	return cmd
}

func gearShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current gear state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			state, err := wire.GearService().Current(ctx)
			if err != nil {
				return fmt.Errorf("failed to load gear state: %w", err)
			}

			fmt.Printf("Gear: %s\n", modeColor(string(state.Mode)))
			fmt.Printf("Entered: %s\n", state.EnteredAt.Format("2006-01-02 15:04:05 MST"))
			fmt.Printf("Iterations this gear: %d\n", state.Iterations)
			if state.LastTransition != "" {
				fmt.Printf("Last shift: %s\n", state.LastTransition)
			}
			fmt.Println()
			fmt.Printf("Session iterations: %d\n", state.SessionIterations)
			fmt.Printf("Patrol findings: %d\n", state.PatrolFindingsCount)
			fmt.Printf("Dream proposals: %d\n", state.DreamProposalsCount)
			if state.QualityGateOverride != nil {
				fmt.Printf("Quality gate override: %s (by %s)\n",
					state.QualityGateOverride.ObjectiveID,
					state.QualityGateOverride.ApprovedBy,
				)
			}
			return nil
		},
	}
}

func gearShiftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shift [transition]",
		Short: "Apply a gear transition by hand",
		Long: `Apply one of the five legal transitions:
  ACTIVE->PATROL  PATROL->ACTIVE  PATROL->DREAM  ACTIVE->DREAM  DREAM->ACTIVE

Illegal transitions are rejected without changing state.

Examples:
  warden gear shift "ACTIVE->PATROL"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			state, err := wire.GearService().ExecuteTransition(ctx, gear.Transition(args[0]))
			if err != nil {
				return fmt.Errorf("shift rejected: %w", err)
			}

			fmt.Printf("✓ Shifted to %s\n", modeColor(string(state.Mode)))
			return nil
		},
	}
}

func gearOverrideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "override-quality-gate [objective-id]",
		Short: "Approve bypassing the quality gate for one objective",
		Long: `Record an explicit approval to complete the named objective even if
the quality gate fails. The override applies to that objective only and
is consumed when the objective completes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			approvedBy := os.Getenv("USER")
			state, err := wire.GearService().SetQualityGateOverride(ctx, args[0], approvedBy)
			if err != nil {
				return fmt.Errorf("failed to record override: %w", err)
			}

			fmt.Printf("✓ Quality gate override recorded for %s\n", state.QualityGateOverride.ObjectiveID)
			return nil
		},
	}
}
