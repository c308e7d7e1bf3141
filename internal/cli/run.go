package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/wire"
)

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	var (
		loop            bool
		decision        string
		suppressMinutes int
		asJSON          bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one dispatch turn (or loop until a pause)",
		Long: `Execute one turn of the supervisor loop: apply a decision if one is
given, surface any pending junction, otherwise advance the gear state
machine by one step.

With --loop, turns repeat until a junction pauses the loop, the
iteration cap fires, or a stop decision lands.

Examples:
  warden run
  warden run --decision approve
  warden run --decision dismiss --suppress 30
  warden run --loop`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			req := primary.TurnRequest{
				Decision:        decision,
				SuppressMinutes: suppressMinutes,
			}

			for {
				result, err := wire.DispatchService().RunTurn(ctx, req)
				if err != nil {
					return fmt.Errorf("turn failed: %w", err)
				}

				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					if err := enc.Encode(result); err != nil {
						return err
					}
				} else {
					printTurnResult(result)
				}

				if !loop || !result.ContinueLoop {
					return nil
				}
				// The decision only applies to the first turn of a loop
				req = primary.TurnRequest{}
			}
		},
	}

	cmd.Flags().BoolVar(&loop, "loop", false, "keep running turns until the loop pauses or stops")
	cmd.Flags().StringVar(&decision, "decision", "", "respond to the pending junction: approve, skip, dismiss, or stop")
	cmd.Flags().IntVar(&suppressMinutes, "suppress", 0, "suppression window in minutes for a dismiss decision")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the turn result as JSON")

	return cmd
}

func printTurnResult(result *primary.TurnResult) {
	if result.Mode != "" {
		fmt.Printf("Mode: %s\n", modeColor(string(result.Mode)))
	}
	if result.Transitioned {
		fmt.Printf("Shifted to %s\n", modeColor(string(result.TransitionedTo)))
	}
	if result.JunctionHit {
		fmt.Printf("%s %s\n", junctionColor(string(result.JunctionType)), result.Message)
	} else {
		fmt.Println(result.Message)
	}
	if result.Warning != "" {
		color.New(color.FgYellow).Printf("warning: %s\n", result.Warning)
	}
	if result.Stopped {
		fmt.Println("Loop stopped.")
	}
}

func modeColor(mode string) string {
	switch mode {
	case "ACTIVE":
		return color.New(color.FgHiGreen).Sprint(mode)
	case "PATROL":
		return color.New(color.FgHiBlue).Sprint(mode)
	case "DREAM":
		return color.New(color.FgHiMagenta).Sprint(mode)
	default:
		return mode
	}
}

func junctionColor(typ string) string {
	switch typ {
	case "IRREVERSIBLE":
		return color.New(color.FgRed).Sprintf("[%s]", typ)
	case "EXTERNAL":
		return color.New(color.FgYellow).Sprintf("[%s]", typ)
	case "BLOCKED":
		return color.New(color.FgHiRed).Sprintf("[%s]", typ)
	case "AMBIGUOUS":
		return color.New(color.FgHiCyan).Sprintf("[%s]", typ)
	default:
		return fmt.Sprintf("[%s]", typ)
	}
}
