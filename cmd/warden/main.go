package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/cli"
	"github.com/example/warden/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "warden",
		Short:   "Warden - supervisor control core for autonomous task loops",
		Version: version.String(),
		Long: `Warden is the control core for an autonomous task-execution loop.
It tracks the operating gear (ACTIVE, PATROL, DREAM), pauses at
junctions that need a human decision, and keeps all state in
lock-protected files under .warden/.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.JunctionCmd())
	rootCmd.AddCommand(cli.GearCmd())
	rootCmd.AddCommand(cli.JournalCmd())
	rootCmd.AddCommand(cli.MigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
