package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/config"
	"github.com/example/warden/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the warden state directory",
		Long: `Initialize .warden/ in the current directory with the default
configuration and the session journal database.

State files (gear_state.json, junction_state.json) are created lazily on
first use and self-heal if corrupted, so init only lays down what needs
explicit content.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			stateDir := config.StateDir(cwd)

			if err := os.MkdirAll(stateDir, 0755); err != nil {
				return fmt.Errorf("failed to create state directory: %w", err)
			}
			fmt.Printf("Initializing warden state at %s\n", stateDir)

			configPath := filepath.Join(stateDir, "config.json")
			if _, err := os.Stat(configPath); err == nil {
				fmt.Println("✓ Config already exists, leaving it alone")
			} else {
				if err := config.SaveConfig(cwd, config.DefaultConfig()); err != nil {
					return fmt.Errorf("failed to write config: %w", err)
				}
				fmt.Println("✓ Default config written to config.json")
			}

			database, err := db.Open(stateDir)
			if err != nil {
				return fmt.Errorf("failed to initialize journal: %w", err)
			}
			defer database.Close()
			fmt.Printf("✓ Journal database ready at %s\n", db.FileName)

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  warden status")
			fmt.Println("  warden run")
			return nil
		},
	}
}
