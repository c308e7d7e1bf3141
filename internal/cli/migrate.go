package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/wire"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Import a legacy state.json junction marker",
		Long: `Read the prior-schema state.json and import its open junction marker,
if any, into the current junction state. Safe to run repeatedly: a
marker already imported or already decided is never imported twice.

The legacy file itself is left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			migrated, err := wire.JunctionService().Migrate(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			if !migrated {
				fmt.Println("Nothing to migrate.")
				return nil
			}

			fmt.Println("✓ Legacy junction imported")
			fmt.Println("Run `warden junction show` to review it.")
			return nil
		},
	}
}
