package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/config"
	"github.com/example/warden/internal/db"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the warden state directory",
		Long: `Health check for the supervisor state in the current directory.

Validates:
- .warden/ exists
- config.json parses
- state files are valid JSON (or absent, which is fine)
- the journal database opens

Examples:
  warden doctor           # Run full health check
  warden doctor --quiet   # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			stateDir := config.StateDir(cwd)

			results := []CheckResult{
				checkStateDir(stateDir),
				checkConfig(cwd),
				checkStateFile(stateDir, "gear_state.json"),
				checkStateFile(stateDir, "junction_state.json"),
				checkJournal(stateDir),
			}

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				fmt.Println()
				fmt.Println("Check                  Status")
				fmt.Println("─────────────────────────────")
				for _, r := range results {
					fmt.Printf("%-22s %s\n", r.Name, r.Status)
				}
				fmt.Println()

				hasDetails := false
				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						if !hasDetails {
							fmt.Println("Details:")
							hasDetails = true
						}
						fmt.Printf("\n%s:\n%s\n", r.Name, r.Details)
					}
				}
			}

			if hasErrors {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&quiet, "quiet", false, "exit code only, no output")

	return cmd
}

func checkStateDir(stateDir string) CheckResult {
	result := CheckResult{Name: "State directory"}
	info, err := os.Stat(stateDir)
	if err != nil {
		result.Status = "✗"
		result.Details = fmt.Sprintf("%s missing - run `warden init`", stateDir)
		return result
	}
	if !info.IsDir() {
		result.Status = "✗"
		result.Details = fmt.Sprintf("%s exists but is not a directory", stateDir)
		return result
	}
	result.Status = "✓"
	return result
}

func checkConfig(cwd string) CheckResult {
	result := CheckResult{Name: "Config"}
	if _, err := config.LoadConfig(cwd); err != nil {
		// Missing config is fine, defaults apply
		if errors.Is(err, os.ErrNotExist) {
			result.Status = "⚠"
			result.Details = "no config.json, defaults in effect"
			return result
		}
		result.Status = "✗"
		result.Details = err.Error()
		return result
	}
	result.Status = "✓"
	return result
}

func checkStateFile(stateDir, name string) CheckResult {
	result := CheckResult{Name: name}
	data, err := os.ReadFile(filepath.Join(stateDir, name))
	if err != nil {
		// State files self-heal; absence just means first run
		result.Status = "⚠"
		result.Details = "not created yet"
		return result
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		result.Status = "⚠"
		result.Details = "corrupted, will reset to defaults on next use"
		return result
	}
	result.Status = "✓"
	return result
}

func checkJournal(stateDir string) CheckResult {
	result := CheckResult{Name: "Journal database"}
	database, err := db.Open(stateDir)
	if err != nil {
		result.Status = "✗"
		result.Details = err.Error()
		return result
	}
	defer database.Close()
	if err := database.Ping(); err != nil {
		result.Status = "✗"
		result.Details = err.Error()
		return result
	}
	result.Status = "✓"
	return result
}
