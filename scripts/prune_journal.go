//go:build ignore
// +build ignore

// One-off maintenance script: prune old rows from the session journal.
//
// Usage:
//
//	go run scripts/prune_journal.go -state-dir .warden -keep-days 30
//	go run scripts/prune_journal.go -state-dir .warden -keep-days 30 -dry-run
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	stateDir := flag.String("state-dir", ".warden", "state directory holding journal.db")
	keepDays := flag.Int("keep-days", 30, "keep rows newer than this many days")
	dryRun := flag.Bool("dry-run", false, "report what would be deleted without deleting")
	flag.Parse()

	if *keepDays <= 0 {
		fmt.Fprintln(os.Stderr, "keep-days must be positive")
		os.Exit(1)
	}

	dbPath := filepath.Join(*stateDir, "journal.db")
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "no journal at %s\n", dbPath)
		os.Exit(1)
	}

	database, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open journal: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cutoff := fmt.Sprintf("-%d days", *keepDays)

	for _, table := range []struct {
		name   string
		column string
	}{
		{"turn_receipts", "created_at"},
		{"decision_log", "decided_at"},
	} {
		var stale int
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s < datetime('now', ?)", table.name, table.column)
		if err := database.QueryRow(countQuery, cutoff).Scan(&stale); err != nil {
			fmt.Fprintf(os.Stderr, "failed to count %s: %v\n", table.name, err)
			os.Exit(1)
		}

		if *dryRun {
			fmt.Printf("%s: %d stale row(s) would be deleted\n", table.name, stale)
			continue
		}

		deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE %s < datetime('now', ?)", table.name, table.column)
		if _, err := database.Exec(deleteQuery, cutoff); err != nil {
			fmt.Fprintf(os.Stderr, "failed to prune %s: %v\n", table.name, err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d row(s) deleted\n", table.name, stale)
	}

	if !*dryRun {
		if _, err := database.Exec("VACUUM"); err != nil {
			fmt.Fprintf(os.Stderr, "vacuum failed: %v\n", err)
			os.Exit(1)
		}
	}
}
