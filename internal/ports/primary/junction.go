// Package primary defines the primary ports (driving adapters) for the
// application. These are the interfaces the CLI and host orchestrator
// call into.
package primary

import (
	"context"

	"github.com/example/warden/internal/core/junction"
)

// JunctionService defines the primary port for decision-point management.
// It is the single source of truth for "is a decision pending."
type JunctionService interface {
	// SetPending records a new pending junction, overwriting any prior
	// pending record (last writer wins). reason is the classifier's
	// matched-rule text; source names which check raised it. When an
	// unexpired suppression entry matches the (type, payload)
	// fingerprint, the junction is auto-resolved as dismissed instead
	// and Suppressed is true.
	SetPending(ctx context.Context, typ junction.Type, payload, reason, source string) (*PendingResult, error)

	// GetPending returns the pending record, or nil when none. The only
	// write it may perform is first-observation legacy migration.
	GetPending(ctx context.Context) (*junction.Record, error)

	// ClearPending resolves the pending junction with a decision, moving
	// it into the history tail. A dismiss decision adds a suppression
	// entry expiring suppressMinutes from now (<=0 means the default).
	// Returns nil without mutation when nothing is pending.
	ClearPending(ctx context.Context, decision junction.Decision, suppressMinutes int) (*junction.Record, error)

	// History returns the bounded decision history, most-recent-last.
	History(ctx context.Context) ([]junction.HistoryEntry, error)

	// Migrate imports a legacy-format open junction marker into the
	// current schema. Idempotent; returns true when a record was
	// migrated on this call.
	Migrate(ctx context.Context) (bool, error)
}

// PendingResult is the outcome of SetPending.
type PendingResult struct {
	Record     junction.Record
	Suppressed bool // auto-resolved by an active suppression window
}
