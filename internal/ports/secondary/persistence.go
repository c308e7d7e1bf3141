// Package secondary defines the secondary ports (driven adapters) for the
// application. These are the interfaces through which the application
// drives external systems.
package secondary

import (
	"context"

	"github.com/example/warden/internal/core/gear"
	"github.com/example/warden/internal/core/junction"
)

// GearStateRepository defines the secondary port for gear state
// persistence. Implementations must make Update a lock-protected
// read-modify-write cycle with atomic replace.
type GearStateRepository interface {
	// Load reads the current gear state. A missing or corrupted file
	// yields the default shape, never an error turn.
	Load(ctx context.Context) (gear.State, error)

	// Update applies fn to the freshly-loaded state under an exclusive
	// lock and persists the result atomically. Returns the persisted
	// state. An error from fn aborts without writing.
	Update(ctx context.Context, fn func(*gear.State) error) (gear.State, error)
}

// JunctionStateRepository defines the secondary port for junction state
// persistence. Same locking contract as GearStateRepository.
type JunctionStateRepository interface {
	Load(ctx context.Context) (junction.State, error)
	Update(ctx context.Context, fn func(*junction.State) error) (junction.State, error)

	// LoadLegacy reads the prior-schema state file, if one exists.
	// Returns (nil, nil) when there is no legacy file. The legacy file
	// is never written by the current implementation.
	LoadLegacy(ctx context.Context) (*LegacyState, error)
}

// LegacyState is the prior-schema session file shape. Only the junction
// marker fields are read; everything else is ignored.
type LegacyState struct {
	SchemaVersion    int    `json:"schema_version,omitempty"`
	AwaitingDecision bool   `json:"awaiting_decision"`
	JunctionType     string `json:"junction_type,omitempty"`
	JunctionPrompt   string `json:"junction_prompt,omitempty"`
	JunctionSource   string `json:"junction_source,omitempty"`
}

// TurnJournal defines the secondary port for session-level reporting.
// Journal writes are best-effort: callers degrade to a warning on error.
type TurnJournal interface {
	// RecordTurn persists a turn receipt.
	RecordTurn(ctx context.Context, receipt *TurnReceiptRecord) error

	// RecordDecision persists a human decision audit row.
	RecordDecision(ctx context.Context, decision *DecisionLogRecord) error

	// RecentTurns retrieves the most recent receipts, newest first.
	RecentTurns(ctx context.Context, limit int) ([]*TurnReceiptRecord, error)

	// RecentDecisions retrieves the most recent decisions, newest first.
	RecentDecisions(ctx context.Context, limit int) ([]*DecisionLogRecord, error)
}

// TurnReceiptRecord represents one dispatch turn as stored in the journal.
type TurnReceiptRecord struct {
	ID             string
	Mode           string
	TransitionedTo string
	JunctionID     string
	JunctionType   string
	JunctionReason string
	Decision       string
	ContinueLoop   bool
	Message        string
	CreatedAt      string
}

// DecisionLogRecord represents one human decision as stored in the journal.
type DecisionLogRecord struct {
	ID           string
	JunctionID   string
	JunctionType string
	Decision     string
	Payload      string
	DecidedAt    string
}
