package primary

import (
	"context"

	"github.com/example/warden/internal/core/gear"
	"github.com/example/warden/internal/core/junction"
)

// DispatchService is the single entry point invoked once per
// external-agent turn.
type DispatchService interface {
	// RunTurn applies an optional human decision, then either surfaces
	// the pending junction or advances the gear state machine one step.
	// It never panics across this boundary: unexpected gear errors are
	// caught and surfaced on TurnResult.Warning.
	RunTurn(ctx context.Context, req TurnRequest) (*TurnResult, error)
}

// TurnRequest carries the caller's optional response to a previously
// surfaced junction.
type TurnRequest struct {
	// Decision is empty or one of approve/skip/dismiss/stop ("off" is
	// accepted as stop).
	Decision string

	// SuppressMinutes sizes the dismiss suppression window; <=0 uses the
	// configured default.
	SuppressMinutes int
}

// TurnResult is the structured record returned to the host every turn.
type TurnResult struct {
	Mode           gear.Mode     `json:"mode"`
	Transitioned   bool          `json:"transitioned"`
	TransitionedTo gear.Mode     `json:"transitioned_to,omitempty"`
	JunctionHit    bool          `json:"junction_hit"`
	JunctionID     string        `json:"junction_id,omitempty"`
	JunctionType   junction.Type `json:"junction_type,omitempty"`
	JunctionReason string        `json:"junction_reason,omitempty"`
	ContinueLoop   bool          `json:"continue_loop"`
	Stopped        bool          `json:"stopped"`
	Message        string        `json:"message"`
	Warning        string        `json:"warning,omitempty"`
}
