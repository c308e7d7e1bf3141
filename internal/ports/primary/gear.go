package primary

import (
	"context"

	"github.com/example/warden/internal/core/gear"
	"github.com/example/warden/internal/core/junction"
)

// GearService defines the primary port for the operating mode state
// machine.
type GearService interface {
	// Current returns the persisted gear state.
	Current(ctx context.Context) (gear.State, error)

	// Advance executes one step of the current mode's behavior and
	// returns what happened. Collaborator failures are data on the
	// result, not errors; mode is unchanged and iterations still
	// increment so stuck detection stays observable.
	Advance(ctx context.Context) (*AdvanceResult, error)

	// ExecuteTransition applies one of the five legal edges. Illegal
	// edges return gear.ErrInvalidTransition without mutation.
	ExecuteTransition(ctx context.Context, t gear.Transition) (gear.State, error)

	// SetQualityGateOverride records an explicit, objective-scoped human
	// approval to bypass the quality gate.
	SetQualityGateOverride(ctx context.Context, objectiveID, approvedBy string) (gear.State, error)
}

// AdvanceResult describes one executed gear step at the port boundary.
type AdvanceResult struct {
	Mode           gear.Mode
	Transitioned   bool
	TransitionedTo gear.Mode

	// StepSignature identifies the step that executed, for stuck
	// detection across turns.
	StepSignature  string
	StepsCompleted int

	// Junction verdict for the step's proposed action or output.
	// TypeNone means nothing paused.
	JunctionType    junction.Type
	JunctionReason  string
	JunctionSource  string
	JunctionPayload string

	// CollaboratorError carries a non-fatal external failure as data.
	CollaboratorError string

	Message string
}
