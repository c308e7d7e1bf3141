// Package gear contains the pure business logic for the operating mode
// state machine. This is part of the Functional Core - no I/O, only pure
// functions.
package gear

import (
	"errors"
	"fmt"
	"time"
)

// Mode represents the supervisor's operating mode.
type Mode string

const (
	// ModeActive executes the next unfinished plan step.
	ModeActive Mode = "ACTIVE"
	// ModePatrol scans for new issues when no step is unfinished.
	ModePatrol Mode = "PATROL"
	// ModeDream consolidates knowledge and proposes new objectives.
	ModeDream Mode = "DREAM"
)

// Valid reports whether m is one of the three known modes.
func (m Mode) Valid() bool {
	return m == ModeActive || m == ModePatrol || m == ModeDream
}

// Transition is one of the five legal mode-to-mode edges.
type Transition string

const (
	TransitionActiveToPatrol Transition = "ACTIVE->PATROL"
	TransitionPatrolToActive Transition = "PATROL->ACTIVE"
	TransitionPatrolToDream  Transition = "PATROL->DREAM"
	TransitionActiveToDream  Transition = "ACTIVE->DREAM"
	TransitionDreamToActive  Transition = "DREAM->ACTIVE"
)

// edge describes the endpoints of a legal transition.
type edge struct {
	from Mode
	to   Mode
}

var legalEdges = map[Transition]edge{
	TransitionActiveToPatrol: {ModeActive, ModePatrol},
	TransitionPatrolToActive: {ModePatrol, ModeActive},
	TransitionPatrolToDream:  {ModePatrol, ModeDream},
	TransitionActiveToDream:  {ModeActive, ModeDream},
	TransitionDreamToActive:  {ModeDream, ModeActive},
}

// ErrInvalidTransition is returned for any (from, to) pair that is not one
// of the five legal edges. State is never mutated on rejection.
var ErrInvalidTransition = errors.New("invalid gear transition")

// FindTransition returns the legal transition from one mode to another,
// or false when the edge does not exist.
func FindTransition(from, to Mode) (Transition, bool) {
	for t, e := range legalEdges {
		if e.from == from && e.to == to {
			return t, true
		}
	}
	return "", false
}

// Target returns the destination mode of a transition.
func (t Transition) Target() (Mode, bool) {
	e, ok := legalEdges[t]
	if !ok {
		return "", false
	}
	return e.to, true
}

// QualityGateOverride records an explicit human approval to bypass the
// quality gate for one objective. Never inferred.
type QualityGateOverride struct {
	ObjectiveID string    `json:"objective_id"`
	ApprovedBy  string    `json:"approved_by,omitempty"`
	ApprovedAt  time.Time `json:"approved_at"`
}

// SchemaVersion is the current on-disk gear state schema.
const SchemaVersion = 2

// State is the operating mode record. Exactly one exists per session.
// Cumulative counters survive transitions; iterations resets on every
// transition. The dispatch-loop bookkeeping fields (session iterations,
// stuck tracking, patrol idle passes) live in the same aggregate so a
// single lock covers them.
type State struct {
	SchemaVersion       int                  `json:"schema_version"`
	Mode                Mode                 `json:"mode"`
	EnteredAt           time.Time            `json:"entered_at"`
	Iterations          int                  `json:"iterations"`
	LastTransition      Transition           `json:"last_transition,omitempty"`
	PatrolFindingsCount int                  `json:"patrol_findings_count"`
	DreamProposalsCount int                  `json:"dream_proposals_count"`
	QualityGateOverride *QualityGateOverride `json:"quality_gate_override,omitempty"`

	SessionIterations int    `json:"session_iterations"`
	NoProgressCount   int    `json:"no_progress_count"`
	LastStepSignature string `json:"last_step_signature,omitempty"`
	PatrolIdlePasses  int    `json:"patrol_idle_passes"`
}

// NewState returns the default state shape: ACTIVE with zeroed counters.
func NewState(now time.Time) State {
	return State{
		SchemaVersion: SchemaVersion,
		Mode:          ModeActive,
		EnteredAt:     now,
	}
}

// ApplyTransition validates the edge and returns the post-transition
// state: target mode, iterations reset to zero, last_transition recorded,
// cumulative counters preserved. An illegal edge returns
// ErrInvalidTransition and the input state untouched.
func ApplyTransition(s State, t Transition, now time.Time) (State, error) {
	e, ok := legalEdges[t]
	if !ok {
		return s, fmt.Errorf("%w: unknown transition %q", ErrInvalidTransition, t)
	}
	if s.Mode != e.from {
		return s, fmt.Errorf("%w: %s requires mode %s, current mode is %s", ErrInvalidTransition, t, e.from, s.Mode)
	}

	s.Mode = e.to
	s.EnteredAt = now
	s.Iterations = 0
	s.LastTransition = t
	if e.to != ModePatrol {
		s.PatrolIdlePasses = 0
	}
	return s, nil
}

// OverrideApplies reports whether a quality gate override is set for the
// given objective.
func (s State) OverrideApplies(objectiveID string) bool {
	return s.QualityGateOverride != nil && s.QualityGateOverride.ObjectiveID == objectiveID
}

// PlanSnapshot is the external plan/objective shape gear detection is a
// pure function of.
type PlanSnapshot struct {
	HasObjective    bool
	ObjectiveID     string
	UnfinishedSteps int
	NextStepID      string
}

// DetectMode derives the mode the plan shape calls for. Idempotent:
// unchanged input always yields the same mode.
func DetectMode(plan PlanSnapshot) Mode {
	switch {
	case plan.HasObjective && plan.UnfinishedSteps > 0:
		return ModeActive
	case plan.HasObjective:
		return ModePatrol
	default:
		return ModeDream
	}
}
