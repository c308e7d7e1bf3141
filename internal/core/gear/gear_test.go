package gear

import (
	"errors"
	"testing"
	"time"
)

var fixedTime = time.Date(2026, 2, 3, 9, 30, 0, 0, time.UTC)

func TestApplyTransitionLegalEdges(t *testing.T) {
	tests := []struct {
		name       string
		from       Mode
		transition Transition
		wantMode   Mode
	}{
		{"active to patrol", ModeActive, TransitionActiveToPatrol, ModePatrol},
		{"patrol to active", ModePatrol, TransitionPatrolToActive, ModeActive},
		{"patrol to dream", ModePatrol, TransitionPatrolToDream, ModeDream},
		{"active to dream", ModeActive, TransitionActiveToDream, ModeDream},
		{"dream to active", ModeDream, TransitionDreamToActive, ModeActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := State{
				SchemaVersion:       SchemaVersion,
				Mode:                tt.from,
				Iterations:          5,
				PatrolFindingsCount: 3,
				DreamProposalsCount: 2,
			}

			got, err := ApplyTransition(state, tt.transition, fixedTime)
			if err != nil {
				t.Fatalf("ApplyTransition() error = %v", err)
			}
			if got.Mode != tt.wantMode {
				t.Errorf("Mode = %q, want %q", got.Mode, tt.wantMode)
			}
			if got.Iterations != 0 {
				t.Errorf("Iterations = %d, want 0 (reset on transition)", got.Iterations)
			}
			if got.LastTransition != tt.transition {
				t.Errorf("LastTransition = %q, want %q", got.LastTransition, tt.transition)
			}
			if got.PatrolFindingsCount != 3 || got.DreamProposalsCount != 2 {
				t.Errorf("cumulative counters changed: findings=%d proposals=%d, want 3 and 2",
					got.PatrolFindingsCount, got.DreamProposalsCount)
			}
			if !got.EnteredAt.Equal(fixedTime) {
				t.Errorf("EnteredAt = %v, want %v", got.EnteredAt, fixedTime)
			}
		})
	}
}

func TestApplyTransitionRejectsIllegalEdges(t *testing.T) {
	tests := []struct {
		name       string
		from       Mode
		transition Transition
	}{
		{"unknown transition", ModeActive, Transition("ACTIVE->ACTIVE")},
		{"dream to patrol does not exist", ModeDream, Transition("DREAM->PATROL")},
		{"wrong source mode", ModeDream, TransitionActiveToPatrol},
		{"empty transition", ModePatrol, Transition("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := State{Mode: tt.from, Iterations: 4, PatrolFindingsCount: 1}

			got, err := ApplyTransition(state, tt.transition, fixedTime)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("ApplyTransition() error = %v, want ErrInvalidTransition", err)
			}
			if got != state {
				t.Errorf("state mutated on rejected transition: %+v", got)
			}
		})
	}
}

func TestFindTransition(t *testing.T) {
	tests := []struct {
		from   Mode
		to     Mode
		want   Transition
		wantOK bool
	}{
		{ModeActive, ModePatrol, TransitionActiveToPatrol, true},
		{ModePatrol, ModeActive, TransitionPatrolToActive, true},
		{ModePatrol, ModeDream, TransitionPatrolToDream, true},
		{ModeActive, ModeDream, TransitionActiveToDream, true},
		{ModeDream, ModeActive, TransitionDreamToActive, true},
		{ModeDream, ModePatrol, "", false},
		{ModeActive, ModeActive, "", false},
	}

	for _, tt := range tests {
		got, ok := FindTransition(tt.from, tt.to)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("FindTransition(%s, %s) = (%q, %v), want (%q, %v)",
				tt.from, tt.to, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDetectMode(t *testing.T) {
	tests := []struct {
		name string
		plan PlanSnapshot
		want Mode
	}{
		{"objective with unfinished step", PlanSnapshot{HasObjective: true, UnfinishedSteps: 2}, ModeActive},
		{"objective fully done", PlanSnapshot{HasObjective: true, UnfinishedSteps: 0}, ModePatrol},
		{"no objective at all", PlanSnapshot{}, ModeDream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectMode(tt.plan)
			if got != tt.want {
				t.Errorf("DetectMode(%+v) = %q, want %q", tt.plan, got, tt.want)
			}
			// Idempotence: same input, same answer
			if again := DetectMode(tt.plan); again != got {
				t.Errorf("DetectMode() not idempotent: %q then %q", got, again)
			}
		})
	}
}

func TestOverrideApplies(t *testing.T) {
	state := State{
		QualityGateOverride: &QualityGateOverride{ObjectiveID: "OBJ-001", ApprovedBy: "operator"},
	}

	if !state.OverrideApplies("OBJ-001") {
		t.Error("override for OBJ-001 should apply")
	}
	if state.OverrideApplies("OBJ-002") {
		t.Error("override is scoped to its objective")
	}
	if (State{}).OverrideApplies("OBJ-001") {
		t.Error("absent override must never apply")
	}
}
