package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/warden/internal/core/classify"
	"github.com/example/warden/internal/core/gear"
	"github.com/example/warden/internal/core/junction"
	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/ports/secondary"
)

// GearServiceImpl implements the GearService interface.
type GearServiceImpl struct {
	gearRepo     secondary.GearStateRepository
	plan         secondary.PlanProvider
	steps        secondary.StepExecutor
	gate         secondary.QualityGate
	scanner      secondary.IssueScanner
	consolidator secondary.Consolidator

	patrolIdleLimit int
	now             func() time.Time
}

// NewGearService creates a new GearService with injected dependencies.
func NewGearService(
	gearRepo secondary.GearStateRepository,
	plan secondary.PlanProvider,
	steps secondary.StepExecutor,
	gate secondary.QualityGate,
	scanner secondary.IssueScanner,
	consolidator secondary.Consolidator,
	patrolIdleLimit int,
) *GearServiceImpl {
	if patrolIdleLimit <= 0 {
		patrolIdleLimit = 3
	}
	return &GearServiceImpl{
		gearRepo:        gearRepo,
		plan:            plan,
		steps:           steps,
		gate:            gate,
		scanner:         scanner,
		consolidator:    consolidator,
		patrolIdleLimit: patrolIdleLimit,
		now:             time.Now,
	}
}

// Current returns the persisted gear state.
func (s *GearServiceImpl) Current(ctx context.Context) (gear.State, error) {
	return s.gearRepo.Load(ctx)
}

// ExecuteTransition applies one of the five legal edges.
func (s *GearServiceImpl) ExecuteTransition(ctx context.Context, t gear.Transition) (gear.State, error) {
	return s.gearRepo.Update(ctx, func(state *gear.State) error {
		next, err := gear.ApplyTransition(*state, t, s.now().UTC())
		if err != nil {
			return err
		}
		*state = next
		return nil
	})
}

// SetQualityGateOverride records an explicit, objective-scoped approval
// to bypass the quality gate.
func (s *GearServiceImpl) SetQualityGateOverride(ctx context.Context, objectiveID, approvedBy string) (gear.State, error) {
	if objectiveID == "" {
		return gear.State{}, fmt.Errorf("quality gate override requires an objective id")
	}
	return s.gearRepo.Update(ctx, func(state *gear.State) error {
		state.QualityGateOverride = &gear.QualityGateOverride{
			ObjectiveID: objectiveID,
			ApprovedBy:  approvedBy,
			ApprovedAt:  s.now().UTC(),
		}
		return nil
	})
}

// Advance executes one step of the current mode's behavior. A turn does
// exactly one thing: shift gears, or execute one unit of mode work.
// Collaborator failures come back as data with iterations advanced so
// stuck detection stays observable.
func (s *GearServiceImpl) Advance(ctx context.Context) (*primary.AdvanceResult, error) {
	state, err := s.gearRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load gear state: %w", err)
	}

	snapshot, err := s.plan.Snapshot(ctx)
	if err != nil {
		return s.collaboratorFailure(ctx, state.Mode, fmt.Errorf("plan snapshot: %w", err))
	}

	// A new objective/step pulls any mode back to ACTIVE.
	if desired := gear.DetectMode(snapshot); desired == gear.ModeActive && state.Mode != gear.ModeActive {
		if t, ok := gear.FindTransition(state.Mode, gear.ModeActive); ok {
			return s.shift(ctx, t, "new objective detected")
		}
	}

	switch state.Mode {
	case gear.ModePatrol:
		return s.patrolStep(ctx, snapshot)
	case gear.ModeDream:
		return s.dreamStep(ctx)
	default:
		return s.activeStep(ctx, state, snapshot)
	}
}

// activeStep executes the next unfinished plan step, classifies what the
// step proposes, and runs the quality gate at objective completion.
func (s *GearServiceImpl) activeStep(ctx context.Context, state gear.State, snapshot gear.PlanSnapshot) (*primary.AdvanceResult, error) {
	if !snapshot.HasObjective || snapshot.UnfinishedSteps == 0 {
		return s.completeObjective(ctx, state, snapshot)
	}

	signature := snapshot.ObjectiveID + "/" + snapshot.NextStepID
	stepResult, err := s.steps.ExecuteNext(ctx, snapshot.ObjectiveID, snapshot.NextStepID)
	if err != nil {
		return s.collaboratorFailure(ctx, gear.ModeActive, fmt.Errorf("step execution: %w", err))
	}

	result := &primary.AdvanceResult{
		Mode:           gear.ModeActive,
		StepSignature:  signature,
		StepsCompleted: stepResult.StepsCompleted,
		Message:        fmt.Sprintf("executed step %s (%d completed)", snapshot.NextStepID, stepResult.StepsCompleted),
	}

	s.classifyStep(stepResult, result)

	if _, err := s.gearRepo.Update(ctx, func(st *gear.State) error {
		st.Iterations++
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to persist gear state: %w", err)
	}

	// The junction, if any, outranks the completion path: the gate runs
	// on a later turn once the decision lands.
	if result.JunctionType.IsPausing() {
		return result, nil
	}

	if stepResult.ObjectiveComplete {
		return s.completeObjective(ctx, state, snapshot)
	}
	return result, nil
}

// classifyStep runs the step's proposed action and output through the
// classifier tiers and records the verdict on the result.
func (s *GearServiceImpl) classifyStep(stepResult *secondary.StepResult, result *primary.AdvanceResult) {
	if stepResult.ProposedCommand != "" {
		if verdict, reason := classify.ShellCommandReason(stepResult.ProposedCommand); verdict.IsPausing() {
			result.JunctionType = verdict
			result.JunctionReason = reason
			result.JunctionSource = "command"
			result.JunctionPayload = stepResult.ProposedCommand
			return
		}
	}
	if stepResult.ProposedControl != "" {
		if verdict := classify.ControlCommand(stepResult.ProposedControl); verdict.IsPausing() {
			result.JunctionType = verdict
			result.JunctionReason = "control command not on the allow-list"
			result.JunctionSource = "control"
			result.JunctionPayload = stepResult.ProposedControl
			return
		}
	}
	if stepResult.Output != "" {
		if verdict, reason := classify.Output(stepResult.Output); verdict.IsPausing() {
			result.JunctionType = verdict
			result.JunctionReason = reason
			result.JunctionSource = "output"
			result.JunctionPayload = stepResult.Output
		}
	}
}

// completeObjective runs the quality gate and shifts to PATROL on pass.
func (s *GearServiceImpl) completeObjective(ctx context.Context, state gear.State, snapshot gear.PlanSnapshot) (*primary.AdvanceResult, error) {
	gateResult, err := s.gate.Run(ctx, snapshot.ObjectiveID)
	if err != nil {
		return s.collaboratorFailure(ctx, gear.ModeActive, fmt.Errorf("quality gate: %w", err))
	}

	if !gateResult.Passed && !state.OverrideApplies(snapshot.ObjectiveID) {
		var failures []string
		for _, f := range gateResult.Failures {
			failures = append(failures, f.Name)
		}
		if _, err := s.gearRepo.Update(ctx, func(st *gear.State) error {
			st.Iterations++
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to persist gear state: %w", err)
		}
		return &primary.AdvanceResult{
			Mode:            gear.ModeActive,
			JunctionType:    junction.TypeAmbiguous,
			JunctionReason:  "quality gate failed",
			JunctionSource:  "quality_gate",
			JunctionPayload: fmt.Sprintf("objective %s failed checks: %s", snapshot.ObjectiveID, strings.Join(failures, ", ")),
			Message:         "quality gate failed",
		}, nil
	}

	message := "quality gate passed"
	if !gateResult.Passed {
		message = "quality gate bypassed by explicit override"
	}
	result, err := s.shift(ctx, gear.TransitionActiveToPatrol, message)
	if err != nil {
		return nil, err
	}
	// A spent override does not outlive its objective
	if state.OverrideApplies(snapshot.ObjectiveID) {
		if _, err := s.gearRepo.Update(ctx, func(st *gear.State) error {
			st.QualityGateOverride = nil
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to clear override: %w", err)
		}
	}
	return result, nil
}

// patrolStep performs one bounded scan for new issues.
func (s *GearServiceImpl) patrolStep(ctx context.Context, snapshot gear.PlanSnapshot) (*primary.AdvanceResult, error) {
	findings, err := s.scanner.Scan(ctx)
	if err != nil {
		return s.collaboratorFailure(ctx, gear.ModePatrol, fmt.Errorf("issue scan: %w", err))
	}

	if len(findings) > 0 {
		state, err := s.gearRepo.Update(ctx, func(st *gear.State) error {
			st.Iterations++
			st.PatrolFindingsCount += len(findings)
			st.PatrolIdlePasses = 0
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to persist gear state: %w", err)
		}
		return &primary.AdvanceResult{
			Mode:    gear.ModePatrol,
			Message: fmt.Sprintf("patrol surfaced %d finding(s), %d total this session", len(findings), state.PatrolFindingsCount),
		}, nil
	}

	state, err := s.gearRepo.Update(ctx, func(st *gear.State) error {
		st.Iterations++
		st.PatrolIdlePasses++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist gear state: %w", err)
	}

	if state.PatrolIdlePasses >= s.patrolIdleLimit {
		return s.shift(ctx, gear.TransitionPatrolToDream, fmt.Sprintf("%d empty patrol passes", state.PatrolIdlePasses))
	}
	return &primary.AdvanceResult{
		Mode:    gear.ModePatrol,
		Message: fmt.Sprintf("patrol pass %d/%d found nothing", state.PatrolIdlePasses, s.patrolIdleLimit),
	}, nil
}

// dreamStep consolidates knowledge and gathers objective proposals.
func (s *GearServiceImpl) dreamStep(ctx context.Context) (*primary.AdvanceResult, error) {
	proposals, err := s.consolidator.Propose(ctx)
	if err != nil {
		return s.collaboratorFailure(ctx, gear.ModeDream, fmt.Errorf("consolidation: %w", err))
	}

	accepted := false
	for _, p := range proposals {
		if p.Accepted {
			accepted = true
			break
		}
	}

	state, err := s.gearRepo.Update(ctx, func(st *gear.State) error {
		st.Iterations++
		st.DreamProposalsCount += len(proposals)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist gear state: %w", err)
	}

	if accepted {
		return s.shift(ctx, gear.TransitionDreamToActive, "proposal accepted")
	}
	return &primary.AdvanceResult{
		Mode:    gear.ModeDream,
		Message: fmt.Sprintf("dreaming: %d proposal(s), %d total this session", len(proposals), state.DreamProposalsCount),
	}, nil
}

// shift applies a transition and reports it as the turn's work.
func (s *GearServiceImpl) shift(ctx context.Context, t gear.Transition, why string) (*primary.AdvanceResult, error) {
	state, err := s.ExecuteTransition(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to shift gears: %w", err)
	}
	return &primary.AdvanceResult{
		Mode:           state.Mode,
		Transitioned:   true,
		TransitionedTo: state.Mode,
		Message:        fmt.Sprintf("shifted %s: %s", t, why),
	}, nil
}

// collaboratorFailure surfaces an external failure as data. The mode does
// not change; iterations still increment so stuck detection remains
// accurate.
func (s *GearServiceImpl) collaboratorFailure(ctx context.Context, mode gear.Mode, cause error) (*primary.AdvanceResult, error) {
	if _, err := s.gearRepo.Update(ctx, func(st *gear.State) error {
		st.Iterations++
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to persist gear state: %w", err)
	}
	return &primary.AdvanceResult{
		Mode:              mode,
		CollaboratorError: cause.Error(),
		Message:           "collaborator failed; mode unchanged",
	}, nil
}
