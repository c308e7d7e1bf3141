package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/warden/internal/core/gear"
	"github.com/example/warden/internal/core/junction"
	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/ports/secondary"
)

// DispatchServiceImpl implements the DispatchService interface.
type DispatchServiceImpl struct {
	gears     primary.GearService
	junctions primary.JunctionService
	gearRepo  secondary.GearStateRepository
	journal   secondary.TurnJournal // nil when journaling is disabled

	maxIterations  int
	stuckThreshold int
	now            func() time.Time
	newID          func() string
}

// NewDispatchService creates a new DispatchService with injected dependencies.
func NewDispatchService(
	gears primary.GearService,
	junctions primary.JunctionService,
	gearRepo secondary.GearStateRepository,
	journal secondary.TurnJournal,
	maxIterations int,
	stuckThreshold int,
) *DispatchServiceImpl {
	if maxIterations <= 0 {
		maxIterations = 50
	}
	if stuckThreshold <= 0 {
		stuckThreshold = 3
	}
	return &DispatchServiceImpl{
		gears:          gears,
		junctions:      junctions,
		gearRepo:       gearRepo,
		journal:        journal,
		maxIterations:  maxIterations,
		stuckThreshold: stuckThreshold,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// RunTurn drives one dispatch turn. It always returns a well-formed
// result: unexpected gear errors become warnings, never a crashed host.
func (s *DispatchServiceImpl) RunTurn(ctx context.Context, req primary.TurnRequest) (result *primary.TurnResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = &primary.TurnResult{
				Message: "internal error - state unchanged, safe to retry",
				Warning: fmt.Sprintf("recovered: %v", r),
			}
			err = nil
		}
		if result != nil {
			s.recordTurn(ctx, req, result)
		}
	}()

	// Step 1: apply the human decision, if one came with this turn.
	if req.Decision != "" {
		result, done := s.applyDecision(ctx, req)
		if done {
			return result, nil
		}
	}

	// Step 2: never advance while a decision is outstanding.
	pending, err := s.junctions.GetPending(ctx)
	if err != nil {
		return s.busyOrFailed(ctx, err), nil
	}
	if pending != nil {
		return s.surfacePending(ctx, pending), nil
	}

	// Step 3: advance the gear state machine by one step.
	adv, err := s.gears.Advance(ctx)
	if err != nil {
		return s.busyOrFailed(ctx, err), nil
	}

	result = &primary.TurnResult{
		Mode:           adv.Mode,
		Transitioned:   adv.Transitioned,
		TransitionedTo: adv.TransitionedTo,
		Message:        adv.Message,
	}
	if adv.CollaboratorError != "" {
		result.Warning = adv.CollaboratorError
	}

	if adv.JunctionType.IsPausing() {
		pres, err := s.junctions.SetPending(ctx, adv.JunctionType, adv.JunctionPayload, adv.JunctionReason, adv.JunctionSource)
		if err != nil {
			result.Warning = joinWarnings(result.Warning, fmt.Sprintf("failed to record junction: %v", err))
			return result, nil
		}
		if !pres.Suppressed {
			result.JunctionHit = true
			result.JunctionID = pres.Record.ID
			result.JunctionType = pres.Record.Type
			result.JunctionReason = adv.JunctionReason
			result.Message = fmt.Sprintf("paused at %s junction: %s", pres.Record.Type, adv.JunctionReason)
			return result, nil
		}
		result.Message = fmt.Sprintf("%s junction auto-dismissed by suppression window", pres.Record.Type)
	}

	// Steps 4-5: session iteration cap and stuck detection.
	return s.applyLimits(ctx, adv, result), nil
}

// applyDecision resolves the pending junction with the caller's decision.
// done is true when the turn should end here (stop, invalid input).
func (s *DispatchServiceImpl) applyDecision(ctx context.Context, req primary.TurnRequest) (*primary.TurnResult, bool) {
	decision, ok := junction.ParseDecision(req.Decision)
	if !ok {
		return &primary.TurnResult{
			Message: fmt.Sprintf("unknown decision %q - use approve, skip, dismiss, or stop", req.Decision),
		}, true
	}

	cleared, err := s.junctions.ClearPending(ctx, decision, req.SuppressMinutes)
	if err != nil {
		return s.busyOrFailed(ctx, err), true
	}

	if cleared != nil {
		s.recordDecision(ctx, cleared, decision)
	}

	if decision == junction.DecisionStop {
		if _, err := s.gearRepo.Update(ctx, func(st *gear.State) error {
			st.SessionIterations = 0
			st.NoProgressCount = 0
			st.LastStepSignature = ""
			return nil
		}); err != nil {
			return s.busyOrFailed(ctx, err), true
		}
		return &primary.TurnResult{
			Stopped: true,
			Message: "autonomous looping stopped",
		}, true
	}

	// approve, skip, and dismiss all continue the loop
	return nil, false
}

// surfacePending returns immediately with the outstanding junction.
func (s *DispatchServiceImpl) surfacePending(ctx context.Context, pending *junction.Record) *primary.TurnResult {
	result := &primary.TurnResult{
		JunctionHit:    true,
		JunctionID:     pending.ID,
		JunctionType:   pending.Type,
		JunctionReason: pending.Reason,
		Message:        fmt.Sprintf("paused at %s junction - respond with approve, skip, dismiss [minutes], or stop", pending.Type),
	}
	if state, err := s.gears.Current(ctx); err == nil {
		result.Mode = state.Mode
	}
	return result
}

// applyLimits enforces the session iteration cap and stuck detection
// after a successful advance.
func (s *DispatchServiceImpl) applyLimits(ctx context.Context, adv *primary.AdvanceResult, result *primary.TurnResult) *primary.TurnResult {
	state, err := s.gearRepo.Update(ctx, func(st *gear.State) error {
		st.SessionIterations++
		if adv.StepSignature != "" {
			if adv.StepsCompleted == 0 && adv.StepSignature == st.LastStepSignature {
				st.NoProgressCount++
			} else {
				st.NoProgressCount = 0
			}
			st.LastStepSignature = adv.StepSignature
		}
		return nil
	})
	if err != nil {
		result.Warning = joinWarnings(result.Warning, err.Error())
		return result
	}

	if state.SessionIterations >= s.maxIterations {
		if _, err := s.gearRepo.Update(ctx, func(st *gear.State) error {
			st.SessionIterations = 0
			return nil
		}); err != nil {
			result.Warning = joinWarnings(result.Warning, err.Error())
		}
		result.Stopped = true
		result.ContinueLoop = false
		result.Message = fmt.Sprintf("max iterations (%d) reached - stopping", s.maxIterations)
		return result
	}

	if state.NoProgressCount >= s.stuckThreshold {
		payload := fmt.Sprintf("no forward progress on %s for %d turns", state.LastStepSignature, state.NoProgressCount)
		pres, err := s.junctions.SetPending(ctx, junction.TypeAmbiguous, payload, "no forward progress", "stuck-detection")
		if err != nil {
			result.Warning = joinWarnings(result.Warning, fmt.Sprintf("failed to record stuck junction: %v", err))
			return result
		}
		if _, err := s.gearRepo.Update(ctx, func(st *gear.State) error {
			st.NoProgressCount = 0
			return nil
		}); err != nil {
			result.Warning = joinWarnings(result.Warning, err.Error())
		}
		if !pres.Suppressed {
			result.JunctionHit = true
			result.JunctionID = pres.Record.ID
			result.JunctionType = pres.Record.Type
			result.JunctionReason = "stuck"
			result.Message = "stuck: " + payload
			return result
		}
	}

	result.ContinueLoop = true
	return result
}

// busyOrFailed maps an internal error to the user-visible failure shape.
func (s *DispatchServiceImpl) busyOrFailed(ctx context.Context, cause error) *primary.TurnResult {
	result := &primary.TurnResult{
		Message: "internal error - state unchanged, safe to retry",
		Warning: cause.Error(),
	}
	if state, err := s.gears.Current(ctx); err == nil {
		result.Mode = state.Mode
	}
	return result
}

func (s *DispatchServiceImpl) recordTurn(ctx context.Context, req primary.TurnRequest, result *primary.TurnResult) {
	if s.journal == nil {
		return
	}
	receipt := &secondary.TurnReceiptRecord{
		ID:             s.newID(),
		Mode:           string(result.Mode),
		JunctionID:     result.JunctionID,
		JunctionType:   string(result.JunctionType),
		JunctionReason: result.JunctionReason,
		Decision:       req.Decision,
		ContinueLoop:   result.ContinueLoop,
		Message:        result.Message,
	}
	if result.Transitioned {
		receipt.TransitionedTo = string(result.TransitionedTo)
	}
	if err := s.journal.RecordTurn(ctx, receipt); err != nil {
		result.Warning = joinWarnings(result.Warning, fmt.Sprintf("journal: %v", err))
	}
}

func (s *DispatchServiceImpl) recordDecision(ctx context.Context, cleared *junction.Record, decision junction.Decision) {
	if s.journal == nil {
		return
	}
	// Best-effort audit row; a journal failure never blocks the decision
	_ = s.journal.RecordDecision(ctx, &secondary.DecisionLogRecord{
		ID:           s.newID(),
		JunctionID:   cleared.ID,
		JunctionType: string(cleared.Type),
		Decision:     string(decision),
		Payload:      cleared.Payload,
	})
}

func joinWarnings(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + "; " + extra
}
