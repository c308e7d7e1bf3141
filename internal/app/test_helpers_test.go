package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/warden/internal/core/gear"
	"github.com/example/warden/internal/core/junction"
	"github.com/example/warden/internal/ports/secondary"
)

// testTime is the fixed clock used across app tests.
var testTime = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

// mockJunctionStateRepo implements secondary.JunctionStateRepository in memory.
type mockJunctionStateRepo struct {
	state  junction.State
	legacy *secondary.LegacyState
	writes int
}

func newMockJunctionStateRepo() *mockJunctionStateRepo {
	return &mockJunctionStateRepo{state: junction.NewState()}
}

func (m *mockJunctionStateRepo) Load(ctx context.Context) (junction.State, error) {
	return cloneJunctionState(m.state), nil
}

func (m *mockJunctionStateRepo) Update(ctx context.Context, fn func(*junction.State) error) (junction.State, error) {
	clone := cloneJunctionState(m.state)
	if err := fn(&clone); err != nil {
		return junction.State{}, err
	}
	clone.SchemaVersion = junction.SchemaVersion
	m.state = clone
	m.writes++
	return cloneJunctionState(m.state), nil
}

func (m *mockJunctionStateRepo) LoadLegacy(ctx context.Context) (*secondary.LegacyState, error) {
	return m.legacy, nil
}

func cloneJunctionState(s junction.State) junction.State {
	clone := s
	if s.Pending != nil {
		record := *s.Pending
		clone.Pending = &record
	}
	clone.HistoryTail = append([]junction.HistoryEntry(nil), s.HistoryTail...)
	clone.Suppression = append([]junction.SuppressionEntry(nil), s.Suppression...)
	return clone
}

// mockGearStateRepo implements secondary.GearStateRepository in memory.
type mockGearStateRepo struct {
	state gear.State
}

func newMockGearStateRepo() *mockGearStateRepo {
	return &mockGearStateRepo{state: gear.NewState(testTime)}
}

func (m *mockGearStateRepo) Load(ctx context.Context) (gear.State, error) {
	return m.state, nil
}

func (m *mockGearStateRepo) Update(ctx context.Context, fn func(*gear.State) error) (gear.State, error) {
	clone := m.state
	if err := fn(&clone); err != nil {
		return gear.State{}, err
	}
	clone.SchemaVersion = gear.SchemaVersion
	m.state = clone
	return m.state, nil
}

// mockPlanProvider returns a canned plan snapshot.
type mockPlanProvider struct {
	snapshot gear.PlanSnapshot
	err      error
}

func (m *mockPlanProvider) Snapshot(ctx context.Context) (gear.PlanSnapshot, error) {
	return m.snapshot, m.err
}

// mockStepExecutor returns a canned step result and counts calls.
type mockStepExecutor struct {
	result *secondary.StepResult
	err    error
	calls  int
}

func (m *mockStepExecutor) ExecuteNext(ctx context.Context, objectiveID, stepID string) (*secondary.StepResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &secondary.StepResult{StepsCompleted: 1}, nil
	}
	result := *m.result
	return &result, nil
}

// mockQualityGate returns a canned gate verdict.
type mockQualityGate struct {
	result *secondary.QualityGateResult
	err    error
	calls  int
}

func (m *mockQualityGate) Run(ctx context.Context, objectiveID string) (*secondary.QualityGateResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &secondary.QualityGateResult{Passed: true}, nil
	}
	return m.result, nil
}

// mockScanner returns canned patrol findings.
type mockScanner struct {
	findings []secondary.Finding
	err      error
}

func (m *mockScanner) Scan(ctx context.Context) ([]secondary.Finding, error) {
	return m.findings, m.err
}

// mockConsolidator returns canned dream proposals.
type mockConsolidator struct {
	proposals []secondary.Proposal
	err       error
}

func (m *mockConsolidator) Propose(ctx context.Context) ([]secondary.Proposal, error) {
	return m.proposals, m.err
}

// mockJournal records receipts in memory.
type mockJournal struct {
	turns     []*secondary.TurnReceiptRecord
	decisions []*secondary.DecisionLogRecord
	err       error
}

func (m *mockJournal) RecordTurn(ctx context.Context, receipt *secondary.TurnReceiptRecord) error {
	if m.err != nil {
		return m.err
	}
	m.turns = append(m.turns, receipt)
	return nil
}

func (m *mockJournal) RecordDecision(ctx context.Context, decision *secondary.DecisionLogRecord) error {
	if m.err != nil {
		return m.err
	}
	m.decisions = append(m.decisions, decision)
	return nil
}

func (m *mockJournal) RecentTurns(ctx context.Context, limit int) ([]*secondary.TurnReceiptRecord, error) {
	return m.turns, nil
}

func (m *mockJournal) RecentDecisions(ctx context.Context, limit int) ([]*secondary.DecisionLogRecord, error) {
	return m.decisions, nil
}

// sequentialIDs returns an id generator producing J-001, J-002, ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%03d", prefix, n)
	}
}
