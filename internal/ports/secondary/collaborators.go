package secondary

import (
	"context"

	"github.com/example/warden/internal/core/gear"
)

// PlanProvider exposes the external plan/objective shape the gear state
// machine derives its mode from.
type PlanProvider interface {
	Snapshot(ctx context.Context) (gear.PlanSnapshot, error)
}

// StepExecutor runs the next unfinished plan step (ACTIVE mode).
// It reports progress and any proposed follow-up action; it does not
// mutate gear state.
type StepExecutor interface {
	ExecuteNext(ctx context.Context, objectiveID, stepID string) (*StepResult, error)
}

// StepResult is the outcome of executing one plan step.
type StepResult struct {
	StepsCompleted    int
	ProposedCommand   string // shell command the agent wants to run next, if any
	ProposedControl   string // control command the agent wants to run next, if any
	Output            string // free-text agent output for signal scanning
	ObjectiveComplete bool
}

// QualityGate runs the objective-completion check.
type QualityGate interface {
	Run(ctx context.Context, objectiveID string) (*QualityGateResult, error)
}

// QualityGateResult is a pass/fail verdict with structured failures.
type QualityGateResult struct {
	Passed   bool
	Failures []CheckFailure
}

// CheckFailure is a single failed quality check.
type CheckFailure struct {
	Name   string
	Detail string
}

// IssueScanner performs the bounded PATROL scan for new issues.
type IssueScanner interface {
	Scan(ctx context.Context) ([]Finding, error)
}

// Finding is one issue surfaced by a patrol scan.
type Finding struct {
	ID      string
	Summary string
}

// Consolidator consolidates knowledge and proposes new objectives
// (DREAM mode).
type Consolidator interface {
	Propose(ctx context.Context) ([]Proposal, error)
}

// Proposal is one objective candidate produced while dreaming.
type Proposal struct {
	ID       string
	Summary  string
	Accepted bool
}
