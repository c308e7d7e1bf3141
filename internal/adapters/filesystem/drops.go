package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/warden/internal/ports/secondary"
)

// Drop file names inside the drops directory. The host writes these
// between invocations; warden consumes step results exactly once.
const (
	DropsDirName      = "drops"
	StepDropFileName  = "step_result.json"
	GateDropFileName  = "quality_gate.json"
	FindingsDropName  = "findings.json"
	ProposalsDropName = "proposals.json"
	consumedExtension = ".consumed"
)

// DropCollaborators implements the collaborator secondary ports
// (StepExecutor, QualityGate, IssueScanner, Consolidator) by reading
// result files the host drops into the state directory.
type DropCollaborators struct {
	dir string
}

// NewDropCollaborators creates drop-file collaborators rooted at stateDir.
func NewDropCollaborators(stateDir string) *DropCollaborators {
	return &DropCollaborators{dir: filepath.Join(stateDir, DropsDirName)}
}

// stepDrop mirrors secondary.StepResult on disk.
type stepDrop struct {
	StepsCompleted    int    `json:"steps_completed"`
	ProposedCommand   string `json:"proposed_command,omitempty"`
	ProposedControl   string `json:"proposed_control,omitempty"`
	Output            string `json:"output,omitempty"`
	ObjectiveComplete bool   `json:"objective_complete"`
}

// ExecuteNext consumes the step result the host dropped for this turn.
// The drop is renamed aside after reading so a result is never replayed.
// A missing drop is a collaborator failure: the agent produced nothing.
func (d *DropCollaborators) ExecuteNext(ctx context.Context, objectiveID, stepID string) (*secondary.StepResult, error) {
	path := filepath.Join(d.dir, StepDropFileName)

	var drop stepDrop
	if err := d.readDrop(ctx, path, &drop); err != nil {
		return nil, fmt.Errorf("no step result for %s/%s: %w", objectiveID, stepID, err)
	}

	// Consume: atomically move aside so the next turn sees a fresh drop
	if err := os.Rename(path, path+consumedExtension); err != nil {
		return nil, fmt.Errorf("failed to consume step result: %w", err)
	}

	return &secondary.StepResult{
		StepsCompleted:    drop.StepsCompleted,
		ProposedCommand:   drop.ProposedCommand,
		ProposedControl:   drop.ProposedControl,
		Output:            drop.Output,
		ObjectiveComplete: drop.ObjectiveComplete,
	}, nil
}

// gateDrop mirrors secondary.QualityGateResult on disk.
type gateDrop struct {
	Passed   bool `json:"passed"`
	Failures []struct {
		Name   string `json:"name"`
		Detail string `json:"detail,omitempty"`
	} `json:"failures,omitempty"`
}

// Run reads the quality gate drop. No drop means no checks are
// configured, which passes.
func (d *DropCollaborators) Run(ctx context.Context, objectiveID string) (*secondary.QualityGateResult, error) {
	path := filepath.Join(d.dir, GateDropFileName)

	var drop gateDrop
	if err := d.readDrop(ctx, path, &drop); err != nil {
		if os.IsNotExist(err) {
			return &secondary.QualityGateResult{Passed: true}, nil
		}
		return nil, err
	}

	result := &secondary.QualityGateResult{Passed: drop.Passed}
	for _, f := range drop.Failures {
		result.Failures = append(result.Failures, secondary.CheckFailure{Name: f.Name, Detail: f.Detail})
	}
	return result, nil
}

// Scan reads and consumes the patrol findings drop. No drop means an
// empty pass. Consuming keeps a stale drop from re-counting the same
// findings on every patrol pass.
func (d *DropCollaborators) Scan(ctx context.Context) ([]secondary.Finding, error) {
	path := filepath.Join(d.dir, FindingsDropName)

	var findings []secondary.Finding
	if err := d.readDrop(ctx, path, &findings); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if err := os.Rename(path, path+consumedExtension); err != nil {
		return nil, fmt.Errorf("failed to consume findings: %w", err)
	}
	return findings, nil
}

// Propose reads and consumes the dream proposals drop. No drop means
// nothing proposed. Consuming keeps a stale accepted proposal from
// re-triggering the shift out of DREAM every turn.
func (d *DropCollaborators) Propose(ctx context.Context) ([]secondary.Proposal, error) {
	path := filepath.Join(d.dir, ProposalsDropName)

	var proposals []secondary.Proposal
	if err := d.readDrop(ctx, path, &proposals); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if err := os.Rename(path, path+consumedExtension); err != nil {
		return nil, fmt.Errorf("failed to consume proposals: %w", err)
	}
	return proposals, nil
}

func (d *DropCollaborators) readDrop(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("malformed drop file %s: %w", filepath.Base(path), err)
	}
	return nil
}
