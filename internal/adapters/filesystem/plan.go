// Package filesystem contains filesystem-based adapter implementations:
// the external plan file and the drop files through which collaborator
// results reach the supervisor between invocations.
package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/warden/internal/core/gear"
)

// PlanFileName is the externally-owned plan file inside the state
// directory. Warden reads it; the agent/host writes it.
const PlanFileName = "plan.json"

// PlanFile is the on-disk plan shape.
type PlanFile struct {
	ObjectiveID string     `json:"objective_id,omitempty"`
	Objective   string     `json:"objective,omitempty"`
	Steps       []PlanStep `json:"steps,omitempty"`
}

// PlanStep is one step of the plan.
type PlanStep struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Done  bool   `json:"done"`
}

// PlanProvider implements secondary.PlanProvider by reading the plan file.
type PlanProvider struct {
	path string
}

// NewPlanProvider creates a plan provider rooted at stateDir.
func NewPlanProvider(stateDir string) *PlanProvider {
	return &PlanProvider{path: filepath.Join(stateDir, PlanFileName)}
}

// Snapshot derives the plan shape gear detection runs on. A missing plan
// file means no objective (fully idle).
func (p *PlanProvider) Snapshot(ctx context.Context) (gear.PlanSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return gear.PlanSnapshot{}, err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return gear.PlanSnapshot{}, nil
		}
		return gear.PlanSnapshot{}, fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan PlanFile
	if err := json.Unmarshal(data, &plan); err != nil {
		return gear.PlanSnapshot{}, fmt.Errorf("failed to parse plan file: %w", err)
	}

	snapshot := gear.PlanSnapshot{
		HasObjective: plan.ObjectiveID != "" || plan.Objective != "",
		ObjectiveID:  plan.ObjectiveID,
	}
	for _, step := range plan.Steps {
		if !step.Done {
			snapshot.UnfinishedSteps++
			if snapshot.NextStepID == "" {
				snapshot.NextStepID = step.ID
			}
		}
	}
	return snapshot, nil
}
