package statefile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/warden/internal/core/gear"
	"github.com/example/warden/internal/core/junction"
)

func TestGearRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewGearRepository(t.TempDir(), time.Second)

	state, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if state.Mode != gear.ModeActive {
		t.Errorf("default Mode = %q, want ACTIVE", state.Mode)
	}

	updated, err := repo.Update(ctx, func(s *gear.State) error {
		s.Mode = gear.ModePatrol
		s.PatrolFindingsCount = 4
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.SchemaVersion != gear.SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", updated.SchemaVersion, gear.SchemaVersion)
	}

	reloaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.Mode != gear.ModePatrol || reloaded.PatrolFindingsCount != 4 {
		t.Errorf("reloaded = %+v, want persisted patrol state", reloaded)
	}
}

func TestJunctionRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewJunctionRepository(t.TempDir(), time.Second)

	record := junction.Record{
		ID:        "J-001",
		Type:      junction.TypeExternal,
		Payload:   "kubectl apply -f x.yaml",
		CreatedAt: time.Now().UTC(),
		Source:    "classifier",
	}

	if _, err := repo.Update(ctx, func(s *junction.State) error {
		s.Pending = &record
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	state, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if state.Pending == nil || state.Pending.ID != "J-001" || state.Pending.Type != junction.TypeExternal {
		t.Errorf("Pending = %+v, want persisted record", state.Pending)
	}
}

func TestLoadLegacy(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := NewJunctionRepository(dir, time.Second)

	// No legacy file
	legacy, err := repo.LoadLegacy(ctx)
	if err != nil {
		t.Fatalf("LoadLegacy() error = %v", err)
	}
	if legacy != nil {
		t.Fatalf("LoadLegacy() = %+v, want nil when absent", legacy)
	}

	legacyJSON := `{"awaiting_decision": true, "junction_type": "BLOCKED", "junction_prompt": "tests failed", "junction_source": "output"}`
	if err := os.WriteFile(filepath.Join(dir, LegacyFileName), []byte(legacyJSON), 0o644); err != nil {
		t.Fatalf("failed to write legacy file: %v", err)
	}

	legacy, err = repo.LoadLegacy(ctx)
	if err != nil {
		t.Fatalf("LoadLegacy() error = %v", err)
	}
	if legacy == nil || !legacy.AwaitingDecision || legacy.JunctionType != "BLOCKED" {
		t.Errorf("LoadLegacy() = %+v, want awaiting BLOCKED marker", legacy)
	}

	// Broken legacy file must not fail the turn
	if err := os.WriteFile(filepath.Join(dir, LegacyFileName), []byte("not json"), 0o644); err != nil {
		t.Fatalf("failed to write legacy file: %v", err)
	}
	legacy, err = repo.LoadLegacy(ctx)
	if err != nil || legacy != nil {
		t.Errorf("LoadLegacy() on broken file = (%+v, %v), want (nil, nil)", legacy, err)
	}
}
