package statefile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/example/warden/internal/core/junction"
	"github.com/example/warden/internal/ports/secondary"
)

// File names inside the state directory.
const (
	JunctionFileName = "junction_state.json"

	// LegacyFileName is the prior-schema session file. Read for
	// migration, never written.
	LegacyFileName = "state.json"
)

// JunctionRepository implements secondary.JunctionStateRepository on a
// Store.
type JunctionRepository struct {
	store      *Store[junction.State]
	legacyPath string
}

// NewJunctionRepository creates a junction state repository rooted at
// stateDir.
func NewJunctionRepository(stateDir string, lockTimeout time.Duration) *JunctionRepository {
	return &JunctionRepository{
		store:      NewStore(filepath.Join(stateDir, JunctionFileName), lockTimeout, junction.NewState),
		legacyPath: filepath.Join(stateDir, LegacyFileName),
	}
}

// Load reads the current junction state.
func (r *JunctionRepository) Load(ctx context.Context) (junction.State, error) {
	return r.store.Read(ctx)
}

// Update applies fn under the exclusive lock and persists atomically.
func (r *JunctionRepository) Update(ctx context.Context, fn func(*junction.State) error) (junction.State, error) {
	return r.store.Update(ctx, func(s *junction.State) error {
		if err := fn(s); err != nil {
			return err
		}
		s.SchemaVersion = junction.SchemaVersion
		return nil
	})
}

// LoadLegacy reads the prior-schema state file. Returns (nil, nil) when
// no legacy file exists or it does not parse; a broken legacy file must
// not fail the turn.
func (r *JunctionRepository) LoadLegacy(ctx context.Context) (*secondary.LegacyState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.legacyPath)
	if err != nil {
		return nil, nil
	}

	var legacy secondary.LegacyState
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, nil
	}
	return &legacy, nil
}
