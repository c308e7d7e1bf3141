package statefile

import (
	"context"
	"path/filepath"
	"time"

	"github.com/example/warden/internal/core/gear"
)

// GearFileName is the gear state file inside the state directory.
const GearFileName = "gear_state.json"

// GearRepository implements secondary.GearStateRepository on a Store.
type GearRepository struct {
	store *Store[gear.State]
	now   func() time.Time
}

// NewGearRepository creates a gear state repository rooted at stateDir.
func NewGearRepository(stateDir string, lockTimeout time.Duration) *GearRepository {
	now := time.Now
	return &GearRepository{
		store: NewStore(filepath.Join(stateDir, GearFileName), lockTimeout, func() gear.State {
			return gear.NewState(now())
		}),
		now: now,
	}
}

// Load reads the current gear state.
func (r *GearRepository) Load(ctx context.Context) (gear.State, error) {
	return r.store.Read(ctx)
}

// Update applies fn under the exclusive lock and persists atomically.
func (r *GearRepository) Update(ctx context.Context, fn func(*gear.State) error) (gear.State, error) {
	return r.store.Update(ctx, func(s *gear.State) error {
		if err := fn(s); err != nil {
			return err
		}
		s.SchemaVersion = gear.SchemaVersion
		return nil
	})
}
