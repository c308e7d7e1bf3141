package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/warden/internal/core/junction"
	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/ports/secondary"
)

// errNothingPending aborts a clear without persisting anything.
var errNothingPending = errors.New("no junction pending")

// JunctionServiceImpl implements the JunctionService interface.
type JunctionServiceImpl struct {
	junctionRepo           secondary.JunctionStateRepository
	defaultSuppressMinutes int
	now                    func() time.Time
	newID                  func() string
}

// NewJunctionService creates a new JunctionService with injected dependencies.
func NewJunctionService(junctionRepo secondary.JunctionStateRepository, defaultSuppressMinutes int) *JunctionServiceImpl {
	if defaultSuppressMinutes <= 0 {
		defaultSuppressMinutes = 60
	}
	return &JunctionServiceImpl{
		junctionRepo:           junctionRepo,
		defaultSuppressMinutes: defaultSuppressMinutes,
		now:                    time.Now,
		newID:                  uuid.NewString,
	}
}

// SetPending records a new pending junction. Any prior pending record is
// overwritten: last writer wins. A junction whose fingerprint matches an
// active suppression window is auto-resolved as dismissed instead.
func (s *JunctionServiceImpl) SetPending(ctx context.Context, typ junction.Type, payload, reason, source string) (*primary.PendingResult, error) {
	if !typ.Valid() || !typ.IsPausing() {
		return nil, fmt.Errorf("junction type %q cannot be set pending", typ)
	}

	result := &primary.PendingResult{}
	_, err := s.junctionRepo.Update(ctx, func(state *junction.State) error {
		now := s.now().UTC()
		state.Suppression = junction.PruneSuppression(state.Suppression, now)

		record := junction.Record{
			ID:        s.newID(),
			Type:      typ,
			Payload:   payload,
			Reason:    reason,
			CreatedAt: now,
			Source:    source,
		}

		if junction.IsSuppressed(state.Suppression, junction.Fingerprint(typ, payload), now) {
			// Auto-resolve inside the window: visible only in history
			state.HistoryTail = junction.AppendHistory(state.HistoryTail, junction.HistoryEntry{
				ID:        record.ID,
				Type:      typ,
				Decision:  junction.DecisionDismiss,
				DecidedAt: now,
			})
			result.Record = record
			result.Suppressed = true
			return nil
		}

		state.Pending = &record
		result.Record = record
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set pending junction: %w", err)
	}
	return result, nil
}

// GetPending returns the pending record, or nil when none. When nothing
// is pending it first attempts legacy migration, the one write a read
// path is allowed to perform.
func (s *JunctionServiceImpl) GetPending(ctx context.Context) (*junction.Record, error) {
	state, err := s.junctionRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load junction state: %w", err)
	}
	if state.Pending != nil {
		record := *state.Pending
		return &record, nil
	}

	// First-time callers would otherwise never see a pre-existing legacy
	// pending decision.
	migrated, err := s.Migrate(ctx)
	if err != nil {
		return nil, err
	}
	if !migrated {
		return nil, nil
	}

	state, err = s.junctionRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load junction state: %w", err)
	}
	if state.Pending == nil {
		return nil, nil
	}
	record := *state.Pending
	return &record, nil
}

// ClearPending resolves the pending junction with a decision. Returns nil
// without mutating anything when nothing is pending.
func (s *JunctionServiceImpl) ClearPending(ctx context.Context, decision junction.Decision, suppressMinutes int) (*junction.Record, error) {
	if _, ok := junction.ParseDecision(string(decision)); !ok {
		return nil, fmt.Errorf("invalid decision %q", decision)
	}
	if suppressMinutes <= 0 {
		suppressMinutes = s.defaultSuppressMinutes
	}

	var cleared *junction.Record
	_, err := s.junctionRepo.Update(ctx, func(state *junction.State) error {
		if state.Pending == nil {
			return errNothingPending
		}

		now := s.now().UTC()
		record := *state.Pending
		cleared = &record

		state.HistoryTail = junction.AppendHistory(state.HistoryTail, junction.HistoryEntry{
			ID:        record.ID,
			Type:      record.Type,
			Decision:  decision,
			DecidedAt: now,
		})

		state.Suppression = junction.PruneSuppression(state.Suppression, now)
		if decision == junction.DecisionDismiss {
			state.Suppression = append(state.Suppression, junction.SuppressionEntry{
				Fingerprint: junction.Fingerprint(record.Type, record.Payload),
				ExpiresAt:   now.Add(time.Duration(suppressMinutes) * time.Minute),
			})
		}

		state.Pending = nil
		return nil
	})
	if errors.Is(err, errNothingPending) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to clear pending junction: %w", err)
	}
	return cleared, nil
}

// History returns the bounded decision history, most-recent-last.
func (s *JunctionServiceImpl) History(ctx context.Context) ([]junction.HistoryEntry, error) {
	state, err := s.junctionRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load junction state: %w", err)
	}
	return state.HistoryTail, nil
}

// Migrate imports a legacy open-junction marker into the current schema.
// Idempotent by construction: the import is recorded with a persisted
// LegacyImported flag, so the marker is read at most once per state file
// no matter how the history tail churns afterwards. The legacy file
// itself is never written.
func (s *JunctionServiceImpl) Migrate(ctx context.Context) (bool, error) {
	legacy, err := s.junctionRepo.LoadLegacy(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read legacy state: %w", err)
	}
	if legacy == nil || !legacy.AwaitingDecision {
		return false, nil
	}

	typ := junction.Type(legacy.JunctionType)
	if !typ.Valid() || !typ.IsPausing() {
		// Unknown legacy types pause rather than auto-run
		typ = junction.TypeAmbiguous
	}
	source := legacy.JunctionSource
	if source == "" {
		source = "legacy"
	}
	fingerprint := junction.Fingerprint(typ, legacy.JunctionPrompt)
	migratedID := "legacy-" + fingerprint[:12]

	migrated := false
	_, err = s.junctionRepo.Update(ctx, func(state *junction.State) error {
		if state.LegacyImported || state.Pending != nil {
			return errNothingPending
		}

		state.LegacyImported = true
		state.Pending = &junction.Record{
			ID:        migratedID,
			Type:      typ,
			Payload:   legacy.JunctionPrompt,
			CreatedAt: s.now().UTC(),
			Source:    source,
		}
		migrated = true
		return nil
	})
	if errors.Is(err, errNothingPending) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to migrate legacy junction: %w", err)
	}
	return migrated, nil
}
