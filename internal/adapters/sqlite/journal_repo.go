// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/warden/internal/ports/secondary"
)

// JournalRepository implements secondary.TurnJournal with SQLite.
type JournalRepository struct {
	db *sql.DB
}

// NewJournalRepository creates a new SQLite journal repository.
func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// RecordTurn persists a turn receipt.
func (r *JournalRepository) RecordTurn(ctx context.Context, receipt *secondary.TurnReceiptRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO turn_receipts (id, mode, transitioned_to, junction_id, junction_type, junction_reason, decision, continue_loop, message) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.ID,
		receipt.Mode,
		nullable(receipt.TransitionedTo),
		nullable(receipt.JunctionID),
		nullable(receipt.JunctionType),
		nullable(receipt.JunctionReason),
		nullable(receipt.Decision),
		boolToInt(receipt.ContinueLoop),
		receipt.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to record turn: %w", err)
	}
	return nil
}

// RecordDecision persists a human decision audit row.
func (r *JournalRepository) RecordDecision(ctx context.Context, decision *secondary.DecisionLogRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO decision_log (id, junction_id, junction_type, decision, payload) VALUES (?, ?, ?, ?, ?)`,
		decision.ID,
		decision.JunctionID,
		decision.JunctionType,
		decision.Decision,
		decision.Payload,
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// RecentTurns retrieves the most recent receipts, newest first.
func (r *JournalRepository) RecentTurns(ctx context.Context, limit int) ([]*secondary.TurnReceiptRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, mode, transitioned_to, junction_id, junction_type, junction_reason, decision, continue_loop, message, created_at FROM turn_receipts ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var receipts []*secondary.TurnReceiptRecord
	for rows.Next() {
		var (
			record         secondary.TurnReceiptRecord
			transitionedTo sql.NullString
			junctionID     sql.NullString
			junctionType   sql.NullString
			junctionReason sql.NullString
			decision       sql.NullString
			continueLoop   int
			createdAt      time.Time
		)
		if err := rows.Scan(&record.ID, &record.Mode, &transitionedTo, &junctionID, &junctionType, &junctionReason, &decision, &continueLoop, &record.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn receipt: %w", err)
		}
		record.TransitionedTo = transitionedTo.String
		record.JunctionID = junctionID.String
		record.JunctionType = junctionType.String
		record.JunctionReason = junctionReason.String
		record.Decision = decision.String
		record.ContinueLoop = continueLoop != 0
		record.CreatedAt = createdAt.Format(time.RFC3339)
		receipts = append(receipts, &record)
	}
	return receipts, rows.Err()
}

// RecentDecisions retrieves the most recent decisions, newest first.
func (r *JournalRepository) RecentDecisions(ctx context.Context, limit int) ([]*secondary.DecisionLogRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, junction_id, junction_type, decision, payload, decided_at FROM decision_log ORDER BY decided_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*secondary.DecisionLogRecord
	for rows.Next() {
		var (
			record    secondary.DecisionLogRecord
			payload   sql.NullString
			decidedAt time.Time
		)
		if err := rows.Scan(&record.ID, &record.JunctionID, &record.JunctionType, &record.Decision, &payload, &decidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		record.Payload = payload.String
		record.DecidedAt = decidedAt.Format(time.RFC3339)
		decisions = append(decisions, &record)
	}
	return decisions, rows.Err()
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
