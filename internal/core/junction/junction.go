// Package junction contains the pure business logic for decision points.
// This is part of the Functional Core - no I/O, only pure functions.
package junction

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Type classifies why autonomous execution must pause.
type Type string

const (
	// TypeNone means the action is safe to auto-execute.
	TypeNone Type = "NONE"
	// TypeIrreversible means the action destroys or publishes state that
	// cannot be recovered by the supervisor.
	TypeIrreversible Type = "IRREVERSIBLE"
	// TypeExternal means the action reaches infrastructure outside the
	// working tree.
	TypeExternal Type = "EXTERNAL"
	// TypeAmbiguous means the agent surfaced an open choice.
	TypeAmbiguous Type = "AMBIGUOUS"
	// TypeBlocked means the agent surfaced an explicit failure.
	TypeBlocked Type = "BLOCKED"
)

// IsPausing reports whether the type requires a human decision.
func (t Type) IsPausing() bool {
	return t != TypeNone && t != ""
}

// Valid reports whether t is one of the five known types.
func (t Type) Valid() bool {
	switch t {
	case TypeNone, TypeIrreversible, TypeExternal, TypeAmbiguous, TypeBlocked:
		return true
	}
	return false
}

// Decision is a human response to a pending junction.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionSkip    Decision = "skip"
	DecisionDismiss Decision = "dismiss"
	DecisionStop    Decision = "stop"
)

// ParseDecision maps a command string to a Decision. "off" is accepted as
// an alias for stop.
func ParseDecision(s string) (Decision, bool) {
	switch Decision(s) {
	case DecisionApprove, DecisionSkip, DecisionDismiss, DecisionStop:
		return Decision(s), true
	}
	if s == "off" {
		return DecisionStop, true
	}
	return "", false
}

// Record is the single pending decision. At most one exists per session.
type Record struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Payload   string    `json:"payload"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
}

// HistoryEntry is a resolved junction kept in the bounded history tail.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Decision  Decision  `json:"decision"`
	DecidedAt time.Time `json:"decided_at"`
}

// SuppressionEntry auto-resolves matching junctions until it expires.
type SuppressionEntry struct {
	Fingerprint string    `json:"fingerprint"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HistoryCap bounds the history tail; oldest entries drop first.
const HistoryCap = 10

// SchemaVersion is the current on-disk junction state schema.
const SchemaVersion = 2

// State is the single source of truth for "is a decision pending."
// LegacyImported marks that the one-time legacy migration already ran;
// it persists past any history churn so a decided legacy junction never
// comes back.
type State struct {
	SchemaVersion  int                `json:"schema_version"`
	Pending        *Record            `json:"pending"`
	HistoryTail    []HistoryEntry     `json:"history_tail"`
	Suppression    []SuppressionEntry `json:"suppression"`
	LegacyImported bool               `json:"legacy_imported,omitempty"`
}

// NewState returns the default state shape.
func NewState() State {
	return State{SchemaVersion: SchemaVersion}
}

// Fingerprint computes a stable content hash of a junction's identity.
// Identical (type, payload) pairs always produce the same fingerprint.
func Fingerprint(t Type, payload string) string {
	h := sha256.Sum256([]byte(string(t) + "\x00" + payload))
	return hex.EncodeToString(h[:16])
}

// AppendHistory appends entry to tail, dropping the oldest entries so the
// result never exceeds HistoryCap. Most recent entry is last.
func AppendHistory(tail []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	tail = append(tail, entry)
	if len(tail) > HistoryCap {
		tail = tail[len(tail)-HistoryCap:]
	}
	return tail
}

// IsSuppressed reports whether fingerprint matches an unexpired
// suppression entry at the given time.
func IsSuppressed(entries []SuppressionEntry, fingerprint string, now time.Time) bool {
	for _, e := range entries {
		if e.Fingerprint == fingerprint && now.Before(e.ExpiresAt) {
			return true
		}
	}
	return false
}

// PruneSuppression drops expired entries. Returns the kept entries.
func PruneSuppression(entries []SuppressionEntry, now time.Time) []SuppressionEntry {
	kept := entries[:0:0]
	for _, e := range entries {
		if now.Before(e.ExpiresAt) {
			kept = append(kept, e)
		}
	}
	return kept
}
