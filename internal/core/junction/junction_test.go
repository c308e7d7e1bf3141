package junction

import (
	"fmt"
	"testing"
	"time"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		input  string
		want   Decision
		wantOK bool
	}{
		{"approve", DecisionApprove, true},
		{"skip", DecisionSkip, true},
		{"dismiss", DecisionDismiss, true},
		{"stop", DecisionStop, true},
		{"off", DecisionStop, true},
		{"maybe", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDecision(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDecision(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseDecision(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint(TypeIrreversible, "rm -rf build/")
	b := Fingerprint(TypeIrreversible, "rm -rf build/")
	if a != b {
		t.Errorf("same (type, payload) produced different fingerprints: %q vs %q", a, b)
	}

	if Fingerprint(TypeExternal, "rm -rf build/") == a {
		t.Error("different type produced identical fingerprint")
	}
	if Fingerprint(TypeIrreversible, "rm -rf dist/") == a {
		t.Error("different payload produced identical fingerprint")
	}
}

func TestAppendHistoryCap(t *testing.T) {
	var tail []HistoryEntry
	for i := 0; i < HistoryCap+1; i++ {
		tail = AppendHistory(tail, HistoryEntry{
			ID:       fmt.Sprintf("J-%03d", i),
			Type:     TypeAmbiguous,
			Decision: DecisionSkip,
		})
	}

	if len(tail) != HistoryCap {
		t.Fatalf("len(tail) = %d, want %d", len(tail), HistoryCap)
	}
	// Oldest entry dropped, most recent last
	if tail[0].ID != "J-001" {
		t.Errorf("tail[0].ID = %q, want J-001 (oldest entry should drop)", tail[0].ID)
	}
	if tail[len(tail)-1].ID != fmt.Sprintf("J-%03d", HistoryCap) {
		t.Errorf("tail[last].ID = %q, want J-%03d", tail[len(tail)-1].ID, HistoryCap)
	}
}

func TestIsSuppressed(t *testing.T) {
	now := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)
	fp := Fingerprint(TypeExternal, "kubectl apply -f x.yaml")

	entries := []SuppressionEntry{
		{Fingerprint: fp, ExpiresAt: now.Add(30 * time.Minute)},
		{Fingerprint: "other", ExpiresAt: now.Add(-1 * time.Minute)},
	}

	if !IsSuppressed(entries, fp, now) {
		t.Error("unexpired matching entry should suppress")
	}
	if IsSuppressed(entries, fp, now.Add(31*time.Minute)) {
		t.Error("expired entry should not suppress")
	}
	if IsSuppressed(entries, "other", now) {
		t.Error("expired entry should not suppress even when fingerprint matches")
	}
	if IsSuppressed(entries, "unknown", now) {
		t.Error("unknown fingerprint should not suppress")
	}
}

func TestPruneSuppression(t *testing.T) {
	now := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)

	entries := []SuppressionEntry{
		{Fingerprint: "live", ExpiresAt: now.Add(time.Minute)},
		{Fingerprint: "dead", ExpiresAt: now.Add(-time.Minute)},
	}

	kept := PruneSuppression(entries, now)
	if len(kept) != 1 {
		t.Fatalf("len(kept) = %d, want 1", len(kept))
	}
	if kept[0].Fingerprint != "live" {
		t.Errorf("kept[0].Fingerprint = %q, want live", kept[0].Fingerprint)
	}
}

func TestTypeValid(t *testing.T) {
	for _, typ := range []Type{TypeNone, TypeIrreversible, TypeExternal, TypeAmbiguous, TypeBlocked} {
		if !typ.Valid() {
			t.Errorf("%q should be valid", typ)
		}
	}
	if Type("URGENT").Valid() {
		t.Error("unknown type should not be valid")
	}

	if TypeNone.IsPausing() {
		t.Error("NONE must not pause")
	}
	for _, typ := range []Type{TypeIrreversible, TypeExternal, TypeAmbiguous, TypeBlocked} {
		if !typ.IsPausing() {
			t.Errorf("%q must pause", typ)
		}
	}
}
