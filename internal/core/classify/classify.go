// Package classify maps proposed agent actions to junction verdicts.
// This is part of the Functional Core - no I/O, only pure functions.
package classify

import (
	"regexp"
	"strings"

	"github.com/example/warden/internal/core/junction"
)

// chainSeparator splits simple command chains (&&, ||, ;, |) so each
// segment is classified on its own. The full command is also checked
// whole, so shapes that span separators (fork bombs) still match.
var chainSeparator = regexp.MustCompile(`\s*(\|\||&&|;|\|)\s*`)

// ShellCommand classifies a proposed shell command.
// IRREVERSIBLE patterns are checked before EXTERNAL patterns for every
// segment; a command matching neither tier is safe to auto-execute.
func ShellCommand(text string) junction.Type {
	verdict, _ := ShellCommandReason(text)
	return verdict
}

// ShellCommandReason classifies a shell command and reports which rule
// matched. Returns (NONE, "") for safe commands.
func ShellCommandReason(text string) (junction.Type, string) {
	normalized := normalize(text)
	if normalized == "" {
		return junction.TypeNone, ""
	}

	segments := append([]string{normalized}, chainSeparator.Split(normalized, -1)...)

	// Irreversible tier first: a chain with one destructive segment is
	// destructive no matter what else it does.
	for _, seg := range segments {
		for _, r := range irreversibleRules {
			if r.pattern.MatchString(seg) {
				return junction.TypeIrreversible, r.reason
			}
		}
	}

	for _, seg := range segments {
		for _, r := range externalRules {
			if r.pattern.MatchString(seg) {
				return junction.TypeExternal, r.reason
			}
		}
	}

	return junction.TypeNone, ""
}

// ControlCommand classifies a control command by name against the fixed
// allow-list. Unknown commands pause rather than auto-run.
func ControlCommand(name string) junction.Type {
	key := strings.TrimPrefix(normalize(name), "/")
	if fields := strings.Fields(key); len(fields) > 0 {
		key = fields[0]
	}
	if controlAllowList[key] {
		return junction.TypeNone
	}
	return junction.TypeAmbiguous
}

// Output scans free-text agent output for junction signals.
// BLOCKED signals take precedence over AMBIGUOUS signals in the same
// text; (NONE, "") means no signal was found.
func Output(text string) (junction.Type, string) {
	if strings.TrimSpace(text) == "" {
		return junction.TypeNone, ""
	}

	for _, r := range blockedRules {
		if r.pattern.MatchString(text) {
			return junction.TypeBlocked, r.reason
		}
	}

	for _, r := range ambiguousRules {
		if r.pattern.MatchString(text) {
			return junction.TypeAmbiguous, r.reason
		}
	}

	return junction.TypeNone, ""
}

// normalize lowercases and collapses whitespace for tolerant matching.
func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
