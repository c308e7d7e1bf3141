package classify

import (
	"regexp"

	"github.com/example/warden/internal/core/junction"
)

// rule pairs a compiled predicate with the verdict it produces.
// Rules are evaluated first-match-wins within a tier.
type rule struct {
	pattern *regexp.Regexp
	reason  string
}

// CommandTierOrder is the precedence ordering for shell command tiers.
// IRREVERSIBLE always wins over EXTERNAL when a command matches both.
var CommandTierOrder = []junction.Type{junction.TypeIrreversible, junction.TypeExternal}

// OutputTierOrder is the precedence ordering for output signal tiers.
// BLOCKED always wins over AMBIGUOUS when both appear in the same text.
var OutputTierOrder = []junction.Type{junction.TypeBlocked, junction.TypeAmbiguous}

// Irreversible command shapes: destructive deletes, history rewrite,
// pushes to shared remotes, recursive permission changes, filesystem
// formatting, fork bombs, destructive SQL.
var irreversibleRules = []rule{
	{regexp.MustCompile(`\brm\s+(-\w*r\w*f|-\w*f\w*r)\b`), "recursive force delete"},
	{regexp.MustCompile(`\brm\s+-\w*r\b.*\s-\w*f\b`), "recursive force delete"},
	{regexp.MustCompile(`\bshred\b`), "secure file destruction"},
	{regexp.MustCompile(`\bgit\s+push\b`), "push to shared remote"},
	{regexp.MustCompile(`\bgit\s+(rebase|filter-branch|filter-repo)\b`), "git history rewrite"},
	{regexp.MustCompile(`\bgit\s+reset\s+--hard\b`), "discards local changes"},
	{regexp.MustCompile(`\bgit\s+clean\s+-\w*f`), "deletes untracked files"},
	{regexp.MustCompile(`\bgit\s+branch\s+-d\b`), "branch delete"},
	{regexp.MustCompile(`\bgit\s+checkout\s+\.\B`), "discards working tree edits"},
	{regexp.MustCompile(`\b(chmod|chown)\s+(-\w*r|--recursive)\b`), "recursive permission change"},
	{regexp.MustCompile(`\bmkfs\b`), "filesystem format"},
	{regexp.MustCompile(`\bdd\b.*\bof=/dev/`), "raw device write"},
	{regexp.MustCompile(`:\(\)\s*\{\s*:\|:&\s*\}\s*;\s*:`), "fork bomb"},
	{regexp.MustCompile(`\bdrop\s+(table|database|schema)\b`), "destructive SQL"},
	{regexp.MustCompile(`\btruncate\s+table\b`), "destructive SQL"},
}

// External command shapes: calls that leave the working tree for cloud
// infra, package registries, or remote hosts.
var externalRules = []rule{
	{regexp.MustCompile(`\b(kubectl|helm|terraform|pulumi)\b`), "infrastructure tool"},
	{regexp.MustCompile(`\b(aws|gcloud|az)\s`), "cloud provider CLI"},
	{regexp.MustCompile(`\bdocker\s+(push|login)\b`), "container registry"},
	{regexp.MustCompile(`\bnpm\s+publish\b`), "package registry publish"},
	{regexp.MustCompile(`\b(pip|twine)\s+upload\b`), "package registry publish"},
	{regexp.MustCompile(`\bcargo\s+publish\b`), "package registry publish"},
	{regexp.MustCompile(`\bgem\s+push\b`), "package registry publish"},
	{regexp.MustCompile(`\bgh\s+(release|pr\s+merge)\b`), "remote repository operation"},
	{regexp.MustCompile(`\b(curl|wget)\s`), "remote HTTP call"},
	{regexp.MustCompile(`\b(ssh|scp|rsync)\s.*@`), "remote host access"},
}

// Control commands safe to auto-run. Everything else pauses: the
// allow-list is the only source of trust.
var controlAllowList = map[string]bool{
	"status":  true,
	"plan":    true,
	"next":    true,
	"log":     true,
	"journal": true,
	"help":    true,
	"version": true,
	"context": true,
	"diff":    true,
	"show":    true,
}

// Blocked output signals: explicit failure language.
var blockedRules = []rule{
	{regexp.MustCompile(`(?i)\berror\b`), "error reported"},
	{regexp.MustCompile(`(?i)\bfail(ed|ure|ing)?\b`), "failure reported"},
	{regexp.MustCompile(`(?i)\bfatal\b`), "fatal condition"},
	{regexp.MustCompile(`(?i)\bpanic\b`), "panic reported"},
	{regexp.MustCompile(`(?i)\bexception\b`), "exception reported"},
	{regexp.MustCompile(`(?i)\bmismatch\b`), "mismatch reported"},
	{regexp.MustCompile(`(?i)\bcannot\s+(proceed|continue)\b`), "explicit stop"},
	{regexp.MustCompile(`(?i)\bpermission\s+denied\b`), "permission denied"},
	{regexp.MustCompile(`(?i)\bblocked\b`), "explicitly blocked"},
}

// Ambiguous output signals: explicit multiple-choice language.
var ambiguousRules = []rule{
	{regexp.MustCompile(`(?i)\bchoose\s+between\b`), "open choice"},
	{regexp.MustCompile(`(?i)\bwhich\s+(option|approach|one)\b`), "open choice"},
	{regexp.MustCompile(`(?i)\boption\s+[a-z0-9]\s+or\b`), "open choice"},
	{regexp.MustCompile(`(?i)\b(several|multiple)\s+(options|approaches|alternatives|ways)\b`), "multiple alternatives"},
	{regexp.MustCompile(`(?i)\balternatively\b`), "alternative proposed"},
	{regexp.MustCompile(`(?i)\bambiguous\b`), "explicitly ambiguous"},
	{regexp.MustCompile(`(?i)\bunclear\s+(whether|if|which)\b`), "unclear requirement"},
	{regexp.MustCompile(`(?i)\bshould\s+i\b.*\?`), "question to operator"},
}
