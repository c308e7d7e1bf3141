package db

// SchemaSQL is the complete schema for the session journal. This is the
// single source of truth: tests use InitSchema rather than hardcoding
// CREATE TABLE statements, so repository drift fails immediately with
// "no such column".
const SchemaSQL = `
-- Turn receipts (one row per dispatch turn)
CREATE TABLE IF NOT EXISTS turn_receipts (
	id TEXT PRIMARY KEY,
	mode TEXT NOT NULL,
	transitioned_to TEXT,
	junction_id TEXT,
	junction_type TEXT,
	junction_reason TEXT,
	decision TEXT,
	continue_loop INTEGER NOT NULL DEFAULT 0,
	message TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_turn_receipts_created ON turn_receipts(created_at);

-- Decision log (one row per human junction decision)
CREATE TABLE IF NOT EXISTS decision_log (
	id TEXT PRIMARY KEY,
	junction_id TEXT NOT NULL,
	junction_type TEXT NOT NULL,
	decision TEXT NOT NULL,
	payload TEXT,
	decided_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_decision_log_decided ON decision_log(decided_at);
`
