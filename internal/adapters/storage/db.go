// Package storage holds the database schema and the interface shared by all
// SQLite store adapters.
package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLDB is the database interface used by all stores.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Compile-time check that *sql.DB satisfies SQLDB.
var _ SQLDB = (*sql.DB)(nil)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS participant (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		college_name TEXT NOT NULL DEFAULT '',
		contact_number TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS organizer (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS event (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		organizer_id TEXT NOT NULL,
		eligibility TEXT NOT NULL DEFAULT 'All',
		venue TEXT NOT NULL DEFAULT '',
		registration_deadline TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		registration_limit INTEGER NOT NULL,
		registration_fee INTEGER NOT NULL DEFAULT 0,
		registration_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'Draft',
		team_size INTEGER NOT NULL DEFAULT 0,
		custom_form_fields TEXT,
		custom_form_locked INTEGER NOT NULL DEFAULT 0,
		merch_item_name TEXT,
		merch_description TEXT,
		merch_purchase_limit INTEGER NOT NULL DEFAULT 1,
		merch_total_stock INTEGER NOT NULL DEFAULT 0,
		revenue INTEGER NOT NULL DEFAULT 0,
		attendance INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		FOREIGN KEY (organizer_id) REFERENCES organizer(id)
	);
	CREATE INDEX IF NOT EXISTS idx_event_organizer ON event(organizer_id);
	CREATE INDEX IF NOT EXISTS idx_event_status ON event(status);

	CREATE TABLE IF NOT EXISTS event_variant (
		event_id TEXT NOT NULL,
		size TEXT NOT NULL,
		color TEXT NOT NULL,
		stock_quantity INTEGER NOT NULL CHECK (stock_quantity >= 0),
		price INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (event_id, size, color),
		FOREIGN KEY (event_id) REFERENCES event(id)
	);

	CREATE TABLE IF NOT EXISTS registration (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		amount_paid INTEGER NOT NULL DEFAULT 0,
		ticket_id TEXT UNIQUE,
		qr_code TEXT,
		form_responses TEXT,
		order_size TEXT,
		order_color TEXT,
		order_quantity INTEGER,
		order_total INTEGER,
		payment_proof_ref TEXT,
		rejection_reason TEXT,
		attended INTEGER NOT NULL DEFAULT 0,
		attendance_marked_at TEXT,
		registered_at TEXT NOT NULL,
		UNIQUE (event_id, participant_id),
		FOREIGN KEY (event_id) REFERENCES event(id),
		FOREIGN KEY (participant_id) REFERENCES participant(id)
	);
	CREATE INDEX IF NOT EXISTS idx_registration_participant ON registration(participant_id);
	CREATE INDEX IF NOT EXISTS idx_registration_status ON registration(status);

	CREATE TABLE IF NOT EXISTS team (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		leader_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		size INTEGER NOT NULL,
		join_code TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'Forming',
		created_at TEXT NOT NULL,
		FOREIGN KEY (event_id) REFERENCES event(id),
		FOREIGN KEY (leader_id) REFERENCES participant(id)
	);
	CREATE INDEX IF NOT EXISTS idx_team_event ON team(event_id);

	CREATE TABLE IF NOT EXISTS team_member (
		team_id TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		joined_at TEXT NOT NULL,
		PRIMARY KEY (team_id, participant_id),
		FOREIGN KEY (team_id) REFERENCES team(id),
		FOREIGN KEY (participant_id) REFERENCES participant(id)
	);

	CREATE TABLE IF NOT EXISTS team_invite (
		id TEXT PRIMARY KEY,
		team_id TEXT NOT NULL,
		invited_email TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'Pending',
		invited_at TEXT NOT NULL,
		accepted_by TEXT,
		accepted_at TEXT,
		FOREIGN KEY (team_id) REFERENCES team(id)
	);
	CREATE INDEX IF NOT EXISTS idx_team_invite_team ON team_invite(team_id);

	CREATE TABLE IF NOT EXISTS attendance_log (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		registration_id TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		scanned_by TEXT NOT NULL DEFAULT '',
		scanned_by_role TEXT NOT NULL DEFAULT 'Organizer',
		method TEXT NOT NULL,
		duplicate INTEGER NOT NULL DEFAULT 0,
		reason TEXT,
		user_agent TEXT NOT NULL DEFAULT '',
		ip TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (event_id) REFERENCES event(id),
		FOREIGN KEY (registration_id) REFERENCES registration(id)
	);
	CREATE INDEX IF NOT EXISTS idx_attendance_log_event ON attendance_log(event_id);
	CREATE INDEX IF NOT EXISTS idx_attendance_log_registration ON attendance_log(registration_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
