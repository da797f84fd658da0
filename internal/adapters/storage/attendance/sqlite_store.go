package attendance

import (
	"context"
	"database/sql"
	"fmt"

	"felicity/internal/adapters/storage"
	domain "felicity/internal/domain/attendance"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new attendance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ Store = (*SQLiteStore)(nil)

// Append inserts one audit row. There is deliberately no update or delete.
// PRE: rec has been validated
func (s *SQLiteStore) Append(ctx context.Context, rec domain.Record) error {
	duplicate := 0
	if rec.Duplicate {
		duplicate = 1
	}
	var reason any
	if rec.Reason != "" {
		reason = rec.Reason
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance_log (id, event_id, registration_id, participant_id,
			scanned_by, scanned_by_role, method, duplicate, reason, user_agent, ip, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EventID, rec.RegistrationID, rec.ParticipantID,
		rec.ScannedBy, rec.ScannedByRole, rec.Method, duplicate, reason,
		rec.UserAgent, rec.IP, storage.FormatTime(rec.CreatedAt))
	return err
}

// ListByEvent returns the audit trail for an event, newest first.
func (s *SQLiteStore) ListByEvent(ctx context.Context, eventID string) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, registration_id, participant_id, scanned_by, scanned_by_role,
			method, duplicate, reason, user_agent, ip, created_at
		FROM attendance_log WHERE event_id = ? ORDER BY created_at DESC`,
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.Record
		var duplicate int
		var reason sql.NullString
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.RegistrationID, &rec.ParticipantID,
			&rec.ScannedBy, &rec.ScannedByRole, &rec.Method, &duplicate, &reason,
			&rec.UserAgent, &rec.IP, &createdAt); err != nil {
			return nil, err
		}
		rec.Duplicate = duplicate == 1
		rec.Reason = reason.String
		if rec.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
