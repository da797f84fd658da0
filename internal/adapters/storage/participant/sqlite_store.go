package participant

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"felicity/internal/adapters/storage"
	domain "felicity/internal/domain/participant"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new participant store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ Store = (*SQLiteStore)(nil)

const columns = "id, first_name, last_name, email, category, college_name, contact_number, created_at"

// GetByID retrieves a Participant by ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Participant, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM participant WHERE id = ?", id)
	return scanParticipant(row)
}

// GetByEmail retrieves a Participant by email.
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Participant, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM participant WHERE email = ?", email)
	return scanParticipant(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (domain.Participant, error) {
	var p domain.Participant
	var createdAt string
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Category,
		&p.CollegeName, &p.ContactNumber, &createdAt)
	if err == sql.ErrNoRows {
		return domain.Participant{}, ErrNotFound
	}
	if err != nil {
		return domain.Participant{}, err
	}
	if p.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Participant{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return p, nil
}

// Save persists a Participant (insert or update).
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, p domain.Participant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participant (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name=excluded.first_name, last_name=excluded.last_name,
			email=excluded.email, category=excluded.category,
			college_name=excluded.college_name, contact_number=excluded.contact_number`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Category,
		p.CollegeName, p.ContactNumber, storage.FormatTime(p.CreatedAt))
	return err
}

// ListByIDs returns the participants matching ids, in no particular order.
func (s *SQLiteStore) ListByIDs(ctx context.Context, ids []string) ([]domain.Participant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+columns+" FROM participant WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
