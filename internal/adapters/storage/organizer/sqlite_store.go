package organizer

import (
	"context"
	"database/sql"

	"felicity/internal/adapters/storage"
	domain "felicity/internal/domain/organizer"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new organizer store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ Store = (*SQLiteStore)(nil)

// GetByID retrieves an Organizer by ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Organizer, error) {
	var o domain.Organizer
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email FROM organizer WHERE id = ?", id).
		Scan(&o.ID, &o.Name, &o.Email)
	if err == sql.ErrNoRows {
		return domain.Organizer{}, ErrNotFound
	}
	return o, err
}

// Save persists an Organizer (insert or update).
func (s *SQLiteStore) Save(ctx context.Context, o domain.Organizer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO organizer (id, name, email) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, email=excluded.email`,
		o.ID, o.Name, o.Email)
	return err
}
