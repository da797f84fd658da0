package organizer

import (
	"context"
	"errors"

	domain "felicity/internal/domain/organizer"
)

// ErrNotFound is returned when the organizer does not exist.
var ErrNotFound = errors.New("organizer not found")

// Store persists Organizer state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Organizer, error)
	Save(ctx context.Context, o domain.Organizer) error
}
