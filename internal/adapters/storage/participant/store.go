package participant

import (
	"context"
	"errors"

	domain "felicity/internal/domain/participant"
)

// ErrNotFound is returned when the participant does not exist.
var ErrNotFound = errors.New("participant not found")

// Store persists Participant state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Participant, error)
	GetByEmail(ctx context.Context, email string) (domain.Participant, error)
	Save(ctx context.Context, p domain.Participant) error
	ListByIDs(ctx context.Context, ids []string) ([]domain.Participant, error)
}
