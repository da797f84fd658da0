package attendance

import (
	"context"

	domain "felicity/internal/domain/attendance"
)

// Store persists the append-only attendance audit trail. Records are never
// updated or deleted.
type Store interface {
	Append(ctx context.Context, rec domain.Record) error
	ListByEvent(ctx context.Context, eventID string) ([]domain.Record, error)
}
