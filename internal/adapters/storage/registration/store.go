package registration

import (
	"context"
	"errors"
	"time"

	domain "felicity/internal/domain/registration"
)

// Sentinel errors surfaced by the store.
var (
	// ErrNotFound is returned when the registration does not exist.
	ErrNotFound = errors.New("registration not found")
	// ErrDuplicate is returned when a (event, participant) pair already has
	// a registration; enforced by a unique index, not an application check.
	ErrDuplicate = errors.New("already registered for this event")
	// ErrCapacity is returned when the event has no remaining slots.
	ErrCapacity = errors.New("registration limit reached")
	// ErrTicketCollision is returned when a minted ticket ID already exists;
	// the caller may mint a fresh ID and retry.
	ErrTicketCollision = errors.New("ticket id collision")
	// ErrNotPending is returned when a status transition requires Pending.
	ErrNotPending = errors.New("registration is not pending")
)

// Store persists Registration state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Registration, error)
	GetByTicketID(ctx context.Context, ticketID string) (domain.Registration, error)
	GetByEventAndParticipant(ctx context.Context, eventID, participantID string) (domain.Registration, error)

	// Create inserts a registration without touching event counters. Used
	// for Pending merchandise orders and for team-member registrations,
	// whose counters are applied once per batch.
	Create(ctx context.Context, r domain.Registration) error

	// CreateCounted inserts a Confirmed registration and increments the
	// event's registration count and revenue in the same transaction,
	// guarding capacity. lockForm requests the one-way custom-form lock
	// when this is the event's first registration.
	CreateCounted(ctx context.Context, r domain.Registration, lockForm bool) error

	// SumOrderedQuantity totals the participant's non-rejected order
	// quantities for an event (per-participant purchase limit).
	SumOrderedQuantity(ctx context.Context, eventID, participantID string) (int, error)

	// Reject transitions Pending -> Rejected with a reason. No inventory or
	// counter side effects.
	Reject(ctx context.Context, id, reason string) error

	// MarkAttended flips the attended flag if not already set and, on the
	// first mark only, increments the event attendance counter in the same
	// transaction. Returns whether this call was the first mark.
	MarkAttended(ctx context.Context, id string, at time.Time) (bool, error)

	ListByParticipant(ctx context.Context, participantID string) ([]domain.Registration, error)
	ListPendingByEventIDs(ctx context.Context, eventIDs []string) ([]domain.Registration, error)
}
