package event

import (
	"context"
	"errors"

	domain "felicity/internal/domain/event"
)

// Sentinel errors surfaced by the store.
var (
	// ErrNotFound is returned when the event does not exist.
	ErrNotFound = errors.New("event not found")
	// ErrInsufficientStock is returned when the conditional stock decrement
	// matches no variant row; nothing has been changed.
	ErrInsufficientStock = errors.New("insufficient stock for variant")
	// ErrOrderNotPending is returned when the registration being approved is
	// no longer Pending; the whole approval is rolled back.
	ErrOrderNotPending = errors.New("registration is not pending")
	// ErrFormLocked is returned when a locked custom form is edited.
	ErrFormLocked = errors.New("custom form is locked")
	// ErrCapacityExceeded is returned when a counter increment would push
	// registration_count past registration_limit.
	ErrCapacityExceeded = errors.New("registration limit reached")
	// ErrTicketCollision is returned when the minted ticket id already
	// exists; the caller may retry with a fresh mint.
	ErrTicketCollision = errors.New("ticket id collision")
)

// ApproveOrder carries the parameters of the authoritative inventory gate.
type ApproveOrder struct {
	EventID        string
	RegistrationID string
	Size           string
	Color          string
	Quantity       int
	Revenue        int
	TicketID       string
	QRCode         string
}

// Store persists Event state and owns every mutation of the shared counters
// (registration count, revenue, attendance) and of variant stock.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Save(ctx context.Context, e domain.Event) error
	ListIDsByOrganizer(ctx context.Context, organizerID string) ([]string, error)

	// ApproveOrderInventory performs the single atomic gate that consumes
	// stock: decrement the matching variant (only if it still has enough),
	// adjust the event counters, and confirm the registration with its
	// ticket, all in one transaction with no partial effect.
	ApproveOrderInventory(ctx context.Context, p ApproveOrder) error

	// IncrementRegistrations applies one counter increment covering a batch
	// of confirmed registrations (bulk team registration).
	IncrementRegistrations(ctx context.Context, eventID string, count, revenue int) error

	// SaveCustomForm replaces the form definition unless it is locked.
	SaveCustomForm(ctx context.Context, eventID string, form domain.CustomForm) error
}
