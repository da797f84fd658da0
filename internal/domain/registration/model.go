// Package registration defines the registration ledger entry: one row per
// (event, participant) pair, carrying ticket, payment, and attendance state.
package registration

import (
	"errors"
	"time"
)

// Status lifecycle of a registration. Confirmed and Rejected are terminal.
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusRejected  = "Rejected"
)

// PaymentStatus of a registration.
const (
	PaymentPending   = "Pending"
	PaymentCompleted = "Completed"
	PaymentFailed    = "Failed"
)

// FormResponse is one answered field of a Normal event's custom form.
type FormResponse struct {
	FieldID string `json:"field_id"`
	Label   string `json:"label"`
	Value   string `json:"value"`
}

// Order holds the merchandise selection of a Merchandise registration.
type Order struct {
	Size        string
	Color       string
	Quantity    int
	TotalAmount int
}

// Registration references its Event and Participant by identifier only;
// ownership cycles are resolved by lookup, never by embedded objects.
type Registration struct {
	ID            string
	EventID       string
	ParticipantID string
	Status        string
	PaymentStatus string
	AmountPaid    int

	// Ticket, present once Confirmed. TicketID is globally unique.
	TicketID string
	QRCode   string // encoded scannable payload

	FormResponses   []FormResponse // Normal events
	Order           *Order         // Merchandise events
	PaymentProofRef string         // opaque reference to an uploaded proof
	RejectionReason string

	Attended           bool
	AttendanceMarkedAt time.Time
	RegisteredAt       time.Time
}

// HasTicket reports whether a ticket has been issued.
func (r *Registration) HasTicket() bool { return r.TicketID != "" }

// Validate checks if the Registration has valid data.
// PRE: Registration struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (r *Registration) Validate() error {
	if r.EventID == "" {
		return errors.New("registration must reference an event")
	}
	if r.ParticipantID == "" {
		return errors.New("registration must reference a participant")
	}
	switch r.Status {
	case StatusPending, StatusConfirmed, StatusRejected:
	default:
		return errors.New("invalid registration status")
	}
	if r.Status == StatusConfirmed && !r.HasTicket() {
		return errors.New("confirmed registration must carry a ticket")
	}
	if r.Order != nil && r.Order.Quantity < 1 {
		return errors.New("order quantity must be at least 1")
	}
	return nil
}
