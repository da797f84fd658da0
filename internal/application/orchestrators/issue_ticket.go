package orchestrators

import (
	"fmt"
	"time"

	"felicity/internal/domain/event"
	"felicity/internal/domain/participant"
	"felicity/internal/domain/ticket"
)

// TicketEncoder turns a ticket payload into an embeddable QR code value.
type TicketEncoder interface {
	Encode(p ticket.Payload) (string, error)
}

// TicketIssuer mints ticket identifiers and their QR code values. NewID is
// injectable so tests can produce deterministic identifiers.
type TicketIssuer struct {
	Encoder TicketEncoder
	NewID   func() string
}

// Issue mints a ticket for a registration of p to ev.
// POST: returned ID carries the ticket prefix; encoded value round-trips
// through the encoder's Decode.
func (t TicketIssuer) Issue(ev event.Event, p participant.Participant, at time.Time) (string, string, error) {
	newID := t.NewID
	if newID == nil {
		newID = ticket.NewID
	}
	id := newID()
	encoded, err := t.Encoder.Encode(ticket.Payload{
		TicketID:         id,
		EventID:          ev.ID,
		EventName:        ev.Name,
		ParticipantID:    p.ID,
		ParticipantName:  p.FullName(),
		ParticipantEmail: p.Email,
		RegisteredAt:     at,
	})
	if err != nil {
		return "", "", fmt.Errorf("encode ticket %s: %w", id, err)
	}
	return id, encoded, nil
}
