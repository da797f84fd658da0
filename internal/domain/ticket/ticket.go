// Package ticket mints ticket identifiers and scannable payloads for
// confirmed registrations.
package ticket

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// IDPrefix starts every ticket identifier.
const IDPrefix = "TKT-"

// NewID mints a ticket identifier: the prefix plus 16 uppercase hex digits
// of cryptographic randomness. Uniqueness is ultimately enforced by the
// storage layer's unique index; a collision surfaces there as a retryable
// creation failure, never as a silent overwrite.
func NewID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return IDPrefix + strings.ToUpper(hex.EncodeToString(buf))
}

// Payload is the structured content of a scannable credential. It is handed
// to an encoder collaborator; this package never renders images.
type Payload struct {
	TicketID         string    `json:"ticket_id"`
	EventID          string    `json:"event_id"`
	EventName        string    `json:"event_name"`
	ParticipantID    string    `json:"participant_id"`
	ParticipantName  string    `json:"participant_name"`
	ParticipantEmail string    `json:"participant_email"`
	RegisteredAt     time.Time `json:"registered_at"`
}
