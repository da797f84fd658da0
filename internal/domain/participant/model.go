// Package participant defines the participant domain type.
package participant

import (
	"errors"
	"strings"
	"time"
)

// Category of participant for eligibility checks.
const (
	CategoryIIIT    = "IIIT"
	CategoryNonIIIT = "Non-IIIT"
)

// Participant represents a person who can register for events.
type Participant struct {
	ID            string
	FirstName     string
	LastName      string
	Email         string
	Category      string // CategoryIIIT or CategoryNonIIIT
	CollegeName   string
	ContactNumber string
	CreatedAt     time.Time
}

// FullName returns the display name used on tickets and exports.
func (p *Participant) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Validate checks if the Participant has valid data.
// PRE: Participant struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (p *Participant) Validate() error {
	if p.FirstName == "" {
		return errors.New("first name is required")
	}
	if p.Email == "" {
		return errors.New("email is required")
	}
	if p.Category != CategoryIIIT && p.Category != CategoryNonIIIT {
		return errors.New("participant category must be 'IIIT' or 'Non-IIIT'")
	}
	return nil
}
