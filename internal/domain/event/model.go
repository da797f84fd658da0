// Package event defines the event domain type and the rules that gate
// registration: status, deadline, capacity, and eligibility.
package event

import (
	"errors"
	"fmt"
	"time"

	"felicity/internal/domain/participant"
)

// Type of event. The type decides which registration lifecycle applies.
const (
	TypeNormal      = "Normal"      // instant-confirm with a custom form
	TypeMerchandise = "Merchandise" // approval-gated, stock-limited orders
	TypeHackathon   = "Hackathon"   // quorum-gated team registration
)

// Status lifecycle of an event.
const (
	StatusDraft     = "Draft"
	StatusPublished = "Published"
	StatusOngoing   = "Ongoing"
	StatusCompleted = "Completed"
	StatusClosed    = "Closed"
)

// Eligibility restricts which participant category may register.
const (
	EligibilityAll         = "All"
	EligibilityIIITOnly    = "IIIT Only"
	EligibilityNonIIITOnly = "Non-IIIT Only"
)

// FormField is one field of a Normal event's custom registration form.
type FormField struct {
	ID       string   `json:"field_id"`
	Type     string   `json:"field_type"` // text, email, number, textarea, dropdown, checkbox, radio, file, date
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Order    int      `json:"order"`
}

// CustomForm holds a Normal event's form definition. Locked is a one-way
// flag set on the first registration; a locked form never changes shape.
type CustomForm struct {
	Fields []FormField `json:"fields"`
	Locked bool        `json:"locked"`
}

// Variant is a size/color combination of a merchandise item with its own
// stock count. StockQuantity is never negative.
type Variant struct {
	Size          string
	Color         string
	StockQuantity int
	Price         int
}

// Merchandise holds a Merchandise event's catalog details.
type Merchandise struct {
	ItemName      string
	Description   string
	Variants      []Variant
	PurchaseLimit int // max units per participant across non-rejected orders
	TotalStock    int
}

// Event represents a bookable event created by an organizer.
// RegistrationCount, Revenue, and Attendance are counters owned by the
// storage layer; no other component writes them directly.
type Event struct {
	ID                   string
	Name                 string
	Description          string // markdown, rendered for email bodies
	Type                 string
	OrganizerID          string
	Eligibility          string
	Venue                string
	RegistrationDeadline time.Time
	StartDate            time.Time
	EndDate              time.Time
	RegistrationLimit    int
	RegistrationFee      int
	RegistrationCount    int
	Status               string
	TeamSize             int          // Hackathon only: required team size
	CustomForm           *CustomForm  // Normal only
	Merchandise          *Merchandise // Merchandise only
	Revenue              int
	Attendance           int
	CreatedAt            time.Time
}

// IsFull returns true when no registration slots remain.
func (e *Event) IsFull() bool {
	return e.RegistrationCount >= e.RegistrationLimit
}

// Remaining returns the number of available registration slots.
func (e *Event) Remaining() int {
	return e.RegistrationLimit - e.RegistrationCount
}

// OpenForRegistration checks status and deadline against now.
// POST: Returns nil when a registration may be attempted
func (e *Event) OpenForRegistration(now time.Time) error {
	if e.Status != StatusPublished {
		return errors.New("event is not open for registration")
	}
	if now.After(e.RegistrationDeadline) {
		return errors.New("registration deadline has passed")
	}
	return nil
}

// EligibleFor checks the event's eligibility rule against a participant category.
func (e *Event) EligibleFor(category string) error {
	switch e.Eligibility {
	case EligibilityIIITOnly:
		if category != participant.CategoryIIIT {
			return errors.New("this event is only for IIIT students")
		}
	case EligibilityNonIIITOnly:
		if category == participant.CategoryIIIT {
			return errors.New("this event is only for Non-IIIT participants")
		}
	}
	return nil
}

// FindVariant returns the variant matching size and color, or nil.
func (m *Merchandise) FindVariant(size, color string) *Variant {
	for i := range m.Variants {
		if m.Variants[i].Size == size && m.Variants[i].Color == color {
			return &m.Variants[i]
		}
	}
	return nil
}

// Validate checks if the Event has valid data.
// PRE: Event struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: RegistrationCount never exceeds RegistrationLimit
func (e *Event) Validate() error {
	if e.Name == "" {
		return errors.New("event name is required")
	}
	if e.OrganizerID == "" {
		return errors.New("event must have an organizer")
	}
	switch e.Type {
	case TypeNormal, TypeMerchandise, TypeHackathon:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.RegistrationLimit <= 0 {
		return errors.New("registration limit must be positive")
	}
	if e.RegistrationDeadline.IsZero() {
		return errors.New("registration deadline is required")
	}
	if e.Type == TypeHackathon && e.TeamSize < 1 {
		return errors.New("hackathon events require a team size of at least 1")
	}
	if e.Type == TypeMerchandise {
		if e.Merchandise == nil || len(e.Merchandise.Variants) == 0 {
			return errors.New("merchandise events require at least one variant")
		}
		for _, v := range e.Merchandise.Variants {
			if v.StockQuantity < 0 {
				return errors.New("variant stock cannot be negative")
			}
		}
	}
	return nil
}
