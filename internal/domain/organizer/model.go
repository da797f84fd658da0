// Package organizer defines the event-owning actor.
package organizer

import "errors"

// Organizer owns events and adjudicates orders and attendance for them.
type Organizer struct {
	ID    string
	Name  string
	Email string
}

// Validate checks if the Organizer has valid data.
func (o *Organizer) Validate() error {
	if o.Name == "" {
		return errors.New("organizer name is required")
	}
	if o.Email == "" {
		return errors.New("organizer email is required")
	}
	return nil
}
