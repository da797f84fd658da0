package orchestrators

import (
	"context"
	"errors"
	"sort"

	eventstore "felicity/internal/adapters/storage/event"
	"felicity/internal/domain/event"
	"felicity/internal/domain/fault"
)

// UpdateEventFormInput carries input for the orchestrator.
type UpdateEventFormInput struct {
	EventID string
	Actor   Actor
	Fields  []event.FormField
}

// UpdateEventFormDeps holds dependencies for UpdateEventForm.
type UpdateEventFormDeps struct {
	EventStore EventStore
}

// ExecuteUpdateEventForm replaces a Normal event's custom form definition.
// PRE: Actor owns the event or is an admin; the form is not locked
// POST: Form fields are replaced, ordered by their Order value
// INVARIANT: A locked form never changes shape
func ExecuteUpdateEventForm(ctx context.Context, input UpdateEventFormInput, deps UpdateEventFormDeps) error {
	if input.EventID == "" {
		return fault.Validationf("event id is required")
	}
	ev, err := deps.EventStore.GetByID(ctx, input.EventID)
	if err != nil {
		return notFoundOr(err, "event not found")
	}
	if !input.Actor.IsAdmin() && ev.OrganizerID != input.Actor.ID {
		return fault.Authorizationf("only the event organizer may edit the form")
	}
	if ev.Type != event.TypeNormal {
		return fault.Statef("only normal events carry a custom form")
	}

	seen := make(map[string]bool, len(input.Fields))
	for _, f := range input.Fields {
		if f.ID == "" || f.Label == "" {
			return fault.Validationf("form fields require an id and a label")
		}
		if seen[f.ID] {
			return fault.Validationf("duplicate form field %q", f.ID)
		}
		seen[f.ID] = true
	}

	fields := make([]event.FormField, len(input.Fields))
	copy(fields, input.Fields)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Order < fields[j].Order })

	err = deps.EventStore.SaveCustomForm(ctx, ev.ID, event.CustomForm{Fields: fields})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, eventstore.ErrFormLocked):
		return fault.Statef("form is locked after the first registration")
	case errors.Is(err, eventstore.ErrNotFound):
		return fault.NotFoundf("event not found")
	default:
		return fault.Internal(err)
	}
}
