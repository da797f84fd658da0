package orchestrators

import (
	"context"

	"felicity/internal/domain/event"
	"felicity/internal/domain/fault"
	"felicity/internal/domain/registration"
)

// GetTicketInput carries input for the orchestrator.
type GetTicketInput struct {
	TicketID      string
	ParticipantID string // caller; must own the ticket
}

// GetTicketDeps holds dependencies for GetTicket.
type GetTicketDeps struct {
	EventStore        EventStore
	RegistrationStore RegistrationStore
}

// GetTicketResult is a ticket with its event context.
type GetTicketResult struct {
	Registration registration.Registration
	Event        event.Event
}

// ExecuteGetTicket loads a ticket for its holder.
// PRE: Ticket exists and belongs to the caller
func ExecuteGetTicket(ctx context.Context, input GetTicketInput, deps GetTicketDeps) (GetTicketResult, error) {
	if input.TicketID == "" {
		return GetTicketResult{}, fault.Validationf("ticket id is required")
	}
	reg, err := deps.RegistrationStore.GetByTicketID(ctx, input.TicketID)
	if err != nil {
		return GetTicketResult{}, notFoundOr(err, "ticket not found")
	}
	if reg.ParticipantID != input.ParticipantID {
		return GetTicketResult{}, fault.Authorizationf("ticket belongs to another participant")
	}
	ev, err := deps.EventStore.GetByID(ctx, reg.EventID)
	if err != nil {
		return GetTicketResult{}, notFoundOr(err, "event not found")
	}
	return GetTicketResult{Registration: reg, Event: ev}, nil
}

// MyRegistrationsInput carries input for the orchestrator.
type MyRegistrationsInput struct {
	ParticipantID string
}

// MyRegistrationsDeps holds dependencies for ListMyRegistrations.
type MyRegistrationsDeps struct {
	RegistrationStore RegistrationStore
}

// ExecuteListMyRegistrations returns the caller's registrations across all
// events, all statuses included.
func ExecuteListMyRegistrations(ctx context.Context, input MyRegistrationsInput, deps MyRegistrationsDeps) ([]registration.Registration, error) {
	if input.ParticipantID == "" {
		return nil, fault.Validationf("participant id is required")
	}
	regs, err := deps.RegistrationStore.ListByParticipant(ctx, input.ParticipantID)
	if err != nil {
		return nil, fault.Internal(err)
	}
	return regs, nil
}

// PendingOrdersInput carries input for the orchestrator.
type PendingOrdersInput struct {
	Actor Actor
}

// PendingOrdersDeps holds dependencies for ListPendingOrders.
type PendingOrdersDeps struct {
	EventStore        EventStore
	RegistrationStore RegistrationStore
}

// ExecuteListPendingOrders returns the pending merchandise orders across
// every event the organizer owns, oldest first.
func ExecuteListPendingOrders(ctx context.Context, input PendingOrdersInput, deps PendingOrdersDeps) ([]registration.Registration, error) {
	if input.Actor.ID == "" {
		return nil, fault.Validationf("actor is required")
	}
	eventIDs, err := deps.EventStore.ListIDsByOrganizer(ctx, input.Actor.ID)
	if err != nil {
		return nil, fault.Internal(err)
	}
	if len(eventIDs) == 0 {
		return nil, nil
	}
	regs, err := deps.RegistrationStore.ListPendingByEventIDs(ctx, eventIDs)
	if err != nil {
		return nil, fault.Internal(err)
	}
	return regs, nil
}
