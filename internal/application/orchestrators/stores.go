// Package orchestrators holds the application use cases. Each use case is a
// free function taking a context, an Input struct, and a Deps struct whose
// interfaces are satisfied by the storage adapters and mocked in tests.
package orchestrators

import (
	"context"
	"time"

	"felicity/internal/adapters/email"
	eventstore "felicity/internal/adapters/storage/event"
	attdomain "felicity/internal/domain/attendance"
	"felicity/internal/domain/event"
	"felicity/internal/domain/organizer"
	"felicity/internal/domain/participant"
	"felicity/internal/domain/registration"
	"felicity/internal/domain/team"
)

// EventStore defines the interface for event persistence and counter ownership.
type EventStore interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	ListIDsByOrganizer(ctx context.Context, organizerID string) ([]string, error)
	ApproveOrderInventory(ctx context.Context, p eventstore.ApproveOrder) error
	IncrementRegistrations(ctx context.Context, eventID string, count, revenue int) error
	SaveCustomForm(ctx context.Context, eventID string, form event.CustomForm) error
}

// ParticipantStore defines the interface for participant lookups.
type ParticipantStore interface {
	GetByID(ctx context.Context, id string) (participant.Participant, error)
	ListByIDs(ctx context.Context, ids []string) ([]participant.Participant, error)
}

// RegistrationStore defines the interface for registration persistence.
type RegistrationStore interface {
	GetByID(ctx context.Context, id string) (registration.Registration, error)
	GetByTicketID(ctx context.Context, ticketID string) (registration.Registration, error)
	GetByEventAndParticipant(ctx context.Context, eventID, participantID string) (registration.Registration, error)
	Create(ctx context.Context, r registration.Registration) error
	CreateCounted(ctx context.Context, r registration.Registration, lockForm bool) error
	SumOrderedQuantity(ctx context.Context, eventID, participantID string) (int, error)
	Reject(ctx context.Context, id, reason string) error
	MarkAttended(ctx context.Context, id string, at time.Time) (bool, error)
	ListByParticipant(ctx context.Context, participantID string) ([]registration.Registration, error)
	ListPendingByEventIDs(ctx context.Context, eventIDs []string) ([]registration.Registration, error)
}

// TeamStore defines the interface for team and invite persistence.
type TeamStore interface {
	GetByID(ctx context.Context, id string) (team.Team, error)
	Create(ctx context.Context, t team.Team) error
	ListByEvent(ctx context.Context, eventID string) ([]team.Team, error)
	AddMember(ctx context.Context, teamID, participantID string, at time.Time) (bool, error)
	CreateInvite(ctx context.Context, inv team.Invite) error
	GetInviteByCode(ctx context.Context, code string) (team.Invite, error)
	ListInvitesByTeam(ctx context.Context, teamID string) ([]team.Invite, error)
	AcceptInvite(ctx context.Context, inviteID, participantID string, at time.Time) error
}

// AttendanceStore defines the interface for the append-only scan audit trail.
type AttendanceStore interface {
	Append(ctx context.Context, rec attdomain.Record) error
	ListByEvent(ctx context.Context, eventID string) ([]attdomain.Record, error)
}

// OrganizerStore defines the interface for organizer lookups.
type OrganizerStore interface {
	GetByID(ctx context.Context, id string) (organizer.Organizer, error)
}

// Notifier sends outbound email. Every send in this package is best effort:
// failures are logged and never fail the triggering operation.
type Notifier interface {
	Send(ctx context.Context, req email.SendRequest) (email.SendResult, error)
	SendBatch(ctx context.Context, reqs []email.SendRequest) ([]email.SendResult, error)
}
