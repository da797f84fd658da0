package team

import (
	"context"
	"errors"
	"time"

	domain "felicity/internal/domain/team"
)

// Sentinel errors surfaced by the store.
var (
	// ErrNotFound is returned when the team does not exist.
	ErrNotFound = errors.New("team not found")
	// ErrTeamFull is returned when the team already has Size members.
	ErrTeamFull = errors.New("team is already full")
	// ErrAlreadyMember is returned when the participant is already on the team.
	ErrAlreadyMember = errors.New("participant is already a team member")
	// ErrInviteNotFound is returned when no invite matches the code.
	ErrInviteNotFound = errors.New("invite not found")
	// ErrInviteProcessed is returned when the invite already left Pending;
	// a code is consumed exactly once.
	ErrInviteProcessed = errors.New("invite already processed")
)

// Store persists Team and TeamInvite state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Team, error)
	Create(ctx context.Context, t domain.Team) error
	ListByEvent(ctx context.Context, eventID string) ([]domain.Team, error)

	// AddMember appends a participant inside one transaction: capacity is
	// checked against the member rows, and when the append reaches the
	// team's size the Forming -> Complete flip happens in the same
	// transaction, guarded so it fires exactly once. Returns whether this
	// call completed the team.
	AddMember(ctx context.Context, teamID, participantID string, at time.Time) (bool, error)

	CreateInvite(ctx context.Context, inv domain.Invite) error
	GetInviteByCode(ctx context.Context, code string) (domain.Invite, error)
	ListInvitesByTeam(ctx context.Context, teamID string) ([]domain.Invite, error)

	// AcceptInvite transitions the invite out of Pending exactly once.
	AcceptInvite(ctx context.Context, inviteID, participantID string, at time.Time) error
}
