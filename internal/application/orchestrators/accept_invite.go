package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	regstore "felicity/internal/adapters/storage/registration"
	teamstore "felicity/internal/adapters/storage/team"
	"felicity/internal/domain/event"
	"felicity/internal/domain/fault"
	"felicity/internal/domain/team"
)

// AcceptInviteInput carries input for the orchestrator.
type AcceptInviteInput struct {
	Code          string
	ParticipantID string
}

// AcceptInviteDeps holds dependencies for AcceptInvite.
type AcceptInviteDeps struct {
	EventStore        EventStore
	ParticipantStore  ParticipantStore
	RegistrationStore RegistrationStore
	TeamStore         TeamStore
	Tickets           TicketIssuer
	Mailer            Notifier // optional
	BaseURL           string

	GenerateID func() string
	Now        func() time.Time
}

func (d AcceptInviteDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d AcceptInviteDeps) registerDeps() RegisterDeps {
	return RegisterDeps{
		EventStore:        d.EventStore,
		ParticipantStore:  d.ParticipantStore,
		RegistrationStore: d.RegistrationStore,
		Tickets:           d.Tickets,
		Mailer:            d.Mailer,
		BaseURL:           d.BaseURL,
		GenerateID:        d.GenerateID,
		Now:               d.Now,
	}
}

// AcceptInviteResult reports the outcome of accepting an invite.
type AcceptInviteResult struct {
	Team team.Team
	// Completed is true when this acceptance filled the last slot and
	// triggered the team's bulk registration.
	Completed bool
}

// ExecuteAcceptInvite joins the caller to the inviting team.
// PRE: Invite code exists and is Pending; team has room
// POST: Participant is a member; the invite is consumed exactly once; when
// the member count reaches the team size, Forming -> Complete fires exactly
// once and every member gets a Confirmed registration with a ticket
// INVARIANT: Counters move once per completed team, not once per member
func ExecuteAcceptInvite(ctx context.Context, input AcceptInviteInput, deps AcceptInviteDeps) (AcceptInviteResult, error) {
	if input.Code == "" || input.ParticipantID == "" {
		return AcceptInviteResult{}, fault.Validationf("invite code and participant are required")
	}

	inv, err := deps.TeamStore.GetInviteByCode(ctx, input.Code)
	if err != nil {
		return AcceptInviteResult{}, notFoundOr(err, "invite not found")
	}
	if inv.Status != team.InviteStatusPending {
		return AcceptInviteResult{}, fault.Conflictf("invite has already been processed")
	}
	t, err := deps.TeamStore.GetByID(ctx, inv.TeamID)
	if err != nil {
		return AcceptInviteResult{}, notFoundOr(err, "team not found")
	}
	p, err := deps.ParticipantStore.GetByID(ctx, input.ParticipantID)
	if err != nil {
		return AcceptInviteResult{}, notFoundOr(err, "participant not found")
	}
	ev, err := deps.EventStore.GetByID(ctx, t.EventID)
	if err != nil {
		return AcceptInviteResult{}, notFoundOr(err, "event not found")
	}
	if err := ev.EligibleFor(p.Category); err != nil {
		return AcceptInviteResult{}, fault.Authorizationf("%s", err.Error())
	}

	now := deps.now()

	// Re-accepting from the same account is a no-op, not an error. The code
	// is still consumed: a single-use invite must not stay Pending and later
	// admit somebody else.
	if t.HasMember(p.ID) {
		consumeInvite(ctx, deps.TeamStore, inv.ID, p.ID, now)
		return AcceptInviteResult{Team: t}, nil
	}

	completed, err := deps.TeamStore.AddMember(ctx, t.ID, p.ID, now)
	switch {
	case err == nil:
	case errors.Is(err, teamstore.ErrTeamFull):
		return AcceptInviteResult{}, fault.Conflictf("team is already full")
	case errors.Is(err, teamstore.ErrAlreadyMember):
		consumeInvite(ctx, deps.TeamStore, inv.ID, p.ID, now)
		return AcceptInviteResult{Team: t}, nil
	default:
		return AcceptInviteResult{}, fault.Internal(err)
	}

	consumeInvite(ctx, deps.TeamStore, inv.ID, p.ID, now)

	t, err = deps.TeamStore.GetByID(ctx, t.ID)
	if err != nil {
		return AcceptInviteResult{}, fault.Internal(err)
	}

	if completed {
		registerCompletedTeam(ctx, ev, t, deps.registerDeps())
	}
	return AcceptInviteResult{Team: t, Completed: completed}, nil
}

// consumeInvite marks the invite Accepted. Membership is already committed
// by the time this runs; a raced consumption only loses the audit trail
// entry, so failures are logged and swallowed.
func consumeInvite(ctx context.Context, store TeamStore, inviteID, participantID string, at time.Time) {
	if err := store.AcceptInvite(ctx, inviteID, participantID, at); err != nil {
		if !errors.Is(err, teamstore.ErrInviteProcessed) {
			slog.Error("invite_consume_failed", "invite_id", inviteID, "error", err)
		}
	}
}

// registerCompletedTeam registers every member of a just-completed team.
// Individual member failures are logged and skipped so one bad row never
// blocks teammates; the event counters move once for the whole batch.
func registerCompletedTeam(ctx context.Context, ev event.Event, t team.Team, deps RegisterDeps) {
	var count, revenue int
	for _, memberID := range t.MemberIDs {
		if _, err := deps.RegistrationStore.GetByEventAndParticipant(ctx, ev.ID, memberID); err == nil {
			continue
		} else if !errors.Is(err, regstore.ErrNotFound) {
			slog.Error("team_member_lookup_failed", "team_id", t.ID, "participant_id", memberID, "error", err)
			continue
		}
		p, err := deps.ParticipantStore.GetByID(ctx, memberID)
		if err != nil {
			slog.Error("team_member_missing", "team_id", t.ID, "participant_id", memberID, "error", err)
			continue
		}
		reg, err := registerTeamMember(ctx, ev, p, deps)
		if err != nil {
			slog.Error("team_member_registration_failed", "team_id", t.ID, "participant_id", memberID, "error", err)
			continue
		}
		count++
		revenue += reg.AmountPaid
		sendConfirmation(ctx, deps.Mailer, deps.BaseURL, ev, p, reg)
	}
	if count == 0 {
		return
	}
	if err := deps.EventStore.IncrementRegistrations(ctx, ev.ID, count, revenue); err != nil {
		slog.Error("team_counter_update_failed", "team_id", t.ID, "event_id", ev.ID, "error", err)
	}
	slog.Info("team_registered", "team_id", t.ID, "event_id", ev.ID, "members", count)
}
