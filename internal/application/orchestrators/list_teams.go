package orchestrators

import (
	"context"

	"felicity/internal/domain/fault"
	"felicity/internal/domain/team"
)

// GetTeamInput carries input for the orchestrator.
type GetTeamInput struct {
	TeamID string
}

// GetTeamDeps holds dependencies for GetTeam.
type GetTeamDeps struct {
	TeamStore TeamStore
}

// GetTeamResult is a team together with its invites.
type GetTeamResult struct {
	Team    team.Team
	Invites []team.Invite
}

// ExecuteGetTeam loads a team and its invite history.
func ExecuteGetTeam(ctx context.Context, input GetTeamInput, deps GetTeamDeps) (GetTeamResult, error) {
	if input.TeamID == "" {
		return GetTeamResult{}, fault.Validationf("team id is required")
	}
	t, err := deps.TeamStore.GetByID(ctx, input.TeamID)
	if err != nil {
		return GetTeamResult{}, notFoundOr(err, "team not found")
	}
	invites, err := deps.TeamStore.ListInvitesByTeam(ctx, t.ID)
	if err != nil {
		return GetTeamResult{}, fault.Internal(err)
	}
	return GetTeamResult{Team: t, Invites: invites}, nil
}

// ListTeamsInput carries input for the orchestrator.
type ListTeamsInput struct {
	EventID string
	Actor   Actor
}

// ListTeamsDeps holds dependencies for ListTeams.
type ListTeamsDeps struct {
	EventStore EventStore
	TeamStore  TeamStore
}

// ExecuteListTeams lists an event's teams for its organizer.
// PRE: Actor owns the event or is an admin
func ExecuteListTeams(ctx context.Context, input ListTeamsInput, deps ListTeamsDeps) ([]team.Team, error) {
	if input.EventID == "" {
		return nil, fault.Validationf("event id is required")
	}
	ev, err := deps.EventStore.GetByID(ctx, input.EventID)
	if err != nil {
		return nil, notFoundOr(err, "event not found")
	}
	if !input.Actor.IsAdmin() && ev.OrganizerID != input.Actor.ID {
		return nil, fault.Authorizationf("only the event organizer may list teams")
	}
	teams, err := deps.TeamStore.ListByEvent(ctx, ev.ID)
	if err != nil {
		return nil, fault.Internal(err)
	}
	return teams, nil
}
