package orchestrators

import (
	"context"
	"time"

	"felicity/internal/domain/event"
	"felicity/internal/domain/fault"
	"felicity/internal/domain/team"

	"github.com/google/uuid"
)

// CreateTeamInput carries input for the orchestrator.
type CreateTeamInput struct {
	EventID  string
	LeaderID string
	Name     string
	Size     int
}

// CreateTeamDeps holds dependencies for CreateTeam.
type CreateTeamDeps struct {
	EventStore        EventStore
	ParticipantStore  ParticipantStore
	RegistrationStore RegistrationStore
	TeamStore         TeamStore
	Tickets           TicketIssuer
	Mailer            Notifier // optional
	BaseURL           string

	GenerateID  func() string
	NewJoinCode func() string
	Now         func() time.Time
}

func (d CreateTeamDeps) generateID() string {
	if d.GenerateID != nil {
		return d.GenerateID()
	}
	return uuid.New().String()
}

func (d CreateTeamDeps) joinCode() string {
	if d.NewJoinCode != nil {
		return d.NewJoinCode()
	}
	return team.NewJoinCode()
}

func (d CreateTeamDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// ExecuteCreateTeam creates a Forming team with the leader as first member.
// PRE: Event is a Published hackathon; size >= 1; leader exists
// POST: Team exists in Forming status with a unique join code and exactly
// one member
func ExecuteCreateTeam(ctx context.Context, input CreateTeamInput, deps CreateTeamDeps) (team.Team, error) {
	if input.EventID == "" || input.LeaderID == "" {
		return team.Team{}, fault.Validationf("event and leader are required")
	}
	if input.Name == "" {
		return team.Team{}, fault.Validationf("team name is required")
	}
	if input.Size < 1 {
		return team.Team{}, fault.Validationf("team size must be at least 1")
	}

	ev, err := deps.EventStore.GetByID(ctx, input.EventID)
	if err != nil {
		return team.Team{}, notFoundOr(err, "event not found")
	}
	if ev.Type != event.TypeHackathon {
		return team.Team{}, fault.Statef("teams can only be created for hackathon events")
	}
	if ev.Status != event.StatusPublished {
		return team.Team{}, fault.Statef("event is not open for registration")
	}
	leader, err := deps.ParticipantStore.GetByID(ctx, input.LeaderID)
	if err != nil {
		return team.Team{}, notFoundOr(err, "participant not found")
	}
	if err := ev.EligibleFor(leader.Category); err != nil {
		return team.Team{}, fault.Authorizationf("%s", err.Error())
	}

	t := team.Team{
		ID:        deps.generateID(),
		EventID:   ev.ID,
		LeaderID:  leader.ID,
		Name:      input.Name,
		Size:      input.Size,
		MemberIDs: []string{leader.ID},
		JoinCode:  deps.joinCode(),
		Status:    team.StatusForming,
		CreatedAt: deps.now(),
	}
	// A team of one is complete the moment it exists.
	if t.Size == 1 {
		t.Status = team.StatusComplete
	}
	if err := t.Validate(); err != nil {
		return team.Team{}, fault.Validationf("%s", err.Error())
	}
	if err := deps.TeamStore.Create(ctx, t); err != nil {
		return team.Team{}, fault.Internal(err)
	}
	if t.Status == team.StatusComplete {
		registerCompletedTeam(ctx, ev, t, RegisterDeps{
			EventStore:        deps.EventStore,
			ParticipantStore:  deps.ParticipantStore,
			RegistrationStore: deps.RegistrationStore,
			Tickets:           deps.Tickets,
			Mailer:            deps.Mailer,
			BaseURL:           deps.BaseURL,
			GenerateID:        deps.GenerateID,
			Now:               deps.Now,
		})
	}
	return t, nil
}
