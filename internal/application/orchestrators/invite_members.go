package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"felicity/internal/adapters/email"
	"felicity/internal/domain/fault"
	"felicity/internal/domain/team"

	"github.com/google/uuid"
)

// InviteMembersInput carries input for the orchestrator.
type InviteMembersInput struct {
	TeamID   string
	LeaderID string
	Emails   []string
}

// InviteMembersDeps holds dependencies for InviteMembers.
type InviteMembersDeps struct {
	EventStore       EventStore
	ParticipantStore ParticipantStore
	TeamStore        TeamStore
	Mailer           Notifier // optional
	BaseURL          string   // public URL prefix for invite links

	GenerateID    func() string
	NewInviteCode func() string
	Now           func() time.Time
}

func (d InviteMembersDeps) generateID() string {
	if d.GenerateID != nil {
		return d.GenerateID()
	}
	return uuid.New().String()
}

func (d InviteMembersDeps) inviteCode() string {
	if d.NewInviteCode != nil {
		return d.NewInviteCode()
	}
	return team.NewInviteCode()
}

func (d InviteMembersDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// ExecuteInviteMembers creates single-use invites for the given addresses
// and emails them a join link.
// PRE: Caller is the team leader; team is still Forming
// POST: One Pending invite per address, each with a unique code
func ExecuteInviteMembers(ctx context.Context, input InviteMembersInput, deps InviteMembersDeps) ([]team.Invite, error) {
	if input.TeamID == "" || input.LeaderID == "" {
		return nil, fault.Validationf("team and leader are required")
	}
	if len(input.Emails) == 0 {
		return nil, fault.Validationf("at least one email address is required")
	}

	t, err := deps.TeamStore.GetByID(ctx, input.TeamID)
	if err != nil {
		return nil, notFoundOr(err, "team not found")
	}
	if t.LeaderID != input.LeaderID {
		return nil, fault.Authorizationf("only the team leader may send invites")
	}
	if t.Status != team.StatusForming {
		return nil, fault.Statef("team is no longer accepting members")
	}

	ev, err := deps.EventStore.GetByID(ctx, t.EventID)
	if err != nil {
		return nil, notFoundOr(err, "event not found")
	}
	leader, err := deps.ParticipantStore.GetByID(ctx, t.LeaderID)
	if err != nil {
		return nil, notFoundOr(err, "participant not found")
	}

	now := deps.now()
	invites := make([]team.Invite, 0, len(input.Emails))
	for _, addr := range input.Emails {
		addr = strings.TrimSpace(strings.ToLower(addr))
		if addr == "" {
			continue
		}
		inv := team.Invite{
			ID:           deps.generateID(),
			TeamID:       t.ID,
			InvitedEmail: addr,
			Code:         deps.inviteCode(),
			Status:       team.InviteStatusPending,
			InvitedAt:    now,
		}
		if err := deps.TeamStore.CreateInvite(ctx, inv); err != nil {
			return nil, fault.Internal(err)
		}
		invites = append(invites, inv)
	}
	if len(invites) == 0 {
		return nil, fault.Validationf("at least one email address is required")
	}

	if deps.Mailer != nil {
		reqs := make([]email.SendRequest, 0, len(invites))
		for _, inv := range invites {
			link := fmt.Sprintf("%s/invites/%s", deps.BaseURL, inv.Code)
			subject, html := email.TeamInvite(leader.FullName(), t.Name, ev.Name, link)
			reqs = append(reqs, email.SendRequest{
				To:      []string{inv.InvitedEmail},
				Subject: subject,
				HTML:    html,
			})
		}
		if _, err := deps.Mailer.SendBatch(ctx, reqs); err != nil {
			slog.Error("invite_emails_failed", "team_id", t.ID, "count", len(reqs), "error", err)
		}
	}

	return invites, nil
}
