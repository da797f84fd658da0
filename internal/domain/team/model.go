// Package team defines hackathon teams and their single-use invites.
package team

import (
	"errors"
	"time"
)

// Team status lifecycle. Forming -> Complete happens exactly once, the
// instant the member count reaches Size.
const (
	StatusForming   = "Forming"
	StatusComplete  = "Complete"
	StatusCancelled = "Cancelled"
)

// Invite status lifecycle. A code transitions out of Pending exactly once.
const (
	InviteStatusPending  = "Pending"
	InviteStatusAccepted = "Accepted"
	InviteStatusDeclined = "Declined"
	InviteStatusExpired  = "Expired"
)

// Team groups participants for a Hackathon event. The leader is always a
// member. MemberIDs holds participant identifiers in join order.
type Team struct {
	ID        string
	EventID   string
	LeaderID  string
	Name      string
	Size      int
	MemberIDs []string
	JoinCode  string // unique code for the team itself
	Status    string
	CreatedAt time.Time
}

// IsFull returns true when the team has reached its target size.
func (t *Team) IsFull() bool {
	return len(t.MemberIDs) >= t.Size
}

// HasMember reports whether the participant is already on the team.
func (t *Team) HasMember(participantID string) bool {
	for _, id := range t.MemberIDs {
		if id == participantID {
			return true
		}
	}
	return false
}

// Validate checks if the Team has valid data.
// PRE: Team struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: len(MemberIDs) <= Size
func (t *Team) Validate() error {
	if t.EventID == "" {
		return errors.New("team must reference an event")
	}
	if t.LeaderID == "" {
		return errors.New("team must have a leader")
	}
	if t.Size < 1 {
		return errors.New("team size must be at least 1")
	}
	if len(t.MemberIDs) > t.Size {
		return errors.New("team cannot exceed its size")
	}
	return nil
}

// Invite is a single-use invitation to join a team, addressed by email.
type Invite struct {
	ID           string
	TeamID       string
	InvitedEmail string
	Code         string // unique single-use code
	Status       string
	InvitedAt    time.Time
	AcceptedBy   string // participant ID, set on acceptance
	AcceptedAt   time.Time
}

// Validate checks if the Invite has valid data.
func (i *Invite) Validate() error {
	if i.TeamID == "" {
		return errors.New("invite must reference a team")
	}
	if i.InvitedEmail == "" {
		return errors.New("invite must have a recipient email")
	}
	if i.Code == "" {
		return errors.New("invite must have a code")
	}
	return nil
}
