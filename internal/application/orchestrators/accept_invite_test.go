package orchestrators

import (
	"context"
	"testing"

	"felicity/internal/domain/event"
	"felicity/internal/domain/fault"
	"felicity/internal/domain/registration"
	"felicity/internal/domain/team"
)

func teamHarness(size int) (AcceptInviteDeps, *mockEventStore, *mockRegistrationStore, *mockTeamStore, *mockMailer) {
	ev := publishedEvent("ev-1", "org-1", event.TypeHackathon)
	ev.TeamSize = size
	es := newMockEventStore()
	es.events[ev.ID] = ev
	rs := newMockRegistrationStore(es)
	ts := newMockTeamStore()
	ts.teams["team-1"] = team.Team{
		ID: "team-1", EventID: "ev-1", LeaderID: "p-lead", Name: "Gophers",
		Size: size, MemberIDs: []string{"p-lead"}, JoinCode: "JOIN1",
		Status: team.StatusForming, CreatedAt: fixedTime,
	}
	mailer := &mockMailer{}
	deps := AcceptInviteDeps{
		EventStore:        es,
		ParticipantStore:  newMockParticipantStore(testParticipant("p-lead"), testParticipant("p-2"), testParticipant("p-3")),
		RegistrationStore: rs,
		TeamStore:         ts,
		Tickets:           testIssuer(),
		Mailer:            mailer,
		BaseURL:           "https://felicity.test",
		GenerateID:        seqID("reg"),
		Now:               fixedNow,
	}
	return deps, es, rs, ts, mailer
}

func seedInvite(ts *mockTeamStore, id, code, email string) {
	ts.invites[id] = team.Invite{
		ID: id, TeamID: "team-1", InvitedEmail: email, Code: code,
		Status: team.InviteStatusPending, InvitedAt: fixedTime,
	}
	ts.inviteByCode[code] = id
}

func TestExecuteAcceptInvite_JoinsWithoutCompleting(t *testing.T) {
	deps, es, rs, ts, _ := teamHarness(3)
	seedInvite(ts, "inv-1", "CODE1", "p-2@example.com")

	res, err := ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "CODE1", ParticipantID: "p-2"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Completed {
		t.Error("two of three members must not complete the team")
	}
	if res.Team.Status != team.StatusForming {
		t.Errorf("expected Forming, got %s", res.Team.Status)
	}
	if ts.invites["inv-1"].Status != team.InviteStatusAccepted {
		t.Errorf("expected invite Accepted, got %s", ts.invites["inv-1"].Status)
	}
	if len(rs.byID) != 0 {
		t.Errorf("no registrations before quorum, got %d", len(rs.byID))
	}
	if es.events["ev-1"].RegistrationCount != 0 {
		t.Error("no counter movement before quorum")
	}
}

func TestExecuteAcceptInvite_QuorumRegistersWholeTeam(t *testing.T) {
	deps, es, rs, ts, mailer := teamHarness(3)
	seedInvite(ts, "inv-1", "CODE1", "p-2@example.com")
	seedInvite(ts, "inv-2", "CODE2", "p-3@example.com")

	if _, err := ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "CODE1", ParticipantID: "p-2"}, deps); err != nil {
		t.Fatalf("first acceptance failed: %v", err)
	}
	res, err := ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "CODE2", ParticipantID: "p-3"}, deps)
	if err != nil {
		t.Fatalf("second acceptance failed: %v", err)
	}
	if !res.Completed {
		t.Fatal("third member must complete the team")
	}
	if res.Team.Status != team.StatusComplete {
		t.Errorf("expected Complete, got %s", res.Team.Status)
	}
	if len(rs.byID) != 3 {
		t.Fatalf("expected 3 registrations, got %d", len(rs.byID))
	}
	for _, id := range []string{"p-lead", "p-2", "p-3"} {
		reg, err := rs.GetByEventAndParticipant(context.Background(), "ev-1", id)
		if err != nil {
			t.Errorf("member %s not registered: %v", id, err)
			continue
		}
		if reg.Status != registration.StatusConfirmed || !reg.HasTicket() {
			t.Errorf("member %s: expected confirmed ticketed registration", id)
		}
	}
	ev := es.events["ev-1"]
	if ev.RegistrationCount != 3 {
		t.Errorf("expected one batch increment of 3, got %d", ev.RegistrationCount)
	}
	if ev.Revenue != 150 {
		t.Errorf("expected revenue 150, got %d", ev.Revenue)
	}
	if len(mailer.sent) != 3 {
		t.Errorf("expected 3 confirmation emails, got %d", len(mailer.sent))
	}
}

func TestExecuteAcceptInvite_QuorumNotCapacityGated(t *testing.T) {
	deps, es, rs, ts, _ := teamHarness(2)
	// One slot left on the event; the completing team still registers both
	// members, so the count may land past the limit. Individual (Normal)
	// registrations are capacity-guarded; a formed team is admitted whole.
	ev := es.events["ev-1"]
	ev.RegistrationLimit = 1
	es.events["ev-1"] = ev
	seedInvite(ts, "inv-1", "CODE1", "p-2@example.com")

	res, err := ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "CODE1", ParticipantID: "p-2"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Completed {
		t.Fatal("second member must complete a team of two")
	}
	if len(rs.byID) != 2 {
		t.Fatalf("expected both members registered, got %d", len(rs.byID))
	}
	if es.events["ev-1"].RegistrationCount != 2 {
		t.Errorf("expected batch increment of 2, got %d", es.events["ev-1"].RegistrationCount)
	}
}

func TestExecuteAcceptInvite_QuorumSkipsAlreadyRegisteredMember(t *testing.T) {
	deps, es, rs, ts, _ := teamHarness(2)
	seedInvite(ts, "inv-1", "CODE1", "p-2@example.com")
	// The leader somehow already holds a registration for this event.
	rs.byID["reg-pre"] = registration.Registration{
		ID: "reg-pre", EventID: "ev-1", ParticipantID: "p-lead",
		Status: registration.StatusConfirmed, TicketID: "TKT-PRE",
	}
	rs.byPair[pairKey("ev-1", "p-lead")] = "reg-pre"
	rs.byTicket["TKT-PRE"] = "reg-pre"

	res, err := ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "CODE1", ParticipantID: "p-2"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Completed {
		t.Fatal("second member must complete a team of two")
	}
	if len(rs.byID) != 2 {
		t.Fatalf("expected 2 registrations, got %d", len(rs.byID))
	}
	// Only the new member counts toward the batch increment.
	if es.events["ev-1"].RegistrationCount != 1 {
		t.Errorf("expected counter increment of 1, got %d", es.events["ev-1"].RegistrationCount)
	}
}

func TestExecuteAcceptInvite_ReacceptIsIdempotent(t *testing.T) {
	deps, _, _, ts, _ := teamHarness(3)
	seedInvite(ts, "inv-1", "CODE1", "p-2@example.com")

	if _, err := ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "CODE1", ParticipantID: "p-2"}, deps); err != nil {
		t.Fatalf("first acceptance failed: %v", err)
	}
	// Same participant, fresh invite: joining again is a no-op.
	seedInvite(ts, "inv-2", "CODE2", "p-2@example.com")
	res, err := ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "CODE2", ParticipantID: "p-2"}, deps)
	if err != nil {
		t.Fatalf("re-accept failed: %v", err)
	}
	if got := len(res.Team.MemberIDs); got != 2 {
		t.Errorf("expected 2 members, got %d", got)
	}
}

func TestExecuteAcceptInvite_AlreadyMemberStillConsumesInvite(t *testing.T) {
	deps, _, _, ts, _ := teamHarness(3)
	seedInvite(ts, "inv-1", "CODE1", "p-lead@example.com")

	// The leader is already a member; accepting succeeds without side
	// effects on the roster but still burns the single-use code.
	res, err := ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "CODE1", ParticipantID: "p-lead"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(res.Team.MemberIDs); got != 1 {
		t.Errorf("expected 1 member, got %d", got)
	}
	inv := ts.invites["inv-1"]
	if inv.Status != team.InviteStatusAccepted {
		t.Errorf("expected invite Accepted, got %s", inv.Status)
	}
	if inv.AcceptedBy != "p-lead" {
		t.Errorf("expected accepted by p-lead, got %s", inv.AcceptedBy)
	}

	// The consumed code must not admit a different participant later.
	_, err = ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "CODE1", ParticipantID: "p-2"}, deps)
	if !fault.IsKind(err, fault.KindConflict) {
		t.Fatalf("expected conflict for consumed code, got %v", err)
	}
	got, _ := ts.GetByID(context.Background(), "team-1")
	if len(got.MemberIDs) != 1 {
		t.Errorf("consumed code admitted a second participant: %v", got.MemberIDs)
	}
}

func TestExecuteAcceptInvite_ConsumedCodeRejected(t *testing.T) {
	deps, _, _, ts, _ := teamHarness(3)
	seedInvite(ts, "inv-1", "CODE1", "p-2@example.com")

	if _, err := ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "CODE1", ParticipantID: "p-2"}, deps); err != nil {
		t.Fatalf("first acceptance failed: %v", err)
	}
	_, err := ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "CODE1", ParticipantID: "p-3"}, deps)
	if !fault.IsKind(err, fault.KindConflict) {
		t.Fatalf("expected conflict for consumed code, got %v", err)
	}
}

func TestExecuteAcceptInvite_TeamFull(t *testing.T) {
	deps, _, _, ts, _ := teamHarness(2)
	seedInvite(ts, "inv-1", "CODE1", "p-2@example.com")
	seedInvite(ts, "inv-2", "CODE2", "p-3@example.com")

	if _, err := ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "CODE1", ParticipantID: "p-2"}, deps); err != nil {
		t.Fatalf("fill failed: %v", err)
	}
	_, err := ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "CODE2", ParticipantID: "p-3"}, deps)
	if !fault.IsKind(err, fault.KindConflict) {
		t.Fatalf("expected conflict for full team, got %v", err)
	}
}

func TestExecuteAcceptInvite_UnknownCode(t *testing.T) {
	deps, _, _, _, _ := teamHarness(3)
	_, err := ExecuteAcceptInvite(context.Background(), AcceptInviteInput{Code: "NOPE", ParticipantID: "p-2"}, deps)
	if !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}
