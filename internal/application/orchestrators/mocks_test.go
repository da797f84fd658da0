package orchestrators

import (
	"context"
	"fmt"
	"time"

	"felicity/internal/adapters/email"
	eventstore "felicity/internal/adapters/storage/event"
	orgstore "felicity/internal/adapters/storage/organizer"
	partstore "felicity/internal/adapters/storage/participant"
	regstore "felicity/internal/adapters/storage/registration"
	teamstore "felicity/internal/adapters/storage/team"
	attdomain "felicity/internal/domain/attendance"
	"felicity/internal/domain/event"
	"felicity/internal/domain/organizer"
	"felicity/internal/domain/participant"
	"felicity/internal/domain/registration"
	"felicity/internal/domain/team"
	"felicity/internal/domain/ticket"
)

var fixedTime = time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// seqID returns a generator producing id-1, id-2, ...
func seqID(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// fakeEncoder encodes ticket payloads as a readable marker.
type fakeEncoder struct{}

func (fakeEncoder) Encode(p ticket.Payload) (string, error) {
	return "qr:" + p.TicketID, nil
}

func testIssuer(ids ...string) TicketIssuer {
	if len(ids) == 0 {
		return TicketIssuer{Encoder: fakeEncoder{}, NewID: seqID("TKT")}
	}
	n := 0
	return TicketIssuer{Encoder: fakeEncoder{}, NewID: func() string {
		id := ids[n%len(ids)]
		n++
		return id
	}}
}

// mockEventStore implements EventStore over a map. ApproveOrderInventory
// and the counter methods mutate the stored event the way the SQL
// transaction would, including flipping the linked registration.
type mockEventStore struct {
	events map[string]event.Event
	regs   *mockRegistrationStore
}

func newMockEventStore() *mockEventStore {
	return &mockEventStore{events: make(map[string]event.Event)}
}

func (m *mockEventStore) GetByID(_ context.Context, id string) (event.Event, error) {
	ev, ok := m.events[id]
	if !ok {
		return event.Event{}, eventstore.ErrNotFound
	}
	return ev, nil
}

func (m *mockEventStore) ListIDsByOrganizer(_ context.Context, organizerID string) ([]string, error) {
	var ids []string
	for id, ev := range m.events {
		if ev.OrganizerID == organizerID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockEventStore) ApproveOrderInventory(_ context.Context, p eventstore.ApproveOrder) error {
	ev, ok := m.events[p.EventID]
	if !ok {
		return eventstore.ErrNotFound
	}
	if ev.Merchandise == nil {
		return eventstore.ErrInsufficientStock
	}
	v := ev.Merchandise.FindVariant(p.Size, p.Color)
	if v == nil || v.StockQuantity < p.Quantity {
		return eventstore.ErrInsufficientStock
	}
	if ev.RegistrationCount+1 > ev.RegistrationLimit {
		return eventstore.ErrCapacityExceeded
	}
	if m.regs != nil {
		if _, taken := m.regs.byTicket[p.TicketID]; taken {
			return eventstore.ErrTicketCollision
		}
		reg, ok := m.regs.byID[p.RegistrationID]
		if !ok || reg.Status != registration.StatusPending {
			return eventstore.ErrOrderNotPending
		}
		reg.Status = registration.StatusConfirmed
		reg.PaymentStatus = registration.PaymentCompleted
		reg.TicketID = p.TicketID
		reg.QRCode = p.QRCode
		m.regs.byID[p.RegistrationID] = reg
		m.regs.byTicket[p.TicketID] = p.RegistrationID
	}
	v.StockQuantity -= p.Quantity
	ev.Merchandise.TotalStock -= p.Quantity
	ev.RegistrationCount++
	ev.Revenue += p.Revenue
	m.events[p.EventID] = ev
	return nil
}

func (m *mockEventStore) IncrementRegistrations(_ context.Context, eventID string, count, revenue int) error {
	ev, ok := m.events[eventID]
	if !ok {
		return eventstore.ErrNotFound
	}
	ev.RegistrationCount += count
	ev.Revenue += revenue
	m.events[eventID] = ev
	return nil
}

func (m *mockEventStore) SaveCustomForm(_ context.Context, eventID string, form event.CustomForm) error {
	ev, ok := m.events[eventID]
	if !ok {
		return eventstore.ErrNotFound
	}
	if ev.CustomForm != nil && ev.CustomForm.Locked {
		return eventstore.ErrFormLocked
	}
	ev.CustomForm = &form
	m.events[eventID] = ev
	return nil
}

// mockRegistrationStore implements RegistrationStore over maps, enforcing
// the pair and ticket uniqueness the SQL indexes would.
type mockRegistrationStore struct {
	byID     map[string]registration.Registration
	byPair   map[string]string // eventID+"/"+participantID -> registration ID
	byTicket map[string]string // ticketID -> registration ID
	events   *mockEventStore   // counter side of CreateCounted and MarkAttended
}

func newMockRegistrationStore(events *mockEventStore) *mockRegistrationStore {
	s := &mockRegistrationStore{
		byID:     make(map[string]registration.Registration),
		byPair:   make(map[string]string),
		byTicket: make(map[string]string),
		events:   events,
	}
	if events != nil {
		events.regs = s
	}
	return s
}

func pairKey(eventID, participantID string) string { return eventID + "/" + participantID }

func (m *mockRegistrationStore) GetByID(_ context.Context, id string) (registration.Registration, error) {
	r, ok := m.byID[id]
	if !ok {
		return registration.Registration{}, regstore.ErrNotFound
	}
	return r, nil
}

func (m *mockRegistrationStore) GetByTicketID(_ context.Context, ticketID string) (registration.Registration, error) {
	id, ok := m.byTicket[ticketID]
	if !ok {
		return registration.Registration{}, regstore.ErrNotFound
	}
	return m.byID[id], nil
}

func (m *mockRegistrationStore) GetByEventAndParticipant(_ context.Context, eventID, participantID string) (registration.Registration, error) {
	id, ok := m.byPair[pairKey(eventID, participantID)]
	if !ok {
		return registration.Registration{}, regstore.ErrNotFound
	}
	return m.byID[id], nil
}

func (m *mockRegistrationStore) insert(r registration.Registration) error {
	if _, dup := m.byPair[pairKey(r.EventID, r.ParticipantID)]; dup {
		return regstore.ErrDuplicate
	}
	if r.TicketID != "" {
		if _, dup := m.byTicket[r.TicketID]; dup {
			return regstore.ErrTicketCollision
		}
		m.byTicket[r.TicketID] = r.ID
	}
	m.byID[r.ID] = r
	m.byPair[pairKey(r.EventID, r.ParticipantID)] = r.ID
	return nil
}

func (m *mockRegistrationStore) Create(_ context.Context, r registration.Registration) error {
	return m.insert(r)
}

func (m *mockRegistrationStore) CreateCounted(_ context.Context, r registration.Registration, lockForm bool) error {
	ev, ok := m.events.events[r.EventID]
	if !ok {
		return eventstore.ErrNotFound
	}
	if ev.RegistrationCount+1 > ev.RegistrationLimit {
		return regstore.ErrCapacity
	}
	if err := m.insert(r); err != nil {
		return err
	}
	ev.RegistrationCount++
	ev.Revenue += r.AmountPaid
	if lockForm && ev.CustomForm != nil {
		ev.CustomForm.Locked = true
	}
	m.events.events[r.EventID] = ev
	return nil
}

func (m *mockRegistrationStore) SumOrderedQuantity(_ context.Context, eventID, participantID string) (int, error) {
	total := 0
	for _, r := range m.byID {
		if r.EventID == eventID && r.ParticipantID == participantID &&
			r.Status != registration.StatusRejected && r.Order != nil {
			total += r.Order.Quantity
		}
	}
	return total, nil
}

func (m *mockRegistrationStore) Reject(_ context.Context, id, reason string) error {
	r, ok := m.byID[id]
	if !ok {
		return regstore.ErrNotFound
	}
	if r.Status != registration.StatusPending {
		return regstore.ErrNotPending
	}
	r.Status = registration.StatusRejected
	r.PaymentStatus = registration.PaymentFailed
	r.RejectionReason = reason
	m.byID[id] = r
	return nil
}

func (m *mockRegistrationStore) MarkAttended(_ context.Context, id string, at time.Time) (bool, error) {
	r, ok := m.byID[id]
	if !ok {
		return false, regstore.ErrNotFound
	}
	if r.Attended {
		return false, nil
	}
	r.Attended = true
	r.AttendanceMarkedAt = at
	m.byID[id] = r
	if m.events != nil {
		if ev, ok := m.events.events[r.EventID]; ok {
			ev.Attendance++
			m.events.events[r.EventID] = ev
		}
	}
	return true, nil
}

func (m *mockRegistrationStore) ListByParticipant(_ context.Context, participantID string) ([]registration.Registration, error) {
	var out []registration.Registration
	for _, r := range m.byID {
		if r.ParticipantID == participantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRegistrationStore) ListPendingByEventIDs(_ context.Context, eventIDs []string) ([]registration.Registration, error) {
	want := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		want[id] = true
	}
	var out []registration.Registration
	for _, r := range m.byID {
		if want[r.EventID] && r.Status == registration.StatusPending {
			out = append(out, r)
		}
	}
	return out, nil
}

// mockTeamStore implements TeamStore over maps.
type mockTeamStore struct {
	teams        map[string]team.Team
	invites      map[string]team.Invite // by ID
	inviteByCode map[string]string
}

func newMockTeamStore() *mockTeamStore {
	return &mockTeamStore{
		teams:        make(map[string]team.Team),
		invites:      make(map[string]team.Invite),
		inviteByCode: make(map[string]string),
	}
}

func (m *mockTeamStore) GetByID(_ context.Context, id string) (team.Team, error) {
	t, ok := m.teams[id]
	if !ok {
		return team.Team{}, teamstore.ErrNotFound
	}
	return t, nil
}

func (m *mockTeamStore) Create(_ context.Context, t team.Team) error {
	m.teams[t.ID] = t
	return nil
}

func (m *mockTeamStore) ListByEvent(_ context.Context, eventID string) ([]team.Team, error) {
	var out []team.Team
	for _, t := range m.teams {
		if t.EventID == eventID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTeamStore) AddMember(_ context.Context, teamID, participantID string, _ time.Time) (bool, error) {
	t, ok := m.teams[teamID]
	if !ok {
		return false, teamstore.ErrNotFound
	}
	if t.HasMember(participantID) {
		return false, teamstore.ErrAlreadyMember
	}
	if t.Status != team.StatusForming || len(t.MemberIDs) >= t.Size {
		return false, teamstore.ErrTeamFull
	}
	t.MemberIDs = append(t.MemberIDs, participantID)
	completed := false
	if len(t.MemberIDs) == t.Size {
		t.Status = team.StatusComplete
		completed = true
	}
	m.teams[teamID] = t
	return completed, nil
}

func (m *mockTeamStore) CreateInvite(_ context.Context, inv team.Invite) error {
	m.invites[inv.ID] = inv
	m.inviteByCode[inv.Code] = inv.ID
	return nil
}

func (m *mockTeamStore) GetInviteByCode(_ context.Context, code string) (team.Invite, error) {
	id, ok := m.inviteByCode[code]
	if !ok {
		return team.Invite{}, teamstore.ErrInviteNotFound
	}
	return m.invites[id], nil
}

func (m *mockTeamStore) ListInvitesByTeam(_ context.Context, teamID string) ([]team.Invite, error) {
	var out []team.Invite
	for _, inv := range m.invites {
		if inv.TeamID == teamID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockTeamStore) AcceptInvite(_ context.Context, inviteID, participantID string, at time.Time) error {
	inv, ok := m.invites[inviteID]
	if !ok {
		return teamstore.ErrInviteNotFound
	}
	if inv.Status != team.InviteStatusPending {
		return teamstore.ErrInviteProcessed
	}
	inv.Status = team.InviteStatusAccepted
	inv.AcceptedBy = participantID
	inv.AcceptedAt = at
	m.invites[inviteID] = inv
	return nil
}

// mockAttendanceStore appends records to a slice.
type mockAttendanceStore struct {
	records []attdomain.Record
}

func (m *mockAttendanceStore) Append(_ context.Context, rec attdomain.Record) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *mockAttendanceStore) ListByEvent(_ context.Context, eventID string) ([]attdomain.Record, error) {
	var out []attdomain.Record
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].EventID == eventID {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

// mockParticipantStore implements ParticipantStore over a map.
type mockParticipantStore struct {
	participants map[string]participant.Participant
}

func newMockParticipantStore(ps ...participant.Participant) *mockParticipantStore {
	m := &mockParticipantStore{participants: make(map[string]participant.Participant)}
	for _, p := range ps {
		m.participants[p.ID] = p
	}
	return m
}

func (m *mockParticipantStore) GetByID(_ context.Context, id string) (participant.Participant, error) {
	p, ok := m.participants[id]
	if !ok {
		return participant.Participant{}, partstore.ErrNotFound
	}
	return p, nil
}

func (m *mockParticipantStore) ListByIDs(_ context.Context, ids []string) ([]participant.Participant, error) {
	var out []participant.Participant
	for _, id := range ids {
		if p, ok := m.participants[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// mockOrganizerStore implements OrganizerStore over a map.
type mockOrganizerStore struct {
	organizers map[string]organizer.Organizer
}

func (m *mockOrganizerStore) GetByID(_ context.Context, id string) (organizer.Organizer, error) {
	o, ok := m.organizers[id]
	if !ok {
		return organizer.Organizer{}, orgstore.ErrNotFound
	}
	return o, nil
}

// mockMailer records sends instead of delivering.
type mockMailer struct {
	sent []email.SendRequest
}

func (m *mockMailer) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	m.sent = append(m.sent, req)
	return email.SendResult{MessageID: fmt.Sprintf("msg-%d", len(m.sent))}, nil
}

func (m *mockMailer) SendBatch(_ context.Context, reqs []email.SendRequest) ([]email.SendResult, error) {
	results := make([]email.SendResult, len(reqs))
	for i, req := range reqs {
		results[i], _ = m.Send(context.Background(), req)
	}
	return results, nil
}

// --- shared fixtures ---

func publishedEvent(id, organizerID, eventType string) event.Event {
	return event.Event{
		ID:                   id,
		Name:                 "Test Event",
		Type:                 eventType,
		OrganizerID:          organizerID,
		Eligibility:          event.EligibilityAll,
		Status:               event.StatusPublished,
		RegistrationDeadline: fixedTime.Add(24 * time.Hour),
		StartDate:            fixedTime.Add(48 * time.Hour),
		EndDate:              fixedTime.Add(72 * time.Hour),
		RegistrationLimit:    100,
		RegistrationFee:      50,
	}
}

func testParticipant(id string) participant.Participant {
	return participant.Participant{
		ID:        id,
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     id + "@example.com",
		Category:  participant.CategoryIIIT,
	}
}
