package event

import (
	"testing"
	"time"

	"felicity/internal/domain/participant"
)

var fixedTime = time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)

func validEvent() Event {
	return Event{
		ID:                   "ev-1",
		Name:                 "Robowars",
		Type:                 TypeNormal,
		OrganizerID:          "org-1",
		Eligibility:          EligibilityAll,
		Status:               StatusPublished,
		RegistrationDeadline: fixedTime.Add(24 * time.Hour),
		RegistrationLimit:    100,
	}
}

func TestOpenForRegistration(t *testing.T) {
	ev := validEvent()
	if err := ev.OpenForRegistration(fixedTime); err != nil {
		t.Errorf("published event before deadline should be open: %v", err)
	}

	ev.Status = StatusDraft
	if err := ev.OpenForRegistration(fixedTime); err == nil {
		t.Error("draft event must not be open")
	}

	ev = validEvent()
	if err := ev.OpenForRegistration(ev.RegistrationDeadline.Add(time.Second)); err == nil {
		t.Error("past deadline must not be open")
	}
	// The deadline instant itself is still open.
	if err := ev.OpenForRegistration(ev.RegistrationDeadline); err != nil {
		t.Errorf("deadline instant should be open: %v", err)
	}
}

func TestEligibleFor(t *testing.T) {
	ev := validEvent()
	if err := ev.EligibleFor(participant.CategoryNonIIIT); err != nil {
		t.Errorf("all-eligibility event rejects: %v", err)
	}

	ev.Eligibility = EligibilityIIITOnly
	if err := ev.EligibleFor(participant.CategoryIIIT); err != nil {
		t.Errorf("IIIT participant rejected: %v", err)
	}
	if err := ev.EligibleFor(participant.CategoryNonIIIT); err == nil {
		t.Error("Non-IIIT participant must be rejected")
	}

	ev.Eligibility = EligibilityNonIIITOnly
	if err := ev.EligibleFor(participant.CategoryIIIT); err == nil {
		t.Error("IIIT participant must be rejected")
	}
}

func TestCapacity(t *testing.T) {
	ev := validEvent()
	ev.RegistrationLimit = 2
	ev.RegistrationCount = 1
	if ev.IsFull() {
		t.Error("one slot remaining is not full")
	}
	if got := ev.Remaining(); got != 1 {
		t.Errorf("expected 1 remaining, got %d", got)
	}
	ev.RegistrationCount = 2
	if !ev.IsFull() {
		t.Error("at limit is full")
	}
}

func TestFindVariant(t *testing.T) {
	m := Merchandise{Variants: []Variant{
		{Size: "M", Color: "Black", StockQuantity: 5},
		{Size: "L", Color: "White", StockQuantity: 0},
	}}
	v := m.FindVariant("L", "White")
	if v == nil || v.StockQuantity != 0 {
		t.Fatal("expected the L/White variant")
	}
	// The returned pointer aliases the slice so stock updates stick.
	v.StockQuantity = 3
	if m.Variants[1].StockQuantity != 3 {
		t.Error("expected variant mutation through the pointer")
	}
	if m.FindVariant("XL", "Black") != nil {
		t.Error("unknown combination must return nil")
	}
}

func TestEventValidate(t *testing.T) {
	ev := validEvent()
	if err := ev.Validate(); err != nil {
		t.Errorf("valid event rejected: %v", err)
	}

	ev = validEvent()
	ev.Type = "Raffle"
	if ev.Validate() == nil {
		t.Error("unknown type must fail")
	}

	ev = validEvent()
	ev.RegistrationLimit = 0
	if ev.Validate() == nil {
		t.Error("non-positive limit must fail")
	}

	ev = validEvent()
	ev.Type = TypeHackathon
	if ev.Validate() == nil {
		t.Error("hackathon without team size must fail")
	}
	ev.TeamSize = 4
	if err := ev.Validate(); err != nil {
		t.Errorf("hackathon with team size rejected: %v", err)
	}

	ev = validEvent()
	ev.Type = TypeMerchandise
	if ev.Validate() == nil {
		t.Error("merchandise without variants must fail")
	}
	ev.Merchandise = &Merchandise{Variants: []Variant{{Size: "M", Color: "Black", StockQuantity: -1}}}
	if ev.Validate() == nil {
		t.Error("negative stock must fail")
	}
	ev.Merchandise.Variants[0].StockQuantity = 10
	if err := ev.Validate(); err != nil {
		t.Errorf("valid merchandise rejected: %v", err)
	}
}
