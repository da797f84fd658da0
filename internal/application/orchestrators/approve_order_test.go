package orchestrators

import (
	"context"
	"testing"

	"felicity/internal/domain/event"
	"felicity/internal/domain/fault"
	"felicity/internal/domain/registration"
)

func approveHarness(stock int) (ApproveOrderDeps, *mockEventStore, *mockRegistrationStore, *mockMailer) {
	ev := publishedEvent("ev-1", "org-1", event.TypeMerchandise)
	ev.Merchandise = &event.Merchandise{
		ItemName:   "Hoodie",
		Variants:   []event.Variant{{Size: "M", Color: "Black", StockQuantity: stock, Price: 700}},
		TotalStock: stock,
	}
	es := newMockEventStore()
	es.events[ev.ID] = ev
	rs := newMockRegistrationStore(es)
	rs.byID["reg-1"] = registration.Registration{
		ID: "reg-1", EventID: "ev-1", ParticipantID: "p-1",
		Status:        registration.StatusPending,
		PaymentStatus: registration.PaymentPending,
		Order:         &registration.Order{Size: "M", Color: "Black", Quantity: 2, TotalAmount: 1400},
	}
	rs.byPair[pairKey("ev-1", "p-1")] = "reg-1"
	mailer := &mockMailer{}
	deps := ApproveOrderDeps{
		EventStore:        es,
		ParticipantStore:  newMockParticipantStore(testParticipant("p-1")),
		RegistrationStore: rs,
		Tickets:           testIssuer(),
		Mailer:            mailer,
		Now:               fixedNow,
	}
	return deps, es, rs, mailer
}

func TestExecuteApproveOrder_ConfirmsAndConsumesStock(t *testing.T) {
	deps, es, _, mailer := approveHarness(5)

	reg, err := ExecuteApproveOrder(context.Background(), ApproveOrderInput{
		RegistrationID: "reg-1",
		Actor:          Actor{ID: "org-1", Role: "Organizer"},
	}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Status != registration.StatusConfirmed {
		t.Errorf("expected Confirmed, got %s", reg.Status)
	}
	if !reg.HasTicket() {
		t.Error("expected a minted ticket")
	}
	ev := es.events["ev-1"]
	if ev.Merchandise.Variants[0].StockQuantity != 3 {
		t.Errorf("expected stock 3, got %d", ev.Merchandise.Variants[0].StockQuantity)
	}
	if ev.RegistrationCount != 1 || ev.Revenue != 1400 {
		t.Errorf("expected count=1 revenue=1400, got count=%d revenue=%d", ev.RegistrationCount, ev.Revenue)
	}
	if len(mailer.sent) != 1 {
		t.Errorf("expected one confirmation email, got %d", len(mailer.sent))
	}
}

func TestExecuteApproveOrder_TicketCollisionRetriesOnce(t *testing.T) {
	deps, es, rs, _ := approveHarness(5)
	// Another registration already holds the first ID the issuer will mint.
	rs.byTicket["TKT-A"] = "reg-other"
	deps.Tickets = testIssuer("TKT-A", "TKT-B")

	reg, err := ExecuteApproveOrder(context.Background(), ApproveOrderInput{
		RegistrationID: "reg-1",
		Actor:          Actor{ID: "org-1", Role: "Organizer"},
	}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.TicketID != "TKT-B" {
		t.Errorf("expected fresh mint TKT-B, got %s", reg.TicketID)
	}
	ev := es.events["ev-1"]
	if ev.Merchandise.Variants[0].StockQuantity != 3 {
		t.Errorf("stock must be consumed exactly once, got %d", ev.Merchandise.Variants[0].StockQuantity)
	}
	if ev.RegistrationCount != 1 {
		t.Errorf("expected one counter increment, got %d", ev.RegistrationCount)
	}
}

func TestExecuteApproveOrder_InsufficientStockLeavesPending(t *testing.T) {
	deps, es, rs, _ := approveHarness(1)

	_, err := ExecuteApproveOrder(context.Background(), ApproveOrderInput{
		RegistrationID: "reg-1",
		Actor:          Actor{ID: "org-1", Role: "Organizer"},
	}, deps)
	if !fault.IsKind(err, fault.KindConflict) {
		t.Fatalf("expected conflict on insufficient stock, got %v", err)
	}
	if rs.byID["reg-1"].Status != registration.StatusPending {
		t.Errorf("order must stay Pending, got %s", rs.byID["reg-1"].Status)
	}
	ev := es.events["ev-1"]
	if ev.Merchandise.Variants[0].StockQuantity != 1 || ev.RegistrationCount != 0 {
		t.Error("failed approval must not consume stock or move counters")
	}
}

func TestExecuteApproveOrder_SecondApprovalFails(t *testing.T) {
	deps, _, _, _ := approveHarness(5)
	actor := Actor{ID: "org-1", Role: "Organizer"}

	if _, err := ExecuteApproveOrder(context.Background(), ApproveOrderInput{RegistrationID: "reg-1", Actor: actor}, deps); err != nil {
		t.Fatalf("first approval failed: %v", err)
	}
	_, err := ExecuteApproveOrder(context.Background(), ApproveOrderInput{RegistrationID: "reg-1", Actor: actor}, deps)
	if !fault.IsKind(err, fault.KindState) {
		t.Fatalf("expected state error on second approval, got %v", err)
	}
}

func TestExecuteApproveOrder_RequiresOwnership(t *testing.T) {
	deps, _, _, _ := approveHarness(5)

	_, err := ExecuteApproveOrder(context.Background(), ApproveOrderInput{
		RegistrationID: "reg-1",
		Actor:          Actor{ID: "org-other", Role: "Organizer"},
	}, deps)
	if !fault.IsKind(err, fault.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}

	// Admins bypass ownership.
	if _, err := ExecuteApproveOrder(context.Background(), ApproveOrderInput{
		RegistrationID: "reg-1",
		Actor:          Actor{ID: "admin-1", Role: "Admin"},
	}, deps); err != nil {
		t.Fatalf("admin approval failed: %v", err)
	}
}

func TestExecuteRejectOrder_DefaultsReason(t *testing.T) {
	deps, _, rs, mailer := approveHarness(5)

	reg, err := ExecuteRejectOrder(context.Background(), RejectOrderInput{
		RegistrationID: "reg-1",
		Actor:          Actor{ID: "org-1", Role: "Organizer"},
	}, RejectOrderDeps{
		EventStore:        deps.EventStore,
		ParticipantStore:  deps.ParticipantStore,
		RegistrationStore: deps.RegistrationStore,
		Mailer:            deps.Mailer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Status != registration.StatusRejected || reg.PaymentStatus != registration.PaymentFailed {
		t.Errorf("expected Rejected/Failed, got %s/%s", reg.Status, reg.PaymentStatus)
	}
	if reg.RejectionReason != "Rejected by organizer" {
		t.Errorf("expected default reason, got %q", reg.RejectionReason)
	}
	if rs.byID["reg-1"].Status != registration.StatusRejected {
		t.Error("rejection not persisted")
	}
	if len(mailer.sent) != 1 {
		t.Errorf("expected rejection email, got %d sends", len(mailer.sent))
	}
}

func TestExecuteRejectOrder_NotPending(t *testing.T) {
	deps, _, rs, _ := approveHarness(5)
	r := rs.byID["reg-1"]
	r.Status = registration.StatusConfirmed
	r.TicketID = "TKT-X"
	rs.byID["reg-1"] = r

	_, err := ExecuteRejectOrder(context.Background(), RejectOrderInput{
		RegistrationID: "reg-1",
		Reason:         "out of stock",
		Actor:          Actor{ID: "org-1", Role: "Organizer"},
	}, RejectOrderDeps{
		EventStore:        deps.EventStore,
		ParticipantStore:  deps.ParticipantStore,
		RegistrationStore: deps.RegistrationStore,
	})
	if !fault.IsKind(err, fault.KindState) {
		t.Fatalf("expected state error, got %v", err)
	}
}
