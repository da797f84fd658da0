package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"felicity/internal/adapters/email"
	regstore "felicity/internal/adapters/storage/registration"
	"felicity/internal/domain/event"
	"felicity/internal/domain/fault"
	"felicity/internal/domain/participant"
	"felicity/internal/domain/registration"

	"github.com/google/uuid"
)

// OrderInput is the merchandise selection supplied with a registration.
type OrderInput struct {
	Size     string
	Color    string
	Quantity int
}

// RegisterInput carries input for the orchestrator.
type RegisterInput struct {
	EventID       string
	ParticipantID string
	FormResponses []registration.FormResponse
	Order         *OrderInput
	PaymentProofRef string
}

// RegisterDeps holds dependencies for Register.
type RegisterDeps struct {
	EventStore        EventStore
	ParticipantStore  ParticipantStore
	RegistrationStore RegistrationStore
	Tickets           TicketIssuer
	Mailer            Notifier // optional
	BaseURL           string   // public URL prefix for ticket links

	GenerateID func() string
	Now        func() time.Time
}

func (d RegisterDeps) generateID() string {
	if d.GenerateID != nil {
		return d.GenerateID()
	}
	return uuid.New().String()
}

func (d RegisterDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// RegisterResult is the outcome of a registration attempt.
type RegisterResult struct {
	Registration registration.Registration
	// Message is a human-readable summary suitable for direct display.
	Message string
}

// registerStrategy is the per-event-type registration lifecycle, selected
// once per request from the event's type.
type registerStrategy interface {
	register(ctx context.Context, ev event.Event, p participant.Participant, input RegisterInput, deps RegisterDeps) (RegisterResult, error)
}

func strategyFor(eventType string) (registerStrategy, error) {
	switch eventType {
	case event.TypeNormal:
		return normalRegistration{}, nil
	case event.TypeMerchandise:
		return merchandiseRegistration{}, nil
	case event.TypeHackathon:
		return hackathonRegistration{}, nil
	default:
		return nil, fault.Validationf("unknown event type %q", eventType)
	}
}

// ExecuteRegister registers a participant for an event.
// PRE: Event is Published, deadline not passed, participant eligible,
// no existing registration for the pair
// POST: Normal events hold a Confirmed registration with a ticket;
// Merchandise events hold a Pending order; Hackathon events are refused
// (their registrations are created through team formation)
// INVARIANT: At most one registration per (event, participant) pair
func ExecuteRegister(ctx context.Context, input RegisterInput, deps RegisterDeps) (RegisterResult, error) {
	if input.EventID == "" || input.ParticipantID == "" {
		return RegisterResult{}, fault.Validationf("event and participant are required")
	}

	ev, err := deps.EventStore.GetByID(ctx, input.EventID)
	if err != nil {
		return RegisterResult{}, notFoundOr(err, "event not found")
	}
	p, err := deps.ParticipantStore.GetByID(ctx, input.ParticipantID)
	if err != nil {
		return RegisterResult{}, notFoundOr(err, "participant not found")
	}

	now := deps.now()
	if ev.Status != event.StatusPublished {
		return RegisterResult{}, fault.Statef("event is not open for registration")
	}
	if now.After(ev.RegistrationDeadline) {
		return RegisterResult{}, fault.Conflictf("registration deadline has passed")
	}
	if ev.IsFull() {
		return RegisterResult{}, fault.Conflictf("event has reached its registration limit")
	}
	if err := ev.EligibleFor(p.Category); err != nil {
		return RegisterResult{}, fault.Authorizationf("%s", err.Error())
	}
	if _, err := deps.RegistrationStore.GetByEventAndParticipant(ctx, ev.ID, p.ID); err == nil {
		return RegisterResult{}, fault.Conflictf("already registered for this event")
	} else if !errors.Is(err, regstore.ErrNotFound) {
		return RegisterResult{}, fault.Internal(err)
	}

	strategy, err := strategyFor(ev.Type)
	if err != nil {
		return RegisterResult{}, err
	}
	return strategy.register(ctx, ev, p, input, deps)
}

// normalRegistration confirms instantly: the ticket is minted, the event
// counters move, and the custom form locks on the first registration.
type normalRegistration struct{}

func (normalRegistration) register(ctx context.Context, ev event.Event, p participant.Participant, input RegisterInput, deps RegisterDeps) (RegisterResult, error) {
	if ev.CustomForm != nil {
		if err := validateResponses(ev.CustomForm, input.FormResponses); err != nil {
			return RegisterResult{}, err
		}
	}

	now := deps.now()
	lockForm := ev.CustomForm != nil && ev.RegistrationCount == 0

	// A colliding ticket ID is vanishingly rare but cheap to retry with a
	// fresh mint.
	var reg registration.Registration
	for attempt := 0; ; attempt++ {
		ticketID, qr, err := deps.Tickets.Issue(ev, p, now)
		if err != nil {
			return RegisterResult{}, fault.Internal(err)
		}
		reg = registration.Registration{
			ID:            deps.generateID(),
			EventID:       ev.ID,
			ParticipantID: p.ID,
			Status:        registration.StatusConfirmed,
			PaymentStatus: registration.PaymentCompleted,
			AmountPaid:    ev.RegistrationFee,
			TicketID:      ticketID,
			QRCode:        qr,
			FormResponses: input.FormResponses,
			RegisteredAt:  now,
		}
		err = deps.RegistrationStore.CreateCounted(ctx, reg, lockForm)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, regstore.ErrTicketCollision) && attempt == 0:
			continue
		case errors.Is(err, regstore.ErrDuplicate):
			return RegisterResult{}, fault.Conflictf("already registered for this event")
		case errors.Is(err, regstore.ErrCapacity):
			return RegisterResult{}, fault.Conflictf("event has reached its registration limit")
		default:
			return RegisterResult{}, fault.Internal(err)
		}
	}

	sendConfirmation(ctx, deps.Mailer, deps.BaseURL, ev, p, reg)

	return RegisterResult{
		Registration: reg,
		Message:      fmt.Sprintf("Registered for %s. Your ticket is %s.", ev.Name, reg.TicketID),
	}, nil
}

// merchandiseRegistration records a Pending order. Stock is only checked as
// advice here; the authoritative decrement happens at approval.
type merchandiseRegistration struct{}

func (merchandiseRegistration) register(ctx context.Context, ev event.Event, p participant.Participant, input RegisterInput, deps RegisterDeps) (RegisterResult, error) {
	if input.Order == nil {
		return RegisterResult{}, fault.Validationf("merchandise registration requires an order")
	}
	qty := input.Order.Quantity
	if qty < 1 {
		return RegisterResult{}, fault.Validationf("order quantity must be at least 1")
	}
	merch := ev.Merchandise
	if merch == nil {
		return RegisterResult{}, fault.Statef("event has no merchandise catalog")
	}
	variant := merch.FindVariant(input.Order.Size, input.Order.Color)
	if variant == nil {
		return RegisterResult{}, fault.Validationf("no %s / %s variant exists", input.Order.Size, input.Order.Color)
	}

	if merch.PurchaseLimit > 0 {
		ordered, err := deps.RegistrationStore.SumOrderedQuantity(ctx, ev.ID, p.ID)
		if err != nil {
			return RegisterResult{}, fault.Internal(err)
		}
		if ordered+qty > merch.PurchaseLimit {
			return RegisterResult{}, fault.Conflictf("order exceeds the purchase limit of %d", merch.PurchaseLimit)
		}
	}
	if variant.StockQuantity < qty {
		return RegisterResult{}, fault.Conflictf("insufficient stock for the selected variant")
	}

	unit := variant.Price
	if unit == 0 {
		unit = ev.RegistrationFee
	}
	reg := registration.Registration{
		ID:            deps.generateID(),
		EventID:       ev.ID,
		ParticipantID: p.ID,
		Status:        registration.StatusPending,
		PaymentStatus: registration.PaymentPending,
		Order: &registration.Order{
			Size:        input.Order.Size,
			Color:       input.Order.Color,
			Quantity:    qty,
			TotalAmount: unit * qty,
		},
		PaymentProofRef: input.PaymentProofRef,
		RegisteredAt:    deps.now(),
	}
	if err := deps.RegistrationStore.Create(ctx, reg); err != nil {
		if errors.Is(err, regstore.ErrDuplicate) {
			return RegisterResult{}, fault.Conflictf("already registered for this event")
		}
		return RegisterResult{}, fault.Internal(err)
	}

	return RegisterResult{
		Registration: reg,
		Message:      "Order placed. You will receive your ticket once the organizer approves it.",
	}, nil
}

// hackathonRegistration refuses direct registration; hackathon participants
// join through teams and are registered in bulk when the team completes.
type hackathonRegistration struct{}

func (hackathonRegistration) register(_ context.Context, ev event.Event, _ participant.Participant, _ RegisterInput, _ RegisterDeps) (RegisterResult, error) {
	return RegisterResult{}, fault.Statef("%s requires team registration; create or join a team instead", ev.Name)
}

// registerTeamMember writes one Confirmed registration for a team member
// without touching the event counters; the caller applies a single counter
// increment for the whole batch.
func registerTeamMember(ctx context.Context, ev event.Event, p participant.Participant, deps RegisterDeps) (registration.Registration, error) {
	now := deps.now()
	ticketID, qr, err := deps.Tickets.Issue(ev, p, now)
	if err != nil {
		return registration.Registration{}, err
	}
	reg := registration.Registration{
		ID:            deps.generateID(),
		EventID:       ev.ID,
		ParticipantID: p.ID,
		Status:        registration.StatusConfirmed,
		PaymentStatus: registration.PaymentCompleted,
		AmountPaid:    ev.RegistrationFee,
		TicketID:      ticketID,
		QRCode:        qr,
		RegisteredAt:  now,
	}
	if err := deps.RegistrationStore.Create(ctx, reg); err != nil {
		return registration.Registration{}, err
	}
	return reg, nil
}

// validateResponses checks that every required form field has a non-empty
// answer and that no answer references an unknown field.
func validateResponses(form *event.CustomForm, responses []registration.FormResponse) error {
	answers := make(map[string]string, len(responses))
	for _, r := range responses {
		answers[r.FieldID] = r.Value
	}
	known := make(map[string]bool, len(form.Fields))
	for _, f := range form.Fields {
		known[f.ID] = true
		if f.Required && answers[f.ID] == "" {
			return fault.Validationf("field %q is required", f.Label)
		}
	}
	for _, r := range responses {
		if !known[r.FieldID] {
			return fault.Validationf("unknown form field %q", r.FieldID)
		}
	}
	return nil
}

// sendConfirmation emails the ticket. Failures are logged, never returned.
func sendConfirmation(ctx context.Context, mailer Notifier, baseURL string, ev event.Event, p participant.Participant, reg registration.Registration) {
	if mailer == nil {
		return
	}
	subject, html := email.RegistrationConfirmed(email.Confirmation{
		Name:        p.FullName(),
		EventName:   ev.Name,
		StartDate:   ev.StartDate,
		TicketID:    reg.TicketID,
		TicketURL:   ticketURL(baseURL, reg.TicketID),
		Description: ev.Description,
	})
	if _, err := mailer.Send(ctx, email.SendRequest{
		To:      []string{p.Email},
		Subject: subject,
		HTML:    html,
	}); err != nil {
		slog.Error("confirmation_email_failed", "registration_id", reg.ID, "error", err)
	}
}

func ticketURL(baseURL, ticketID string) string {
	if baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/tickets/%s", baseURL, ticketID)
}

// notFoundOr maps a store not-found to a fault; anything else is internal.
func notFoundOr(err error, msg string) error {
	if isStoreNotFound(err) {
		return fault.NotFoundf("%s", msg)
	}
	return fault.Internal(err)
}
