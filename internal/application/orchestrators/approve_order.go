package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"felicity/internal/adapters/email"
	eventstore "felicity/internal/adapters/storage/event"
	regstore "felicity/internal/adapters/storage/registration"
	"felicity/internal/domain/fault"
	"felicity/internal/domain/registration"
)

// ApproveOrderInput carries input for the orchestrator.
type ApproveOrderInput struct {
	RegistrationID string
	Actor          Actor
}

// ApproveOrderDeps holds dependencies for ApproveOrder.
type ApproveOrderDeps struct {
	EventStore        EventStore
	ParticipantStore  ParticipantStore
	RegistrationStore RegistrationStore
	Tickets           TicketIssuer
	Mailer            Notifier // optional
	BaseURL           string

	Now func() time.Time
}

func (d ApproveOrderDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// ExecuteApproveOrder confirms a pending merchandise order.
// PRE: Order is Pending; actor owns the event or is an admin
// POST: On success the variant stock is decremented, counters are updated,
// and the registration is Confirmed with a freshly minted ticket; on any
// gate failure the order stays Pending and nothing is consumed
// INVARIANT: Variant stock never goes negative; concurrent approvals of the
// same order confirm it at most once
func ExecuteApproveOrder(ctx context.Context, input ApproveOrderInput, deps ApproveOrderDeps) (registration.Registration, error) {
	if input.RegistrationID == "" {
		return registration.Registration{}, fault.Validationf("registration id is required")
	}

	reg, err := deps.RegistrationStore.GetByID(ctx, input.RegistrationID)
	if err != nil {
		return registration.Registration{}, notFoundOr(err, "registration not found")
	}
	if reg.Status != registration.StatusPending {
		return registration.Registration{}, fault.Statef("registration is not pending")
	}
	if reg.Order == nil {
		return registration.Registration{}, fault.Statef("registration is not a merchandise order")
	}

	ev, err := deps.EventStore.GetByID(ctx, reg.EventID)
	if err != nil {
		return registration.Registration{}, notFoundOr(err, "event not found")
	}
	if !input.Actor.IsAdmin() && ev.OrganizerID != input.Actor.ID {
		return registration.Registration{}, fault.Authorizationf("only the event organizer may approve orders")
	}

	p, err := deps.ParticipantStore.GetByID(ctx, reg.ParticipantID)
	if err != nil {
		return registration.Registration{}, notFoundOr(err, "participant not found")
	}

	// A colliding ticket ID is vanishingly rare but cheap to retry with a
	// fresh mint.
	var ticketID, qr string
	for attempt := 0; ; attempt++ {
		ticketID, qr, err = deps.Tickets.Issue(ev, p, deps.now())
		if err != nil {
			return registration.Registration{}, fault.Internal(err)
		}
		err = deps.EventStore.ApproveOrderInventory(ctx, eventstore.ApproveOrder{
			EventID:        ev.ID,
			RegistrationID: reg.ID,
			Size:           reg.Order.Size,
			Color:          reg.Order.Color,
			Quantity:       reg.Order.Quantity,
			Revenue:        reg.Order.TotalAmount,
			TicketID:       ticketID,
			QRCode:         qr,
		})
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, eventstore.ErrTicketCollision) && attempt == 0:
			continue
		case errors.Is(err, eventstore.ErrInsufficientStock):
			return registration.Registration{}, fault.Conflictf("insufficient stock for the selected variant")
		case errors.Is(err, eventstore.ErrCapacityExceeded):
			return registration.Registration{}, fault.Conflictf("event has reached its registration limit")
		case errors.Is(err, eventstore.ErrOrderNotPending):
			return registration.Registration{}, fault.Statef("registration is not pending")
		default:
			return registration.Registration{}, fault.Internal(err)
		}
	}

	confirmed, err := deps.RegistrationStore.GetByID(ctx, reg.ID)
	if err != nil {
		// The approval committed; fall back to the in-memory view.
		slog.Warn("approved_order_reload_failed", "registration_id", reg.ID, "error", err)
		confirmed = reg
		confirmed.Status = registration.StatusConfirmed
		confirmed.PaymentStatus = registration.PaymentCompleted
		confirmed.TicketID = ticketID
		confirmed.QRCode = qr
	}

	sendConfirmation(ctx, deps.Mailer, deps.BaseURL, ev, p, confirmed)
	slog.Info("order_approved",
		"registration_id", reg.ID,
		"event_id", ev.ID,
		"quantity", reg.Order.Quantity,
		"approved_by", input.Actor.ID)

	return confirmed, nil
}

// RejectOrderInput carries input for the orchestrator.
type RejectOrderInput struct {
	RegistrationID string
	Reason         string
	Actor          Actor
}

// RejectOrderDeps holds dependencies for RejectOrder.
type RejectOrderDeps struct {
	EventStore        EventStore
	ParticipantStore  ParticipantStore
	RegistrationStore RegistrationStore
	Mailer            Notifier // optional
}

// ExecuteRejectOrder declines a pending merchandise order.
// PRE: Order is Pending; actor owns the event or is an admin
// POST: Registration is Rejected with the reason recorded; no stock or
// counter is touched
func ExecuteRejectOrder(ctx context.Context, input RejectOrderInput, deps RejectOrderDeps) (registration.Registration, error) {
	if input.RegistrationID == "" {
		return registration.Registration{}, fault.Validationf("registration id is required")
	}

	reg, err := deps.RegistrationStore.GetByID(ctx, input.RegistrationID)
	if err != nil {
		return registration.Registration{}, notFoundOr(err, "registration not found")
	}
	if reg.Status != registration.StatusPending {
		return registration.Registration{}, fault.Statef("registration is not pending")
	}

	ev, err := deps.EventStore.GetByID(ctx, reg.EventID)
	if err != nil {
		return registration.Registration{}, notFoundOr(err, "event not found")
	}
	if !input.Actor.IsAdmin() && ev.OrganizerID != input.Actor.ID {
		return registration.Registration{}, fault.Authorizationf("only the event organizer may reject orders")
	}

	reason := input.Reason
	if reason == "" {
		reason = "Rejected by organizer"
	}
	if err := deps.RegistrationStore.Reject(ctx, reg.ID, reason); err != nil {
		if errors.Is(err, regstore.ErrNotPending) {
			return registration.Registration{}, fault.Statef("registration is not pending")
		}
		return registration.Registration{}, fault.Internal(err)
	}
	reg.Status = registration.StatusRejected
	reg.PaymentStatus = registration.PaymentFailed
	reg.RejectionReason = reason

	if deps.Mailer != nil {
		p, perr := deps.ParticipantStore.GetByID(ctx, reg.ParticipantID)
		if perr == nil {
			subject, html := email.OrderRejected(p.FullName(), ev.Name, reason)
			if _, serr := deps.Mailer.Send(ctx, email.SendRequest{
				To:      []string{p.Email},
				Subject: subject,
				HTML:    html,
			}); serr != nil {
				slog.Error("rejection_email_failed", "registration_id", reg.ID, "error", serr)
			}
		}
	}
	slog.Info("order_rejected", "registration_id", reg.ID, "event_id", ev.ID, "rejected_by", input.Actor.ID)

	return reg, nil
}
