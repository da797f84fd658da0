package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"felicity/internal/domain/attendance"
	"felicity/internal/domain/fault"
	"felicity/internal/domain/registration"

	"github.com/google/uuid"
)

// MarkAttendanceInput carries input for the orchestrator.
type MarkAttendanceInput struct {
	TicketID  string
	Mode      attendance.ScanMode
	Actor     Actor
	UserAgent string
	IP        string
}

// MarkAttendanceDeps holds dependencies for MarkAttendance.
type MarkAttendanceDeps struct {
	EventStore        EventStore
	RegistrationStore RegistrationStore
	AttendanceStore   AttendanceStore

	GenerateID func() string
	Now        func() time.Time
}

func (d MarkAttendanceDeps) generateID() string {
	if d.GenerateID != nil {
		return d.GenerateID()
	}
	return uuid.New().String()
}

func (d MarkAttendanceDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// MarkAttendanceResult reports the outcome of a scan.
type MarkAttendanceResult struct {
	Registration registration.Registration
	Record       attendance.Record
	// Duplicate is true when the ticket had already been scanned; the
	// attempt is recorded in the audit trail but no counter moves.
	Duplicate bool
}

// ExecuteMarkAttendance records a ticket scan.
// PRE: Ticket resolves to a Confirmed registration; actor owns the event
// or is an admin; manual scans carry a reason
// POST: First scan flips the attended flag and increments the attendance
// counter exactly once; every scan, duplicates included, appends one
// immutable audit record
func ExecuteMarkAttendance(ctx context.Context, input MarkAttendanceInput, deps MarkAttendanceDeps) (MarkAttendanceResult, error) {
	if input.TicketID == "" {
		return MarkAttendanceResult{}, fault.Validationf("ticket id is required")
	}
	if input.Mode == nil {
		return MarkAttendanceResult{}, fault.Validationf("scan mode is required")
	}
	if err := input.Mode.Validate(); err != nil {
		return MarkAttendanceResult{}, fault.Validationf("%s", err.Error())
	}

	reg, err := deps.RegistrationStore.GetByTicketID(ctx, input.TicketID)
	if err != nil {
		return MarkAttendanceResult{}, notFoundOr(err, "ticket not found")
	}
	if reg.Status != registration.StatusConfirmed {
		return MarkAttendanceResult{}, fault.Statef("ticket belongs to an unconfirmed registration")
	}
	ev, err := deps.EventStore.GetByID(ctx, reg.EventID)
	if err != nil {
		return MarkAttendanceResult{}, notFoundOr(err, "event not found")
	}
	if !input.Actor.IsAdmin() && ev.OrganizerID != input.Actor.ID {
		return MarkAttendanceResult{}, fault.Authorizationf("only the event organizer may mark attendance")
	}

	now := deps.now()
	first, err := deps.RegistrationStore.MarkAttended(ctx, reg.ID, now)
	if err != nil {
		return MarkAttendanceResult{}, fault.Internal(err)
	}

	rec := attendance.Record{
		ID:             deps.generateID(),
		EventID:        ev.ID,
		RegistrationID: reg.ID,
		ParticipantID:  reg.ParticipantID,
		ScannedBy:      input.Actor.ID,
		ScannedByRole:  input.Actor.Role,
		Method:         input.Mode.Method(),
		Duplicate:      !first,
		Reason:         input.Mode.Reason(),
		UserAgent:      input.UserAgent,
		IP:             input.IP,
		CreatedAt:      now,
	}
	if err := deps.AttendanceStore.Append(ctx, rec); err != nil {
		// The flip already committed; losing the audit row is worth a
		// loud log but not a failed scan.
		slog.Error("attendance_audit_append_failed", "registration_id", reg.ID, "error", err)
	}

	if first {
		reg.Attended = true
		reg.AttendanceMarkedAt = now
	}
	slog.Info("attendance_scanned",
		"event_id", ev.ID,
		"ticket_id", input.TicketID,
		"method", rec.Method,
		"duplicate", rec.Duplicate,
		"scanned_by", input.Actor.ID)

	return MarkAttendanceResult{Registration: reg, Record: rec, Duplicate: !first}, nil
}
