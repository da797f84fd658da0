package orchestrators

import (
	"context"
	"time"

	"felicity/internal/domain/calendar"
	"felicity/internal/domain/fault"
	"felicity/internal/domain/registration"
)

// ExportCalendarInput carries input for the orchestrator.
type ExportCalendarInput struct {
	ParticipantID string
	// EventIDs optionally narrows the export; empty means every confirmed
	// registration.
	EventIDs []string
}

// ExportCalendarDeps holds dependencies for ExportCalendar.
type ExportCalendarDeps struct {
	EventStore        EventStore
	RegistrationStore RegistrationStore
	BaseURL           string

	Now func() time.Time
}

func (d ExportCalendarDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// ExecuteExportCalendar renders the caller's confirmed registrations as an
// iCalendar document.
// POST: One VEVENT per confirmed registration with a known event
func ExecuteExportCalendar(ctx context.Context, input ExportCalendarInput, deps ExportCalendarDeps) (string, error) {
	if input.ParticipantID == "" {
		return "", fault.Validationf("participant id is required")
	}
	regs, err := deps.RegistrationStore.ListByParticipant(ctx, input.ParticipantID)
	if err != nil {
		return "", fault.Internal(err)
	}

	wanted := make(map[string]bool, len(input.EventIDs))
	for _, id := range input.EventIDs {
		wanted[id] = true
	}

	now := deps.now()
	var rendered []string
	for _, reg := range regs {
		if reg.Status != registration.StatusConfirmed {
			continue
		}
		if len(wanted) > 0 && !wanted[reg.EventID] {
			continue
		}
		ev, err := deps.EventStore.GetByID(ctx, reg.EventID)
		if err != nil {
			continue
		}
		rendered = append(rendered, calendar.VEvent{
			UID:         reg.TicketID + "@felicity",
			Title:       ev.Name,
			Description: ev.Description,
			Location:    ev.Venue,
			Start:       ev.StartDate,
			End:         ev.EndDate,
			URL:         ticketURL(deps.BaseURL, reg.TicketID),
		}.Render(now))
	}
	if len(rendered) == 0 {
		return "", fault.NotFoundf("no confirmed registrations to export")
	}
	return calendar.WrapCalendar(rendered), nil
}
