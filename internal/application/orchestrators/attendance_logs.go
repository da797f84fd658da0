package orchestrators

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"felicity/internal/domain/attendance"
	"felicity/internal/domain/fault"
)

// AttendanceLogsInput carries input for the orchestrator.
type AttendanceLogsInput struct {
	EventID string
	Actor   Actor
}

// AttendanceLogsDeps holds dependencies for the attendance log reads.
type AttendanceLogsDeps struct {
	EventStore       EventStore
	ParticipantStore ParticipantStore
	AttendanceStore  AttendanceStore
	OrganizerStore   OrganizerStore
}

// ExecuteGetAttendanceLogs returns an event's scan audit trail, newest first.
// PRE: Actor owns the event or is an admin
func ExecuteGetAttendanceLogs(ctx context.Context, input AttendanceLogsInput, deps AttendanceLogsDeps) ([]attendance.Record, error) {
	if input.EventID == "" {
		return nil, fault.Validationf("event id is required")
	}
	ev, err := deps.EventStore.GetByID(ctx, input.EventID)
	if err != nil {
		return nil, notFoundOr(err, "event not found")
	}
	if !input.Actor.IsAdmin() && ev.OrganizerID != input.Actor.ID {
		return nil, fault.Authorizationf("only the event organizer may view attendance logs")
	}
	recs, err := deps.AttendanceStore.ListByEvent(ctx, ev.ID)
	if err != nil {
		return nil, fault.Internal(err)
	}
	return recs, nil
}

// ExecuteExportAttendanceCSV renders the audit trail as CSV.
// PRE: Actor owns the event or is an admin
// POST: One row per scan attempt, duplicates included, newest first
func ExecuteExportAttendanceCSV(ctx context.Context, input AttendanceLogsInput, deps AttendanceLogsDeps) ([]byte, error) {
	recs, err := ExecuteGetAttendanceLogs(ctx, input, deps)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	emails := make(map[string]string)
	ids := make([]string, 0, len(recs))
	seen := make(map[string]bool)
	for _, r := range recs {
		if !seen[r.ParticipantID] {
			seen[r.ParticipantID] = true
			ids = append(ids, r.ParticipantID)
		}
	}
	if len(ids) > 0 {
		participants, err := deps.ParticipantStore.ListByIDs(ctx, ids)
		if err != nil {
			return nil, fault.Internal(err)
		}
		for _, p := range participants {
			names[p.ID] = p.FullName()
			emails[p.ID] = p.Email
		}
	}

	// Scanner names resolve lazily; a deleted organizer row falls back to
	// the raw identifier.
	scanners := make(map[string]string)
	scannerName := func(id string) string {
		if name, ok := scanners[id]; ok {
			return name
		}
		name := id
		if o, err := deps.OrganizerStore.GetByID(ctx, id); err == nil {
			name = o.Name
		}
		scanners[id] = name
		return name
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Participant Name", "Email", "Scanned By", "Method", "Duplicate", "IP", "UserAgent", "Scanned At"}); err != nil {
		return nil, fault.Internal(err)
	}
	for _, r := range recs {
		name := names[r.ParticipantID]
		if name == "" {
			name = r.ParticipantID
		}
		row := []string{
			name,
			emails[r.ParticipantID],
			scannerName(r.ScannedBy),
			r.Method,
			strconv.FormatBool(r.Duplicate),
			r.IP,
			r.UserAgent,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fault.Internal(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fault.Internal(fmt.Errorf("write attendance csv: %w", err))
	}
	return buf.Bytes(), nil
}
