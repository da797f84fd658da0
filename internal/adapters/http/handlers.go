package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"felicity/internal/adapters/http/middleware"
	"felicity/internal/application/orchestrators"
	"felicity/internal/domain/attendance"
	"felicity/internal/domain/event"
	"felicity/internal/domain/fault"
	"felicity/internal/domain/registration"
)

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "error", err)
	}
}

// readJSON decodes the request body into v, rejecting unknown fields.
func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeFault maps the error taxonomy onto HTTP status codes.
func writeFault(w http.ResponseWriter, err error) {
	var status int
	switch fault.KindOf(err) {
	case fault.KindValidation:
		status = http.StatusBadRequest
	case fault.KindNotFound:
		status = http.StatusNotFound
	case fault.KindAuthorization:
		status = http.StatusForbidden
	case fault.KindConflict:
		status = http.StatusConflict
	case fault.KindState:
		status = http.StatusUnprocessableEntity
	default:
		slog.Error("request_failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	var fe *fault.Error
	msg := err.Error()
	if errors.As(err, &fe) {
		msg = fe.Message()
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// caller returns the gateway identity or writes a 401.
func caller(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}
	return id, ok
}

func actorOf(id middleware.Identity) orchestrators.Actor {
	return orchestrators.Actor{ID: id.SubjectID, Role: id.Role}
}

type registrationView struct {
	ID              string                      `json:"id"`
	EventID         string                      `json:"event_id"`
	Status          string                      `json:"status"`
	PaymentStatus   string                      `json:"payment_status"`
	AmountPaid      int                         `json:"amount_paid"`
	TicketID        string                      `json:"ticket_id,omitempty"`
	QRCode          string                      `json:"qr_code,omitempty"`
	FormResponses   []registration.FormResponse `json:"form_responses,omitempty"`
	Order           *orderView                  `json:"order,omitempty"`
	RejectionReason string                      `json:"rejection_reason,omitempty"`
	Attended        bool                        `json:"attended"`
	RegisteredAt    string                      `json:"registered_at"`
}

type orderView struct {
	Size        string `json:"size"`
	Color       string `json:"color"`
	Quantity    int    `json:"quantity"`
	TotalAmount int    `json:"total_amount"`
}

func viewOf(reg registration.Registration) registrationView {
	v := registrationView{
		ID:              reg.ID,
		EventID:         reg.EventID,
		Status:          reg.Status,
		PaymentStatus:   reg.PaymentStatus,
		AmountPaid:      reg.AmountPaid,
		TicketID:        reg.TicketID,
		QRCode:          reg.QRCode,
		FormResponses:   reg.FormResponses,
		RejectionReason: reg.RejectionReason,
		Attended:        reg.Attended,
		RegisteredAt:    reg.RegisteredAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if reg.Order != nil {
		v.Order = &orderView{
			Size:        reg.Order.Size,
			Color:       reg.Order.Color,
			Quantity:    reg.Order.Quantity,
			TotalAmount: reg.Order.TotalAmount,
		}
	}
	return v
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var body struct {
		FormResponses []registration.FormResponse `json:"form_responses"`
		Order         *struct {
			Size     string `json:"size"`
			Color    string `json:"color"`
			Quantity int    `json:"quantity"`
		} `json:"order"`
		PaymentProofRef string `json:"payment_proof_ref"`
	}
	if r.ContentLength != 0 {
		if err := readJSON(r, &body); err != nil {
			writeFault(w, fault.Validationf("invalid request body: %v", err))
			return
		}
	}
	input := orchestrators.RegisterInput{
		EventID:         r.PathValue("eventID"),
		ParticipantID:   id.SubjectID,
		FormResponses:   body.FormResponses,
		PaymentProofRef: body.PaymentProofRef,
	}
	if body.Order != nil {
		input.Order = &orchestrators.OrderInput{
			Size:     body.Order.Size,
			Color:    body.Order.Color,
			Quantity: body.Order.Quantity,
		}
	}
	res, err := orchestrators.ExecuteRegister(r.Context(), input, orchestrators.RegisterDeps{
		EventStore:        s.stores.EventStore,
		ParticipantStore:  s.stores.ParticipantStore,
		RegistrationStore: s.stores.RegistrationStore,
		Tickets:           s.tickets,
		Mailer:            s.sender,
		BaseURL:           s.baseURL,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":      res.Message,
		"registration": viewOf(res.Registration),
	})
}

func (s *server) handleApproveOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	reg, err := orchestrators.ExecuteApproveOrder(r.Context(), orchestrators.ApproveOrderInput{
		RegistrationID: r.PathValue("registrationID"),
		Actor:          actorOf(id),
	}, orchestrators.ApproveOrderDeps{
		EventStore:        s.stores.EventStore,
		ParticipantStore:  s.stores.ParticipantStore,
		RegistrationStore: s.stores.RegistrationStore,
		Tickets:           s.tickets,
		Mailer:            s.sender,
		BaseURL:           s.baseURL,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"registration": viewOf(reg)})
}

func (s *server) handleRejectOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := readJSON(r, &body); err != nil {
			writeFault(w, fault.Validationf("invalid request body: %v", err))
			return
		}
	}
	reg, err := orchestrators.ExecuteRejectOrder(r.Context(), orchestrators.RejectOrderInput{
		RegistrationID: r.PathValue("registrationID"),
		Reason:         body.Reason,
		Actor:          actorOf(id),
	}, orchestrators.RejectOrderDeps{
		EventStore:        s.stores.EventStore,
		ParticipantStore:  s.stores.ParticipantStore,
		RegistrationStore: s.stores.RegistrationStore,
		Mailer:            s.sender,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"registration": viewOf(reg)})
}

func (s *server) handlePendingOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	regs, err := orchestrators.ExecuteListPendingOrders(r.Context(), orchestrators.PendingOrdersInput{
		Actor: actorOf(id),
	}, orchestrators.PendingOrdersDeps{
		EventStore:        s.stores.EventStore,
		RegistrationStore: s.stores.RegistrationStore,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	views := make([]registrationView, 0, len(regs))
	for _, reg := range regs {
		views = append(views, viewOf(reg))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": views})
}

func (s *server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var body struct {
		EventID string `json:"event_id"`
		Name    string `json:"name"`
		Size    int    `json:"size"`
	}
	if err := readJSON(r, &body); err != nil {
		writeFault(w, fault.Validationf("invalid request body: %v", err))
		return
	}
	created, err := orchestrators.ExecuteCreateTeam(r.Context(), orchestrators.CreateTeamInput{
		EventID:  body.EventID,
		LeaderID: id.SubjectID,
		Name:     body.Name,
		Size:     body.Size,
	}, orchestrators.CreateTeamDeps{
		EventStore:        s.stores.EventStore,
		ParticipantStore:  s.stores.ParticipantStore,
		RegistrationStore: s.stores.RegistrationStore,
		TeamStore:         s.stores.TeamStore,
		Tickets:           s.tickets,
		Mailer:            s.sender,
		BaseURL:           s.baseURL,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"team": created})
}

func (s *server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	res, err := orchestrators.ExecuteGetTeam(r.Context(), orchestrators.GetTeamInput{
		TeamID: r.PathValue("teamID"),
	}, orchestrators.GetTeamDeps{TeamStore: s.stores.TeamStore})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"team": res.Team, "invites": res.Invites})
}

func (s *server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	teams, err := orchestrators.ExecuteListTeams(r.Context(), orchestrators.ListTeamsInput{
		EventID: r.PathValue("eventID"),
		Actor:   actorOf(id),
	}, orchestrators.ListTeamsDeps{
		EventStore: s.stores.EventStore,
		TeamStore:  s.stores.TeamStore,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

func (s *server) handleInviteMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var body struct {
		Emails []string `json:"emails"`
	}
	if err := readJSON(r, &body); err != nil {
		writeFault(w, fault.Validationf("invalid request body: %v", err))
		return
	}
	invites, err := orchestrators.ExecuteInviteMembers(r.Context(), orchestrators.InviteMembersInput{
		TeamID:   r.PathValue("teamID"),
		LeaderID: id.SubjectID,
		Emails:   body.Emails,
	}, orchestrators.InviteMembersDeps{
		EventStore:       s.stores.EventStore,
		ParticipantStore: s.stores.ParticipantStore,
		TeamStore:        s.stores.TeamStore,
		Mailer:           s.sender,
		BaseURL:          s.baseURL,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"invites": invites})
}

func (s *server) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	res, err := orchestrators.ExecuteAcceptInvite(r.Context(), orchestrators.AcceptInviteInput{
		Code:          r.PathValue("code"),
		ParticipantID: id.SubjectID,
	}, orchestrators.AcceptInviteDeps{
		EventStore:        s.stores.EventStore,
		ParticipantStore:  s.stores.ParticipantStore,
		RegistrationStore: s.stores.RegistrationStore,
		TeamStore:         s.stores.TeamStore,
		Tickets:           s.tickets,
		Mailer:            s.sender,
		BaseURL:           s.baseURL,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"team":      res.Team,
		"completed": res.Completed,
	})
}

func (s *server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var body struct {
		TicketID string `json:"ticket_id"`
		Method   string `json:"method"`
		Reason   string `json:"reason"`
	}
	if err := readJSON(r, &body); err != nil {
		writeFault(w, fault.Validationf("invalid request body: %v", err))
		return
	}
	var mode attendance.ScanMode
	if body.Method == attendance.MethodManual {
		mode = attendance.ManualOverride{Justification: body.Reason}
	} else {
		mode = attendance.AutomaticScan{Source: body.Method}
	}
	res, err := orchestrators.ExecuteMarkAttendance(r.Context(), orchestrators.MarkAttendanceInput{
		TicketID:  body.TicketID,
		Mode:      mode,
		Actor:     actorOf(id),
		UserAgent: r.UserAgent(),
		IP:        r.RemoteAddr,
	}, orchestrators.MarkAttendanceDeps{
		EventStore:        s.stores.EventStore,
		RegistrationStore: s.stores.RegistrationStore,
		AttendanceStore:   s.stores.AttendanceStore,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"registration": viewOf(res.Registration),
		"duplicate":    res.Duplicate,
	})
}

func (s *server) handleAttendanceLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	recs, err := orchestrators.ExecuteGetAttendanceLogs(r.Context(), orchestrators.AttendanceLogsInput{
		EventID: r.PathValue("eventID"),
		Actor:   actorOf(id),
	}, s.attendanceLogsDeps())
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": recs})
}

func (s *server) handleAttendanceCSV(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	out, err := orchestrators.ExecuteExportAttendanceCSV(r.Context(), orchestrators.AttendanceLogsInput{
		EventID: r.PathValue("eventID"),
		Actor:   actorOf(id),
	}, s.attendanceLogsDeps())
	if err != nil {
		writeFault(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance.csv"`)
	if _, err := w.Write(out); err != nil {
		slog.Error("csv_write_failed", "error", err)
	}
}

func (s *server) attendanceLogsDeps() orchestrators.AttendanceLogsDeps {
	return orchestrators.AttendanceLogsDeps{
		EventStore:       s.stores.EventStore,
		ParticipantStore: s.stores.ParticipantStore,
		AttendanceStore:  s.stores.AttendanceStore,
		OrganizerStore:   s.stores.OrganizerStore,
	}
}

func (s *server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	res, err := orchestrators.ExecuteGetTicket(r.Context(), orchestrators.GetTicketInput{
		TicketID:      r.PathValue("ticketID"),
		ParticipantID: id.SubjectID,
	}, orchestrators.GetTicketDeps{
		EventStore:        s.stores.EventStore,
		RegistrationStore: s.stores.RegistrationStore,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"registration": viewOf(res.Registration),
		"event": map[string]any{
			"id":         res.Event.ID,
			"name":       res.Event.Name,
			"venue":      res.Event.Venue,
			"start_date": res.Event.StartDate,
			"end_date":   res.Event.EndDate,
		},
	})
}

func (s *server) handleMyRegistrations(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	regs, err := orchestrators.ExecuteListMyRegistrations(r.Context(), orchestrators.MyRegistrationsInput{
		ParticipantID: id.SubjectID,
	}, orchestrators.MyRegistrationsDeps{RegistrationStore: s.stores.RegistrationStore})
	if err != nil {
		writeFault(w, err)
		return
	}
	views := make([]registrationView, 0, len(regs))
	for _, reg := range regs {
		views = append(views, viewOf(reg))
	}
	writeJSON(w, http.StatusOK, map[string]any{"registrations": views})
}

func (s *server) handleExportCalendar(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	ics, err := orchestrators.ExecuteExportCalendar(r.Context(), orchestrators.ExportCalendarInput{
		ParticipantID: id.SubjectID,
		EventIDs:      r.URL.Query()["event_id"],
	}, orchestrators.ExportCalendarDeps{
		EventStore:        s.stores.EventStore,
		RegistrationStore: s.stores.RegistrationStore,
		BaseURL:           s.baseURL,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar")
	w.Header().Set("Content-Disposition", `attachment; filename="felicity.ics"`)
	if _, err := w.Write([]byte(ics)); err != nil {
		slog.Error("ics_write_failed", "error", err)
	}
}

func (s *server) handleUpdateEventForm(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var body struct {
		Fields []event.FormField `json:"fields"`
	}
	if err := readJSON(r, &body); err != nil {
		writeFault(w, fault.Validationf("invalid request body: %v", err))
		return
	}
	err := orchestrators.ExecuteUpdateEventForm(r.Context(), orchestrators.UpdateEventFormInput{
		EventID: r.PathValue("eventID"),
		Actor:   actorOf(id),
		Fields:  body.Fields,
	}, orchestrators.UpdateEventFormDeps{EventStore: s.stores.EventStore})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "form updated"})
}
