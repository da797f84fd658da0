package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"felicity/internal/adapters/email"
	"felicity/internal/adapters/http/middleware"
	"felicity/internal/adapters/storage"
	attendanceStore "felicity/internal/adapters/storage/attendance"
	eventStore "felicity/internal/adapters/storage/event"
	organizerStore "felicity/internal/adapters/storage/organizer"
	participantStore "felicity/internal/adapters/storage/participant"
	registrationStore "felicity/internal/adapters/storage/registration"
	teamStore "felicity/internal/adapters/storage/team"
	"felicity/internal/domain/attendance"
	"felicity/internal/domain/event"
	"felicity/internal/domain/organizer"
	"felicity/internal/domain/participant"
)

// newTestServer wires the full middleware chain and real SQLite stores over
// an in-memory database.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}

	ctx := context.Background()
	if err := organizerStore.NewSQLiteStore(db).Save(ctx, organizer.Organizer{
		ID: "org-1", Name: "Felicity Ops", Email: "ops@felicity.iiit.ac.in",
	}); err != nil {
		t.Fatalf("seed organizer: %v", err)
	}
	if err := participantStore.NewSQLiteStore(db).Save(ctx, participant.Participant{
		ID: "p-1", FirstName: "Asha", LastName: "Rao", Email: "asha@students.iiit.ac.in",
		Category: participant.CategoryIIIT, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed participant: %v", err)
	}
	if err := eventStore.NewSQLiteStore(db).Save(ctx, event.Event{
		ID: "ev-1", Name: "Workshop", Type: event.TypeNormal,
		OrganizerID: "org-1", Eligibility: event.EligibilityAll,
		RegistrationDeadline: time.Now().Add(24 * time.Hour),
		StartDate:            time.Now().Add(48 * time.Hour),
		EndDate:              time.Now().Add(72 * time.Hour),
		RegistrationLimit:    100, RegistrationFee: 50,
		Status: event.StatusPublished, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	stores := &Stores{
		EventStore:        eventStore.NewSQLiteStore(db),
		ParticipantStore:  participantStore.NewSQLiteStore(db),
		RegistrationStore: registrationStore.NewSQLiteStore(db),
		TeamStore:         teamStore.NewSQLiteStore(db),
		AttendanceStore:   attendanceStore.NewSQLiteStore(db),
		OrganizerStore:    organizerStore.NewSQLiteStore(db),
	}
	cfg := Config{
		BaseURL:            "http://felicity.test",
		CSRFKey:            bytes.Repeat([]byte("k"), 32),
		RateLimitPerSecond: 1000,
	}
	return NewMux(cfg, stores, email.NewNoopSender())
}

// doJSON issues a request with the gateway identity headers set.
func doJSON(t *testing.T, h http.Handler, method, path, subject, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set(middleware.HeaderSubjectID, subject)
		req.Header.Set(middleware.HeaderRole, role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRegisterEndpoint_ConfirmsInstantly(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/events/ev-1/register", "p-1", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	reg, ok := body["registration"].(map[string]any)
	if !ok {
		t.Fatalf("missing registration in %v", body)
	}
	if reg["status"] != "Confirmed" {
		t.Errorf("status = %v, want Confirmed", reg["status"])
	}
	if reg["ticket_id"] == nil || reg["ticket_id"] == "" {
		t.Error("registration has no ticket")
	}
	if reg["qr_code"] == nil || reg["qr_code"] == "" {
		t.Error("registration has no QR code")
	}

	// Registering again for the same event conflicts.
	rec = doJSON(t, h, http.MethodPost, "/api/events/ev-1/register", "p-1", "", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
}

func TestRegisterEndpoint_RequiresIdentity(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/events/ev-1/register", "", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRegisterEndpoint_UnknownEvent(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/events/nope/register", "p-1", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestScanEndpoint_ManualNeedsReason(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/events/ev-1/register", "p-1", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	ticketID := decodeBody(t, rec)["registration"].(map[string]any)["ticket_id"].(string)

	rec = doJSON(t, h, http.MethodPost, "/api/attendance/scan", "org-1", attendance.RoleOrganizer, map[string]any{
		"ticket_id": ticketID,
		"method":    "manual",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("reasonless manual scan status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/attendance/scan", "org-1", attendance.RoleOrganizer, map[string]any{
		"ticket_id": ticketID,
		"method":    "manual",
		"reason":    "QR damaged at gate",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("manual scan status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if dup := decodeBody(t, rec)["duplicate"]; dup != false {
		t.Errorf("duplicate = %v on first scan", dup)
	}

	// A second scan succeeds but is flagged.
	rec = doJSON(t, h, http.MethodPost, "/api/attendance/scan", "org-1", attendance.RoleOrganizer, map[string]any{
		"ticket_id": ticketID,
		"method":    "camera",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat scan status = %d", rec.Code)
	}
	if dup := decodeBody(t, rec)["duplicate"]; dup != true {
		t.Errorf("duplicate = %v on repeat scan", dup)
	}
}

func TestScanEndpoint_OwnershipEnforced(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/events/ev-1/register", "p-1", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d", rec.Code)
	}
	ticketID := decodeBody(t, rec)["registration"].(map[string]any)["ticket_id"].(string)

	rec = doJSON(t, h, http.MethodPost, "/api/attendance/scan", "org-2", attendance.RoleOrganizer, map[string]any{
		"ticket_id": ticketID,
		"method":    "camera",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign organizer status = %d, want 403", rec.Code)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/registrations/mine", "p-1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy")
	}
}
