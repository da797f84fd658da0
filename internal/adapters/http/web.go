// Package web exposes the registration, ticketing, and attendance use cases
// as a JSON API. Authentication happens upstream; the caller identity
// arrives in gateway headers.
package web

import (
	"net/http"
	"time"

	"felicity/internal/adapters/email"
	"felicity/internal/adapters/http/middleware"
	"felicity/internal/adapters/qrcode"
	attendanceStore "felicity/internal/adapters/storage/attendance"
	eventStore "felicity/internal/adapters/storage/event"
	organizerStore "felicity/internal/adapters/storage/organizer"
	participantStore "felicity/internal/adapters/storage/participant"
	registrationStore "felicity/internal/adapters/storage/registration"
	teamStore "felicity/internal/adapters/storage/team"
	"felicity/internal/application/orchestrators"
)

// Stores holds all storage dependencies.
type Stores struct {
	EventStore        eventStore.Store
	ParticipantStore  participantStore.Store
	RegistrationStore registrationStore.Store
	TeamStore         teamStore.Store
	AttendanceStore   attendanceStore.Store
	OrganizerStore    organizerStore.Store
}

// Config holds the HTTP-facing settings.
type Config struct {
	// BaseURL is the public URL prefix used in emails and exports.
	BaseURL string
	// CSRFKey is the 32-byte secret for form-submission protection.
	CSRFKey []byte
	// TrustedOrigins are allowed cross-origin hosts for CSRF checks.
	TrustedOrigins []string
	// RateLimitPerSecond is the per-IP request budget.
	RateLimitPerSecond int
}

// server carries the wired dependencies behind the handler funcs.
type server struct {
	stores  *Stores
	sender  email.Sender
	tickets orchestrators.TicketIssuer
	baseURL string
}

// NewMux wires the API routes and the middleware chain.
func NewMux(cfg Config, stores *Stores, sender email.Sender) http.Handler {
	s := &server{
		stores:  stores,
		sender:  sender,
		tickets: orchestrators.TicketIssuer{Encoder: qrcode.NewDataEncoder()},
		baseURL: cfg.BaseURL,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/events/{eventID}/register", s.handleRegister)
	mux.HandleFunc("PUT /api/events/{eventID}/form", s.handleUpdateEventForm)
	mux.HandleFunc("GET /api/events/{eventID}/teams", s.handleListTeams)
	mux.HandleFunc("GET /api/events/{eventID}/attendance", s.handleAttendanceLogs)
	mux.HandleFunc("GET /api/events/{eventID}/attendance/export", s.handleAttendanceCSV)

	mux.HandleFunc("POST /api/orders/{registrationID}/approve", s.handleApproveOrder)
	mux.HandleFunc("POST /api/orders/{registrationID}/reject", s.handleRejectOrder)
	mux.HandleFunc("GET /api/orders/pending", s.handlePendingOrders)

	mux.HandleFunc("POST /api/teams", s.handleCreateTeam)
	mux.HandleFunc("GET /api/teams/{teamID}", s.handleGetTeam)
	mux.HandleFunc("POST /api/teams/{teamID}/invites", s.handleInviteMembers)
	mux.HandleFunc("POST /api/invites/{code}/accept", s.handleAcceptInvite)

	mux.HandleFunc("POST /api/attendance/scan", s.handleMarkAttendance)

	mux.HandleFunc("GET /api/tickets/{ticketID}", s.handleGetTicket)
	mux.HandleFunc("GET /api/registrations/mine", s.handleMyRegistrations)
	mux.HandleFunc("GET /api/registrations/calendar.ics", s.handleExportCalendar)

	rate := cfg.RateLimitPerSecond
	if rate <= 0 {
		rate = 10
	}
	limiter := middleware.NewRateLimiter(rate, time.Second)

	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(cfg.CSRFKey, cfg.TrustedOrigins),
		middleware.WithIdentity,
		middleware.RateLimit(limiter),
		middleware.Logging,
	)
}
