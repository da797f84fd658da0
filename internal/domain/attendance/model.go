// Package attendance defines the append-only scan audit trail.
package attendance

import (
	"errors"
	"time"
)

// Scan methods recorded on the audit trail.
const (
	MethodManual = "manual"
	MethodCamera = "camera"
	MethodAPI    = "api"
)

// Actor roles that may scan tickets.
const (
	RoleOrganizer = "Organizer"
	RoleAdmin     = "Admin"
)

// ScanMode is the closed set of ways a ticket can be marked attended.
// Modelling this as two explicit variants removes any silent fallback for a
// missing manual-override reason: a manual mark without a reason is rejected.
type ScanMode interface {
	// Method returns the audit-trail method name.
	Method() string
	// Reason returns the justification, empty for automatic scans.
	Reason() string
	// Validate checks the mode's own requirements.
	Validate() error
}

// AutomaticScan is a camera or API scan; no justification is needed.
type AutomaticScan struct {
	Source string // MethodCamera or MethodAPI
}

func (s AutomaticScan) Method() string { return s.Source }
func (s AutomaticScan) Reason() string { return "" }

// Validate checks the scan source.
func (s AutomaticScan) Validate() error {
	if s.Source != MethodCamera && s.Source != MethodAPI {
		return errors.New("automatic scan source must be 'camera' or 'api'")
	}
	return nil
}

// ManualOverride is an organizer marking attendance by hand; a non-empty
// justification is mandatory.
type ManualOverride struct {
	Justification string
}

func (m ManualOverride) Method() string { return MethodManual }
func (m ManualOverride) Reason() string { return m.Justification }

// Validate requires a justification.
func (m ManualOverride) Validate() error {
	if m.Justification == "" {
		return errors.New("manual override requires a reason")
	}
	return nil
}

// Record is one immutable audit row. Records are appended for every scan
// attempt that resolves a registration, duplicates included, and are never
// mutated or deleted.
type Record struct {
	ID             string
	EventID        string
	RegistrationID string
	ParticipantID  string
	ScannedBy      string // actor identifier
	ScannedByRole  string // RoleOrganizer or RoleAdmin
	Method         string
	Duplicate      bool
	Reason         string // manual overrides only
	UserAgent      string
	IP             string
	CreatedAt      time.Time
}

// Validate checks if the Record has valid data.
// PRE: Record struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (r *Record) Validate() error {
	if r.EventID == "" {
		return errors.New("attendance record must reference an event")
	}
	if r.RegistrationID == "" {
		return errors.New("attendance record must reference a registration")
	}
	if r.ParticipantID == "" {
		return errors.New("attendance record must reference a participant")
	}
	switch r.Method {
	case MethodManual, MethodCamera, MethodAPI:
	default:
		return errors.New("invalid scan method")
	}
	if r.Method == MethodManual && r.Reason == "" {
		return errors.New("manual scans must carry a reason")
	}
	return nil
}
