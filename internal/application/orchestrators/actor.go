package orchestrators

import "felicity/internal/domain/attendance"

// Actor identifies the authenticated caller of an operation. Identity and
// role are established upstream; orchestrators only check ownership.
type Actor struct {
	ID   string
	Role string
}

// IsAdmin reports whether the actor may bypass per-event ownership checks.
func (a Actor) IsAdmin() bool {
	return a.Role == attendance.RoleAdmin
}
