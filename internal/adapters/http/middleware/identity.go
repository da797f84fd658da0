package middleware

import (
	"context"
	"net/http"
)

// Identity carries the caller established by the upstream auth gateway. The
// gateway authenticates the session and forwards the subject in headers;
// this service only enforces ownership.
type Identity struct {
	SubjectID string
	Role      string // "Participant", "Organizer", or "Admin"
}

type identityKey struct{}

// Header names set by the auth gateway.
const (
	HeaderSubjectID = "X-Subject-Id"
	HeaderRole      = "X-Subject-Role"
)

// WithIdentity extracts the gateway identity headers into the request
// context. Requests without a subject pass through anonymously; handlers
// that need a caller reject them.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := Identity{
			SubjectID: r.Header.Get(HeaderSubjectID),
			Role:      r.Header.Get(HeaderRole),
		}
		if id.SubjectID != "" {
			r = r.WithContext(context.WithValue(r.Context(), identityKey{}, id))
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFrom returns the caller identity, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
