package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(Validationf("bad input")); got != KindValidation {
		t.Errorf("KindOf = %v, want validation", got)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("foreign errors are internal, got %v", got)
	}
	if got := KindOf(nil); got != KindInternal {
		t.Errorf("nil is internal, got %v", got)
	}

	// Wrapped faults keep their kind.
	wrapped := fmt.Errorf("handling request: %w", Conflictf("sold out"))
	if !IsKind(wrapped, KindConflict) {
		t.Error("wrapped conflict lost its kind")
	}
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("sqlite disk io error")
	err := Internal(cause)
	if err.Message() != "internal error" {
		t.Errorf("message leaks: %q", err.Message())
	}
	if !errors.Is(err, cause) {
		t.Error("cause must remain reachable for logs")
	}
}

func TestIsKind(t *testing.T) {
	if IsKind(nil, KindInternal) {
		t.Error("nil has no kind")
	}
	if !IsKind(NotFoundf("gone"), KindNotFound) {
		t.Error("expected not-found kind")
	}
	if IsKind(NotFoundf("gone"), KindConflict) {
		t.Error("kinds must not cross-match")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindInternal:      "internal",
		KindValidation:    "validation",
		KindNotFound:      "not_found",
		KindAuthorization: "authorization",
		KindConflict:      "conflict",
		KindState:         "state",
	}
	for k, want := range cases {
		if k.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, k.String(), want)
		}
	}
}
