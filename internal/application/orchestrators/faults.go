package orchestrators

import (
	"errors"

	eventstore "felicity/internal/adapters/storage/event"
	orgstore "felicity/internal/adapters/storage/organizer"
	partstore "felicity/internal/adapters/storage/participant"
	regstore "felicity/internal/adapters/storage/registration"
	teamstore "felicity/internal/adapters/storage/team"
)

// isStoreNotFound reports whether err is any store's not-found sentinel.
func isStoreNotFound(err error) bool {
	return errors.Is(err, eventstore.ErrNotFound) ||
		errors.Is(err, regstore.ErrNotFound) ||
		errors.Is(err, partstore.ErrNotFound) ||
		errors.Is(err, teamstore.ErrNotFound) ||
		errors.Is(err, teamstore.ErrInviteNotFound) ||
		errors.Is(err, orgstore.ErrNotFound)
}
