package team

import (
	"crypto/rand"
	"encoding/base64"
)

// NewJoinCode generates a team join code: 10 URL-safe random characters.
func NewJoinCode() string {
	return randomCode(10)
}

// NewInviteCode generates a single-use invite code: 12 URL-safe random
// characters. Single use is enforced by the invite's status transition.
func NewInviteCode() string {
	return randomCode(12)
}

func randomCode(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:length]
}
