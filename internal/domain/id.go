package domain

import (
	"strings"

	"github.com/google/uuid"
)

// UserID is a user identifier. Member lists and message ownership store the
// canonical form; Equal compares canonically so a token-supplied variant
// (uppercase hex, braces, urn prefix) still matches a stored member. The
// original system compared raw strings here and Leave silently failed to
// find typed identifiers.
type UserID string

// ParseUserID canonicalizes a raw identifier string.
func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return UserID(id.String()), nil
}

// String returns the identifier as stored.
func (id UserID) String() string {
	return string(id)
}

// Canonical returns the canonical form, falling back to the raw value when
// the identifier is not a UUID.
func (id UserID) Canonical() string {
	parsed, err := uuid.Parse(strings.TrimSpace(string(id)))
	if err != nil {
		return string(id)
	}
	return parsed.String()
}

// Equal reports whether two identifiers name the same user.
func (id UserID) Equal(other UserID) bool {
	return id.Canonical() == other.Canonical()
}
