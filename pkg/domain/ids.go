// Package domain holds typed identifiers shared across modules.
//
// IDs are distinct named UUID types so the compiler rejects cross-type
// assignment (a user ID can never silently stand in for an actor ID in a
// store call).
package domain

import (
	"github.com/google/uuid"

	dErrors "crew/pkg/domain-errors"
)

// UserID identifies a staff user. The authorization engine treats it as
// opaque; the authentication layer guarantees it references a real account.
type UserID uuid.UUID

func (u UserID) String() string { return uuid.UUID(u).String() }

// IsNil reports whether the ID is the zero UUID.
func (u UserID) IsNil() bool { return uuid.UUID(u) == uuid.Nil }

// MarshalText lets UserID serialize as its canonical UUID string in JSON.
func (u UserID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText parses a canonical UUID string, enforcing the same
// invariants as ParseUserID.
func (u *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ParseUserID validates a string at a trust boundary. IDs must be valid,
// non-empty, non-nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// NewUserID returns a fresh random user ID. Used by seed tooling and tests;
// production user IDs originate in the account system.
func NewUserID() UserID { return UserID(uuid.New()) }

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil uuid")
	}
	return u, nil
}
