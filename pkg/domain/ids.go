// Package domain provides type-safe identifiers and value types shared across modules.
package domain

import (
	"github.com/google/uuid"

	dErrors "docverify/pkg/domain-errors"
)

// Distinct ID types so a CardID can never be passed where a VerificationID is expected.
type (
	UserID         uuid.UUID
	SessionID      uuid.UUID
	CardID         uuid.UUID
	VerificationID uuid.UUID
	DoubtID        uuid.UUID
)

// Parse functions are used at trust boundaries (handlers, token claims).

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user ID")
	return UserID(id), err
}

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s, "session ID")
	return SessionID(id), err
}

func ParseCardID(s string) (CardID, error) {
	id, err := parseUUID(s, "card ID")
	return CardID(id), err
}

func ParseVerificationID(s string) (VerificationID, error) {
	id, err := parseUUID(s, "verification ID")
	return VerificationID(id), err
}

func ParseDoubtID(s string) (DoubtID, error) {
	id, err := parseUUID(s, "doubt ID")
	return DoubtID(id), err
}

func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewSessionID() SessionID           { return SessionID(uuid.New()) }
func NewCardID() CardID                 { return CardID(uuid.New()) }
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }
func NewDoubtID() DoubtID               { return DoubtID(uuid.New()) }

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id SessionID) String() string      { return uuid.UUID(id).String() }
func (id CardID) String() string         { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id DoubtID) String() string        { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CardID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DoubtID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }

// Text marshalling lets the IDs appear as canonical UUID strings in JSON.

func (id UserID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id CardID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id VerificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id DoubtID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CardID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *VerificationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DoubtID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }

// parseUUID rejects empty, malformed and nil UUIDs.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
