package domain

import (
	"github.com/google/uuid"

	dErrors "civreg/pkg/domain-errors"
)

// RecordID identifies a persisted civil record. It is assigned by the registry on create.
type RecordID uuid.UUID

// SessionID identifies one wizard session opened by the host.
type SessionID uuid.UUID

// NewRecordID returns a fresh random record id.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

// NewSessionID returns a fresh random session id.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// ParseRecordID parses a record id at a trust boundary.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s, "record id")
	return RecordID(u), err
}

// ParseSessionID parses a session id at a trust boundary.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session id")
	return SessionID(u), err
}

func (id RecordID) String() string  { return uuid.UUID(id).String() }
func (id RecordID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id SessionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets RecordID travel as a plain string in JSON.
func (id RecordID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

// UnmarshalText accepts an empty value as the nil id.
func (id *RecordID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = RecordID{}
		return nil
	}
	parsed, err := ParseRecordID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id SessionID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
