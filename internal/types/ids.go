package types

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ID identifies a plan, phase or task. It is a UUID string so it can be stored
// as TEXT and compared without parsing.
type ID string

// NewID generates a new random (v4) ID.
func NewID() ID {
	return ID(uuid.New().String())
}

// ParseID parses s as a UUID and returns it in canonical form.
func ParseID(s string) (ID, error) {
	if s == "" {
		return "", fmt.Errorf("ID cannot be empty")
	}

	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID format: %w", err)
	}

	return ID(parsed.String()), nil
}

// ParseIDs parses every element of values, failing on the first invalid one.
func ParseIDs(values []string) ([]ID, error) {
	ids := make([]ID, 0, len(values))
	for _, v := range values {
		id, err := ParseID(v)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", v, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate checks that the ID is a non-empty UUID.
func (id ID) Validate() error {
	if id == "" {
		return fmt.Errorf("ID cannot be empty")
	}
	if _, err := uuid.Parse(string(id)); err != nil {
		return fmt.Errorf("invalid UUID format: %w", err)
	}
	return nil
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}

// Short returns the first eight characters, enough to tell IDs apart in CLI output.
func (id ID) Short() string {
	if len(id) < 8 {
		return string(id)
	}
	return string(id[:8])
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id == ""
}

// MarshalJSON encodes a zero ID as null.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts null, "" or a valid UUID string.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to unmarshal ID: %w", err)
	}
	if s == nil || *s == "" {
		*id = ""
		return nil
	}

	parsed, err := ParseID(*s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
