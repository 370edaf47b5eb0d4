package parser

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxNameLength = 64

// Name is a validated extension or provider identifier.
type Name struct {
	value string
}

// NewName validates name. A valid name:
//   - is non-empty after trimming
//   - is at most 64 characters long
//   - contains only letters, digits, '_', '-' and '.'
//   - does not contain ".."
func NewName(name string) (Name, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Name{}, fmt.Errorf("name cannot be empty")
	}

	if len(name) > maxNameLength {
		return Name{}, fmt.Errorf("name too long (max %d chars)", maxNameLength)
	}

	if strings.Contains(name, "..") {
		return Name{}, fmt.Errorf("invalid name %q: must not contain \"..\"", name)
	}

	for _, ch := range name {
		if !isValidNameChar(ch) {
			return Name{}, fmt.Errorf("invalid name %q: must contain only alphanumeric characters, dots, underscores, and hyphens", name)
		}
	}

	return Name{value: name}, nil
}

func isValidNameChar(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '_' ||
		r == '-' ||
		r == '.'
}

// MustNewName creates a Name or panics.
func MustNewName(name string) Name {
	n, err := NewName(name)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Name) String() string {
	return n.value
}

// IsEmpty returns true if this is the zero value.
func (n Name) IsEmpty() bool {
	return n.value == ""
}

// MarshalJSON implements json.Marshaler.
func (n Name) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Name) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid name JSON: %w", err)
	}
	name, err := NewName(s)
	if err != nil {
		return err
	}
	*n = name
	return nil
}
