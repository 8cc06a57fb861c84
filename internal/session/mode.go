package session

import (
	"encoding"
	"fmt"
	"strings"
)

// Mode selects which cards a session draws from.
type Mode int

const (
	DueOnly Mode = iota // Only cards whose due date has passed.
	NewOnly             // Only cards never reviewed.
	Mixed               // Due cards with new cards interleaved.
)

var (
	modeNames = [...]string{DueOnly: "DueOnly", NewOnly: "NewOnly", Mixed: "Mixed"}
	modeByName = map[string]Mode{
		"dueonly": DueOnly,
		"newonly": NewOnly,
		"mixed":   Mixed,
	}
)

var (
	_ fmt.Stringer             = Mode(0)
	_ encoding.TextMarshaler   = Mode(0)
	_ encoding.TextUnmarshaler = (*Mode)(nil)
)

// IsValid reports whether m is a defined mode.
func (m Mode) IsValid() bool {
	return m >= DueOnly && m <= Mixed
}

// String returns the name of the mode. For invalid values it returns
// "Mode(n)".
func (m Mode) String() string {
	if m.IsValid() {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m, ok := modeByName[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("session: invalid mode: %q", s)
	}
	return m, nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("session: invalid mode: %d", int(m))
	}
	return []byte(modeNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
