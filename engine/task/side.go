package task

import (
	"fmt"
	"strings"
)

// Side identifies which half of the project an operation targets.
type Side int

const (
	SideAny Side = iota - 1
	SideClient
	SideServer
)

// ConcreteSides lists the sides that own per-side state, in display order.
var ConcreteSides = []Side{SideClient, SideServer}

func (s Side) String() string {
	switch s {
	case SideClient:
		return "client"
	case SideServer:
		return "server"
	case SideAny:
		return "any"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// IsConcrete reports whether the side owns its own stage flags.
func (s Side) IsConcrete() bool {
	return s == SideClient || s == SideServer
}

// Expand returns the concrete sides covered by s.
func (s Side) Expand() []Side {
	if s == SideAny {
		return ConcreteSides
	}
	if s.IsConcrete() {
		return []Side{s}
	}
	return nil
}

// ParseSide converts user input into a Side. An empty string maps to SideAny.
func ParseSide(value string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "client", "c":
		return SideClient, nil
	case "server", "s":
		return SideServer, nil
	case "any", "both", "":
		return SideAny, nil
	default:
		return SideAny, fmt.Errorf("unknown side %q (expected client, server or any)", value)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(text []byte) error {
	side, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}
