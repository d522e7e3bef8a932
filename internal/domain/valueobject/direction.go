package valueobject

import (
	"fmt"
	"strings"
)

// Direction tells whether a message left this institution or arrived at it.
type Direction struct {
	value string
}

var (
	DirectionOutgoing = Direction{"OUTGOING"}
	DirectionIncoming = Direction{"INCOMING"}
)

// NewDirection parses a direction name, ignoring case.
func NewDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OUTGOING":
		return DirectionOutgoing, nil
	case "INCOMING":
		return DirectionIncoming, nil
	default:
		return Direction{}, fmt.Errorf("invalid direction: %q", s)
	}
}

func (d Direction) String() string {
	return d.value
}

// IsZero returns true if the direction is uninitialized.
func (d Direction) IsZero() bool {
	return d.value == ""
}
