package swift

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed matches any MalformedMessageError via errors.Is.
	ErrMalformed = errors.New("malformed message")
	// ErrUnsupportedType matches any UnsupportedTypeError via errors.Is.
	ErrUnsupportedType = errors.New("unsupported message type")
)

// MalformedMessageError reports a wire message whose block structure cannot
// be recovered.
type MalformedMessageError struct {
	Reason string
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("malformed message: %s", e.Reason)
}

func (e *MalformedMessageError) Is(target error) bool {
	return target == ErrMalformed
}

// UnsupportedTypeError reports a message type outside the guarantee set.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported message type: %q", e.Type)
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}
