package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches any ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound matches any NotFoundError via errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrStructural matches any StructuralError via errors.Is.
	ErrStructural = errors.New("structural error")
)

// ConfigurationError reports a reference to something outside the static
// configuration: an unknown message type, scenario or status.
type ConfigurationError struct {
	Kind  string
	Value string
}

func NewConfigurationError(kind, value string) *ConfigurationError {
	return &ConfigurationError{Kind: kind, Value: value}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unknown %s: %q", e.Kind, e.Value)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NotFoundError reports a lookup of an id that is not stored.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StructuralError reports an attempt to store an incomplete or conflicting record.
type StructuralError struct {
	Field  string
	Reason string
}

func NewStructuralError(field, reason string) *StructuralError {
	return &StructuralError{Field: field, Reason: reason}
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("invalid message structure: %s %s", e.Field, e.Reason)
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}
