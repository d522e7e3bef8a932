// Package swift implements the block-structured SWIFT FIN wire format used for
// demand guarantee (category 7) messaging.
package swift

import (
	"fmt"
	"strings"
)

// MessageType identifies a guarantee message by its SWIFT MT number.
type MessageType string

const (
	IssueGuarantee    MessageType = "MT760" // Issue of a Demand Guarantee
	AmendGuarantee    MessageType = "MT765" // Amendment to a Demand Guarantee
	ConfirmAmendment  MessageType = "MT767" // Confirmation of an Amendment
	Acknowledge       MessageType = "MT768" // Acknowledgement of a Guarantee Message
	DiscrepancyAdvice MessageType = "MT769" // Discrepancy Advice / Claim
	FreeFormat        MessageType = "MT798" // Proprietary Free Format
)

// MessageTypes lists every supported type in MT number order.
var MessageTypes = []MessageType{
	IssueGuarantee,
	AmendGuarantee,
	ConfirmAmendment,
	Acknowledge,
	DiscrepancyAdvice,
	FreeFormat,
}

var messageTypeNames = map[MessageType]string{
	IssueGuarantee:    "Issue Guarantee",
	AmendGuarantee:    "Amend Guarantee",
	ConfirmAmendment:  "Confirm Amendment",
	Acknowledge:       "Acknowledge",
	DiscrepancyAdvice: "Discrepancy Advice",
	FreeFormat:        "Free Format",
}

// ParseMessageType accepts "MT760", "mt760" or the bare code "760".
func ParseMessageType(s string) (MessageType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "MT") {
		s = "MT" + s
	}
	t := MessageType(s)
	if !t.IsSupported() {
		return "", &UnsupportedTypeError{Type: s}
	}
	return t, nil
}

// MessageTypeFromCode maps the three-digit application header code to a type.
func MessageTypeFromCode(code string) (MessageType, error) {
	t := MessageType("MT" + code)
	if !t.IsSupported() {
		return "", &UnsupportedTypeError{Type: code}
	}
	return t, nil
}

// IsSupported reports whether t is one of the closed set of guarantee types.
func (t MessageType) IsSupported() bool {
	_, ok := messageTypeNames[t]
	return ok
}

// Code returns the numeric part of the MT number, e.g. "760".
func (t MessageType) Code() string {
	return strings.TrimPrefix(string(t), "MT")
}

// Name returns the human-readable description of the type.
func (t MessageType) Name() string {
	if n, ok := messageTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Unknown (%s)", string(t))
}

func (t MessageType) String() string {
	return string(t)
}
