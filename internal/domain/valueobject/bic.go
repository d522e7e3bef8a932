package valueobject

import (
	"fmt"
	"regexp"
)

// bicPattern is institution (4 letters), country (2 letters), location
// (2 alphanumerics) and an optional 3-character branch.
var bicPattern = regexp.MustCompile(`^[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}([A-Z0-9]{3})?$`)

// BIC is a bank identifier code used to address senders and receivers.
type BIC struct {
	value string
}

// NewBIC validates code against the BIC grammar.
func NewBIC(code string) (BIC, error) {
	if !IsValidBIC(code) {
		return BIC{}, fmt.Errorf("invalid BIC %q: expected 8 or 11 characters of the form AAAACCLL[BBB]", code)
	}
	return BIC{value: code}, nil
}

// IsValidBIC reports whether code matches the BIC grammar exactly.
func IsValidBIC(code string) bool {
	return bicPattern.MatchString(code)
}

func (b BIC) String() string {
	return b.value
}

// Country returns the ISO 3166 country code embedded in the BIC.
func (b BIC) Country() string {
	if len(b.value) < 6 {
		return ""
	}
	return b.value[4:6]
}
