package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// AssertErrorContains checks that err contains the expected substring.
func AssertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), expected)
	}
}

// AssertContentEqual compares two payloads field by field, ignoring order.
func AssertContentEqual(t *testing.T, want, got swift.Content) {
	t.Helper()
	assert.Equal(t, want.Map(), got.Map())
}
