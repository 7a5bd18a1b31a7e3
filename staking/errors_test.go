package staking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFriendlyError(t *testing.T) {
	assert.Contains(t,
		friendlyError(errors.New("err: insufficient funds for gas * price + value")),
		"gas")

	assert.Contains(t,
		friendlyError(errors.New("User rejected the request")),
		"cancelled")

	assert.Contains(t,
		friendlyError(errors.New("Post \"x\": network is unreachable")),
		"Network")

	// unclassified errors pass through verbatim
	assert.Equal(t, "something odd", friendlyError(errors.New("something odd")))
	assert.Equal(t, "", friendlyError(nil))
}
