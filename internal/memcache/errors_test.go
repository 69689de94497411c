package memcache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputationError(t *testing.T) {
	cause := errors.New("division by zero contributors")
	err := &ComputationError{Key: "octocat/hello-world", Cause: cause}

	assert.Contains(t, err.Error(), "octocat/hello-world")
	assert.Contains(t, err.Error(), cause.Error())

	// The cause stays reachable through the error chain.
	assert.ErrorIs(t, err, cause)

	var compErr *ComputationError
	require.ErrorAs(t, error(err), &compErr)
	assert.Equal(t, "octocat/hello-world", compErr.Key)
}

func TestStaleDataWarning(t *testing.T) {
	warn := &StaleDataWarning{
		Key:     "octocat/hello-world",
		Age:     90 * time.Minute,
		SoftTTL: time.Hour,
	}

	assert.Contains(t, warn.Error(), "octocat/hello-world")
	assert.Contains(t, warn.Error(), "1h30m0s")
}
