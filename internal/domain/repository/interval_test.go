package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	iv, err := ParseInterval("")
	require.NoError(t, err)
	assert.Equal(t, Interval5m, iv)

	iv, err = ParseInterval("1h")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, iv.Duration())

	_, err = ParseInterval("7m")
	assert.Error(t, err)
	assert.Zero(t, Interval("7m").Duration())
}
