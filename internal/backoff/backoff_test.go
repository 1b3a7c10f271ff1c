package backoff_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nexus-gateway/nexus/internal/backoff"
)

func TestDelayFollowsExponentialCurve(t *testing.T) {
	t.Parallel()
	c := backoff.Config{}

	assert.Equal(t, time.Duration(0), c.Delay(0))
	assert.Equal(t, 100*time.Millisecond, c.Delay(1))
	assert.Equal(t, 200*time.Millisecond, c.Delay(2))
	assert.Equal(t, 400*time.Millisecond, c.Delay(3))
	assert.Equal(t, 800*time.Millisecond, c.Delay(4))
}

func TestDelayCapsAtMax(t *testing.T) {
	t.Parallel()
	c := backoff.Config{}
	assert.Equal(t, 2000*time.Millisecond, c.Delay(6))
	assert.Equal(t, 2000*time.Millisecond, c.Delay(20))
}

func TestDelayWithCustomConfig(t *testing.T) {
	t.Parallel()
	c := backoff.Config{InitialDelay: 10 * time.Millisecond, Multiplier: 3, MaxDelay: 50 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, c.Delay(1))
	assert.Equal(t, 30*time.Millisecond, c.Delay(2))
	assert.Equal(t, 50*time.Millisecond, c.Delay(3))
}
