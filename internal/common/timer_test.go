package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	timer := NewTimer()

	time.Sleep(10 * time.Millisecond)

	duration := timer.Stop()
	assert.GreaterOrEqual(t, duration, 10*time.Millisecond)
	assert.Equal(t, duration, timer.Duration())
}

func TestTimerDurationBeforeStop(t *testing.T) {
	timer := NewTimer()
	assert.Equal(t, time.Duration(0), timer.Duration())
}
