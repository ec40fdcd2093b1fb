package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickBeforeInterval(t *testing.T) {
	p := NewProfiler()
	assert.False(t, p.Tick())
}

func TestTickAfterInterval(t *testing.T) {
	p := NewProfiler()
	p.SetUpdateInterval(time.Nanosecond)
	time.Sleep(time.Millisecond)
	assert.True(t, p.Tick())

	// The window resets after each logged summary.
	p.SetUpdateInterval(time.Hour)
	assert.False(t, p.Tick())
}

func TestSetUpdateIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler()
	p.SetUpdateInterval(0)
	p.SetUpdateInterval(-time.Second)
	assert.Equal(t, time.Second, p.updateInterval)
}
