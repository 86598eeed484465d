package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aprendia/aprendia-lms/internal/assess"
)

func TestTimedClockFiresExactlyOnce(t *testing.T) {
	c := NewClock(assess.TimeModeTimed, 3)

	require.False(t, c.Tick())
	require.False(t, c.Tick())
	require.True(t, c.Tick()) // hits zero here
	require.True(t, c.Expired())

	// further ticks never re-fire
	for i := 0; i < 5; i++ {
		require.False(t, c.Tick())
	}
	require.Equal(t, int64(0), c.Remaining())
	require.Equal(t, int64(8), c.Elapsed())
}

func TestFreeClockNeverExpires(t *testing.T) {
	c := NewClock(assess.TimeModeFree, 0)
	for i := 0; i < 100; i++ {
		require.False(t, c.Tick())
	}
	require.False(t, c.Expired())
	require.Equal(t, int64(100), c.Elapsed())
}

// A resumed attempt can come back with no time left; the first tick fires.
func TestTimedClockZeroRemaining(t *testing.T) {
	c := NewClock(assess.TimeModeTimed, 0)
	require.True(t, c.Tick())
	require.False(t, c.Tick())
}

func TestTimedClockNegativeRemainingClamped(t *testing.T) {
	c := NewClock(assess.TimeModeTimed, -5)
	require.Equal(t, int64(0), c.Remaining())
	require.True(t, c.Tick())
}
