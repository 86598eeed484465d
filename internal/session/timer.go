package session

import "github.com/aprendia/aprendia-lms/internal/assess"

// Clock tracks attempt time as an explicit value advanced by a single
// cooperative tick source, one call per second. Drift is acceptable; this
// is not a hard real-time guarantee. Expiry is edge-triggered: Tick
// reports it exactly once.
type Clock struct {
	mode      string
	remaining int64 // timed mode only
	elapsed   int64
	fired     bool
}

// NewClock builds a clock for the test's time mode. remainingSec is only
// meaningful for timed tests (resume passes the restored remainder).
func NewClock(mode string, remainingSec int64) *Clock {
	c := &Clock{mode: mode}
	if mode == assess.TimeModeTimed {
		if remainingSec < 0 {
			remainingSec = 0
		}
		c.remaining = remainingSec
	}
	return c
}

// Tick advances the clock by one second. The return value is true on the
// single tick where a timed clock reaches zero; free-mode clocks count up
// forever and never expire.
func (c *Clock) Tick() (expired bool) {
	c.elapsed++
	if c.mode != assess.TimeModeTimed {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 && !c.fired {
		c.fired = true
		return true
	}
	return false
}

// Remaining is the seconds left on a timed clock, 0 for free mode.
func (c *Clock) Remaining() int64 { return c.remaining }

// Elapsed is the seconds counted since the clock started ticking.
func (c *Clock) Elapsed() int64 { return c.elapsed }

// Expired reports whether a timed clock has hit zero.
func (c *Clock) Expired() bool { return c.fired }
