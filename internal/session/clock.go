package session

import (
	"sync"
	"time"
)

// Clock is a monotonic countdown owned by one controller. It ticks once per
// second while armed and fires its expiry callback exactly once when the
// count reaches zero, after which further ticks are no-ops.
type Clock struct {
	mu        sync.Mutex
	remaining int
	armed     bool
	onExpire  func()
	stopCh    chan struct{}
	interval  time.Duration
}

// NewClock returns a clock driven by a real one-second ticker. A zero
// interval disables the internal ticker; ticks must then be driven manually,
// which is how tests advance time deterministically.
func NewClock(interval time.Duration) *Clock {
	return &Clock{interval: interval}
}

// Arm sets the remaining seconds and starts ticking. The callback runs on
// the ticker goroutine when the countdown reaches zero.
func (c *Clock) Arm(seconds int, onExpire func()) error {
	if seconds <= 0 {
		return ErrInvalidDuration
	}
	c.mu.Lock()
	if c.armed {
		c.mu.Unlock()
		return ErrInvalidState
	}
	c.remaining = seconds
	c.armed = true
	c.onExpire = onExpire
	stop := make(chan struct{})
	c.stopCh = stop
	interval := c.interval
	c.mu.Unlock()

	if interval > 0 {
		go c.run(stop, interval)
	}
	return nil
}

func (c *Clock) run(stop chan struct{}, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if c.tick() {
				return
			}
		}
	}
}

// tick decrements the countdown by one second. Reports true once the clock
// is expired or disarmed, which stops the ticker loop. The expiry callback
// runs outside the lock so it may call back into Disarm.
func (c *Clock) tick() bool {
	c.mu.Lock()
	if !c.armed {
		c.mu.Unlock()
		return true
	}
	c.remaining--
	if c.remaining > 0 {
		c.mu.Unlock()
		return false
	}
	c.remaining = 0
	c.armed = false
	fire := c.onExpire
	c.onExpire = nil
	c.stopCh = nil
	c.mu.Unlock()

	if fire != nil {
		fire()
	}
	return true
}

// Disarm stops the countdown without firing expiry. Idempotent.
func (c *Clock) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed {
		return
	}
	c.armed = false
	c.onExpire = nil
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
}

// Remaining reports the seconds left, for countdown display.
func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Armed reports whether the countdown is running.
func (c *Clock) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}
