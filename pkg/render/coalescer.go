package render

import (
	"sync"
	"time"
)

// DefaultSettleDelay is how long the viewport must stay still before a
// layout replay.
const DefaultSettleDelay = 150 * time.Millisecond

// Coalescer turns a burst of viewport-changed notifications into a single
// settled callback, fired once the notifications stop for the delay.
type Coalescer struct {
	mu      sync.Mutex
	delay   time.Duration
	settled func()
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewCoalescer returns a coalescer that calls settled after delay of quiet.
func NewCoalescer(delay time.Duration, settled func()) *Coalescer {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	return &Coalescer{delay: delay, settled: settled}
}

// Notify records a viewport change, postponing the settled callback.
func (c *Coalescer) Notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.delay, func() { c.fire(gen) })
}

func (c *Coalescer) fire(gen uint64) {
	c.mu.Lock()
	if c.stopped || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()
	c.settled()
}

// Flush fires a pending callback immediately. It does nothing when no
// change is pending.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	if c.timer == nil || c.stopped || !c.timer.Stop() {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.gen++
	c.mu.Unlock()
	c.settled()
}

// Stop cancels any pending callback and ignores later notifications.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
