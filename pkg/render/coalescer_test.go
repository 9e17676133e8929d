package render

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCoalescerBurstFiresOnce(t *testing.T) {
	var fired atomic.Int32
	done := make(chan struct{}, 4)
	c := NewCoalescer(20*time.Millisecond, func() {
		fired.Add(1)
		done <- struct{}{}
	})
	defer c.Stop()

	for i := 0; i < 10; i++ {
		c.Notify()
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Settled callback never fired")
	}
	time.Sleep(60 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Errorf("Expected one callback, got %d", n)
	}
}

func TestCoalescerFlush(t *testing.T) {
	var fired atomic.Int32
	c := NewCoalescer(50*time.Millisecond, func() { fired.Add(1) })
	defer c.Stop()

	c.Flush()
	if fired.Load() != 0 {
		t.Fatal("Flush with nothing pending should not fire")
	}

	c.Notify()
	c.Flush()
	if fired.Load() != 1 {
		t.Fatal("Flush should fire the pending callback")
	}
	time.Sleep(100 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Errorf("Timer fired after flush, got %d callbacks", n)
	}
}

func TestCoalescerStop(t *testing.T) {
	var fired atomic.Int32
	c := NewCoalescer(10*time.Millisecond, func() { fired.Add(1) })

	c.Notify()
	c.Stop()
	c.Notify()
	time.Sleep(50 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("Stopped coalescer fired %d times", n)
	}
}
