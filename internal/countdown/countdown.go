// Package countdown provides the cancellable one-shot timer clients use as a
// local backstop when the controller is slow or absent.
package countdown

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown runs at most one pending timer. Each Start gets a new generation;
// a callback whose generation no longer matches must be discarded, which
// Claim does for the caller.
type Countdown struct {
	clock clockwork.Clock

	mu     sync.Mutex
	gen    uint64
	active bool
	timer  clockwork.Timer
	stop   chan struct{}
}

func New(clock clockwork.Clock) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Countdown{clock: clock}
}

// Start cancels any pending timer and arms a new one. fire runs on its own
// goroutine with the generation it was armed with.
func (c *Countdown) Start(d time.Duration, fire func(gen uint64)) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.gen++
	gen := c.gen
	timer := c.clock.NewTimer(d)
	stop := make(chan struct{})
	c.timer = timer
	c.stop = stop
	c.active = true

	go func() {
		select {
		case <-timer.Chan():
			fire(gen)
		case <-stop:
		}
	}()
	return gen
}

// Claim consumes the expiry of generation gen. It returns false for a
// cancelled or superseded timer.
func (c *Countdown) Claim(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || gen != c.gen {
		return false
	}
	c.active = false
	c.timer = nil
	c.stop = nil
	return true
}

// Cancel stops the pending timer, if any.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

// Active reports whether a timer is armed and not yet claimed or cancelled.
func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Countdown) cancelLocked() {
	if !c.active {
		return
	}
	stopAndDrain(c.timer)
	close(c.stop)
	c.active = false
	c.timer = nil
	c.stop = nil
	c.gen++
}

func stopAndDrain(timer clockwork.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
