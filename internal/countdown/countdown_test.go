package countdown

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestCountdownFires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New(clock)

	fired := make(chan uint64, 1)
	gen := c.Start(3*time.Second, func(g uint64) { fired <- g })
	waitForTimers(t, clock, 1)

	clock.Advance(3 * time.Second)

	select {
	case got := <-fired:
		if got != gen {
			t.Fatalf("expected generation %d, got %d", gen, got)
		}
		if !c.Claim(got) {
			t.Fatalf("expected claim to succeed")
		}
		if c.Claim(got) {
			t.Fatalf("expected second claim to fail")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("countdown did not fire")
	}
	if c.Active() {
		t.Fatalf("expected inactive after claim")
	}
}

func TestCancelPreventsFire(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New(clock)

	fired := make(chan uint64, 1)
	c.Start(time.Second, func(g uint64) { fired <- g })
	waitForTimers(t, clock, 1)

	c.Cancel()
	clock.Advance(5 * time.Second)

	select {
	case g := <-fired:
		t.Fatalf("cancelled countdown fired with generation %d", g)
	case <-time.After(50 * time.Millisecond):
	}
	if c.Active() {
		t.Fatalf("expected inactive after cancel")
	}
}

func TestRestartSupersedesGeneration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New(clock)

	first := c.Start(time.Second, func(uint64) {})
	second := c.Start(time.Second, func(uint64) {})
	if first == second {
		t.Fatalf("expected new generation on restart")
	}
	if c.Claim(first) {
		t.Fatalf("expected superseded generation rejected")
	}
	if !c.Claim(second) {
		t.Fatalf("expected current generation claimable")
	}
}

func waitForTimers(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, n); err != nil {
		t.Fatalf("waiting for %d timers: %v", n, err)
	}
}
