package memory

import (
	"context"
	"errors"
	"testing"

	"phone-trivia/internal/domain"
	"phone-trivia/internal/protocol"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	cancelA := bus.Subscribe(func(m protocol.Message) { got = append(got, "a:"+string(m.Kind())) })
	bus.Subscribe(func(m protocol.Message) { got = append(got, "b:"+string(m.Kind())) })

	if err := bus.Send(context.Background(), protocol.HostChanged{HostID: "p1"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(got) != 2 || got[0] != "a:host-changed" || got[1] != "b:host-changed" {
		t.Fatalf("unexpected delivery %v", got)
	}

	cancelA()
	cancelA()
	if bus.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber after cancel, got %d", bus.Subscribers())
	}
}

func TestBusClosed(t *testing.T) {
	bus := NewBus()
	_ = bus.Close()
	err := bus.Send(context.Background(), protocol.GameReset{})
	if !errors.Is(err, domain.ErrBusClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
}

func TestRegistryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	already, err := reg.Register(ctx, "p1", "i1")
	if err != nil || already {
		t.Fatalf("first register: already=%v err=%v", already, err)
	}
	already, err = reg.Register(ctx, "p1", "i1")
	if err != nil || !already {
		t.Fatalf("second register: already=%v err=%v", already, err)
	}
	if _, err := reg.Register(ctx, "p1", "i2"); err != nil {
		t.Fatalf("register i2: %v", err)
	}
	ids, _ := reg.Instances(ctx, "p1")
	if len(ids) != 2 || ids[0] != "i1" || ids[1] != "i2" {
		t.Fatalf("unexpected instances %v", ids)
	}

	_ = reg.Unregister(ctx, "p1", "i1")
	_ = reg.Unregister(ctx, "p1", "i2")
	ids, _ = reg.Instances(ctx, "p1")
	if len(ids) != 0 {
		t.Fatalf("expected no instances, got %v", ids)
	}
}

func TestScoreStore(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore()
	if _, err := store.GetScore(ctx, "p1"); !errors.Is(err, domain.ErrScoreNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.SetScore(ctx, "p1", 7); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, err := store.GetScore(ctx, "p1"); err != nil || v != 7 {
		t.Fatalf("get: %d %v", v, err)
	}
}
