package host

import "testing"

func TestFirstParticipantIsHostBeforePin(t *testing.T) {
	h := New("b")
	if h.IsHost([]string{"a", "b"}) {
		t.Fatalf("expected b not host when a is first")
	}
	if !h.IsHost([]string{"b", "a"}) {
		t.Fatalf("expected b host when first")
	}
	if !h.IsHost(nil) {
		t.Fatalf("expected local host when no participants known")
	}
}

func TestEstablishPinsLocal(t *testing.T) {
	h := New("a")
	if !h.Establish([]string{"a", "b"}) {
		t.Fatalf("expected establish to succeed for first participant")
	}
	if h.Pinned() != "a" {
		t.Fatalf("expected pin a, got %q", h.Pinned())
	}
	// list order no longer matters once pinned
	if !h.IsHost([]string{"b", "a"}) {
		t.Fatalf("expected pinned host to stay host")
	}

	other := New("b")
	if other.Establish([]string{"a", "b"}) {
		t.Fatalf("expected establish to fail for non-first participant")
	}
	if other.Pinned() != "" {
		t.Fatalf("expected no pin after failed establish")
	}
}

func TestObserveNeverReplacesPin(t *testing.T) {
	h := New("a")
	h.Observe("b")
	if h.Observe("c") {
		t.Fatalf("expected observe to keep existing pin")
	}
	if h.Pinned() != "b" {
		t.Fatalf("expected pin b, got %q", h.Pinned())
	}

	h.Change("a")
	if h.Pinned() != "a" || !h.IsHost(nil) {
		t.Fatalf("expected host-changed to overwrite pin")
	}

	h.Clear()
	if h.Pinned() != "" {
		t.Fatalf("expected pin cleared")
	}
}

func TestMissing(t *testing.T) {
	h := New("a")
	if h.Missing([]string{"a"}) {
		t.Fatalf("expected not missing without pin")
	}
	h.Change("z")
	if !h.Missing([]string{"a", "b"}) {
		t.Fatalf("expected pinned host missing")
	}
	if h.Missing(nil) {
		t.Fatalf("expected empty list not to report missing")
	}
}
