// Package host decides, per client, whether the local participant may run
// host-only actions.
package host

// Heuristic holds the pinned host id, if any. Not safe for concurrent use.
type Heuristic struct {
	localID  string
	pinnedID string
}

func New(localID string) *Heuristic {
	return &Heuristic{localID: localID}
}

// Pinned returns the pinned host id, or "" when none is established.
func (h *Heuristic) Pinned() string {
	return h.pinnedID
}

// IsHost compares the pinned id with the local id. Without a pin the first
// known participant is the host; with no participants the local one is.
func (h *Heuristic) IsHost(participants []string) bool {
	if h.pinnedID != "" {
		return h.pinnedID == h.localID
	}
	if len(participants) == 0 {
		return true
	}
	return participants[0] == h.localID
}

// Establish pins the local participant when a local host action succeeds
// under the heuristic. It never replaces an existing pin.
func (h *Heuristic) Establish(participants []string) bool {
	if h.pinnedID != "" {
		return h.pinnedID == h.localID
	}
	if !h.IsHost(participants) {
		return false
	}
	h.pinnedID = h.localID
	return true
}

// Observe pins id only when nothing is pinned yet and reports whether the
// pin now equals id.
func (h *Heuristic) Observe(id string) bool {
	if id == "" {
		return false
	}
	if h.pinnedID == "" {
		h.pinnedID = id
	}
	return h.pinnedID == id
}

// Change overwrites the pin unconditionally.
func (h *Heuristic) Change(id string) {
	h.pinnedID = id
}

// Clear drops the pin.
func (h *Heuristic) Clear() {
	h.pinnedID = ""
}

// Missing reports whether the pinned host is absent from a non-empty
// participant list. No re-election follows from it.
func (h *Heuristic) Missing(participants []string) bool {
	if h.pinnedID == "" || len(participants) == 0 {
		return false
	}
	for _, id := range participants {
		if id == h.pinnedID {
			return false
		}
	}
	return true
}
