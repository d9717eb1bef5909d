package cartstate

import "sync"

// Tracker reports which line is currently being written to the remote API so a UI can
// disable that row only.
type Tracker struct {
	mu       sync.Mutex
	inflight []string
}

func (t *Tracker) begin(id string) {
	t.mu.Lock()
	t.inflight = append(t.inflight, id)
	t.mu.Unlock()
}

func (t *Tracker) end(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.inflight) - 1; i >= 0; i-- {
		if t.inflight[i] == id {
			t.inflight = append(t.inflight[:i], t.inflight[i+1:]...)
			return
		}
	}
}

// Current returns the most recently started in-flight line id, or "" when idle.
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inflight) == 0 {
		return ""
	}
	return t.inflight[len(t.inflight)-1]
}

// IsMutating reports whether id has a remote call in flight.
func (t *Tracker) IsMutating(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, v := range t.inflight {
		if v == id {
			return true
		}
	}
	return false
}
