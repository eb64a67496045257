package activity

import (
	"context"
	"sync"
)

// CaptureHook keeps every event it receives in memory. It is safe for
// concurrent use and is mostly useful in tests and examples.
type CaptureHook struct {
	// Err is returned from every Notify call.
	Err error

	mu     sync.Mutex
	events []Event
}

// Notify records the event and returns Err.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, NormalizeEvent(event))
	return h.Err
}

// Events returns a copy of the recorded events in arrival order.
func (h *CaptureHook) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events...)
}

// Verbs returns the verb of every recorded event in arrival order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	verbs := make([]string, len(h.events))
	for i, event := range h.events {
		verbs[i] = event.Verb
	}
	return verbs
}

// ForProgram returns the recorded events that belong to program.
func (h *CaptureHook) ForProgram(program string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Event
	for _, event := range h.events {
		if event.Program == program {
			out = append(out, event)
		}
	}
	return out
}

// Reset drops every recorded event.
func (h *CaptureHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
}
