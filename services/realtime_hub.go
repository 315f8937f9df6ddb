package services

import (
	"sync"
)

// Event is one realtime delivery: a medication snapshot or a notice.
type Event struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload,omitempty"`
}

const (
	EventMedicationSnapshot = "medications.snapshot"
	EventNotice             = "notice"
)

type subscriber struct {
	ch chan Event
}

// RealtimeHub fans events out to per-user subscribers. Subscribe returns a
// receive channel and a cancel func; after cancel the channel is closed and
// nothing more is delivered. Slow subscribers have their oldest pending
// event replaced rather than blocking publishers.
type RealtimeHub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{subs: make(map[string]map[*subscriber]struct{})}
}

func (h *RealtimeHub) Subscribe(userID string) (<-chan Event, func()) {
	s := &subscriber{ch: make(chan Event, 1)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][s] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		set := h.subs[userID]
		if set == nil {
			return
		}
		if _, ok := set[s]; !ok {
			return
		}
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, userID)
		}
		close(s.ch)
	}

	return s.ch, cancel
}

func (h *RealtimeHub) Publish(userID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[userID] {
		select {
		case s.ch <- ev:
		default:
			// drop the stale event, keep only the latest
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- ev:
			default:
			}
		}
	}
}
