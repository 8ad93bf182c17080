package state

import "sync"

const subscriberBuffer = 16

// hub fans snapshots out to subscribers. Slow subscribers miss updates
// instead of blocking the writer.
type hub[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]chan T
}

func (h *hub[T]) subscribe() (<-chan T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]chan T)
	}
	id := h.next
	h.next++
	ch := make(chan T, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

func (h *hub[T]) publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- v:
		default:
		}
	}
}
