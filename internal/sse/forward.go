package sse

import "context"

// Forward emits toEvent(v) for every value received on updates until ctx is
// done or updates is closed.
func Forward[T any](ctx context.Context, m *Manager, updates <-chan T, toEvent func(T) Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-updates:
			if !ok {
				return
			}
			m.Emit(toEvent(v))
		}
	}
}
