// Package event is the in-process dispatcher behind the order lifecycle
// hooks. Services fire, the server bootstrap listens; neither side imports
// the other.
package event

import (
	"sync"

	"dukaan/pkg/logger"
)

// Handler receives the payload of one fired event.
type Handler func(payload interface{})

type registry struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

var reg = &registry{handlers: map[string][]Handler{}}

func (r *registry) snapshot(event string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hs := make([]Handler, len(r.handlers[event]))
	copy(hs, r.handlers[event])
	return hs
}

// Listen registers a handler for the given event name. Handlers run in
// registration order for Fire and concurrently for FireAsync.
func Listen(event string, handler Handler) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.handlers[event] = append(reg.handlers[event], handler)
}

// Fire dispatches synchronously. A panicking handler is logged and does not
// stop the remaining handlers.
func Fire(event string, payload interface{}) {
	for _, h := range reg.snapshot(event) {
		safeCall(event, h, payload)
	}
}

// FireAsync dispatches each handler on its own goroutine and returns
// immediately. Used on hot paths (order writes) where listeners do I/O.
func FireAsync(event string, payload interface{}) {
	for _, h := range reg.snapshot(event) {
		go safeCall(event, h, payload)
	}
}

func safeCall(event string, h Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event: handler panicked", "event", event, "panic", r)
		}
	}()
	h(payload)
}

// Flush removes all listeners. Tests use it to isolate listener state.
func Flush() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.handlers = map[string][]Handler{}
}
