// Package shell hosts the client-side orchestration that mobile app
// builds embed: deep-link dispatch, the API client, and the social
// connections controller.
package shell

import "sync"

// DeepLinkHandler receives an incoming deep-link URL.
type DeepLinkHandler func(url string)

// DeepLinkRegistry fans incoming deep links out to subscribers.
// Dispatch is synchronous: it returns after every handler has run, so
// a caller delivering the OAuth callback link knows the connection
// state has been processed.
type DeepLinkRegistry struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]DeepLinkHandler
}

func NewDeepLinkRegistry() *DeepLinkRegistry {
	return &DeepLinkRegistry{handlers: make(map[int]DeepLinkHandler)}
}

// Subscribe registers a handler and returns its unsubscribe function.
func (r *DeepLinkRegistry) Subscribe(handler DeepLinkHandler) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.handlers[id] = handler
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.handlers, id)
	}
}

// Dispatch delivers a deep link to all current subscribers.
func (r *DeepLinkRegistry) Dispatch(url string) {
	r.mu.Lock()
	handlers := make([]DeepLinkHandler, 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.mu.Unlock()

	for _, h := range handlers {
		h(url)
	}
}

// Browser is the embedded in-app browser the OAuth flow opens.
type Browser interface {
	// Open navigates the embedded browser to the given URL.
	Open(url string) error

	// Close dismisses the embedded browser if it is showing.
	Close()
}
