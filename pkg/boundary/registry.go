package boundary

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/kataru/pkg/session"
)

// Registry hands out exchanges under opaque handles so a host can run
// several independent sessions. The registry itself is safe for concurrent
// use; each Exchange is not.
type Registry struct {
	mu        sync.RWMutex
	exchanges map[uuid.UUID]*Exchange
	opts      []session.Option
}

// NewRegistry returns an empty registry. Options are passed to every
// exchange it opens.
func NewRegistry(opts ...session.Option) *Registry {
	return &Registry{
		exchanges: make(map[uuid.UUID]*Exchange),
		opts:      opts,
	}
}

// Open creates an uninitialized exchange and returns its handle.
func (r *Registry) Open() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := uuid.New()
	r.exchanges[h] = NewExchange(r.opts...)
	return h
}

// Get returns the exchange for a handle.
func (r *Registry) Get(h uuid.UUID) (*Exchange, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ex, ok := r.exchanges[h]
	return ex, ok
}

// Close drops the exchange for a handle. It reports whether one existed.
func (r *Registry) Close(h uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.exchanges[h]
	delete(r.exchanges, h)
	return ok
}

// Handles lists open handles in a stable order.
func (r *Registry) Handles() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := make([]uuid.UUID, 0, len(r.exchanges))
	for h := range r.exchanges {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool {
		return handles[i].String() < handles[j].String()
	})
	return handles
}

// Len is the number of open exchanges.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.exchanges)
}
