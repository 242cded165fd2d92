package signal

import "sync"

// Signal names published by the stores. Subscribers re-read the owning
// store when a signal fires; the signal itself carries no payload.
const (
	IdentityChanged = "identity-changed"
	CartChanged     = "cart-changed"
	CatalogChanged  = "catalog-changed"
	OrdersChanged   = "orders-changed"
)

// Names lists every signal a fanout transport should relay.
var Names = []string{IdentityChanged, CartChanged, CatalogChanged, OrdersChanged}

// Bus is a fire-and-forget, at-most-once notification mechanism. There
// is no replay: a subscriber that attaches after a publish never sees
// it and must read current state itself first.
type Bus interface {
	Publish(name string)
	Subscribe(name string, fn func()) (cancel func())
}

// MemoryBus delivers signals synchronously in-process.
type MemoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func()
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[int]func())}
}

func (b *MemoryBus) Publish(name string) {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs[name]))
	for _, fn := range b.subs[name] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	// callbacks run outside the lock so a subscriber may re-read a
	// store (which may itself publish) without deadlocking
	for _, fn := range fns {
		fn()
	}
}

func (b *MemoryBus) Subscribe(name string, fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[name] == nil {
		b.subs[name] = make(map[int]func())
	}
	id := b.nextID
	b.nextID++
	b.subs[name][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[name], id)
	}
}
