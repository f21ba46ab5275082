package trace

import (
	"sync"
)

// Listener receives the events of every source it is attached to. A
// listener may be shared by many sources and must be safe for concurrent
// use.
type Listener interface {
	Name() string
	TraceEvent(e Event) error
	Flush() error
	Close() error
}

// Listeners is the listener collection of a Source.
type Listeners struct {
	mu    sync.RWMutex
	items []Listener
}

// Add appends l to the collection.
func (c *Listeners) Add(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, l)
}

// AddRange appends every listener in ls.
func (c *Listeners) AddRange(ls []Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, ls...)
}

// Len returns the number of listeners.
func (c *Listeners) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Snapshot returns a copy of the current listeners.
func (c *Listeners) Snapshot() []Listener {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Listener, len(c.items))
	copy(out, c.items)
	return out
}

// Find returns the first listener called name.
func (c *Listeners) Find(name string) (Listener, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range c.items {
		if l.Name() == name {
			return l, true
		}
	}
	return nil, false
}
