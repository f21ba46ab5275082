package trace

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// Registry holds the shared listeners and the per-source configuration
// that sources are built from.
type Registry struct {
	mu        sync.RWMutex
	listeners map[string]Listener
	order     []string
	sources   map[string]*sourceConfig
}

type sourceConfig struct {
	level     SourceLevels
	hasLevel  bool
	listeners []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		listeners: make(map[string]Listener),
		sources:   make(map[string]*sourceConfig),
	}
}

// DefaultRegistry returns a registry in which defaultSource writes to a
// stderr console listener named "console".
func DefaultRegistry(defaultSource string) *Registry {
	r := NewRegistry()
	// Neither call can fail on a fresh registry.
	_ = r.AddListener(NewConsoleListener("console", false))
	_ = r.ConfigureSource(defaultSource, "console")
	return r
}

// AddListener registers a shared listener under its name.
func (r *Registry) AddListener(l Listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := l.Name()
	if _, exists := r.listeners[name]; exists {
		return fmt.Errorf("listener %q already registered", name)
	}
	r.listeners[name] = l
	r.order = append(r.order, name)
	return nil
}

// Listener returns the shared listener called name.
func (r *Registry) Listener(name string) (Listener, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listeners[name]
	return l, ok
}

// ConfigureSource attaches the named shared listeners to every source
// called source created from now on. Listeners must already be registered.
func (r *Registry) ConfigureSource(source string, listenerNames ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range listenerNames {
		if _, ok := r.listeners[name]; !ok {
			return fmt.Errorf("source %q: unknown listener %q", source, name)
		}
	}
	cfg := r.sourceConfigLocked(source)
	cfg.listeners = append(cfg.listeners, listenerNames...)
	return nil
}

// SetSourceLevel overrides the switch of sources called source.
func (r *Registry) SetSourceLevel(source string, level SourceLevels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg := r.sourceConfigLocked(source)
	cfg.level = level
	cfg.hasLevel = true
}

func (r *Registry) sourceConfigLocked(source string) *sourceConfig {
	cfg, ok := r.sources[source]
	if !ok {
		cfg = &sourceConfig{}
		r.sources[source] = cfg
	}
	return cfg
}

// NewSource creates a source wired to its configured listeners. A level
// configured for the source takes precedence over level.
func (r *Registry) NewSource(name string, level SourceLevels) *Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.sources[name]
	if ok && cfg.hasLevel {
		level = cfg.level
	}
	s := NewSource(name, level)
	if ok {
		for _, ln := range cfg.listeners {
			s.listeners.Add(r.listeners[ln])
		}
	}
	return s
}

// Close closes every shared listener.
func (r *Registry) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var err error
	for _, name := range r.order {
		l := r.listeners[name]
		err = multierr.Append(err, l.Flush())
		err = multierr.Append(err, l.Close())
	}
	return err
}
