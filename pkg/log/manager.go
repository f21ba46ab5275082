package log

import (
	"reflect"
	"sync"

	"github.com/open-teleop/tracelog/pkg/trace"
)

const (
	// DefaultSourceName is the trace source whose listeners are shared with
	// sources that have none of their own.
	DefaultSourceName = "DefaultTraceSource"

	managerSourceName = "LogManager"
)

// Factory hands out named loggers.
type Factory interface {
	GetLogger(name string) *Logger
	GetLoggerForType(t reflect.Type) *Logger
}

// FactoryFunc is a logger construction strategy: it builds the sink for a
// logger name.
type FactoryFunc func(name string) Sink

var _ Factory = FactoryFunc(nil)

func (f FactoryFunc) GetLogger(name string) *Logger {
	return New(f(name))
}

func (f FactoryFunc) GetLoggerForType(t reflect.Type) *Logger {
	return f.GetLogger(TypeName(t))
}

// TypeName is the logger name used for a type: its package-qualified name,
// e.g. "services.loggingService". Pointer types name their element type.
func TypeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// LoggerFor returns the logger of f named after T.
func LoggerFor[T any](f Factory) *Logger {
	return f.GetLoggerForType(reflect.TypeOf((*T)(nil)).Elem())
}

// Manager is the logger factory of an application. It owns the default
// trace source and delegates construction to a replaceable strategy, which
// by default builds TraceSinks sharing the default source's listeners.
//
// The strategy should be set once at startup: loggers already handed out
// keep the sink they were built with.
type Manager struct {
	level             Level
	defaultSourceName string
	registry          *trace.Registry
	defaultSink       *TraceSink
	self              *Logger

	mu       sync.RWMutex
	strategy Factory
}

var _ Factory = (*Manager)(nil)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLevel sets the threshold of the trace sinks the manager builds. The
// default is DebugLevel.
func WithLevel(level Level) ManagerOption {
	return func(m *Manager) {
		m.level = level
	}
}

// WithDefaultSourceName renames the default trace source.
func WithDefaultSourceName(name string) ManagerOption {
	return func(m *Manager) {
		if name != "" {
			m.defaultSourceName = name
		}
	}
}

// WithRegistry sets the registry trace sources get their listeners from.
// The default is trace.DefaultRegistry.
func WithRegistry(r *trace.Registry) ManagerOption {
	return func(m *Manager) {
		m.registry = r
	}
}

// WithFactory replaces the default strategy.
func WithFactory(f FactoryFunc) ManagerOption {
	return func(m *Manager) {
		if f != nil {
			m.strategy = f
		}
	}
}

// NewManager creates a Manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		level:             DebugLevel,
		defaultSourceName: DefaultSourceName,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = trace.DefaultRegistry(m.defaultSourceName)
	}

	m.defaultSink = NewTraceSink(m.defaultSourceName, m.level, m.registry, nil)
	// Built without the strategy, so that logging a lookup never looks
	// anything up.
	m.self = New(NewTraceSink(managerSourceName, m.level, m.registry, m.defaultSink))

	if m.strategy == nil {
		m.strategy = TraceFactory(m.level, m.registry, m.defaultSink)
	}
	return m
}

// Level returns the threshold of the default trace sinks.
func (m *Manager) Level() Level { return m.level }

// Registry returns the trace registry of the manager.
func (m *Manager) Registry() *trace.Registry { return m.registry }

// DefaultSink returns the sink of the default trace source.
func (m *Manager) DefaultSink() *TraceSink { return m.defaultSink }

// SetFactory replaces the strategy. Only later lookups are affected.
func (m *Manager) SetFactory(f FactoryFunc) {
	if f == nil {
		return
	}
	m.SetLoggerFactory(f)
}

// SetLoggerFactory replaces the strategy with a complete Factory. Only later
// lookups are affected.
func (m *Manager) SetLoggerFactory(f Factory) {
	if f == nil {
		return
	}
	m.mu.Lock()
	m.strategy = f
	m.mu.Unlock()
}

// GetLogger returns the logger called name from the current strategy.
func (m *Manager) GetLogger(name string) *Logger {
	m.self.InfoFormat("Getting trace log: {0}", name)

	m.mu.RLock()
	strategy := m.strategy
	m.mu.RUnlock()
	return strategy.GetLogger(name)
}

// GetLoggerForType returns the logger named TypeName(t).
func (m *Manager) GetLoggerForType(t reflect.Type) *Logger {
	return m.GetLogger(TypeName(t))
}

// Default returns a logger over the default sink. It does not go through
// the strategy, so replacing the factory leaves it on the trace backend.
func (m *Manager) Default() *Logger {
	return New(m.defaultSink)
}
