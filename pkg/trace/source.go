package trace

import (
	"time"

	"go.uber.org/multierr"
)

// Source is a named origin of trace events.
type Source struct {
	name      string
	level     SourceLevels
	listeners *Listeners
}

// NewSource creates a source with no listeners. Use a Registry to get
// sources wired to configured listeners.
func NewSource(name string, level SourceLevels) *Source {
	return &Source{
		name:      name,
		level:     level,
		listeners: &Listeners{},
	}
}

// Name returns the source name.
func (s *Source) Name() string {
	return s.name
}

// Switch returns the level switch of the source.
func (s *Source) Switch() SourceLevels {
	return s.level
}

// Listeners returns the listener collection of the source.
func (s *Source) Listeners() *Listeners {
	return s.listeners
}

// ShouldTrace reports whether events of type t pass the switch.
func (s *Source) ShouldTrace(t EventType) bool {
	return s.level.Allows(t)
}

// TraceEvent emits message as an event of type t stamped with the current
// time.
func (s *Source) TraceEvent(t EventType, id int, message string) error {
	return s.Trace(Event{Time: time.Now(), Type: t, ID: id, Message: message})
}

// Trace hands e to every listener if its type passes the switch. The event
// source is always the receiver's name. Listener failures are combined; a
// failing listener does not keep the others from receiving the event.
func (s *Source) Trace(e Event) error {
	if !s.ShouldTrace(e.Type) {
		return nil
	}
	e.Source = s.name
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	var err error
	for _, l := range s.listeners.Snapshot() {
		err = multierr.Append(err, l.TraceEvent(e))
	}
	return err
}

// Flush flushes every listener of the source.
func (s *Source) Flush() error {
	var err error
	for _, l := range s.listeners.Snapshot() {
		err = multierr.Append(err, l.Flush())
	}
	return err
}
