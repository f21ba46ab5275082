package log

import (
	"github.com/open-teleop/tracelog/pkg/trace"
)

var _ Sink = (*TraceSink)(nil)

// disabledThreshold enables no level at all; it backs trace.SwitchOff.
const disabledThreshold Level = FatalLevel - 1

// EventTypeOf maps a level to its trace event type. The five defined
// levels map one-to-one; other values fall into the nearest bucket.
func EventTypeOf(level Level) trace.EventType {
	switch {
	case level <= FatalLevel:
		return trace.Critical
	case level <= ErrorLevel:
		return trace.Error
	case level <= WarnLevel:
		return trace.Warning
	case level <= InfoLevel:
		return trace.Information
	default:
		return trace.Verbose
	}
}

// LevelOf maps a trace event type back to its level.
func LevelOf(t trace.EventType) (Level, bool) {
	switch t {
	case trace.Critical:
		return FatalLevel, true
	case trace.Error:
		return ErrorLevel, true
	case trace.Warning:
		return WarnLevel, true
	case trace.Information:
		return InfoLevel, true
	case trace.Verbose:
		return DebugLevel, true
	}
	return DebugLevel, false
}

// SourceLevelsOf converts a threshold to the equivalent source switch.
func SourceLevelsOf(threshold Level) trace.SourceLevels {
	switch {
	case threshold < FatalLevel:
		return trace.SwitchOff
	case threshold < ErrorLevel:
		return trace.SwitchCritical
	case threshold < WarnLevel:
		return trace.SwitchError
	case threshold < InfoLevel:
		return trace.SwitchWarning
	case threshold < DebugLevel:
		return trace.SwitchInformation
	default:
		return trace.SwitchVerbose
	}
}

// ThresholdOf converts a source switch to the most verbose level it lets
// through.
func ThresholdOf(levels trace.SourceLevels) Level {
	threshold := disabledThreshold
	for _, level := range Levels() {
		if levels.Allows(EventTypeOf(level)) {
			threshold = level
		}
	}
	return threshold
}

// TraceSink writes records as events of a trace.Source.
type TraceSink struct {
	threshold Level
	source    *trace.Source
}

// NewTraceSink creates a sink over a source called name. The source gets
// its listeners from registry (nil means none). If it has none and
// defaultSink has some, it adopts those of defaultSink. Adoption happens
// here only; listeners added to defaultSink later are not picked up.
func NewTraceSink(name string, threshold Level, registry *trace.Registry, defaultSink *TraceSink) *TraceSink {
	var src *trace.Source
	if registry != nil {
		src = registry.NewSource(name, SourceLevelsOf(threshold))
	} else {
		src = trace.NewSource(name, SourceLevelsOf(threshold))
	}

	if src.Listeners().Len() == 0 && defaultSink != nil {
		if shared := defaultSink.source.Listeners().Snapshot(); len(shared) > 0 {
			src.Listeners().AddRange(shared)
		}
	}

	return &TraceSink{
		threshold: ThresholdOf(src.Switch()),
		source:    src,
	}
}

func (s *TraceSink) Name() string { return s.source.Name() }

// Source returns the underlying trace source.
func (s *TraceSink) Source() *trace.Source { return s.source }

// Threshold returns the most verbose level written.
func (s *TraceSink) Threshold() Level { return s.threshold }

func (s *TraceSink) Enabled(level Level) bool {
	return s.threshold.Enables(level) && s.source.ShouldTrace(EventTypeOf(level))
}

func (s *TraceSink) Write(r Record) {
	// Listener failures must not reach the caller.
	_ = s.source.Trace(trace.Event{
		Time:    r.Time,
		Type:    EventTypeOf(r.Level),
		Message: r.Text(),
	})
}

// TraceFactory returns a strategy building TraceSinks from registry that
// adopt the listeners of defaultSink.
func TraceFactory(threshold Level, registry *trace.Registry, defaultSink *TraceSink) FactoryFunc {
	return func(name string) Sink {
		return NewTraceSink(name, threshold, registry, defaultSink)
	}
}
