// Package log is a leveled logging facade. Backends implement the small
// Sink capability; callers log through *Logger, which provides the
// per-severity surface on top of any Sink.
//
// Backends:
//   - WriterSink: one fixed-format line per entry on a plain writer.
//   - TraceSink: named trace sources fanning out to shared listeners.
//   - LogrusSink: delegates to a logrus-based Repository of appenders.
//
// Decorators wrap any Sink: PrefixSink injects a fixed prefix into every
// message and Scope logs paired enter/leave messages with the elapsed time.
package log

import (
	"errors"
	"time"

	"github.com/open-teleop/tracelog/pkg/format"
)

// Sink is the capability every backend and decorator implements. Write is
// only called for levels the sink reports as enabled.
type Sink interface {
	// Name is the source name stamped on records.
	Name() string
	Enabled(level Level) bool
	Write(r Record)
}

var _ Sink = (*Logger)(nil)

// Logger is the caller-facing surface over a Sink. It is safe for
// concurrent use as long as the sink is.
type Logger struct {
	sink Sink
}

// New returns a Logger writing to sink.
func New(sink Sink) *Logger {
	return &Logger{sink: sink}
}

// Sink returns the underlying sink.
func (l *Logger) Sink() Sink {
	return l.sink
}

// Name returns the source name of the underlying sink.
func (l *Logger) Name() string {
	return l.sink.Name()
}

// Enabled reports whether entries of level are written.
func (l *Logger) Enabled(level Level) bool {
	return l.sink.Enabled(level)
}

// Write forwards r to the sink if its level is enabled.
func (l *Logger) Write(r Record) {
	if !l.sink.Enabled(r.Level) {
		return
	}
	l.sink.Write(r)
}

// Log writes entry at level, with err appended when non-nil.
func (l *Logger) Log(level Level, entry interface{}, err error) {
	if !l.sink.Enabled(level) {
		return
	}
	l.sink.Write(Record{
		Time:    time.Now(),
		Source:  l.sink.Name(),
		Level:   level,
		Message: entryString(entry),
		Err:     err,
	})
}

// LogFormat substitutes args into template (see package format) and writes
// the result at level. A template that cannot be applied does not fail the
// call: the raw template is written with the formatting error appended.
func (l *Logger) LogFormat(level Level, template string, args ...interface{}) {
	if !l.sink.Enabled(level) {
		return
	}
	l.Log(level, Sprintf(template, args...), nil)
}

// Format applies args to template. Failures are reported as a
// *FormattingError.
func Format(template string, args ...interface{}) (string, error) {
	msg, err := format.Sprintf(template, args...)
	if err != nil {
		return "", &FormattingError{Template: template, Err: err}
	}
	return msg, nil
}

// Sprintf is Format without the error: a template that cannot be applied
// yields the raw template followed by a formatting notice, e.g.
//
//	took {0} ms for {1} [format error: index 1 out of range for 1 argument(s)]
func Sprintf(template string, args ...interface{}) string {
	msg, err := format.Sprintf(template, args...)
	if err == nil {
		return msg
	}
	reason := err.Error()
	var fe *format.Error
	if errors.As(err, &fe) {
		reason = fe.Reason
	}
	return template + " [format error: " + reason + "]"
}

// Fatal writes entry at FatalLevel. It does not exit the process.
func (l *Logger) Fatal(entry interface{}) { l.Log(FatalLevel, entry, nil) }

// FatalErr writes entry and err at FatalLevel.
func (l *Logger) FatalErr(entry interface{}, err error) { l.Log(FatalLevel, entry, err) }

// FatalFormat writes a formatted entry at FatalLevel.
func (l *Logger) FatalFormat(template string, args ...interface{}) {
	l.LogFormat(FatalLevel, template, args...)
}

// Error writes entry at ErrorLevel.
func (l *Logger) Error(entry interface{}) { l.Log(ErrorLevel, entry, nil) }

// ErrorErr writes entry and err at ErrorLevel.
func (l *Logger) ErrorErr(entry interface{}, err error) { l.Log(ErrorLevel, entry, err) }

// ErrorFormat writes a formatted entry at ErrorLevel.
func (l *Logger) ErrorFormat(template string, args ...interface{}) {
	l.LogFormat(ErrorLevel, template, args...)
}

// Warn writes entry at WarnLevel.
func (l *Logger) Warn(entry interface{}) { l.Log(WarnLevel, entry, nil) }

// WarnErr writes entry and err at WarnLevel.
func (l *Logger) WarnErr(entry interface{}, err error) { l.Log(WarnLevel, entry, err) }

// WarnFormat writes a formatted entry at WarnLevel.
func (l *Logger) WarnFormat(template string, args ...interface{}) {
	l.LogFormat(WarnLevel, template, args...)
}

// Info writes entry at InfoLevel.
func (l *Logger) Info(entry interface{}) { l.Log(InfoLevel, entry, nil) }

// InfoErr writes entry and err at InfoLevel.
func (l *Logger) InfoErr(entry interface{}, err error) { l.Log(InfoLevel, entry, err) }

// InfoFormat writes a formatted entry at InfoLevel.
func (l *Logger) InfoFormat(template string, args ...interface{}) {
	l.LogFormat(InfoLevel, template, args...)
}

// Debug writes entry at DebugLevel.
func (l *Logger) Debug(entry interface{}) { l.Log(DebugLevel, entry, nil) }

// DebugErr writes entry and err at DebugLevel.
func (l *Logger) DebugErr(entry interface{}, err error) { l.Log(DebugLevel, entry, err) }

// DebugFormat writes a formatted entry at DebugLevel.
func (l *Logger) DebugFormat(template string, args ...interface{}) {
	l.LogFormat(DebugLevel, template, args...)
}

// IsFatalEnabled reports whether Fatal entries would be written.
func (l *Logger) IsFatalEnabled() bool { return l.sink.Enabled(FatalLevel) }

// IsErrorEnabled reports whether Error entries would be written.
func (l *Logger) IsErrorEnabled() bool { return l.sink.Enabled(ErrorLevel) }

// IsWarnEnabled reports whether Warn entries would be written.
func (l *Logger) IsWarnEnabled() bool { return l.sink.Enabled(WarnLevel) }

// IsInfoEnabled reports whether Info entries would be written.
func (l *Logger) IsInfoEnabled() bool { return l.sink.Enabled(InfoLevel) }

// IsDebugEnabled reports whether Debug entries would be written.
func (l *Logger) IsDebugEnabled() bool { return l.sink.Enabled(DebugLevel) }
