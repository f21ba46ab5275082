package log

import (
	"io"
	stdlog "log"
	"os"
)

// DefaultWriterTimeFormat is the timestamp layout of WriterSink lines.
const DefaultWriterTimeFormat = "2006/01/02 15:04:05.000"

var _ Sink = (*WriterSink)(nil)

// WriterSink writes one line per record to a plain writer:
//
//	2024/03/09 14:05:00.123(Orders) : order 17 accepted
//
// Lines go through a standard library logger, which serializes writes.
type WriterSink struct {
	name       string
	threshold  Level
	timeFormat string
	out        *stdlog.Logger
}

// WriterOption configures a WriterSink.
type WriterOption func(*WriterSink)

// WithWriter sets the destination. The default is os.Stderr.
func WithWriter(w io.Writer) WriterOption {
	return func(s *WriterSink) {
		if w != nil {
			s.out = stdlog.New(w, "", 0)
		}
	}
}

// WithTimeFormat sets the timestamp layout.
func WithTimeFormat(layout string) WriterOption {
	return func(s *WriterSink) {
		s.timeFormat = layout
	}
}

// NewWriterSink creates a WriterSink for the named source.
func NewWriterSink(name string, threshold Level, opts ...WriterOption) *WriterSink {
	s := &WriterSink{
		name:       name,
		threshold:  threshold,
		timeFormat: DefaultWriterTimeFormat,
		out:        stdlog.New(os.Stderr, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WriterSink) Name() string { return s.name }

// Threshold returns the most verbose level written.
func (s *WriterSink) Threshold() Level { return s.threshold }

func (s *WriterSink) Enabled(level Level) bool {
	return s.threshold.Enables(level)
}

func (s *WriterSink) Write(r Record) {
	if !s.Enabled(r.Level) {
		return
	}
	// A failed write has nowhere to be reported.
	_ = s.out.Output(2, r.Time.Format(s.timeFormat)+"("+s.name+") : "+r.Text())
}

// WriterFactory returns a strategy building WriterSinks that share the
// options given here.
func WriterFactory(threshold Level, opts ...WriterOption) FactoryFunc {
	return func(name string) Sink {
		return NewWriterSink(name, threshold, opts...)
	}
}
