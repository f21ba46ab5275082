package log

import (
	"fmt"

	"github.com/open-teleop/tracelog/pkg/format"
)

const prefixComponent = "prefix decorator"

var _ Sink = (*PrefixSink)(nil)

// PrefixSink prepends a fixed prefix to every message of the wrapped sink.
// The template places the prefix at {0} and the message at {1}:
//
//	sink, _ := log.NewPrefixSink(inner, requestID, "{{{0}}}-{1}")
//	// "started" is written as "{42}-started"
type PrefixSink struct {
	inner    Sink
	prefix   string
	template string
}

// NewPrefixSink decorates inner. It fails with a ConfigurationError when
// inner or prefix is nil, or when template does not use exactly the
// placeholders {0} and {1}.
func NewPrefixSink(inner Sink, prefix interface{}, template string) (*PrefixSink, error) {
	if inner == nil {
		return nil, &ConfigurationError{Component: prefixComponent, Reason: "no underlying sink"}
	}
	if prefix == nil {
		return nil, &ConfigurationError{Component: prefixComponent, Reason: "no prefix"}
	}

	indices, err := format.Indices(template)
	if err != nil {
		return nil, &ConfigurationError{
			Component: prefixComponent,
			Reason:    fmt.Sprintf("template %q: %v", template, err),
		}
	}
	if len(indices) != 2 || indices[0] != 0 || indices[1] != 1 {
		return nil, &ConfigurationError{
			Component: prefixComponent,
			Reason:    fmt.Sprintf("template %q must have exactly the placeholders {0} and {1}", template),
		}
	}

	return &PrefixSink{
		inner:    inner,
		prefix:   entryString(prefix),
		template: template,
	}, nil
}

// WithPrefix returns a logger writing through a PrefixSink over l.
func (l *Logger) WithPrefix(prefix interface{}, template string) (*Logger, error) {
	s, err := NewPrefixSink(l.sink, prefix, template)
	if err != nil {
		return nil, err
	}
	return New(s), nil
}

func (s *PrefixSink) Name() string { return s.inner.Name() }

// Prefix returns the prefix text.
func (s *PrefixSink) Prefix() string { return s.prefix }

func (s *PrefixSink) Enabled(level Level) bool {
	return s.inner.Enabled(level)
}

func (s *PrefixSink) Write(r Record) {
	r.Message = s.combine(r.Message)
	s.inner.Write(r)
}

func (s *PrefixSink) combine(message string) string {
	// The template was checked at construction and the arguments are both
	// strings, so this cannot fail.
	combined, err := format.Sprintf(s.template, s.prefix, message)
	if err != nil {
		return s.prefix + " " + message
	}
	return combined
}
