package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	scopeComponent     = "scope"
	defaultEnterPrefix = "Entering"
	defaultLeavePrefix = "Leaving"
)

// Scope logs a pair of Debug messages around a block of code, the second
// one carrying the time spent in the block:
//
//	defer log.MustEnter(logger, "DoWork").Leave()
//
// writes "Entering method DoWork" and, on return, "Leaving method DoWork :
// 150.2ms".
type Scope struct {
	logger      *Logger
	label       string
	message     string
	enterPrefix string
	leavePrefix string
	mirror      io.Writer

	start time.Time
	once  sync.Once

	mu      sync.Mutex
	left    bool
	elapsed time.Duration
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WithMessage adds a message to both scope lines.
func WithMessage(msg string) ScopeOption {
	return func(s *Scope) {
		s.message = msg
	}
}

// WithEnterPrefix replaces "Entering".
func WithEnterPrefix(prefix string) ScopeOption {
	return func(s *Scope) {
		if prefix != "" {
			s.enterPrefix = prefix
		}
	}
}

// WithLeavePrefix replaces "Leaving".
func WithLeavePrefix(prefix string) ScopeOption {
	return func(s *Scope) {
		if prefix != "" {
			s.leavePrefix = prefix
		}
	}
}

// WithMirror also writes both lines to w, whatever the sink's level.
func WithMirror(w io.Writer) ScopeOption {
	return func(s *Scope) {
		s.mirror = w
	}
}

// WithConsole mirrors both lines to stdout.
func WithConsole() ScopeOption {
	return WithMirror(os.Stdout)
}

// Enter starts a scope on sink and writes the enter line.
func Enter(sink Sink, label string, opts ...ScopeOption) (*Scope, error) {
	if sink == nil {
		return nil, &ConfigurationError{Component: scopeComponent, Reason: "no underlying sink"}
	}
	if label == "" {
		return nil, &ConfigurationError{Component: scopeComponent, Reason: "no label"}
	}

	logger, ok := sink.(*Logger)
	if !ok {
		logger = New(sink)
	}
	s := &Scope{
		logger:      logger,
		label:       label,
		enterPrefix: defaultEnterPrefix,
		leavePrefix: defaultLeavePrefix,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.start = time.Now()
	if s.message == "" {
		s.emit(fmt.Sprintf("%s method %s", s.enterPrefix, s.label))
	} else {
		s.emit(fmt.Sprintf("%s method %s : %s", s.enterPrefix, s.label, s.message))
	}
	return s, nil
}

// MustEnter is Enter for arguments known to be valid; it panics on a
// ConfigurationError.
func MustEnter(sink Sink, label string, opts ...ScopeOption) *Scope {
	s, err := Enter(sink, label, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Leave writes the leave line. Only the first call has an effect.
func (s *Scope) Leave() {
	s.once.Do(func() {
		elapsed := time.Since(s.start)
		s.mu.Lock()
		s.left = true
		s.elapsed = elapsed
		s.mu.Unlock()

		if s.message == "" {
			s.emit(fmt.Sprintf("%s method %s : %s", s.leavePrefix, s.label, elapsed))
		} else {
			s.emit(fmt.Sprintf("%s method %s : %s : %s", s.leavePrefix, s.label, s.message, elapsed))
		}
	})
}

// Elapsed returns the time spent in the scope: up to Leave once it has been
// called, up to now before that.
func (s *Scope) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.left {
		return s.elapsed
	}
	return time.Since(s.start)
}

func (s *Scope) emit(line string) {
	s.logger.Debug(line)
	if s.mirror != nil {
		fmt.Fprintln(s.mirror, line)
	}
}

// Run calls fn inside a scope. The leave line is written however fn ends,
// including by panic, which is then re-raised.
func Run(sink Sink, label string, fn func() error, opts ...ScopeOption) error {
	s, err := Enter(sink, label, opts...)
	if err != nil {
		return err
	}
	defer s.Leave()
	return fn()
}
