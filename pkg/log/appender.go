package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/open-teleop/tracelog/pkg/config"
)

const (
	logrusBackend = "logrus"

	// DefaultMemoryCapacity is the number of entries a MemoryAppender keeps
	// when no capacity is configured.
	DefaultMemoryCapacity = 100
)

// Appender is a named destination of a Repository. Appenders are logrus
// hooks: the repository fires every entry at the hooks whose levels match.
type Appender interface {
	logrus.Hook
	Name() string
	Close() error
}

// appenderLevels returns the logrus levels up to and including threshold.
func appenderLevels(threshold Level) []logrus.Level {
	limit := toLogrusLevel(threshold)
	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, l := range logrus.AllLevels {
		if l <= limit {
			levels = append(levels, l)
		}
	}
	return levels
}

// WriterAppender formats entries onto a writer (console or file).
type WriterAppender struct {
	name      string
	threshold Level
	formatter logrus.Formatter

	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
}

var _ Appender = (*WriterAppender)(nil)

// NewWriterAppender creates an appender writing entries up to threshold to
// w. A nil formatter means SimpleFormatter.
func NewWriterAppender(name string, w io.Writer, formatter logrus.Formatter, threshold Level) *WriterAppender {
	if formatter == nil {
		formatter = &SimpleFormatter{}
	}
	return &WriterAppender{
		name:      name,
		threshold: threshold,
		formatter: formatter,
		out:       w,
	}
}

func (a *WriterAppender) Name() string { return a.name }

// Threshold returns the most verbose level the appender writes.
func (a *WriterAppender) Threshold() Level { return a.threshold }

// Formatter returns the formatter entries are rendered with.
func (a *WriterAppender) Formatter() logrus.Formatter { return a.formatter }

func (a *WriterAppender) Levels() []logrus.Level {
	return appenderLevels(a.threshold)
}

func (a *WriterAppender) Fire(entry *logrus.Entry) error {
	b, err := a.formatter.Format(entry)
	if err != nil {
		return fmt.Errorf("appender %q: %w", a.name, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.out == nil {
		return nil
	}
	if _, err := a.out.Write(b); err != nil {
		return fmt.Errorf("appender %q: %w", a.name, err)
	}
	return nil
}

// Close closes the output file, if the appender owns one. Later entries are
// dropped.
func (a *WriterAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.out = nil
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// MemoryAppender keeps the most recent formatted entries in memory.
type MemoryAppender struct {
	name      string
	threshold Level
	formatter logrus.Formatter
	capacity  int

	mu      sync.Mutex
	entries []string
}

var _ Appender = (*MemoryAppender)(nil)

// NewMemoryAppender creates an appender keeping up to capacity entries.
func NewMemoryAppender(name string, capacity int, formatter logrus.Formatter, threshold Level) *MemoryAppender {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	if formatter == nil {
		formatter = &SimpleFormatter{}
	}
	return &MemoryAppender{
		name:      name,
		threshold: threshold,
		formatter: formatter,
		capacity:  capacity,
	}
}

func (a *MemoryAppender) Name() string { return a.name }

func (a *MemoryAppender) Levels() []logrus.Level {
	return appenderLevels(a.threshold)
}

func (a *MemoryAppender) Fire(entry *logrus.Entry) error {
	b, err := a.formatter.Format(entry)
	if err != nil {
		return fmt.Errorf("appender %q: %w", a.name, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == a.capacity {
		copy(a.entries, a.entries[1:])
		a.entries = a.entries[:len(a.entries)-1]
	}
	a.entries = append(a.entries, strings.TrimSuffix(string(b), "\n"))
	return nil
}

// Entries returns the retained entries, oldest first.
func (a *MemoryAppender) Entries() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	copy(out, a.entries)
	return out
}

// Clear drops all retained entries.
func (a *MemoryAppender) Clear() {
	a.mu.Lock()
	a.entries = nil
	a.mu.Unlock()
}

func (a *MemoryAppender) Close() error {
	a.Clear()
	return nil
}

// Repository is a named logrus configuration shared by all LogrusSinks
// created on it: one level and a set of appenders.
type Repository struct {
	name   string
	logger *logrus.Logger

	mu        sync.RWMutex
	appenders []Appender
}

// NewRepository creates a repository without appenders. Entries are only
// written once an appender is added.
func NewRepository(name string, threshold Level) *Repository {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(nopFormatter{})
	l.SetLevel(toLogrusLevel(threshold))
	return &Repository{name: name, logger: l}
}

// BasicRepository creates a repository with a single console appender on
// stdout, with everything enabled.
func BasicRepository(name string) *Repository {
	r := NewRepository(name, DebugLevel)
	// A fresh repository has no appender that could clash.
	_ = r.AddAppender(NewWriterAppender("console", os.Stdout, &SimpleFormatter{}, DebugLevel))
	return r
}

// DefaultRepositoryConfigFile is the file ConfigureRepository looks for when
// none is given: "<name>.log.yaml" in the working directory.
func DefaultRepositoryConfigFile(name string) string {
	return name + ".log.yaml"
}

// ConfigureRepository creates the repository called name. With a
// configFile, the repository is built from it and any failure is a
// BackendUnavailableError. Without one, DefaultRepositoryConfigFile is
// used if it exists, and BasicRepository otherwise.
func ConfigureRepository(name string, configFile ...string) (*Repository, error) {
	path := ""
	if len(configFile) > 0 {
		path = configFile[0]
	}
	if path == "" {
		candidate := DefaultRepositoryConfigFile(name)
		if _, err := os.Stat(candidate); err != nil {
			return BasicRepository(name), nil
		}
		path = candidate
	}

	cfg, err := config.LoadRepositoryConfig(path)
	if err != nil {
		return nil, &BackendUnavailableError{Backend: logrusBackend, Err: err}
	}
	return NewRepositoryFromConfig(name, cfg)
}

// NewRepositoryFromConfig creates a repository with the appenders of cfg.
func NewRepositoryFromConfig(name string, cfg *config.RepositoryConfig) (*Repository, error) {
	threshold, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, &BackendUnavailableError{Backend: logrusBackend, Err: err}
	}

	r := NewRepository(name, threshold)
	for _, ac := range cfg.Appenders {
		a, err := newAppender(ac)
		if err == nil {
			if err = r.AddAppender(a); err != nil {
				a.Close()
			}
		}
		if err != nil {
			r.Close()
			return nil, &BackendUnavailableError{Backend: logrusBackend, Err: err}
		}
	}
	return r, nil
}

func newAppender(ac config.AppenderConfig) (Appender, error) {
	threshold := DebugLevel
	if ac.Level != "" {
		var err error
		if threshold, err = ParseLevel(ac.Level); err != nil {
			return nil, fmt.Errorf("appender %q: %w", ac.Name, err)
		}
	}
	formatter, err := newFormatter(ac.Formatter)
	if err != nil {
		return nil, fmt.Errorf("appender %q: %w", ac.Name, err)
	}

	switch strings.ToLower(ac.Type) {
	case config.AppenderConsole:
		w := io.Writer(os.Stdout)
		if strings.EqualFold(ac.Path, "stderr") {
			w = os.Stderr
		}
		return NewWriterAppender(ac.Name, w, formatter, threshold), nil
	case config.AppenderFile:
		f, err := openLogFile(ac.Path)
		if err != nil {
			return nil, fmt.Errorf("appender %q: %w", ac.Name, err)
		}
		a := NewWriterAppender(ac.Name, f, formatter, threshold)
		a.closer = f
		return a, nil
	case config.AppenderMemory:
		return NewMemoryAppender(ac.Name, ac.Capacity, formatter, threshold), nil
	}
	return nil, fmt.Errorf("appender %q: unknown type %q", ac.Name, ac.Type)
}

// newFormatter maps a configured formatter name to a logrus formatter. Only
// the simple formatter renders "<message> - Exception: <err>"; text and json
// keep the message as is and carry the error in the "error" field.
func newFormatter(name string) (logrus.Formatter, error) {
	switch strings.ToLower(name) {
	case "", config.FormatterSimple:
		return &SimpleFormatter{}, nil
	case config.FormatterText:
		return &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}, nil
	case config.FormatterJSON:
		return &logrus.JSONFormatter{}, nil
	}
	return nil, fmt.Errorf("unknown formatter %q", name)
}

// openLogFile opens path for appending, creating its directory first.
// Environment references in path are expanded.
func openLogFile(path string) (*os.File, error) {
	path = os.ExpandEnv(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory '%s': %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file '%s': %w", path, err)
	}
	return f, nil
}

func (r *Repository) Name() string { return r.name }

// Threshold returns the most verbose level written by the repository.
func (r *Repository) Threshold() Level {
	return fromLogrusLevel(r.logger.GetLevel())
}

// SetLevel changes the level of every sink on the repository.
func (r *Repository) SetLevel(level Level) {
	r.logger.SetLevel(toLogrusLevel(level))
}

// AddAppender registers a. Appender names are unique within a repository.
func (r *Repository) AddAppender(a Appender) error {
	if a == nil {
		return &ConfigurationError{Component: "repository " + r.name, Reason: "nil appender"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.appenders {
		if existing.Name() == a.Name() {
			return &ConfigurationError{
				Component: "repository " + r.name,
				Reason:    fmt.Sprintf("duplicate appender %q", a.Name()),
			}
		}
	}
	r.appenders = append(r.appenders, a)
	r.logger.AddHook(a)
	return nil
}

// Appenders returns the registered appenders in registration order.
func (r *Repository) Appenders() []Appender {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Appender, len(r.appenders))
	copy(out, r.appenders)
	return out
}

// FindAppender returns the appender registered under name.
func (r *Repository) FindAppender(name string) (Appender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.appenders {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// FindAppender returns the first appender of r with concrete type T.
func FindAppender[T Appender](r *Repository) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.appenders {
		if t, ok := a.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// Close detaches and closes all appenders.
func (r *Repository) Close() error {
	r.mu.Lock()
	appenders := r.appenders
	r.appenders = nil
	r.mu.Unlock()

	r.logger.ReplaceHooks(make(logrus.LevelHooks))

	var err error
	for _, a := range appenders {
		err = multierr.Append(err, a.Close())
	}
	return err
}
