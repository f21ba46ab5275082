package services

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/open-teleop/tracelog/pkg/config"
	customlog "github.com/open-teleop/tracelog/pkg/log"
	"github.com/open-teleop/tracelog/pkg/trace"
)

// ErrNoRepository is returned for appender queries when the logrus backend
// is not in use.
var ErrNoRepository = errors.New("logging backend has no appender repository")

// LoggerInfo describes the effective state of a named logger.
type LoggerInfo struct {
	Name      string          `json:"name"`
	Backend   string          `json:"backend"`
	Threshold string          `json:"threshold"`
	Enabled   map[string]bool `json:"enabled"`
}

// LoggingService builds the logging stack described by the configuration
// and owns its resources.
type LoggingService interface {
	Manager() *customlog.Manager
	Config() config.LoggingConfig
	Describe(name string) LoggerInfo
	// RecentEntries returns what a memory appender of the logrus repository
	// holds. An empty name selects the first memory appender.
	RecentEntries(appender string) ([]string, error)
	Close() error
}

// loggingService implements the LoggingService interface.
type loggingService struct {
	cfg      config.LoggingConfig
	manager  *customlog.Manager
	registry *trace.Registry
	repo     *customlog.Repository
	output   io.Closer
	logger   *customlog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewLoggingService builds the trace registry, the logger manager and the
// strategy of the configured backend.
func NewLoggingService(cfg config.LoggingConfig) (LoggingService, error) {
	level, err := customlog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, &customlog.ConfigurationError{Component: "logging service", Reason: err.Error()}
	}
	if cfg.DefaultSource == "" {
		cfg.DefaultSource = customlog.DefaultSourceName
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	s := &loggingService{
		cfg:      cfg,
		registry: registry,
		manager: customlog.NewManager(
			customlog.WithLevel(level),
			customlog.WithDefaultSourceName(cfg.DefaultSource),
			customlog.WithRegistry(registry),
		),
	}

	switch strings.ToLower(cfg.Backend) {
	case "", config.BackendTrace:
	case config.BackendWriter:
		opts, closer, err := writerOptions(cfg.Writer)
		if err != nil {
			registry.Close()
			return nil, &customlog.BackendUnavailableError{Backend: config.BackendWriter, Err: err}
		}
		s.output = closer
		s.manager.SetFactory(customlog.WriterFactory(level, opts...))
	case config.BackendLogrus:
		repo, err := customlog.ConfigureRepository(cfg.Logrus.Repository, cfg.Logrus.ConfigFile)
		if err != nil {
			registry.Close()
			return nil, errors.Wrapf(err, "configuring repository '%s'", cfg.Logrus.Repository)
		}
		s.repo = repo
		s.manager.SetFactory(customlog.LogrusFactory(repo))
	default:
		registry.Close()
		return nil, &customlog.ConfigurationError{
			Component: "logging service",
			Reason:    "unknown backend " + cfg.Backend,
		}
	}

	s.logger = customlog.LoggerFor[loggingService](s.manager)
	s.logger.InfoFormat("Logging service initialized: backend {0}, level {1}, default source {2}",
		s.backend(), level, cfg.DefaultSource)
	return s, nil
}

// buildRegistry opens the configured listeners. Without any, the default
// source gets a console listener.
func buildRegistry(cfg config.LoggingConfig) (*trace.Registry, error) {
	if len(cfg.Trace.Listeners) == 0 && len(cfg.Trace.Sources) == 0 {
		return trace.DefaultRegistry(cfg.DefaultSource), nil
	}

	registry := trace.NewRegistry()
	for _, lc := range cfg.Trace.Listeners {
		l, err := trace.OpenListener(lc.Spec())
		if err == nil {
			if err = registry.AddListener(l); err != nil {
				l.Close()
			}
		}
		if err != nil {
			registry.Close()
			return nil, &customlog.BackendUnavailableError{Backend: config.BackendTrace, Err: err}
		}
	}

	for _, sc := range cfg.Trace.Sources {
		if err := registry.ConfigureSource(sc.Name, sc.Listeners...); err != nil {
			registry.Close()
			return nil, &customlog.ConfigurationError{Component: "trace source " + sc.Name, Reason: err.Error()}
		}
		if sc.Level == "" {
			continue
		}
		levels, err := trace.ParseSourceLevels(sc.Level)
		if err != nil {
			registry.Close()
			return nil, &customlog.ConfigurationError{Component: "trace source " + sc.Name, Reason: err.Error()}
		}
		registry.SetSourceLevel(sc.Name, levels)
	}
	return registry, nil
}

func writerOptions(wc config.WriterConfig) ([]customlog.WriterOption, io.Closer, error) {
	var opts []customlog.WriterOption
	if wc.TimeFormat != "" {
		opts = append(opts, customlog.WithTimeFormat(wc.TimeFormat))
	}

	switch strings.ToLower(wc.Output) {
	case "", "stderr":
		return append(opts, customlog.WithWriter(os.Stderr)), nil, nil
	case "stdout":
		return append(opts, customlog.WithWriter(os.Stdout)), nil, nil
	}

	path := os.ExpandEnv(wc.Output)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create log directory '%s'", filepath.Dir(path))
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open log file '%s'", path)
	}
	return append(opts, customlog.WithWriter(f)), f, nil
}

func (s *loggingService) backend() string {
	if s.cfg.Backend == "" {
		return config.BackendTrace
	}
	return strings.ToLower(s.cfg.Backend)
}

func (s *loggingService) Manager() *customlog.Manager {
	return s.manager
}

func (s *loggingService) Config() config.LoggingConfig {
	return s.cfg
}

// Describe looks the logger up through the manager and reports which levels
// it writes.
func (s *loggingService) Describe(name string) LoggerInfo {
	logger := s.manager.GetLogger(name)
	info := LoggerInfo{
		Name:      name,
		Backend:   s.backend(),
		Threshold: "OFF",
		Enabled:   make(map[string]bool, len(customlog.Levels())),
	}
	for _, level := range customlog.Levels() {
		enabled := logger.Enabled(level)
		info.Enabled[strings.ToLower(level.String())] = enabled
		if enabled {
			info.Threshold = level.String()
		}
	}
	return info
}

func (s *loggingService) RecentEntries(appender string) ([]string, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}

	if appender == "" {
		mem, ok := customlog.FindAppender[*customlog.MemoryAppender](s.repo)
		if !ok {
			return nil, errors.Errorf("repository '%s' has no memory appender", s.repo.Name())
		}
		return mem.Entries(), nil
	}

	a, ok := s.repo.FindAppender(appender)
	if !ok {
		return nil, errors.Errorf("repository '%s' has no appender '%s'", s.repo.Name(), appender)
	}
	mem, ok := a.(*customlog.MemoryAppender)
	if !ok {
		return nil, errors.Errorf("appender '%s' does not keep entries", appender)
	}
	return mem.Entries(), nil
}

// Close releases listeners, appenders and the writer output. It is safe to
// call more than once.
func (s *loggingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Debug("Closing logging service")

	err := s.registry.Close()
	if s.repo != nil {
		err = multierr.Append(err, s.repo.Close())
	}
	if s.output != nil {
		err = multierr.Append(err, s.output.Close())
	}
	return err
}
