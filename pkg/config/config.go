package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/open-teleop/tracelog/pkg/trace"
)

// Backend names accepted in logging.backend.
const (
	BackendTrace  = "trace"
	BackendWriter = "writer"
	BackendLogrus = "logrus"
)

const (
	DefaultHTTPPort      = 8080
	DefaultLevel         = "info"
	DefaultSourceName    = "DefaultTraceSource"
	DefaultRepository    = "tracelogd"
	DefaultWriterOutput  = "stderr"
	defaultConfigVersion = "1.0"
)

// Config represents the daemon configuration
type Config struct {
	Version string        `yaml:"version" json:"version"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPPort       int `yaml:"http_port" json:"http_port"`
	RequestTimeout int `yaml:"request_timeout" json:"request_timeout"`
}

// LoggingConfig selects the backend behind the logger factory and holds the
// settings of each backend.
type LoggingConfig struct {
	Backend       string       `yaml:"backend" json:"backend"`
	Level         string       `yaml:"level" json:"level"`
	DefaultSource string       `yaml:"default_source" json:"default_source"`
	Writer        WriterConfig `yaml:"writer" json:"writer"`
	Trace         TraceConfig  `yaml:"trace" json:"trace"`
	Logrus        LogrusConfig `yaml:"logrus" json:"logrus"`
}

// WriterConfig holds settings for the plain writer backend
type WriterConfig struct {
	// Output is "stderr", "stdout" or a file path.
	Output     string `yaml:"output" json:"output"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// TraceConfig declares the shared trace listeners and which sources use them.
type TraceConfig struct {
	Listeners []ListenerConfig `yaml:"listeners" json:"listeners"`
	Sources   []SourceConfig   `yaml:"sources" json:"sources"`
}

// ListenerConfig describes one shared trace listener
type ListenerConfig struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
	Encoding string `yaml:"encoding,omitempty" json:"encoding,omitempty"`
}

// Spec converts the entry to the form trace.OpenListener takes.
func (l ListenerConfig) Spec() trace.ListenerSpec {
	return trace.ListenerSpec{
		Name:     l.Name,
		Type:     l.Type,
		Path:     l.Path,
		Encoding: l.Encoding,
	}
}

// SourceConfig overrides the level of a named trace source and lists the
// listeners it writes to.
type SourceConfig struct {
	Name      string   `yaml:"name" json:"name"`
	Level     string   `yaml:"level,omitempty" json:"level,omitempty"`
	Listeners []string `yaml:"listeners" json:"listeners"`
}

// LogrusConfig points at the appender configuration of the logrus backend
type LogrusConfig struct {
	Repository string `yaml:"repository" json:"repository"`
	ConfigFile string `yaml:"config_file,omitempty" json:"config_file,omitempty"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Version: defaultConfigVersion,
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
		},
		Logging: LoggingConfig{
			Backend:       BackendTrace,
			Level:         DefaultLevel,
			DefaultSource: DefaultSourceName,
			Writer: WriterConfig{
				Output: DefaultWriterOutput,
			},
			Logrus: LogrusConfig{
				Repository: DefaultRepository,
			},
		},
	}
}

// LoadConfig loads configuration from the specified file path. Fields
// missing from the file keep their Default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file '%s'", path)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "error parsing config file '%s'", path)
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file '%s'", path)
	}
	return config, nil
}

// Validate checks the fields the logging service depends on.
func (c *Config) Validate() error {
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		return errors.Errorf("server.http_port %d out of range", c.Server.HTTPPort)
	}

	lc := c.Logging
	switch strings.ToLower(lc.Backend) {
	case BackendTrace, BackendWriter, BackendLogrus:
	default:
		return errors.Errorf("unknown logging.backend %q", lc.Backend)
	}
	if !ValidLevel(lc.Level) {
		return errors.Errorf("unknown logging.level %q", lc.Level)
	}
	if lc.DefaultSource == "" {
		return errors.New("missing required field in config: logging.default_source")
	}
	if strings.EqualFold(lc.Backend, BackendLogrus) && lc.Logrus.Repository == "" {
		return errors.New("missing required field in config: logging.logrus.repository")
	}

	seen := make(map[string]bool, len(lc.Trace.Listeners))
	for i, l := range lc.Trace.Listeners {
		if l.Name == "" {
			return errors.Errorf("missing required field in config: logging.trace.listeners[%d].name", i)
		}
		if seen[l.Name] {
			return errors.Errorf("duplicate trace listener %q", l.Name)
		}
		seen[l.Name] = true
	}
	for i, s := range lc.Trace.Sources {
		if s.Name == "" {
			return errors.Errorf("missing required field in config: logging.trace.sources[%d].name", i)
		}
		if s.Level != "" {
			if _, err := trace.ParseSourceLevels(s.Level); err != nil {
				return errors.Wrapf(err, "trace source %q", s.Name)
			}
		}
		for _, name := range s.Listeners {
			if !seen[name] {
				return errors.Errorf("trace source %q references unknown listener %q", s.Name, name)
			}
		}
	}
	return nil
}

// ValidLevel reports whether s names a log level.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "fatal", "error", "warn", "warning", "info", "debug":
		return true
	}
	return false
}
