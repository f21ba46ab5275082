package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Appender types and formatters accepted in a repository file.
const (
	AppenderConsole = "console"
	AppenderFile    = "file"
	AppenderMemory  = "memory"

	FormatterSimple = "simple"
	FormatterText   = "text"
	FormatterJSON   = "json"
)

// RepositoryConfig holds the appenders of a logrus repository, loaded from
// a file such as tracelogd.log.yaml:
//
//	level: debug
//	appenders:
//	  - name: console
//	    type: console
//	  - name: audit
//	    type: file
//	    path: ${LOG_DIR}/audit.log
//	    formatter: json
//	    level: warn
type RepositoryConfig struct {
	Level     string           `yaml:"level" json:"level"`
	Appenders []AppenderConfig `yaml:"appenders" json:"appenders"`
}

// AppenderConfig describes one appender of a repository
type AppenderConfig struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
	// Path is the output file of a file appender, or "stdout"/"stderr" for
	// a console appender (stdout when empty).
	Path      string `yaml:"path,omitempty" json:"path,omitempty"`
	Formatter string `yaml:"formatter,omitempty" json:"formatter,omitempty"`
	// Level limits this appender below the repository level. Empty means
	// no extra limit.
	Level string `yaml:"level,omitempty" json:"level,omitempty"`
	// Capacity is the number of entries a memory appender keeps.
	Capacity int `yaml:"capacity,omitempty" json:"capacity,omitempty"`
}

// LoadRepositoryConfig loads a repository configuration from path
func LoadRepositoryConfig(path string) (*RepositoryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading repository config file '%s'", path)
	}

	var repoCfg RepositoryConfig
	if err := yaml.Unmarshal(data, &repoCfg); err != nil {
		return nil, errors.Wrapf(err, "error parsing repository config file '%s'", path)
	}
	if repoCfg.Level == "" {
		repoCfg.Level = "debug"
	}

	if err := repoCfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid repository config file '%s'", path)
	}
	return &repoCfg, nil
}

// Validate checks levels, appender names and types.
func (c *RepositoryConfig) Validate() error {
	if !ValidLevel(c.Level) {
		return errors.Errorf("unknown repository level %q", c.Level)
	}
	if len(c.Appenders) == 0 {
		return errors.New("missing required field in repository config: appenders")
	}

	seen := make(map[string]bool, len(c.Appenders))
	for i, a := range c.Appenders {
		if a.Name == "" {
			return errors.Errorf("missing required field in repository config: appenders[%d].name", i)
		}
		if seen[a.Name] {
			return errors.Errorf("duplicate appender %q", a.Name)
		}
		seen[a.Name] = true

		switch strings.ToLower(a.Type) {
		case AppenderConsole, AppenderMemory:
		case AppenderFile:
			if a.Path == "" {
				return errors.Errorf("missing required field in repository config: appenders[%d].path", i)
			}
		default:
			return errors.Errorf("appender %q: unknown type %q", a.Name, a.Type)
		}

		switch strings.ToLower(a.Formatter) {
		case "", FormatterSimple, FormatterText, FormatterJSON:
		default:
			return errors.Errorf("appender %q: unknown formatter %q", a.Name, a.Formatter)
		}

		if a.Capacity < 0 {
			return errors.Errorf("appender %q: negative capacity %d", a.Name, a.Capacity)
		}
		if a.Level != "" && !ValidLevel(a.Level) {
			return errors.Errorf("appender %q: unknown level %q", a.Name, a.Level)
		}
	}
	return nil
}
