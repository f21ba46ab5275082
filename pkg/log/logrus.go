package log

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoggerField is the logrus field carrying the logger name.
const LoggerField = "logger"

var _ Sink = (*LogrusSink)(nil)

// LogrusSink writes records through a Repository. All sinks of one
// repository share its level and appenders.
type LogrusSink struct {
	name  string
	repo  *Repository
	entry *logrus.Entry
}

// NewLogrusSink returns the sink for the named logger in repo.
func NewLogrusSink(repo *Repository, name string) *LogrusSink {
	return &LogrusSink{
		name:  name,
		repo:  repo,
		entry: repo.logger.WithField(LoggerField, name),
	}
}

func (s *LogrusSink) Name() string { return s.name }

// Repository returns the repository the sink writes to.
func (s *LogrusSink) Repository() *Repository { return s.repo }

func (s *LogrusSink) Enabled(level Level) bool {
	return s.repo.logger.IsLevelEnabled(toLogrusLevel(level))
}

func (s *LogrusSink) Write(r Record) {
	entry := s.entry.WithTime(r.Time)
	if r.Err != nil {
		entry = entry.WithError(r.Err)
	}
	// Entry.Log only panics for PanicLevel, which is never produced here, so
	// FatalLevel records do not exit.
	entry.Log(toLogrusLevel(r.Level), r.Message)
}

// LogrusFactory returns a strategy building LogrusSinks on repo.
func LogrusFactory(repo *Repository) FactoryFunc {
	return func(name string) Sink {
		return NewLogrusSink(repo, name)
	}
}

func toLogrusLevel(level Level) logrus.Level {
	switch {
	case level <= FatalLevel:
		return logrus.FatalLevel
	case level <= ErrorLevel:
		return logrus.ErrorLevel
	case level <= WarnLevel:
		return logrus.WarnLevel
	case level <= InfoLevel:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

func fromLogrusLevel(level logrus.Level) Level {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return FatalLevel
	case logrus.ErrorLevel:
		return ErrorLevel
	case logrus.WarnLevel:
		return WarnLevel
	case logrus.InfoLevel:
		return InfoLevel
	default:
		return DebugLevel
	}
}

// --- Custom Formatter Implementation ---

// SimpleFormatter formats logs in a concise way, similar to standard log
// Example: 2025/04/06 17:30:00.000000 [INF] (Orders) order accepted - Exception: timeout
type SimpleFormatter struct {
	TimestampFormat string
}

// Format implements the logrus.Formatter interface
func (f *SimpleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = "2006/01/02 15:04:05.000000" // Default format with microseconds
	}

	b.WriteString(entry.Time.Format(timestampFormat))
	b.WriteString(" ")

	// Level (e.g., [INF], [WAR])
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 3 {
		level = level[:3]
	}
	fmt.Fprintf(b, "[%s] ", level)

	if name, ok := entry.Data[LoggerField]; ok {
		fmt.Fprintf(b, "(%v) ", name)
	}

	b.WriteString(entry.Message)

	if err, ok := entry.Data[logrus.ErrorKey]; ok {
		fmt.Fprintf(b, " - Exception: %+v", err)
	}

	// Any other fields, sorted for consistent output
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == LoggerField || k == logrus.ErrorKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// nopFormatter serializes nothing. Repository loggers write only through
// their appenders.
type nopFormatter struct{}

func (nopFormatter) Format(*logrus.Entry) ([]byte, error) { return nil, nil }
