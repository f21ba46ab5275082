package log

import (
	"fmt"
	"strings"
)

// Level is the severity of a log entry. Lower values are more severe, and a
// threshold enables every level numerically at or below it.
type Level int

const (
	// FatalLevel is for failures the system most likely cannot survive.
	FatalLevel Level = 0
	// ErrorLevel is for unintended failures of an operation.
	ErrorLevel Level = 10
	// WarnLevel is for problems that were handled but should be looked at.
	WarnLevel Level = 20
	// InfoLevel is for noteworthy events in normal operation.
	InfoLevel Level = 30
	// DebugLevel is for low-level developer diagnostics.
	DebugLevel Level = 100
)

// Levels returns the defined levels, most severe first.
func Levels() []Level {
	return []Level{FatalLevel, ErrorLevel, WarnLevel, InfoLevel, DebugLevel}
}

// Enables reports whether a sink whose threshold is l writes entries of
// the candidate level.
func (l Level) Enables(candidate Level) bool {
	return candidate <= l
}

func (l Level) String() string {
	switch l {
	case FatalLevel:
		return "FATAL"
	case ErrorLevel:
		return "ERROR"
	case WarnLevel:
		return "WARN"
	case InfoLevel:
		return "INFO"
	case DebugLevel:
		return "DEBUG"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel parses a level name, ignoring case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fatal":
		return FatalLevel, nil
	case "error":
		return ErrorLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "info":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	}
	return DebugLevel, fmt.Errorf("unknown log level %q", s)
}
