// Package trace is a small trace-source system: named sources filtered by a
// level switch fan events out to a shared set of listeners.
//
// Listeners are configured per source through a Registry. A source that
// ends up without listeners of its own can adopt those of another source,
// which is how every source ends up writing to the default source's outputs.
package trace

import (
	"fmt"
	"strings"
	"time"
)

// EventType classifies a trace event, most severe first.
type EventType int

// Event types. The values are bit flags so that a SourceLevels switch can
// be tested with a single mask.
const (
	Critical EventType = 1 << iota
	Error
	Warning
	Information
	Verbose
)

// EventTypes returns every event type, most severe first.
func EventTypes() []EventType {
	return []EventType{Critical, Error, Warning, Information, Verbose}
}

func (t EventType) String() string {
	switch t {
	case Critical:
		return "Critical"
	case Error:
		return "Error"
	case Warning:
		return "Warning"
	case Information:
		return "Information"
	case Verbose:
		return "Verbose"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// SourceLevels is the switch of a Source: the set of event types it lets
// through.
type SourceLevels int

const (
	SwitchOff         SourceLevels = 0
	SwitchCritical                 = SourceLevels(Critical)
	SwitchError                    = SwitchCritical | SourceLevels(Error)
	SwitchWarning                  = SwitchError | SourceLevels(Warning)
	SwitchInformation              = SwitchWarning | SourceLevels(Information)
	SwitchVerbose                  = SwitchInformation | SourceLevels(Verbose)
	SwitchAll         SourceLevels = -1
)

// Allows reports whether events of type t pass the switch.
func (l SourceLevels) Allows(t EventType) bool {
	return int(l)&int(t) != 0
}

func (l SourceLevels) String() string {
	switch l {
	case SwitchOff:
		return "Off"
	case SwitchCritical:
		return "Critical"
	case SwitchError:
		return "Error"
	case SwitchWarning:
		return "Warning"
	case SwitchInformation:
		return "Information"
	case SwitchVerbose:
		return "Verbose"
	case SwitchAll:
		return "All"
	default:
		return fmt.Sprintf("SourceLevels(%#x)", int(l))
	}
}

// ParseSourceLevels parses a switch name such as "warning" or "verbose".
func ParseSourceLevels(s string) (SourceLevels, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return SwitchOff, nil
	case "critical":
		return SwitchCritical, nil
	case "error":
		return SwitchError, nil
	case "warning", "warn":
		return SwitchWarning, nil
	case "information", "info":
		return SwitchInformation, nil
	case "verbose", "debug":
		return SwitchVerbose, nil
	case "all":
		return SwitchAll, nil
	}
	return SwitchOff, fmt.Errorf("unknown source level %q", s)
}

// Event is a single trace record as handed to listeners.
type Event struct {
	Time    time.Time
	Source  string
	Type    EventType
	ID      int
	Message string
}
