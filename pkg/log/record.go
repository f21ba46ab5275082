package log

import (
	"fmt"
	"time"
)

// Record is a single log entry on its way to a backend. Records are built
// per call and never retained by the facade.
type Record struct {
	Time    time.Time
	Source  string
	Level   Level
	Message string
	Err     error
}

// Text renders the message with the error appended, as every backend
// writes it:
//
//	connection lost - Exception: dial tcp: i/o timeout
//
// Errors are rendered with %+v so that errors carrying a stack trace
// (github.com/pkg/errors) print it.
func (r Record) Text() string {
	if r.Err == nil {
		return r.Message
	}
	return fmt.Sprintf("%s - Exception: %+v", r.Message, r.Err)
}

// entryString converts a log entry to its message text.
func entryString(entry interface{}) string {
	switch v := entry.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
