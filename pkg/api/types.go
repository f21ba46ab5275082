package api

// --- Data Structures for the Logger API ---

// EntryRequest is the body of POST /api/v1/loggers/:name/entries.
// When Args is set, Message is a composite format template such as
// "order {0} took {1} ms".
type EntryRequest struct {
	Level   string        `json:"level"`
	Message string        `json:"message"`
	Error   string        `json:"error,omitempty"`
	Args    []interface{} `json:"args,omitempty"`
}

// EntryResponse reports whether the entry passed the logger's level.
type EntryResponse struct {
	Logger  string `json:"logger"`
	Level   string `json:"level"`
	Written bool   `json:"written"`
}

// EntriesResponse lists what a memory appender holds.
type EntriesResponse struct {
	Appender string   `json:"appender,omitempty"`
	Entries  []string `json:"entries"`
}
