package trace

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ListenerSpec describes a listener to build with OpenListener.
type ListenerSpec struct {
	Name string
	// Type is one of "console", "text", "json", "zap" or "slog".
	Type string
	// Path is a file path, or "stderr"/"stdout". Empty means stderr.
	// Environment references such as ${LOG_PATH} are expanded.
	Path string
	// Encoding selects "console"/"json" for zap and "text"/"json" for slog.
	Encoding string
}

// OpenListener builds the listener described by spec, opening its output
// file if it has one. The file is closed by the listener's Close.
func OpenListener(spec ListenerSpec) (Listener, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("listener has no name")
	}

	kind := strings.ToLower(spec.Type)
	switch kind {
	case "console", "text", "json", "zap", "slog":
	default:
		return nil, fmt.Errorf("listener %q: unknown type %q", spec.Name, spec.Type)
	}

	path := spec.Path
	if kind == "console" && path == "" {
		path = "stderr"
	}
	w, closer, err := openOutput(path)
	if err != nil {
		return nil, fmt.Errorf("listener %q: %w", spec.Name, err)
	}

	switch kind {
	case "console", "text":
		l := NewWriterListener(spec.Name, w)
		l.closer = closer
		return l, nil
	case "json":
		l := NewJSONListener(spec.Name, w)
		l.closer = closer
		return l, nil
	case "zap":
		l := NewZapListener(spec.Name, w, spec.Encoding)
		l.closer = closer
		return l, nil
	default:
		opts := &slog.HandlerOptions{Level: slog.LevelDebug}
		var h slog.Handler
		if strings.EqualFold(spec.Encoding, "json") {
			h = slog.NewJSONHandler(w, opts)
		} else {
			h = slog.NewTextHandler(w, opts)
		}
		l := NewHandlerListener(spec.Name, h)
		l.closer = closer
		return l, nil
	}
}

func openOutput(path string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(path) {
	case "", "stderr":
		return os.Stderr, nil, nil
	case "stdout":
		return os.Stdout, nil, nil
	}

	path = os.ExpandEnv(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory '%s': %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file '%s': %w", path, err)
	}
	return f, f, nil
}
