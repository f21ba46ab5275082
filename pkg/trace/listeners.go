package trace

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultTimeFormat is the timestamp layout of WriterListener lines.
const DefaultTimeFormat = "2006/01/02 15:04:05.000"

var (
	_ Listener = (*WriterListener)(nil)
	_ Listener = (*JSONListener)(nil)
	_ Listener = (*ZapListener)(nil)
	_ Listener = (*HandlerListener)(nil)
)

// WriterListener writes one text line per event:
//
//	2024/03/09 14:05:00.000 Orders Warning: 0 : queue is filling up
type WriterListener struct {
	name       string
	timeFormat string

	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// NewWriterListener creates a text listener writing to w.
func NewWriterListener(name string, w io.Writer) *WriterListener {
	return &WriterListener{name: name, w: w, timeFormat: DefaultTimeFormat}
}

// NewConsoleListener creates a text listener on stderr, or stdout when
// useStdout is set.
func NewConsoleListener(name string, useStdout bool) *WriterListener {
	if useStdout {
		return NewWriterListener(name, os.Stdout)
	}
	return NewWriterListener(name, os.Stderr)
}

func (l *WriterListener) Name() string { return l.name }

func (l *WriterListener) TraceEvent(e Event) error {
	var b strings.Builder
	b.Grow(len(e.Message) + 64)
	b.WriteString(e.Time.Format(l.timeFormat))
	b.WriteByte(' ')
	b.WriteString(e.Source)
	b.WriteByte(' ')
	b.WriteString(e.Type.String())
	fmt.Fprintf(&b, ": %d : ", e.ID)
	b.WriteString(e.Message)
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := io.WriteString(l.w, b.String())
	return err
}

// Flush syncs the output file. Console outputs are left alone: fsync on a
// terminal or pipe fails with EINVAL.
func (l *WriterListener) Flush() error {
	if l.closer == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.w.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}

func (l *WriterListener) Close() error {
	if l.closer == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closer.Close()
}

// JSONListener writes events as JSON lines through zerolog.
type JSONListener struct {
	name   string
	logger zerolog.Logger
	closer io.Closer
}

// NewJSONListener creates a zerolog-backed listener writing to w.
func NewJSONListener(name string, w io.Writer) *JSONListener {
	return &JSONListener{
		name:   name,
		logger: zerolog.New(zerolog.SyncWriter(w)),
	}
}

func (l *JSONListener) Name() string { return l.name }

// TraceEvent writes e. zerolog reports write failures through
// zerolog.ErrorHandler, so this never returns an error.
func (l *JSONListener) TraceEvent(e Event) error {
	l.logger.WithLevel(zerologLevel(e.Type)).
		Time(zerolog.TimestampFieldName, e.Time).
		Str("source", e.Source).
		Int("id", e.ID).
		Msg(e.Message)
	return nil
}

func (l *JSONListener) Flush() error { return nil }

func (l *JSONListener) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// WithLevel never exits or panics, whatever the level.
func zerologLevel(t EventType) zerolog.Level {
	switch t {
	case Critical:
		return zerolog.FatalLevel
	case Error:
		return zerolog.ErrorLevel
	case Warning:
		return zerolog.WarnLevel
	case Information:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// ZapListener writes events through a zap core, in console or json
// encoding.
type ZapListener struct {
	name   string
	core   zapcore.Core
	closer io.Closer
}

// NewZapListener creates a zap-backed listener writing to w. Encoding is
// "json" or "console" (the default).
func NewZapListener(name string, w io.Writer, encoding string) *ZapListener {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.NameKey = "source"

	var encoder zapcore.Encoder
	if strings.EqualFold(encoding, "json") {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	return &ZapListener{
		name: name,
		core: zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), zapcore.DebugLevel),
	}
}

func (l *ZapListener) Name() string { return l.name }

// TraceEvent writes straight to the core. Going through the core rather
// than a zap.Logger keeps fatal entries from terminating the process.
func (l *ZapListener) TraceEvent(e Event) error {
	entry := zapcore.Entry{
		Level:      zapLevel(e.Type),
		Time:       e.Time,
		LoggerName: e.Source,
		Message:    e.Message,
	}
	return l.core.Write(entry, []zapcore.Field{zap.Int("id", e.ID)})
}

func (l *ZapListener) Flush() error {
	if l.closer == nil {
		return nil
	}
	return l.core.Sync()
}

func (l *ZapListener) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func zapLevel(t EventType) zapcore.Level {
	switch t {
	case Critical:
		return zapcore.FatalLevel
	case Error:
		return zapcore.ErrorLevel
	case Warning:
		return zapcore.WarnLevel
	case Information:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// LevelCritical is the slog level used for Critical events.
const LevelCritical = slog.LevelError + 4

// HandlerListener forwards events to a slog.Handler.
type HandlerListener struct {
	name    string
	handler slog.Handler
	closer  io.Closer
}

// NewHandlerListener wraps h.
func NewHandlerListener(name string, h slog.Handler) *HandlerListener {
	return &HandlerListener{name: name, handler: h}
}

func (l *HandlerListener) Name() string { return l.name }

func (l *HandlerListener) TraceEvent(e Event) error {
	ctx := context.Background()
	level := slogLevel(e.Type)
	if !l.handler.Enabled(ctx, level) {
		return nil
	}
	r := slog.NewRecord(e.Time, level, e.Message, 0)
	r.AddAttrs(slog.String("source", e.Source), slog.Int("id", e.ID))
	return l.handler.Handle(ctx, r)
}

func (l *HandlerListener) Flush() error { return nil }

func (l *HandlerListener) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func slogLevel(t EventType) slog.Level {
	switch t {
	case Critical:
		return LevelCritical
	case Error:
		return slog.LevelError
	case Warning:
		return slog.LevelWarn
	case Information:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
