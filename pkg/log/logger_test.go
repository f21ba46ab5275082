package log_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/tracelog/pkg/log"
)

// recordingSink keeps every record it is handed.
type recordingSink struct {
	name      string
	threshold log.Level

	mu      sync.Mutex
	records []log.Record
}

func newRecordingSink(name string, threshold log.Level) *recordingSink {
	return &recordingSink{name: name, threshold: threshold}
}

func (s *recordingSink) Name() string                 { return s.name }
func (s *recordingSink) Enabled(level log.Level) bool { return s.threshold.Enables(level) }

func (s *recordingSink) Write(r log.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

func (s *recordingSink) Records() []log.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]log.Record(nil), s.records...)
}

func (s *recordingSink) Messages() []string {
	var msgs []string
	for _, r := range s.Records() {
		msgs = append(msgs, r.Message)
	}
	return msgs
}

// countingStringer counts how often it is converted to text.
type countingStringer struct {
	calls int
}

func (c *countingStringer) String() string {
	c.calls++
	return "expensive"
}

func TestLevel_Enables(t *testing.T) {
	levels := log.Levels()
	for i, threshold := range levels {
		for j, candidate := range levels {
			want := j <= i
			assert.Equalf(t, want, threshold.Enables(candidate),
				"threshold %s, candidate %s", threshold, candidate)
		}
	}
}

func TestLevel_OrderAndValues(t *testing.T) {
	require.Equal(t, []log.Level{0, 10, 20, 30, 100}, log.Levels())
	require.Equal(t, "WARN", log.WarnLevel.String())
	require.Equal(t, "LEVEL(42)", log.Level(42).String())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"fatal", log.FatalLevel},
		{"ERROR", log.ErrorLevel},
		{"warn", log.WarnLevel},
		{"Warning", log.WarnLevel},
		{" info ", log.InfoLevel},
		{"debug", log.DebugLevel},
	}
	for _, tt := range tests {
		got, err := log.ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}

	_, err := log.ParseLevel("verbose")
	require.Error(t, err)
}

func TestLogger_EnabledChecksAgreeWithWrites(t *testing.T) {
	type op struct {
		level   log.Level
		enabled func(*log.Logger) bool
		plain   func(*log.Logger)
		withErr func(*log.Logger)
		format  func(*log.Logger)
	}
	boom := errors.New("boom")
	ops := []op{
		{log.FatalLevel, (*log.Logger).IsFatalEnabled,
			func(l *log.Logger) { l.Fatal("m") }, func(l *log.Logger) { l.FatalErr("m", boom) }, func(l *log.Logger) { l.FatalFormat("{0}", "m") }},
		{log.ErrorLevel, (*log.Logger).IsErrorEnabled,
			func(l *log.Logger) { l.Error("m") }, func(l *log.Logger) { l.ErrorErr("m", boom) }, func(l *log.Logger) { l.ErrorFormat("{0}", "m") }},
		{log.WarnLevel, (*log.Logger).IsWarnEnabled,
			func(l *log.Logger) { l.Warn("m") }, func(l *log.Logger) { l.WarnErr("m", boom) }, func(l *log.Logger) { l.WarnFormat("{0}", "m") }},
		{log.InfoLevel, (*log.Logger).IsInfoEnabled,
			func(l *log.Logger) { l.Info("m") }, func(l *log.Logger) { l.InfoErr("m", boom) }, func(l *log.Logger) { l.InfoFormat("{0}", "m") }},
		{log.DebugLevel, (*log.Logger).IsDebugEnabled,
			func(l *log.Logger) { l.Debug("m") }, func(l *log.Logger) { l.DebugErr("m", boom) }, func(l *log.Logger) { l.DebugFormat("{0}", "m") }},
	}

	for _, threshold := range log.Levels() {
		for _, o := range ops {
			t.Run(fmt.Sprintf("%s/%s", threshold, o.level), func(t *testing.T) {
				sink := newRecordingSink("test", threshold)
				logger := log.New(sink)

				enabled := o.enabled(logger)
				require.Equal(t, threshold.Enables(o.level), enabled)

				o.plain(logger)
				o.withErr(logger)
				o.format(logger)

				records := sink.Records()
				if !enabled {
					require.Empty(t, records)
					return
				}
				require.Len(t, records, 3)
				for _, r := range records {
					require.Equal(t, o.level, r.Level)
					require.Equal(t, "m", r.Message)
					require.Equal(t, "test", r.Source)
				}
				require.Nil(t, records[0].Err)
				require.Equal(t, boom, records[1].Err)
				require.Nil(t, records[2].Err)
			})
		}
	}
}

func TestLogger_DisabledLevelSkipsConversion(t *testing.T) {
	sink := newRecordingSink("test", log.WarnLevel)
	logger := log.New(sink)
	entry := &countingStringer{}

	logger.Debug(entry)
	logger.InfoFormat("value {0}", entry)
	require.Zero(t, entry.calls)
	require.Empty(t, sink.Records())

	logger.Warn(entry)
	require.Equal(t, 1, entry.calls)
	require.Equal(t, []string{"expensive"}, sink.Messages())
}

func TestLogger_EntryConversion(t *testing.T) {
	sink := newRecordingSink("test", log.DebugLevel)
	logger := log.New(sink)

	logger.Info(nil)
	logger.Info(17)
	logger.Info(errors.New("as entry"))

	require.Equal(t, []string{"", "17", "as entry"}, sink.Messages())
}

func TestLogger_FatalDoesNotExit(t *testing.T) {
	sink := newRecordingSink("test", log.FatalLevel)
	logger := log.New(sink)

	logger.Fatal("first")
	logger.FatalErr("second", errors.New("cause"))

	require.Equal(t, []string{"first", "second"}, sink.Messages())
}

func TestLogger_FormatDegradesOnBadTemplate(t *testing.T) {
	sink := newRecordingSink("test", log.DebugLevel)
	logger := log.New(sink)

	logger.InfoFormat("took {0} ms for {1}", 12)
	logger.InfoFormat("took {0} ms", 12, "unused")

	require.Equal(t, []string{
		"took {0} ms for {1} [format error: index 1 out of range for 1 argument(s)]",
		"took 12 ms",
	}, sink.Messages())
}

func TestLogger_FormatDegradesOnOversizedAlignment(t *testing.T) {
	sink := newRecordingSink("test", log.DebugLevel)
	logger := log.New(sink)

	require.NotPanics(t, func() {
		logger.InfoFormat("{0,9223372036854775807}", "x")
		logger.WarnFormat("[{0,-2000000}]", "x")
	})

	require.Equal(t, []string{
		"{0,9223372036854775807} [format error: alignment out of range]",
		"[{0,-2000000}] [format error: alignment out of range]",
	}, sink.Messages())
}

func TestFormat_ReportsFormattingError(t *testing.T) {
	msg, err := log.Format("{0}-{1}", "a", "b")
	require.NoError(t, err)
	require.Equal(t, "a-b", msg)

	_, err = log.Format("{0", "a")
	require.Error(t, err)
	require.True(t, log.IsFormatting(err))

	var fe *log.FormattingError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "{0", fe.Template)
}

func TestRecord_Text(t *testing.T) {
	r := log.Record{Message: "connection lost"}
	require.Equal(t, "connection lost", r.Text())

	r.Err = errors.New("dial tcp: i/o timeout")
	require.Equal(t, "connection lost - Exception: dial tcp: i/o timeout", r.Text())
}

func TestErrorPredicates(t *testing.T) {
	cfgErr := fmt.Errorf("wrapped: %w", &log.ConfigurationError{Component: "scope", Reason: "no label"})
	require.True(t, log.IsConfiguration(cfgErr))
	require.False(t, log.IsBackendUnavailable(cfgErr))
	require.Equal(t, "wrapped: scope: invalid configuration: no label", cfgErr.Error())

	inner := errors.New("no such file")
	unavailable := &log.BackendUnavailableError{Backend: "logrus", Err: inner}
	require.True(t, log.IsBackendUnavailable(unavailable))
	require.ErrorIs(t, unavailable, inner)
}
