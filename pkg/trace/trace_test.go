package trace_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/open-teleop/tracelog/pkg/trace"
)

type failingListener struct {
	name string
}

func (f failingListener) Name() string                 { return f.name }
func (f failingListener) TraceEvent(trace.Event) error { return errors.New(f.name + " failed") }
func (f failingListener) Flush() error                 { return nil }
func (f failingListener) Close() error                 { return nil }

func TestSourceLevels_Allows(t *testing.T) {
	expected := map[trace.SourceLevels][]trace.EventType{
		trace.SwitchOff:         {},
		trace.SwitchCritical:    {trace.Critical},
		trace.SwitchError:       {trace.Critical, trace.Error},
		trace.SwitchWarning:     {trace.Critical, trace.Error, trace.Warning},
		trace.SwitchInformation: {trace.Critical, trace.Error, trace.Warning, trace.Information},
		trace.SwitchVerbose:     trace.EventTypes(),
		trace.SwitchAll:         trace.EventTypes(),
	}

	for level, allowed := range expected {
		for _, eventType := range trace.EventTypes() {
			want := false
			for _, a := range allowed {
				if a == eventType {
					want = true
				}
			}
			require.Equalf(t, want, level.Allows(eventType), "%s allows %s", level, eventType)
		}
	}
}

func TestParseSourceLevels(t *testing.T) {
	for input, expected := range map[string]trace.SourceLevels{
		"off":         trace.SwitchOff,
		"Critical":    trace.SwitchCritical,
		"error":       trace.SwitchError,
		"WARNING":     trace.SwitchWarning,
		"information": trace.SwitchInformation,
		"info":        trace.SwitchInformation,
		"verbose":     trace.SwitchVerbose,
		" all ":       trace.SwitchAll,
	} {
		actual, err := trace.ParseSourceLevels(input)
		require.NoError(t, err, input)
		require.Equal(t, expected, actual, input)
	}

	_, err := trace.ParseSourceLevels("loud")
	require.Error(t, err)
}

func TestSource_TraceFiltersBySwitch(t *testing.T) {
	var buf bytes.Buffer
	src := trace.NewSource("Orders", trace.SwitchWarning)
	src.Listeners().Add(trace.NewWriterListener("buf", &buf))

	require.NoError(t, src.TraceEvent(trace.Information, 0, "dropped"))
	require.NoError(t, src.TraceEvent(trace.Warning, 3, "queue is filling up"))

	out := buf.String()
	require.NotContains(t, out, "dropped")
	require.Contains(t, out, "Orders Warning: 3 : queue is filling up")
	require.Equal(t, 1, strings.Count(out, "\n"))
}

func TestSource_TraceFansOutAndCombinesErrors(t *testing.T) {
	var first, second bytes.Buffer
	src := trace.NewSource("Fanout", trace.SwitchAll)
	src.Listeners().Add(trace.NewWriterListener("first", &first))
	src.Listeners().Add(failingListener{name: "broken"})
	src.Listeners().Add(trace.NewWriterListener("second", &second))

	err := src.TraceEvent(trace.Error, 0, "boom")
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken failed")

	require.Contains(t, first.String(), "boom")
	require.Contains(t, second.String(), "boom")
}

func TestSource_TraceUsesEventTimeAndSourceName(t *testing.T) {
	var buf bytes.Buffer
	src := trace.NewSource("Clock", trace.SwitchAll)
	src.Listeners().Add(trace.NewWriterListener("buf", &buf))

	at := time.Date(2024, 3, 9, 14, 5, 0, 0, time.Local)
	require.NoError(t, src.Trace(trace.Event{Time: at, Source: "ignored", Type: trace.Verbose, Message: "tick"}))
	require.Equal(t, "2024/03/09 14:05:00.000 Clock Verbose: 0 : tick\n", buf.String())
}

func TestListeners_Find(t *testing.T) {
	var c trace.Listeners
	require.Equal(t, 0, c.Len())

	c.AddRange([]trace.Listener{
		trace.NewWriterListener("a", &bytes.Buffer{}),
		trace.NewWriterListener("b", &bytes.Buffer{}),
	})
	require.Equal(t, 2, c.Len())

	l, ok := c.Find("b")
	require.True(t, ok)
	require.Equal(t, "b", l.Name())

	_, ok = c.Find("c")
	require.False(t, ok)

	snapshot := c.Snapshot()
	c.Add(trace.NewWriterListener("c", &bytes.Buffer{}))
	require.Len(t, snapshot, 2)
	require.Equal(t, 3, c.Len())
}

func TestRegistry_NewSource(t *testing.T) {
	var shared bytes.Buffer
	r := trace.NewRegistry()
	require.NoError(t, r.AddListener(trace.NewWriterListener("shared", &shared)))
	require.Error(t, r.AddListener(trace.NewWriterListener("shared", &shared)))

	require.NoError(t, r.ConfigureSource("Orders", "shared"))
	require.Error(t, r.ConfigureSource("Orders", "missing"))
	r.SetSourceLevel("Orders", trace.SwitchError)

	orders := r.NewSource("Orders", trace.SwitchVerbose)
	require.Equal(t, trace.SwitchError, orders.Switch())
	require.Equal(t, 1, orders.Listeners().Len())

	other := r.NewSource("Other", trace.SwitchVerbose)
	require.Equal(t, trace.SwitchVerbose, other.Switch())
	require.Equal(t, 0, other.Listeners().Len())

	require.NoError(t, orders.TraceEvent(trace.Critical, 0, "down"))
	require.Contains(t, shared.String(), "Orders Critical: 0 : down")
	require.NoError(t, r.Close())
}

func TestDefaultRegistry(t *testing.T) {
	r := trace.DefaultRegistry("DefaultTraceSource")
	src := r.NewSource("DefaultTraceSource", trace.SwitchVerbose)
	require.Equal(t, 1, src.Listeners().Len())

	l, ok := r.Listener("console")
	require.True(t, ok)
	require.Equal(t, "console", l.Name())
}

func TestOpenListener(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRACELOG_TEST_DIR", dir)

	tests := []struct {
		spec     trace.ListenerSpec
		file     string
		contains []string
	}{
		{
			spec:     trace.ListenerSpec{Name: "text", Type: "text", Path: "${TRACELOG_TEST_DIR}/nested/text.log"},
			file:     filepath.Join(dir, "nested", "text.log"),
			contains: []string{"Files Warning: 7 : disk almost full"},
		},
		{
			spec:     trace.ListenerSpec{Name: "json", Type: "json", Path: filepath.Join(dir, "json.log")},
			file:     filepath.Join(dir, "json.log"),
			contains: []string{`"level":"warn"`, `"source":"Files"`, `"id":7`, `"message":"disk almost full"`},
		},
		{
			spec:     trace.ListenerSpec{Name: "zap", Type: "zap", Path: filepath.Join(dir, "zap.log"), Encoding: "json"},
			file:     filepath.Join(dir, "zap.log"),
			contains: []string{`"level":"warn"`, `"source":"Files"`, `"msg":"disk almost full"`, `"id":7`},
		},
		{
			spec:     trace.ListenerSpec{Name: "slog", Type: "slog", Path: filepath.Join(dir, "slog.log"), Encoding: "json"},
			file:     filepath.Join(dir, "slog.log"),
			contains: []string{`"level":"WARN"`, `"source":"Files"`, `"msg":"disk almost full"`},
		},
	}

	for _, test := range tests {
		t.Run(test.spec.Name, func(t *testing.T) {
			l, err := trace.OpenListener(test.spec)
			require.NoError(t, err)

			src := trace.NewSource("Files", trace.SwitchAll)
			src.Listeners().Add(l)
			require.NoError(t, src.TraceEvent(trace.Warning, 7, "disk almost full"))
			require.NoError(t, l.Flush())
			require.NoError(t, l.Close())

			data, err := os.ReadFile(test.file)
			require.NoError(t, err)
			for _, c := range test.contains {
				require.Contains(t, string(data), c)
			}
		})
	}
}

func TestOpenListener_Errors(t *testing.T) {
	_, err := trace.OpenListener(trace.ListenerSpec{Type: "text"})
	require.Error(t, err)

	_, err = trace.OpenListener(trace.ListenerSpec{Name: "x", Type: "syslog"})
	require.ErrorContains(t, err, "unknown type")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	_, err = trace.OpenListener(trace.ListenerSpec{Name: "x", Type: "text", Path: filepath.Join(blocker, "sub", "x.log")})
	require.Error(t, err)
}

func TestJSONListener_CriticalIsFatalLevel(t *testing.T) {
	var buf bytes.Buffer
	l := trace.NewJSONListener("json", &buf)
	require.NoError(t, l.TraceEvent(trace.Event{Time: time.Now(), Source: "S", Type: trace.Critical, Message: "m"}))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "fatal", decoded["level"])
}

func TestHandlerListener_RespectsHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	l := trace.NewHandlerListener("slog", h)

	require.NoError(t, l.TraceEvent(trace.Event{Time: time.Now(), Source: "S", Type: trace.Verbose, Message: "quiet"}))
	require.Empty(t, buf.String())

	require.NoError(t, l.TraceEvent(trace.Event{Time: time.Now(), Source: "S", Type: trace.Critical, Message: "loud"}))
	require.Contains(t, buf.String(), "msg=loud")
	require.Contains(t, buf.String(), "level=ERROR+4")
}
