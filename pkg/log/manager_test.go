package log_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-teleop/tracelog/pkg/log"
	"github.com/open-teleop/tracelog/pkg/trace"
)

type orderService struct{}

func newBufferedManager(t *testing.T, opts ...log.ManagerOption) (*log.Manager, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	registry := trace.NewRegistry()
	require.NoError(t, registry.AddListener(trace.NewWriterListener("buffer", &buf)))
	require.NoError(t, registry.ConfigureSource(log.DefaultSourceName, "buffer"))

	m := log.NewManager(append([]log.ManagerOption{log.WithRegistry(registry)}, opts...)...)
	return m, &buf
}

func TestManager_DefaultStrategyAdoptsDefaultListeners(t *testing.T) {
	m, buf := newBufferedManager(t)

	logger := m.GetLogger("Orders")
	require.IsType(t, &log.TraceSink{}, logger.Sink())
	require.Equal(t, "Orders", logger.Name())

	logger.Info("order accepted")
	require.Contains(t, buf.String(), "Orders Information: 0 : order accepted")
}

func TestManager_LogsEveryLookup(t *testing.T) {
	m, buf := newBufferedManager(t)

	m.GetLogger("Orders")
	m.GetLogger("Billing")

	require.Contains(t, buf.String(), "LogManager Information: 0 : Getting trace log: Orders")
	require.Contains(t, buf.String(), "LogManager Information: 0 : Getting trace log: Billing")
}

func TestManager_LookupLoggedWithReplacedStrategy(t *testing.T) {
	m, buf := newBufferedManager(t)

	var out bytes.Buffer
	m.SetFactory(log.WriterFactory(log.DebugLevel, log.WithWriter(&out)))
	logger := m.GetLogger("Orders")
	logger.Info("through writer")

	require.Contains(t, buf.String(), "Getting trace log: Orders")
	require.NotContains(t, buf.String(), "through writer")
	require.Contains(t, out.String(), "(Orders) : through writer")
}

func TestManager_ReplacingStrategyKeepsEarlierLoggers(t *testing.T) {
	m, _ := newBufferedManager(t)

	before := m.GetLogger("Orders")
	m.SetFactory(func(name string) log.Sink {
		return newRecordingSink(name, log.DebugLevel)
	})
	after := m.GetLogger("Orders")

	require.IsType(t, &log.TraceSink{}, before.Sink())
	require.IsType(t, &recordingSink{}, after.Sink())

	// nil strategies are ignored
	m.SetFactory(nil)
	m.SetLoggerFactory(nil)
	require.IsType(t, &recordingSink{}, m.GetLogger("Orders").Sink())
}

func TestManager_SetLoggerFactory(t *testing.T) {
	m, _ := newBufferedManager(t)
	sink := newRecordingSink("fixed", log.DebugLevel)
	m.SetLoggerFactory(log.FactoryFunc(func(string) log.Sink { return sink }))

	m.GetLogger("anything").Warn("routed")
	require.Equal(t, []string{"routed"}, sink.Messages())
}

func TestManager_WithFactoryOption(t *testing.T) {
	m, _ := newBufferedManager(t, log.WithFactory(func(name string) log.Sink {
		return newRecordingSink(name, log.InfoLevel)
	}))

	logger := m.GetLogger("Orders")
	require.IsType(t, &recordingSink{}, logger.Sink())
	require.False(t, logger.IsDebugEnabled())
}

func TestManager_LoggerForType(t *testing.T) {
	m, _ := newBufferedManager(t)

	require.Equal(t, "log_test.orderService", m.GetLoggerForType(reflect.TypeOf(orderService{})).Name())
	require.Equal(t, "log_test.orderService", m.GetLoggerForType(reflect.TypeOf(&orderService{})).Name())
	require.Equal(t, "bytes.Buffer", log.LoggerFor[bytes.Buffer](m).Name())
	require.Equal(t, "<nil>", log.TypeName(nil))
}

func TestManager_LevelAndDefaultSource(t *testing.T) {
	m, buf := newBufferedManager(t, log.WithLevel(log.InfoLevel))

	def := m.Default()
	require.Equal(t, log.DefaultSourceName, def.Name())
	require.False(t, def.IsDebugEnabled())
	require.True(t, def.IsInfoEnabled())
	require.Equal(t, log.InfoLevel, m.Level())

	def.Info("hello")
	require.Contains(t, buf.String(), "DefaultTraceSource Information: 0 : hello")
}

func TestManager_DefaultIgnoresReplacedStrategy(t *testing.T) {
	m, buf := newBufferedManager(t)

	var out bytes.Buffer
	m.SetFactory(log.WriterFactory(log.DebugLevel, log.WithWriter(&out)))

	def := m.Default()
	require.Same(t, m.DefaultSink(), def.Sink())
	def.Info("still traced")

	require.Contains(t, buf.String(), "DefaultTraceSource Information: 0 : still traced")
	require.NotContains(t, buf.String(), "Getting trace log: "+log.DefaultSourceName)
	require.Empty(t, out.String())
}

func TestManager_DefaultSourceName(t *testing.T) {
	var buf bytes.Buffer
	registry := trace.NewRegistry()
	require.NoError(t, registry.AddListener(trace.NewWriterListener("buffer", &buf)))
	require.NoError(t, registry.ConfigureSource("Daemon", "buffer"))

	m := log.NewManager(log.WithRegistry(registry), log.WithDefaultSourceName("Daemon"))
	m.GetLogger("Orders").Info("shared")

	require.Equal(t, "Daemon", m.DefaultSink().Name())
	require.Contains(t, buf.String(), "Orders Information: 0 : shared")
}

func TestNewManager_DefaultRegistry(t *testing.T) {
	m := log.NewManager()
	require.NotNil(t, m.Registry())

	console, ok := m.Registry().Listener("console")
	require.True(t, ok)
	listeners := m.DefaultSink().Source().Listeners().Snapshot()
	require.Len(t, listeners, 1)
	require.Same(t, console, listeners[0])
}
