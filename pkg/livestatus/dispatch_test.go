package livestatus

import (
	"context"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"testing"
)

func TestClassify(t *testing.T) {
	subtests := []struct {
		name   string
		input  string
		output CommandCategory
	}{
		{name: "logwatch", input: "MK_LOGWATCH_ACKNOWLEDGE", output: LogwatchAcknowledge},
		{name: "crash-report", input: "DEL_CRASH_REPORT", output: DeleteCrashReport},
		{name: "event-console", input: "EC_REOPEN", output: EventConsole},
		{name: "event-console-prefix-only", input: "EC_", output: EventConsole},
		{name: "log", input: "LOG", output: Log},
		{name: "log-prefix", input: "LOGROTATE", output: Native},
		{name: "native", input: "SCHEDULE_HOST_DOWNTIME", output: Native},
		{name: "lower-case", input: "ec_reopen", output: Native},
	}

	for _, st := range subtests {
		t.Run(st.name, func(t *testing.T) {
			require.Equal(t, st.output, Classify(st.input))
		})
	}
}

type dispatcherFixture struct {
	core         *fakeCore
	logwatch     *fakeLogwatch
	crashReports *fakeCrashReports
	eventConsole *fakeEventConsole
	logs         *observer.ObservedLogs
	stats        *Stats
	dispatcher   *Dispatcher
}

func newDispatcherFixture(t *testing.T, ecEnabled bool) *dispatcherFixture {
	t.Helper()

	observed, logs := observer.New(zap.DebugLevel)
	f := &dispatcherFixture{
		core:         &fakeCore{},
		logwatch:     &fakeLogwatch{},
		crashReports: &fakeCrashReports{},
		eventConsole: &fakeEventConsole{},
		logs:         logs,
	}

	f.stats = NewStats(prometheus.NewRegistry(), NewIndex(testObjects(), zap.NewNop().Sugar()), StatsOptions{})
	f.dispatcher = NewDispatcher(
		f.core, f.logwatch, f.crashReports, f.eventConsole, zap.New(observed).Sugar(),
		WithEventConsoleEnabled(func() bool { return ecEnabled }), WithStats(f.stats),
	)

	return f
}

func (f *dispatcherFixture) dispatch(t *testing.T, line string) {
	t.Helper()

	cmd, err := ParseExternalCommand(line)
	require.NoError(t, err)

	f.dispatcher.Dispatch(context.Background(), cmd)
}

func TestDispatcher_Log(t *testing.T) {
	f := newDispatcherFixture(t, false)
	f.dispatch(t, "[1700000000] LOG;hello")

	require.Equal(t, []string{"[1700000000] _LOG;hello"}, f.core.commands)
	require.Equal(t, uint64(1), f.stats.Commands())
}

func TestDispatcher_Native(t *testing.T) {
	f := newDispatcherFixture(t, true)
	line := "[1700000000] SCHEDULE_FORCED_SVC_CHECK;web;HTTP;1700000000"
	f.dispatch(t, line)

	require.Equal(t, []string{line}, f.core.commands)
	require.Empty(t, f.eventConsole.sent)
}

func TestDispatcher_EventConsole(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newDispatcherFixture(t, false)
		f.dispatch(t, "[1700000000] EC_REOPEN")

		require.Empty(t, f.eventConsole.sent, "disabled event console must not be contacted")
		require.Empty(t, f.core.commands)
		require.Equal(t, 1, f.logs.FilterMessage("Event console disabled, ignoring command 'COMMAND REOPEN'").Len())
		require.Equal(t, 1.0, counterValue(t, f.stats.commandsDropped.WithLabelValues("event_console")))
	})

	t.Run("enabled", func(t *testing.T) {
		f := newDispatcherFixture(t, true)
		f.dispatch(t, "[1700000000] EC_DELETE;42;admin")

		require.Equal(t, []string{"COMMAND DELETE;42;admin"}, f.eventConsole.sent)
		require.Empty(t, f.core.commands)
	})

	t.Run("failure", func(t *testing.T) {
		f := newDispatcherFixture(t, true)
		f.eventConsole.err = errors.New("connection refused")
		f.dispatch(t, "[1700000000] EC_RELOAD")

		require.Equal(t, []string{"COMMAND RELOAD"}, f.eventConsole.sent)
		require.Equal(t, 1, f.logs.FilterLevelExact(zap.ErrorLevel).Len())
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("CONFIG_MKEVENTD", "off")

		ec := &fakeEventConsole{}
		d := NewDispatcher(&fakeCore{}, &fakeLogwatch{}, &fakeCrashReports{}, ec, zap.NewNop().Sugar())
		cmd, err := ParseExternalCommand("[1700000000] EC_REOPEN")
		require.NoError(t, err)

		d.Dispatch(context.Background(), cmd)
		require.Empty(t, ec.sent)

		t.Setenv("CONFIG_MKEVENTD", "on")
		d.Dispatch(context.Background(), cmd)
		require.Equal(t, []string{"COMMAND REOPEN"}, ec.sent, "the environment must be consulted on every dispatch")
	})
}

func TestDispatcher_LogwatchAcknowledge(t *testing.T) {
	f := newDispatcherFixture(t, false)
	f.dispatch(t, `[1462191638] MK_LOGWATCH_ACKNOWLEDGE;host123;\var\log\syslog`)
	f.dispatch(t, "[1462191638] MK_LOGWATCH_ACKNOWLEDGE;host123")

	require.Equal(t, [][2]string{{"host123", `\var\log\syslog`}}, f.logwatch.acknowledged)
	require.Equal(t, 1, f.logs.FilterMessage("MK_LOGWATCH_ACKNOWLEDGE expects 2 arguments").Len())
	require.Empty(t, f.core.commands)
}

func TestDispatcher_DeleteCrashReport(t *testing.T) {
	f := newDispatcherFixture(t, false)
	f.dispatch(t, "[1700000000] DEL_CRASH_REPORT;2c9b0a6e-3a4f-4e0b-9f5a-0d1c2b3a4f5e")
	f.dispatch(t, "[1700000000] DEL_CRASH_REPORT")
	f.dispatch(t, "[1700000000] DEL_CRASH_REPORT;a;b")

	require.Equal(t, []string{"2c9b0a6e-3a4f-4e0b-9f5a-0d1c2b3a4f5e"}, f.crashReports.deleted)
	require.Equal(t, 2, f.logs.FilterMessage("DEL_CRASH_REPORT expects 1 argument").Len())
	require.Equal(t, uint64(3), f.stats.Commands())
}
