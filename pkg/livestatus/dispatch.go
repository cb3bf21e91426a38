package livestatus

import (
	"context"
	"github.com/icinga/icinga-livestatus/pkg/eventconsole"
	"go.uber.org/zap"
	"strings"
	"sync"
)

// CommandCategory determines how a command is dispatched.
type CommandCategory int

const (
	// Native commands are submitted to the monitoring core.
	Native CommandCategory = iota
	// LogwatchAcknowledge commands remove log files collected by mk_logwatch.
	LogwatchAcknowledge
	// DeleteCrashReport commands remove a crash report.
	DeleteCrashReport
	// EventConsole commands are forwarded to the event console.
	EventConsole
	// Log commands are submitted to the monitoring core as _LOG.
	Log
)

// String implements the fmt.Stringer interface.
func (c CommandCategory) String() string {
	switch c {
	case Native:
		return "native"
	case LogwatchAcknowledge:
		return "logwatch_acknowledge"
	case DeleteCrashReport:
		return "delete_crash_report"
	case EventConsole:
		return "event_console"
	case Log:
		return "log"
	default:
		return "unknown"
	}
}

const eventConsolePrefix = "EC_"

// Classify returns the category of the command with the given name.
func Classify(name string) CommandCategory {
	switch {
	case name == "MK_LOGWATCH_ACKNOWLEDGE":
		return LogwatchAcknowledge
	case name == "DEL_CRASH_REPORT":
		return DeleteCrashReport
	case strings.HasPrefix(name, eventConsolePrefix):
		return EventConsole
	case name == "LOG":
		return Log
	default:
		return Native
	}
}

// LogwatchAcknowledger acknowledges a log file of a host.
type LogwatchAcknowledger interface {
	Acknowledge(host, file string)
}

// CrashReportDeleter deletes the crash report with the given ID and reports whether it existed.
type CrashReportDeleter interface {
	Delete(id string) bool
}

// EventConsoleSender sends a command to the event console.
type EventConsoleSender interface {
	Send(ctx context.Context, command string) error
}

// CommandSubmitter submits a command line to the monitoring core.
type CommandSubmitter interface {
	SubmitExternalCommand(cmd string)
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithEventConsoleEnabled replaces the check whether the event console is enabled,
// which defaults to eventconsole.Enabled.
func WithEventConsoleEnabled(enabled func() bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.eventConsoleEnabled = enabled
	}
}

// WithStats lets the Dispatcher count commands.
func WithStats(stats *Stats) DispatcherOption {
	return func(d *Dispatcher) {
		d.stats = stats
	}
}

// Dispatcher routes external commands to the subsystems handling them.
// Commands are never retried, failures are logged and the command is dropped.
type Dispatcher struct {
	core         CommandSubmitter
	logwatch     LogwatchAcknowledger
	crashReports CrashReportDeleter
	eventConsole EventConsoleSender
	logger       *zap.SugaredLogger

	eventConsoleEnabled func() bool
	stats               *Stats

	// submitMu serializes submissions to the monitoring core.
	submitMu sync.Mutex
}

// NewDispatcher returns a new Dispatcher.
func NewDispatcher(
	core CommandSubmitter, logwatch LogwatchAcknowledger, crashReports CrashReportDeleter,
	eventConsole EventConsoleSender, logger *zap.SugaredLogger, options ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		core:                core,
		logwatch:            logwatch,
		crashReports:        crashReports,
		eventConsole:        eventConsole,
		logger:              logger,
		eventConsoleEnabled: eventconsole.Enabled,
	}

	for _, option := range options {
		option(d)
	}

	return d
}

// Dispatch handles cmd according to its category.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd ExternalCommand) {
	category := Classify(cmd.Name())
	if d.stats != nil {
		d.stats.CommandDispatched(category)
	}

	if !d.dispatch(ctx, category, cmd) && d.stats != nil {
		d.stats.CommandDropped(category)
	}
}

// dispatch reports whether the command has been handed over.
func (d *Dispatcher) dispatch(ctx context.Context, category CommandCategory, cmd ExternalCommand) bool {
	switch category {
	case LogwatchAcknowledge:
		// COMMAND [1462191638] MK_LOGWATCH_ACKNOWLEDGE;host123;\var\log\syslog
		args := cmd.Args()
		if len(args) != 2 {
			d.logger.Warnw("MK_LOGWATCH_ACKNOWLEDGE expects 2 arguments", zap.Stringer("command", cmd))
			return false
		}

		d.logwatch.Acknowledge(args[0], args[1])
	case DeleteCrashReport:
		args := cmd.Args()
		if len(args) != 1 {
			d.logger.Warnw("DEL_CRASH_REPORT expects 1 argument", zap.Stringer("command", cmd))
			return false
		}

		d.crashReports.Delete(args[0])
	case EventConsole:
		command := "COMMAND " + strings.TrimPrefix(cmd.Name(), eventConsolePrefix) + cmd.Arguments()
		if !d.eventConsoleEnabled() {
			d.logger.Infof("Event console disabled, ignoring command '%s'", command)
			return false
		}

		if err := d.eventConsole.Send(ctx, command); err != nil {
			d.logger.Errorw("Can't forward command to event console", zap.String("command", command), zap.Error(err))
			return false
		}
	case Log:
		// The monitoring core has no LOG command but a custom _LOG one.
		d.submit(cmd.WithName("_LOG"))
	default:
		d.submit(cmd)
	}

	return true
}

func (d *Dispatcher) submit(cmd ExternalCommand) {
	d.submitMu.Lock()
	defer d.submitMu.Unlock()

	d.core.SubmitExternalCommand(cmd.String())
}
