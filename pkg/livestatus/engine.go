package livestatus

import (
	"context"
	"fmt"
	"github.com/icinga/icinga-livestatus/pkg/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"strings"
	"time"
)

// maxLoggedLineLen limits request lines in warnings, which may be arbitrary client garbage.
const maxLoggedLineLen = 256

// Executor answers GET requests.
type Executor interface {
	// AnswerGetRequest writes the response to a query of table with the given header lines to out
	// and reports whether the connection should be kept open.
	AnswerGetRequest(lines []string, out *OutputBuffer, table string) bool
}

// CommandHandler handles parsed external commands.
type CommandHandler interface {
	Dispatch(ctx context.Context, cmd ExternalCommand)
}

// LogRotator rotates the monitoring history.
type LogRotator interface {
	Rotate(now time.Time) error
	NextRotation(now time.Time) time.Time
	Schedule(at time.Time)
}

// Engine answers the requests of one connection after another.
// It's safe for concurrent use by multiple connections.
type Engine struct {
	executor Executor
	commands CommandHandler
	rotator  LogRotator
	stats    *Stats
	logger   *zap.SugaredLogger

	now func() time.Time
}

// NewEngine returns a new Engine. stats may be nil.
func NewEngine(executor Executor, commands CommandHandler, rotator LogRotator, stats *Stats, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		executor: executor,
		commands: commands,
		rotator:  rotator,
		stats:    stats,
		logger:   logger,
		now:      time.Now,
	}
}

// AnswerRequest reads one request from in, answers it via out
// and reports whether the connection should be kept open for further requests.
func (e *Engine) AnswerRequest(ctx context.Context, in *InputBuffer, out *OutputBuffer) bool {
	if res := in.ReadRequest(); res != RequestRead {
		if res != EOF {
			out.SetError(IncompleteRequest, "client connection terminated: "+res.String())
		}

		return false
	}

	line := in.NextLine()
	switch {
	case strings.HasPrefix(line, "GET "):
		lines := drain(in)
		e.logRequest(line, lines)
		e.count("get")

		return e.executor.AnswerGetRequest(lines, out, strings.TrimLeft(line[len("GET "):], " \t"))
	case strings.HasPrefix(line, "GET"):
		lines := drain(in)
		e.logRequest(line, lines)
		e.count("get")

		return e.executor.AnswerGetRequest(lines, out, "")
	case strings.HasPrefix(line, "COMMAND "):
		e.logRequest(line, nil)
		e.count("command")

		cmd, err := ParseExternalCommand(strings.TrimLeft(line[len("COMMAND "):], " \t"))
		if err != nil {
			e.logger.Warnw("Can't parse external command", zap.Error(err))
			return true
		}

		e.commands.Dispatch(ctx, cmd)

		return true
	case strings.HasPrefix(line, "LOGROTATE"):
		e.logRequest(line, nil)
		e.count("logrotate")
		e.logger.Info("Forcing logfile rotation")

		now := e.now()
		if err := e.rotator.Rotate(now); err != nil {
			e.logger.Warnw("Can't rotate history log", zap.Error(err))
		}

		e.rotator.Schedule(e.rotator.NextRotation(now))

		return false
	default:
		e.logRequest(line, nil)
		e.count("invalid")
		e.logger.Warnf("Invalid request '%s'", utils.Ellipsize(line, maxLoggedLineLen))
		out.SetError(InvalidRequest, "Invalid request method")

		return false
	}
}

// logRequest logs line and, at debug level, the following lines.
// Otherwise, only the number of following lines is logged.
func (e *Engine) logRequest(line string, lines []string) {
	var msg strings.Builder
	msg.WriteString("request: ")
	msg.WriteString(line)

	if e.logger.Desugar().Core().Enabled(zapcore.DebugLevel) {
		for _, l := range lines {
			msg.WriteString(`\n`)
			msg.WriteString(l)
		}
	} else if len(lines) > 0 {
		_, _ = fmt.Fprintf(&msg, `\n{%d line(s) follow...}`, len(lines))
	}

	e.logger.Info(msg.String())
}

func (e *Engine) count(method string) {
	if e.stats != nil {
		e.stats.RequestAnswered(method)
	}
}

// drain consumes the remaining lines of the current request.
func drain(in *InputBuffer) []string {
	var lines []string
	for !in.Empty() {
		lines = append(lines, in.NextLine())
	}

	return lines
}
