package core

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"os"
	"strings"
	"syscall"
)

// Recorder receives a line for every event that goes into the monitoring history.
type Recorder interface {
	Record(line string)
}

// CommandPipe submits external commands to the monitoring core via its command FIFO.
type CommandPipe struct {
	path     string
	history  Recorder
	logger   *zap.SugaredLogger
	openFlag int
}

// NewCommandPipe returns a new CommandPipe writing to the FIFO at path.
// Every submitted command is recorded in history unless it's nil.
func NewCommandPipe(path string, history Recorder, logger *zap.SugaredLogger) *CommandPipe {
	return &CommandPipe{
		path:    path,
		history: history,
		logger:  logger,
		// O_NONBLOCK makes opening a FIFO without a reader fail with ENXIO instead of blocking forever.
		openFlag: os.O_WRONLY | os.O_APPEND | syscall.O_NONBLOCK,
	}
}

// SubmitExternalCommand writes cmd, a bracketed-timestamp command line, to the command FIFO.
// Failures are logged, not returned, since the core doesn't acknowledge commands anyway.
func (p *CommandPipe) SubmitExternalCommand(cmd string) {
	if p.history != nil {
		p.history.Record("EXTERNAL COMMAND: " + stripTimestamp(cmd))
	}

	if err := p.write(cmd); err != nil {
		p.logger.Errorw("Can't submit external command", zap.String("command", cmd), zap.Error(err))
	}
}

func (p *CommandPipe) write(cmd string) error {
	f, err := os.OpenFile(p.path, p.openFlag, 0)
	if err != nil {
		return errors.Wrapf(err, "can't open command pipe %q", p.path)
	}
	defer func() { _ = f.Close() }()

	// A single write of at most PIPE_BUF bytes is atomic, so concurrent writers won't interleave.
	if _, err := f.WriteString(cmd + "\n"); err != nil {
		return errors.Wrapf(err, "can't write to command pipe %q", p.path)
	}

	return nil
}

func stripTimestamp(cmd string) string {
	if strings.HasPrefix(cmd, "[") {
		if i := strings.Index(cmd, "] "); i >= 0 {
			return cmd[i+2:]
		}
	}

	return cmd
}
