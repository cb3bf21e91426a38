package history

import (
	"fmt"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Options defines the history log's file and how many rotated generations to keep.
type Options struct {
	File       string `yaml:"file" default:"/var/log/icinga-livestatus/history.log"`
	MaxSize    int    `yaml:"max_size" default:"100"`
	MaxBackups int    `yaml:"max_backups" default:"10"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Validate checks constraints in the supplied history options and returns an error if they are violated.
func (o *Options) Validate() error {
	if o.File == "" {
		return errors.New("history log file missing")
	}

	if o.MaxSize < 0 || o.MaxBackups < 0 || o.MaxAge < 0 {
		return errors.New("history log limits must not be negative")
	}

	return nil
}

// Log is the monitoring history, a line-oriented log of timestamped events.
// It is rotated daily at local midnight once Schedule has been called and on demand via Rotate.
type Log struct {
	logger *zap.SugaredLogger
	now    func() time.Time

	mu           sync.Mutex
	out          *lumberjack.Logger
	lastRotation time.Time
	timer        *time.Timer
	closed       bool
}

// NewLog creates the directory of the history log file if necessary and returns a new Log.
// The file itself is opened on the first write.
func NewLog(o *Options, logger *zap.SugaredLogger) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(o.File), 0o755); err != nil {
		return nil, errors.Wrap(err, "can't create history log directory")
	}

	return &Log{
		logger: logger,
		now:    time.Now,
		out: &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    o.MaxSize,
			MaxBackups: o.MaxBackups,
			MaxAge:     o.MaxAge,
			Compress:   o.Compress,
			LocalTime:  true,
		},
	}, nil
}

// Record appends line to the history prefixed with the current Unix time in brackets.
func (l *Log) Record(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.record(line)
}

// Rotate forces a rotation of the history log file.
func (l *Log) Rotate(now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.rotate(now, "FORCED")
}

// NextRotation returns the time of the next regular rotation after now, i.e. the next local midnight.
func (l *Log) NextRotation(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// Schedule (re-)arms the regular rotation to happen at the given time.
// After each regular rotation the next one is scheduled via NextRotation.
func (l *Log) Schedule(at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	if l.timer != nil {
		l.timer.Stop()
	}

	l.timer = time.AfterFunc(time.Until(at), func() {
		now := l.now()

		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return
		}

		err := l.rotate(now, "DAILY")
		l.mu.Unlock()

		if err != nil {
			l.logger.Warnw("Can't rotate history log", zap.Error(err))
		}

		l.Schedule(l.NextRotation(now))
	})

	l.logger.Debugf("Next history log rotation at %s", at)
}

// LastRotation returns the time of the last rotation or the zero time if the log has never been rotated.
func (l *Log) LastRotation() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.lastRotation
}

// Close stops the regular rotation and closes the history log file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.timer != nil {
		l.timer.Stop()
	}

	return l.out.Close()
}

func (l *Log) rotate(now time.Time, kind string) error {
	if err := l.out.Rotate(); err != nil {
		return errors.Wrap(err, "can't rotate history log file")
	}

	l.lastRotation = now
	l.record("LOG ROTATION: " + kind)

	return nil
}

func (l *Log) record(line string) {
	if _, err := fmt.Fprintf(l.out, "[%d] %s\n", l.now().Unix(), line); err != nil {
		l.logger.Warnw("Can't write to history log", zap.Error(err))
	}
}
