package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"os"
	"time"
)

// Config defines Logger configuration.
type Config struct {
	// zapcore.Level at 0 is for info level.
	Level  zapcore.Level `yaml:"level" default:"0"`
	Output string        `yaml:"output"`
	// Interval for periodic logging.
	Interval time.Duration `yaml:"interval" default:"20s"`

	// File configures the FILE output.
	File FileConfig `yaml:"file"`

	Options `yaml:"options"`
}

// FileConfig defines the log file and its size based rotation.
type FileConfig struct {
	Path string `yaml:"path" default:"/var/log/icinga-livestatus/icinga-livestatus.log"`
	// MaxSize is the size in megabytes after which the file gets rotated.
	MaxSize    int  `yaml:"max_size" default:"100"`
	MaxBackups int  `yaml:"max_backups" default:"5"`
	Compress   bool `yaml:"compress"`
}

// Validate checks constraints in the supplied Config configuration and returns an error if they are violated.
// Also configures the log output if it is not configured:
// systemd-journald is used when running under systemd, otherwise stderr.
func (l *Config) Validate() error {
	if l.Interval <= 0 {
		return errors.New("periodic logging interval must be positive")
	}

	if l.Output == "" {
		// systemd sets NOTIFY_SOCKET for Type=notify services.
		if _, ok := os.LookupEnv("NOTIFY_SOCKET"); ok {
			l.Output = JOURNAL
		} else {
			l.Output = CONSOLE
		}
	}

	if l.Output == FILE {
		if l.File.Path == "" {
			return errors.New("log file path missing")
		}

		if l.File.MaxSize < 0 || l.File.MaxBackups < 0 {
			return errors.New("log file rotation limits must not be negative")
		}
	}

	return AssertOutput(l.Output)
}
