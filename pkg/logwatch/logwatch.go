package logwatch

import (
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"strings"
)

// Acknowledger acknowledges log files collected by mk_logwatch by removing them from the spool directory,
// which has one subdirectory per host named after PnpCleanup of the host name.
type Acknowledger struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewAcknowledger returns a new Acknowledger for the spool directory dir.
// An empty dir disables acknowledging.
func NewAcknowledger(dir string, logger *zap.SugaredLogger) *Acknowledger {
	return &Acknowledger{dir: dir, logger: logger}
}

// Acknowledge removes the log file of the given host.
// File names containing a slash and the host names "." and ".." are rejected
// so that nothing outside the host's directory can be removed.
func (a *Acknowledger) Acknowledge(host, file string) {
	if strings.ContainsRune(file, '/') {
		a.logger.Warnw("Invalid character / in mk_logwatch filename", zap.String("file", file))
		return
	}

	if a.dir == "" {
		return
	}

	hostDir := PnpCleanup(host)
	if hostDir == "." || hostDir == ".." {
		a.logger.Warnw("Invalid mk_logwatch host name", zap.String("host", host))
		return
	}

	path := filepath.Join(a.dir, hostDir, file)
	if err := os.Remove(path); err != nil {
		a.logger.Warnw("Can't acknowledge mk_logwatch file", zap.String("path", path), zap.Error(err))
		return
	}

	a.logger.Debugf("Acknowledged mk_logwatch file %q", path)
}

var pnpReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_")

// PnpCleanup returns s with all characters replaced by underscores
// which PNP4Nagios doesn't allow in host and service directory names.
func PnpCleanup(s string) string {
	return pnpReplacer.Replace(s)
}
