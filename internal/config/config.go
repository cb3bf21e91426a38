package config

import (
	"github.com/creasty/defaults"
	"github.com/goccy/go-yaml"
	"github.com/icinga/icinga-livestatus/pkg/core/redisobjects"
	"github.com/icinga/icinga-livestatus/pkg/history"
	"github.com/icinga/icinga-livestatus/pkg/livestatus"
	"github.com/icinga/icinga-livestatus/pkg/logging"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"os"
	"strconv"
	"time"
)

// DefaultConfigPath specifies the default location of config.yml for package installations.
const DefaultConfigPath = "/etc/icinga-livestatus/config.yml"

const (
	// ObjectsCache loads objects from a Nagios compatible objects.cache file
	// and comments and downtimes from a SQLite retention database.
	ObjectsCache = "objects_cache"
	// Redis loads everything from the Redis Icinga 2 writes its state to.
	Redis = "redis"
)

// Config defines the livestatus config.
type Config struct {
	Listen  Listen          `yaml:"listen"`
	Core    Core            `yaml:"core"`
	Paths   Paths           `yaml:"paths"`
	History history.Options `yaml:"history"`
	Metrics Metrics         `yaml:"metrics"`
	Logging logging.Config  `yaml:"logging"`
}

// Validate checks constraints in the supplied configuration and returns an error if they are violated.
func (c *Config) Validate() error {
	if err := c.Listen.Validate(); err != nil {
		return err
	}
	if err := c.Core.Validate(); err != nil {
		return err
	}
	if err := c.History.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}

	return nil
}

// Listen defines where and how livestatus connections are accepted.
type Listen struct {
	Socket string `yaml:"socket" default:"/run/icinga-livestatus/live"`
	// Mode is the octal permission mode of Socket.
	Mode string `yaml:"mode" default:"0660"`
	// Address optionally specifies a TCP address to listen on in addition to Socket.
	Address string `yaml:"address"`

	livestatus.ServerOptions `yaml:",inline"`
}

// FileMode returns Mode parsed as os.FileMode.
func (l *Listen) FileMode() (os.FileMode, error) {
	mode, err := strconv.ParseUint(l.Mode, 8, 32)
	if err != nil || mode > 0o777 {
		return 0, errors.Errorf("invalid socket mode %q", l.Mode)
	}

	return os.FileMode(mode), nil
}

// Validate checks constraints in the supplied listen configuration and returns an error if they are violated.
func (l *Listen) Validate() error {
	if l.Socket == "" && l.Address == "" {
		return errors.New("neither socket nor address to listen on given")
	}

	if _, err := l.FileMode(); err != nil {
		return err
	}

	return l.ServerOptions.Validate()
}

// Core defines how to read the monitoring core's state and how to submit commands to it.
type Core struct {
	Backend     string              `yaml:"backend" default:"objects_cache"`
	ObjectsFile string              `yaml:"objects_file" default:"/var/lib/icinga-livestatus/objects.cache"`
	CommandPipe string              `yaml:"command_pipe" default:"/run/icinga-livestatus/cmd.pipe"`
	Redis       redisobjects.Config `yaml:"redis"`
	// RetentionFile is the SQLite database holding comments and downtimes of the objects_cache backend.
	RetentionFile string `yaml:"retention_file" default:"/var/lib/icinga-livestatus/retention.sqlite3"`
	// RefreshInterval specifies how often comments and downtimes are reloaded.
	RefreshInterval time.Duration `yaml:"refresh_interval" default:"10s"`
}

// Validate checks constraints in the supplied core configuration and returns an error if they are violated.
func (c *Core) Validate() error {
	switch c.Backend {
	case ObjectsCache:
		if c.ObjectsFile == "" {
			return errors.New("objects_file missing")
		}
		if c.RetentionFile == "" {
			return errors.New("retention_file missing")
		}
	case Redis:
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	default:
		return errors.Errorf("invalid backend %q, must be either %q or %q", c.Backend, ObjectsCache, Redis)
	}

	if c.CommandPipe == "" {
		return errors.New("command_pipe missing")
	}

	if c.RefreshInterval <= 0 {
		return errors.New("refresh_interval must be positive")
	}

	return nil
}

// Paths defines the locations of the add-ons commands are forwarded to.
type Paths struct {
	// LogwatchDir is the directory of mk_logwatch messages. Acknowledging is disabled if empty.
	LogwatchDir     string        `yaml:"logwatch_dir" default:"/var/lib/check_mk/logwatch"`
	CrashReportsDir string        `yaml:"crash_reports_dir" default:"/var/lib/icinga-livestatus/crashes"`
	EventConsole    string        `yaml:"event_console" default:"/run/mkeventd/status"`
	EventTimeout    time.Duration `yaml:"event_console_timeout" default:"10s"`
}

// Metrics defines the Prometheus metrics endpoint.
type Metrics struct {
	// Address to serve /metrics on. Metrics aren't served if empty.
	Address string `yaml:"address"`
}

// Flags defines CLI flags.
type Flags struct {
	// Version decides whether to just print the version and exit.
	Version bool `long:"version" description:"print version and exit"`
	// Config is the path to the config file
	Config string `short:"c" long:"config" description:"path to config file" default:"/etc/icinga-livestatus/config.yml"`
	// default must be kept in sync with DefaultConfigPath.
}

// FromYAMLFile returns a new Config value created from the given YAML config file.
func FromYAMLFile(name string) (*Config, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "can't open YAML file "+name)
	}
	defer func() { _ = f.Close() }()

	c := &Config{}
	d := yaml.NewDecoder(f, yaml.DisallowUnknownField())

	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "can't set config defaults")
	}

	if err := d.Decode(c); err != nil {
		return nil, errors.Wrap(err, "can't parse YAML file "+name)
	}

	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return c, nil
}

// ParseFlags parses CLI flags and
// returns a Flags value created from them.
func ParseFlags() (*Flags, error) {
	f := &Flags{}
	parser := flags.NewParser(f, flags.Default)

	if _, err := parser.Parse(); err != nil {
		return nil, errors.Wrap(err, "can't parse CLI flags")
	}

	return f, nil
}
