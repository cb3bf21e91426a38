package command

import (
	"context"
	"github.com/icinga/icinga-livestatus/internal"
	"github.com/icinga/icinga-livestatus/internal/config"
	"github.com/icinga/icinga-livestatus/pkg/core"
	"github.com/icinga/icinga-livestatus/pkg/core/objectscache"
	"github.com/icinga/icinga-livestatus/pkg/core/redisobjects"
	"github.com/icinga/icinga-livestatus/pkg/logging"
	"github.com/icinga/icinga-livestatus/pkg/retention"
	"github.com/icinga/icinga-livestatus/pkg/utils"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"io"
	"os"
)

// ExitFailure is the exit code for configuration and startup errors.
const ExitFailure = 1

// Command provides factories for the monitoring core backends from Config.
type Command struct {
	Flags   *config.Flags
	Config  *config.Config
	Logging *logging.Logging
	Logger  *logging.Logger
}

// New creates and returns a new Command, parses CLI flags and the YAML config, and initializes the logger.
// It prints the version and exits if requested.
func New() *Command {
	f, err := config.ParseFlags()
	if err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}

		os.Exit(2)
	}

	if f.Version {
		internal.Version.Print(os.Stdout, "Icinga Livestatus")
		os.Exit(0)
	}

	cfg, err := config.FromYAMLFile(f.Config)
	if err != nil {
		utils.PrintErrorThenExit(err, ExitFailure)
	}

	l, err := logging.NewLogging(utils.AppName(), &cfg.Logging)
	if err != nil {
		utils.PrintErrorThenExit(errors.Wrap(err, "can't configure logging"), ExitFailure)
	}

	return &Command{
		Flags:   f,
		Config:  cfg,
		Logging: l,
		Logger:  l.GetLogger(),
	}
}

// Backend reads the objects of the monitoring core and returns them
// together with a retention.Loader for their comments and downtimes.
// The returned io.Closer releases the backend's connections.
func (c Command) Backend(ctx context.Context) (*core.Snapshot, retention.Loader, io.Closer, error) {
	logger := c.Logging.GetChildLogger("core")

	switch c.Config.Core.Backend {
	case config.Redis:
		client := c.Config.Core.Redis.NewClient(logger)
		source := redisobjects.NewSource(client, c.Config.Core.Redis.HScanCount, logger)

		objects, err := source.Snapshot(ctx)
		if err != nil {
			_ = client.Close()
			return nil, nil, nil, errors.Wrap(err, "can't read objects from Redis")
		}

		return objects, source.Retention(objects), client, nil
	case config.ObjectsCache:
		objects, err := objectscache.Load(c.Config.Core.ObjectsFile, logger)
		if err != nil {
			return nil, nil, nil, err
		}

		db, err := retention.OpenSQLite(
			c.Config.Core.RetentionFile, objects, c.Logging.GetChildLogger("retention"),
		)
		if err != nil {
			return nil, nil, nil, err
		}

		return objects, db, db, nil
	default:
		return nil, nil, nil, errors.Errorf("unknown backend %q", c.Config.Core.Backend)
	}
}
