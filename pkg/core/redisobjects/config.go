package redisobjects

import (
	"context"
	"github.com/icinga/icinga-livestatus/pkg/backoff"
	"github.com/icinga/icinga-livestatus/pkg/retry"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"net"
	"strings"
	"time"
)

// Config defines how to connect to the Redis server Icinga 2 writes its objects to.
type Config struct {
	Address    string        `yaml:"address"`
	Password   string        `yaml:"password"`
	Timeout    time.Duration `yaml:"timeout"     default:"30s"`
	HScanCount int           `yaml:"hscan_count" default:"4096"`
}

// Validate checks constraints in the supplied Redis configuration and returns an error if they are violated.
func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.New("Redis address missing")
	}
	if c.Timeout == 0 {
		return errors.New("timeout cannot be 0. Configure a value greater than zero, or use -1 for no timeout")
	}
	if c.HScanCount < 1 {
		return errors.New("hscan_count must be at least 1")
	}

	return nil
}

// NewClient returns a new Redis client which re-tries connecting while the server refuses connections.
// Addresses starting with a slash denote Unix domain sockets.
func (c *Config) NewClient(logger *zap.SugaredLogger) *redis.Client {
	network := "tcp"
	if strings.HasPrefix(c.Address, "/") {
		network = "unix"
	}

	client := redis.NewClient(&redis.Options{
		Network:     network,
		Addr:        c.Address,
		Dialer:      dialWithLogging(logger),
		Password:    c.Password,
		DB:          0, // Use default DB,
		ReadTimeout: c.Timeout,
	})

	opts := client.Options()
	opts.MaxRetries = opts.PoolSize + 1 // https://github.com/go-redis/redis/issues/1737

	return redis.NewClient(opts)
}

// dialWithLogging returns a Redis Dialer which behaves like net.Dialer#DialContext,
// but re-tries on retryable errors and logs them.
func dialWithLogging(logger *zap.SugaredLogger) func(context.Context, string, string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (conn net.Conn, err error) {
		var dl net.Dialer

		err = retry.WithBackoff(
			ctx,
			func(ctx context.Context) (err error) {
				conn, err = dl.DialContext(ctx, network, addr)
				return
			},
			retry.Retryable,
			backoff.NewExponentialWithJitter(time.Millisecond, time.Second),
			retry.Settings{
				Timeout: 5 * time.Minute,
				OnError: func(_ time.Duration, _ uint64, err, lastErr error) {
					if lastErr == nil || err.Error() != lastErr.Error() {
						logger.Warnw("Can't connect to Redis. Retrying", zap.Error(err))
					}
				},
				OnSuccess: func(elapsed time.Duration, attempt uint64, _ error) {
					if attempt > 1 {
						logger.Infof("Connected to Redis after %s", elapsed)
					}
				},
			},
		)

		err = errors.Wrap(err, "can't connect to Redis")

		return
	}
}
