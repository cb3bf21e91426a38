package redisobjects

import (
	"context"
	"github.com/icinga/icinga-livestatus/pkg/core"
	"github.com/icinga/icinga-livestatus/pkg/retention"
	"github.com/icinga/icinga-livestatus/pkg/utils"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"sync"
	"time"
)

// Source reads the objects Icinga 2 writes to Redis.
type Source struct {
	client     *redis.Client
	hscanCount int
	logger     *zap.SugaredLogger
}

// NewSource returns a new Source reading via client. Hashes are scanned hscanCount fields at a time.
func NewSource(client *redis.Client, hscanCount int, logger *zap.SugaredLogger) *Source {
	return &Source{client: client, hscanCount: hscanCount, logger: logger}
}

// Snapshot reads all configuration objects and returns them as core.Snapshot.
func (s *Source) Snapshot(ctx context.Context) (*core.Snapshot, error) {
	defer utils.Timed(time.Now(), func(elapsed time.Duration) {
		s.logger.Infof("Fetched objects from Redis in %s", elapsed)
	})

	h, err := s.fetch(ctx, objectKeys...)
	if err != nil {
		return nil, err
	}

	return buildSnapshot(h, s.logger)
}

// Retention returns a retention.Loader which reads comments and downtimes
// and resolves the objects they belong to in objects.
func (s *Source) Retention(objects core.Objects) retention.Loader {
	return &loader{source: s, objects: objects}
}

// fetch reads the hashes at keys concurrently.
func (s *Source) fetch(ctx context.Context, keys ...string) (hashes, error) {
	var mu sync.Mutex
	h := make(hashes, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		g.Go(func() error {
			pairs, err := s.hgetall(ctx, key)
			if err != nil {
				return err
			}

			mu.Lock()
			h[key] = pairs
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return h, nil
}

// hgetall returns all field-value pairs of the hash at key.
// HSCAN is used instead of HGETALL so that large hashes don't block the Redis server.
func (s *Source) hgetall(ctx context.Context, key string) (map[string]string, error) {
	pairs := map[string]string{}

	var cursor uint64
	for {
		cmd := s.client.HScan(ctx, key, cursor, "", int64(s.hscanCount))
		page, next, err := cmd.Result()
		if err != nil {
			return nil, errors.Wrapf(err, "can't perform %q", cmd.String())
		}

		// HSCAN may return duplicates, which the map absorbs.
		for i := 0; i+1 < len(page); i += 2 {
			pairs[page[i]] = page[i+1]
		}

		if cursor = next; cursor == 0 {
			break
		}
	}

	s.logger.Debugf("Fetched %d items from %s", len(pairs), key)

	return pairs, nil
}

type loader struct {
	source  *Source
	objects core.Objects
}

// Load implements the retention.Loader interface.
func (l *loader) Load(ctx context.Context) (retention.Comments, retention.Downtimes, error) {
	h, err := l.source.fetch(ctx, retentionKeys...)
	if err != nil {
		return nil, nil, err
	}

	return buildRetention(h, l.objects)
}

// Assert interface compliance.
var _ retention.Loader = (*loader)(nil)
