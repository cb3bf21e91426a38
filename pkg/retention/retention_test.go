package retention

import (
	"context"
	"github.com/icinga/icinga-livestatus/pkg/core"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_AllComments(t *testing.T) {
	s := NewStore()
	s.ReplaceComments(Comments{
		3: {ID: 3},
		1: {ID: 1},
		2: {ID: 2},
	})

	var ids []uint64
	require.True(t, s.AllComments(func(c *core.Comment) bool {
		ids = append(ids, c.ID)
		return true
	}))
	require.Equal(t, []uint64{1, 2, 3}, ids, "comments must be visited in ID order")

	ids = nil
	require.False(t, s.AllComments(func(c *core.Comment) bool {
		ids = append(ids, c.ID)
		return c.ID < 2
	}))
	require.Equal(t, []uint64{1, 2}, ids, "iteration must stop at the first false")
	require.Equal(t, 3, s.NumComments())
}

func TestStore_AllDowntimes(t *testing.T) {
	s := NewStore()
	require.True(t, s.AllDowntimes(func(*core.Downtime) bool { return false }), "empty store is vacuously true")

	s.ReplaceDowntimes(Downtimes{7: {ID: 7}})
	require.Equal(t, 1, s.NumDowntimes())
	require.False(t, s.AllDowntimes(func(d *core.Downtime) bool { return d.ID != 7 }))
}

func newObjects() *core.Snapshot {
	s := core.NewSnapshot()
	web := &core.Host{Name: "web"}
	s.AddHost(web)
	s.AddService(&core.Service{Host: web, Description: "HTTP"})

	return s
}

func TestSQLite_Load(t *testing.T) {
	objects := newObjects()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "retention.sqlite3"), objects, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	for _, stmt := range []string{
		`INSERT INTO comment (id, host_name, author, text, entry_time) VALUES (1, 'web', 'admin', 'host comment', 1700000000)`,
		`INSERT INTO comment (id, host_name, service_description, text) VALUES (2, 'web', 'HTTP', 'service comment')`,
		`INSERT INTO comment (id, host_name, text) VALUES (3, 'gone', 'orphan')`,
		`INSERT INTO downtime (id, host_name, service_description, start_time, end_time, duration)
			VALUES (10, 'web', 'HTTP', 1700000000, 1700003600, 3600)`,
		`INSERT INTO downtime (id, host_name, service_description) VALUES (11, 'web', 'SSH')`,
	} {
		_, err := db.DB().Exec(stmt)
		require.NoError(t, err)
	}

	comments, downtimes, err := db.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, comments, 2)
	require.Same(t, objects.FindHost("web"), comments[1].Host)
	require.Nil(t, comments[1].Service)
	require.Equal(t, "admin", comments[1].Author)
	require.Equal(t, core.UserComment, comments[1].EntryType)
	require.Equal(t, time.Unix(1700000000, 0), comments[1].EntryTime)
	require.True(t, comments[1].ExpireTime.IsZero())
	require.Same(t, objects.FindService("web", "HTTP"), comments[2].Service)

	require.Len(t, downtimes, 1)
	require.Equal(t, time.Hour, downtimes[10].Duration)
	require.True(t, downtimes[10].Fixed)
	require.Same(t, objects.FindHost("web"), downtimes[10].Host)
}

type loaderFunc func(ctx context.Context) (Comments, Downtimes, error)

func (f loaderFunc) Load(ctx context.Context) (Comments, Downtimes, error) {
	return f(ctx)
}

func TestRefresh(t *testing.T) {
	s := NewStore()
	s.ReplaceComments(Comments{1: {ID: 1}})

	err := Refresh(context.Background(), s, loaderFunc(func(context.Context) (Comments, Downtimes, error) {
		return nil, nil, errors.New("database is locked")
	}))
	require.Error(t, err)
	require.Equal(t, 1, s.NumComments(), "failed refresh must keep the previous comments")

	err = Refresh(context.Background(), s, loaderFunc(func(context.Context) (Comments, Downtimes, error) {
		return Comments{2: {ID: 2}, 3: {ID: 3}}, Downtimes{}, nil
	}))
	require.NoError(t, err)
	require.Equal(t, 2, s.NumComments())
}

func TestSync(t *testing.T) {
	s := NewStore()
	loaded := make(chan struct{}, 1)

	stopper := Sync(context.Background(), s, loaderFunc(func(context.Context) (Comments, Downtimes, error) {
		select {
		case loaded <- struct{}{}:
		default:
		}

		return Comments{1: {ID: 1}}, Downtimes{}, nil
	}), time.Hour, zaptest.NewLogger(t).Sugar())
	defer stopper.Stop()

	select {
	case <-loaded:
	case <-time.After(time.Second):
		require.Fail(t, "loader should have been called immediately")
	}

	require.Eventually(t, func() bool { return s.NumComments() == 1 }, time.Second, time.Millisecond)
}
