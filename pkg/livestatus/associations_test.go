package livestatus

import (
	"github.com/icinga/icinga-livestatus/pkg/core"
	"github.com/icinga/icinga-livestatus/pkg/retention"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"testing"
)

func TestAssociations(t *testing.T) {
	objects := testObjects()
	idx := NewIndex(objects, zaptest.NewLogger(t).Sugar())

	server1, server2 := objects.FindHost("Server1"), objects.FindHost("server2")
	http, ssh := objects.FindService("Server1", "HTTP"), objects.FindService("server2", "SSH")

	store := retention.NewStore()
	store.ReplaceComments(retention.Comments{
		1: {ID: 1, Host: server1, Text: "host"},
		2: {ID: 2, Host: server1, Service: http, Text: "service"},
		3: {ID: 3, Host: server2, Text: "other host"},
		4: {ID: 4, Host: server2, Service: ssh, Text: "other service"},
		5: {ID: 5, Host: server1, Text: "host again"},
		// Inconsistent, the service belongs to another host.
		6: {ID: 6, Host: server2, Service: http, Text: "foreign"},
	})
	store.ReplaceDowntimes(retention.Downtimes{
		10: {ID: 10, Host: server1, Service: http},
		11: {ID: 11, Host: server1},
	})

	a := NewAssociations(store)

	texts := func(comments []core.Comment) []string {
		var result []string
		for _, c := range comments {
			result = append(result, c.Text)
		}

		return result
	}

	require.Equal(t, []string{"host", "host again"}, texts(a.CommentsOfHost(idx.FindHost("Server1"))))
	require.Equal(t, []string{"other host"}, texts(a.CommentsOfHost(idx.FindHost("server2"))))

	serviceComments := a.CommentsOfService(idx.FindService("Server1", "HTTP"))
	require.Equal(t, []string{"service"}, texts(serviceComments))
	for _, c := range serviceComments {
		require.NotNil(t, c.Service, "service comments must have a service")
		require.Same(t, server1, c.Host, "service comments must belong to the service's host")
	}

	downtimes := a.DowntimesOfService(idx.FindService("Server1", "HTTP"))
	require.Len(t, downtimes, 1)
	require.Equal(t, uint64(10), downtimes[0].ID)

	downtimes = a.DowntimesOfHost(idx.FindHost("Server1"))
	require.Len(t, downtimes, 1)
	require.Equal(t, uint64(11), downtimes[0].ID)

	require.Empty(t, a.DowntimesOfService(idx.FindService("server2", "SSH")))

	count := 0
	require.True(t, a.AllOfComments(func(*core.Comment) bool {
		count++
		return true
	}))
	require.Equal(t, 6, count)
	require.False(t, a.AllOfDowntimes(func(d *core.Downtime) bool { return d.ID < 11 }))
}
