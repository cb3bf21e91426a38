package core

import (
	"github.com/stretchr/testify/require"
	"slices"
	"testing"
)

func TestSnapshot(t *testing.T) {
	s := NewSnapshot()

	web := &Host{Name: "web"}
	db := &Host{Name: "db"}
	require.True(t, s.AddHost(web))
	require.True(t, s.AddHost(db))
	require.False(t, s.AddHost(&Host{Name: "web"}), "duplicate host name must be rejected")

	http := &Service{Host: web, Description: "HTTP"}
	require.True(t, s.AddService(http))
	require.True(t, s.AddService(&Service{Host: db, Description: "HTTP"}))
	require.False(t, s.AddService(&Service{Host: web, Description: "HTTP"}))

	require.Equal(t, []*Host{web, db}, slices.Collect(s.Hosts()))
	require.Len(t, slices.Collect(s.Services()), 2)

	require.Same(t, web, s.FindHost("web"))
	require.Nil(t, s.FindHost("WEB"))
	require.Same(t, http, s.FindService("web", "HTTP"))
	require.Nil(t, s.FindService("web", "SSH"))
	require.Nil(t, s.FindContact("nobody"))
}
