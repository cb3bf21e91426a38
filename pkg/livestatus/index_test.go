package livestatus

import (
	"github.com/icinga/icinga-livestatus/pkg/attributes"
	"github.com/icinga/icinga-livestatus/pkg/core"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"testing"
)

// testObjects returns two hosts with one service each, groups and a contact.
func testObjects() *core.Snapshot {
	s := core.NewSnapshot()

	admin := &core.Contact{Name: "admin", Alias: "Administrator", CustomVariables: []attributes.Variable{
		{Name: "PHONE", Value: "123"},
	}}
	s.AddContact(admin)
	s.AddContactGroup(&core.ContactGroup{Name: "admins", Members: []*core.Contact{admin}})

	server1 := &core.Host{
		Name:    "Server1",
		Alias:   "Primary Web Server",
		Address: "192.0.2.1",
		CustomVariables: []attributes.Variable{
			{Name: "_TAG_6F73", Value: "6C696E7578"},
			{Name: "FILENAME", Value: "/etc/hosts"},
		},
	}
	server2 := &core.Host{Name: "server2", Alias: "Server1", Address: "192.0.2.2"}
	s.AddHost(server1)
	s.AddHost(server2)

	http := &core.Service{Host: server1, Description: "HTTP"}
	ssh := &core.Service{Host: server2, Description: "SSH"}
	s.AddService(http)
	s.AddService(ssh)

	s.AddHostGroup(&core.HostGroup{Name: "web", Members: []*core.Host{server1, server2}})
	s.AddServiceGroup(&core.ServiceGroup{Name: "remote", Members: []*core.Service{ssh}})

	return s
}

func TestIndex_Lookups(t *testing.T) {
	objects := testObjects()
	idx := NewIndex(objects, zaptest.NewLogger(t).Sugar())

	h := idx.FindHost("Server1")
	require.NotNil(t, h)
	require.Same(t, objects.FindHost("Server1"), h.Handle())
	require.Same(t, h, idx.Host(h.Handle()), "lookup by handle should return the indexed wrapper")
	require.Equal(t, "Primary Web Server", h.Alias())
	require.Equal(t, "192.0.2.1", h.Address())

	require.Nil(t, idx.FindHost("server1"), "lookup by name is case-sensitive")
	require.Nil(t, idx.FindHost("missing"))
	require.Nil(t, idx.Host(nil))
	require.Nil(t, idx.Host(&core.Host{Name: "Server1"}), "unknown handles aren't found")

	svc := idx.FindService("Server1", "HTTP")
	require.NotNil(t, svc)
	require.Same(t, h.Handle(), svc.Host().Handle())
	require.Nil(t, idx.FindService("server2", "HTTP"))

	require.Equal(t, "web", idx.FindHostGroup("web").Name())
	require.Nil(t, idx.FindHostGroup("db"))
	require.Equal(t, "remote", idx.FindServiceGroup("remote").Name())
	require.Equal(t, "Administrator", idx.FindContact("admin").Alias())
	require.Equal(t, "admins", idx.FindContactGroup("admins").Name())

	require.Equal(t, 2, idx.NumHosts())
	require.Equal(t, 2, idx.NumServices())
}

func TestIndex_HostByDesignation(t *testing.T) {
	observed, logs := observer.New(zap.WarnLevel)
	objects := testObjects()
	idx := NewIndex(objects, zap.New(observed).Sugar())

	subtests := []struct {
		name        string
		designation string
		host        string
	}{
		{name: "name", designation: "Server1", host: "Server1"},
		{name: "lower-case-name", designation: "server1", host: "Server1"},
		{name: "upper-case-name", designation: "SERVER2", host: "server2"},
		{name: "alias", designation: "primary web server", host: "Server1"},
		{name: "address", designation: "192.0.2.2", host: "server2"},
		{name: "missing", designation: "192.0.2.3"},
		{name: "empty", designation: ""},
	}

	for _, st := range subtests {
		t.Run(st.name, func(t *testing.T) {
			h := idx.HostByDesignation(st.designation)
			if st.host == "" {
				require.Nil(t, h)
				return
			}

			require.NotNil(t, h)
			require.Equal(t, st.host, h.Name())
			require.NotSame(t, idx.FindHost(st.host), h, "designation lookups should return a new wrapper")
		})
	}

	// server2's alias "Server1" collides with the name of Server1, which was registered first.
	require.Equal(t, 1, logs.FilterMessage("Ignoring ambiguous host designation").Len())
}

func TestIndex_AllOf(t *testing.T) {
	idx := NewIndex(testObjects(), zaptest.NewLogger(t).Sugar())

	var names []string
	require.True(t, idx.AllOfHosts(func(h *Host) bool {
		names = append(names, h.Name())
		return true
	}))
	require.Equal(t, []string{"Server1", "server2"}, names)

	names = nil
	require.False(t, idx.AllOfHosts(func(h *Host) bool {
		names = append(names, h.Name())
		return false
	}))
	require.Equal(t, []string{"Server1"}, names, "iteration should stop at the first false")

	require.False(t, idx.AllOfServices(func(s *Service) bool { return s.Description() != "SSH" }))
	require.True(t, idx.AllOfHostGroups(func(*HostGroup) bool { return true }))
	require.True(t, idx.AllOfServiceGroups(func(*ServiceGroup) bool { return true }))
	require.True(t, idx.AllOfContacts(func(c *Contact) bool { return c.Name() == "admin" }))
	require.True(t, idx.AllOfContactGroups(func(*ContactGroup) bool { return true }))

	members := 0
	require.True(t, idx.FindHostGroup("web").AllOfMembers(func(*Host) bool {
		members++
		return true
	}))
	require.Equal(t, 2, members)
	require.False(t, idx.FindServiceGroup("remote").AllOfMembers(func(*Service) bool { return false }))
	require.True(t, idx.FindContactGroup("admins").AllOfMembers(func(c *Contact) bool { return c.Name() == "admin" }))
}

func TestHost_Attributes(t *testing.T) {
	idx := NewIndex(testObjects(), zaptest.NewLogger(t).Sugar())
	h := idx.FindHost("Server1")

	require.Equal(t, attributes.Attributes{"os": "linux"}, h.Attributes(attributes.Tags))
	require.Equal(t, attributes.Attributes{"FILENAME": "/etc/hosts"}, h.Attributes(attributes.CustomVariables))
	require.Empty(t, h.Attributes(attributes.Labels))

	v, ok := h.AttributeValue(attributes.Tags, "os")
	require.True(t, ok)
	require.Equal(t, "linux", v)

	_, ok = h.AttributeValue(attributes.CustomVariables, "os")
	require.False(t, ok)

	v, ok = idx.FindContact("admin").AttributeValue(attributes.CustomVariables, "PHONE")
	require.True(t, ok)
	require.Equal(t, "123", v)
}
