package tables

import (
	"github.com/google/uuid"
	"github.com/icinga/icinga-livestatus/pkg/attributes"
	"github.com/icinga/icinga-livestatus/pkg/core"
	"github.com/icinga/icinga-livestatus/pkg/crashreport"
	"github.com/icinga/icinga-livestatus/pkg/livestatus"
	"github.com/icinga/icinga-livestatus/pkg/retention"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"strings"
	"testing"
	"time"
)

type fakeCrashReports struct {
	reports []crashreport.Report
	err     error
}

func (c fakeCrashReports) All() ([]crashreport.Report, error) {
	return c.reports, c.err
}

var crashID = uuid.MustParse("0b9c5c56-7bd0-4d1c-9c8d-1f4e7b1c2a3d")

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()

	objects := core.NewSnapshot()
	admin := &core.Contact{Name: "admin", Alias: "Administrator", Email: "admin@example.com", CustomVariables: []attributes.Variable{
		{Name: "PHONE", Value: "123"},
	}}
	objects.AddContact(admin)
	objects.AddContactGroup(&core.ContactGroup{Name: "admins", Members: []*core.Contact{admin}})

	router := &core.Host{Name: "router", Address: "192.0.2.254"}
	web := &core.Host{
		Name: "web", Alias: "Web Server", Address: "192.0.2.1", Parents: []*core.Host{router},
		Contacts: []*core.Contact{admin},
		CustomVariables: []attributes.Variable{
			{Name: "_TAG_6F73", Value: "6C696E7578"},
			{Name: "RACK", Value: "7"},
			{Name: "FILENAME", Value: "/etc/hosts"},
		},
	}
	objects.AddHost(web)
	objects.AddHost(router)

	http := &core.Service{Host: web, Description: "HTTP", CheckCommand: "check_http"}
	objects.AddService(http)
	objects.AddHostGroup(&core.HostGroup{Name: "linux", Members: []*core.Host{web, router}})
	objects.AddServiceGroup(&core.ServiceGroup{Name: "http", Members: []*core.Service{http}})

	store := retention.NewStore()
	store.ReplaceComments(retention.Comments{
		4: {ID: 4, Host: web, Author: "admin", Text: "rebooting", EntryType: core.UserComment, EntryTime: time.Unix(1700000000, 0)},
		5: {ID: 5, Host: web, Service: http, Author: "admin", Text: "flapping", EntryType: core.FlappingComment},
	})
	store.ReplaceDowntimes(retention.Downtimes{
		9: {ID: 9, Host: web, Service: http, StartTime: time.Unix(1700000000, 0), Fixed: true, Duration: time.Hour},
	})

	logger := zaptest.NewLogger(t).Sugar()
	index := livestatus.NewIndex(objects, logger)
	stats := livestatus.NewStats(prometheus.NewRegistry(), index, livestatus.StatsOptions{
		Threads: 10, ProgramStart: time.Unix(1600000000, 0), Version: "1.0.0",
		LastLogRotation: func() time.Time { return time.Time{} },
	})

	return NewExecutor(
		index, livestatus.NewAssociations(store), stats,
		fakeCrashReports{reports: []crashreport.Report{{ID: crashID, Component: "cmc"}}}, logger,
	)
}

func TestExecutor_AnswerGetRequest(t *testing.T) {
	subtests := []struct {
		name      string
		table     string
		lines     []string
		body      string
		keepAlive bool
	}{
		{
			name:  "selected-columns",
			table: "hosts",
			lines: []string{"Columns: name address parents"},
			body:  "web;192.0.2.1;router\nrouter;192.0.2.254;\n",
		},
		{
			name:  "column-headers-by-default",
			table: "contactgroups",
			body:  "name;alias;members\nadmins;;admin\n",
		},
		{
			name:  "column-headers-on",
			table: "hostgroups",
			lines: []string{"Columns: name members num_hosts", "ColumnHeaders: on"},
			body:  "name;members;num_hosts\nlinux;web,router;2\n",
		},
		{
			name:  "limit",
			table: "hosts",
			lines: []string{"Columns: name", "Limit: 1"},
			body:  "web\n",
		},
		{
			name:      "keepalive",
			table:     "services",
			lines:     []string{"Columns: host_name description check_command", "KeepAlive: on"},
			body:      "web;HTTP;check_http\n",
			keepAlive: true,
		},
		{
			name:  "attributes",
			table: "hosts",
			lines: []string{"Columns: custom_variable_names custom_variables tags", "Limit: 1"},
			body:  "FILENAME,RACK;FILENAME|/etc/hosts,RACK|7;os|linux\n",
		},
		{
			name:  "associations",
			table: "services",
			lines: []string{"Columns: comments downtimes"},
			body:  "5;9\n",
		},
		{
			name:  "comments",
			table: "comments",
			lines: []string{"Columns: id host_name service_description is_service entry_type entry_time"},
			body:  "4;web;;0;1;1700000000\n5;web;HTTP;1;3;0\n",
		},
		{
			name:  "downtimes",
			table: "downtimes",
			lines: []string{"Columns: id is_service start_time fixed duration"},
			body:  "9;1;1700000000;1;3600\n",
		},
		{
			name:  "servicegroups",
			table: "servicegroups",
			lines: []string{"Columns: name members"},
			body:  "http;web|HTTP\n",
		},
		{
			name:  "contacts",
			table: "contacts",
			lines: []string{"Columns: name email custom_variables"},
			body:  "admin;admin@example.com;PHONE|123\n",
		},
		{
			name:  "status",
			table: "status",
			lines: []string{"Columns: program_start num_hosts num_services livestatus_threads livestatus_version last_log_rotation"},
			body:  "1600000000;2;1;10;1.0.0;0\n",
		},
		{
			name:  "crashreports",
			table: "crashreports",
			lines: []string{"Columns: id component"},
			body:  crashID.String() + ";cmc\n",
		},
	}

	e := newTestExecutor(t)
	for _, st := range subtests {
		t.Run(st.name, func(t *testing.T) {
			out := livestatus.NewOutputBuffer(zaptest.NewLogger(t).Sugar())
			keepAlive := e.AnswerGetRequest(st.lines, out, st.table)

			require.Equal(t, livestatus.OK, out.Code())
			require.Equal(t, st.body, string(out.Body()))
			require.Equal(t, st.keepAlive, keepAlive)
		})
	}
}

func TestExecutor_AnswerGetRequest_Errors(t *testing.T) {
	subtests := []struct {
		name  string
		table string
		lines []string
		code  livestatus.ResponseCode
		error string
	}{
		{
			name:  "missing-table",
			code:  livestatus.InvalidRequest,
			error: "Invalid GET request, missing table name",
		},
		{
			name:  "unknown-table",
			table: "log",
			code:  livestatus.NotFound,
			error: "Invalid GET request, no such table 'log'",
		},
		{
			name:  "unknown-column",
			table: "hosts",
			lines: []string{"Columns: name state"},
			code:  livestatus.InvalidRequest,
			error: "Table 'hosts' has no column 'state'",
		},
		{
			name:  "invalid-limit",
			table: "hosts",
			lines: []string{"Limit: -1"},
			code:  livestatus.InvalidRequest,
			error: "Invalid value for Limit: '-1'",
		},
		{
			name:  "invalid-header-line",
			table: "hosts",
			lines: []string{"Columns name"},
			code:  livestatus.InvalidRequest,
			error: "Invalid header line 'Columns name'",
		},
	}

	e := newTestExecutor(t)
	for _, st := range subtests {
		t.Run(st.name, func(t *testing.T) {
			out := livestatus.NewOutputBuffer(zaptest.NewLogger(t).Sugar())

			require.False(t, e.AnswerGetRequest(st.lines, out, st.table))
			require.Equal(t, st.code, out.Code())
			require.Equal(t, st.error, out.Error())
			require.Empty(t, out.Body())
		})
	}
}

func TestExecutor_Fixed16(t *testing.T) {
	e := newTestExecutor(t)
	out := livestatus.NewOutputBuffer(zaptest.NewLogger(t).Sugar())

	e.AnswerGetRequest([]string{"Columns: name", "ResponseHeader: fixed16"}, out, "hostgroups")

	var sb strings.Builder
	require.NoError(t, out.Flush(&sb))
	require.Equal(t, "200           6\nlinux\n", sb.String())
}

func TestExecutor_CrashReportsUnavailable(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	index := livestatus.NewIndex(core.NewSnapshot(), logger)
	stats := livestatus.NewStats(prometheus.NewRegistry(), index, livestatus.StatsOptions{
		LastLogRotation: func() time.Time { return time.Time{} },
	})
	associations := livestatus.NewAssociations(retention.NewStore())

	e := NewExecutor(index, associations, stats, fakeCrashReports{err: errors.New("permission denied")}, logger)
	out := livestatus.NewOutputBuffer(logger)
	e.AnswerGetRequest([]string{"Columns: id"}, out, "crashreports")
	require.Equal(t, livestatus.OK, out.Code())
	require.Empty(t, out.Body())

	e = NewExecutor(index, associations, stats, nil, logger)
	out = livestatus.NewOutputBuffer(logger)
	e.AnswerGetRequest(nil, out, "crashreports")
	require.Equal(t, livestatus.NotFound, out.Code())
}
