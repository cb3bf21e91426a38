package tables

import (
	"github.com/icinga/icinga-livestatus/pkg/attributes"
	"github.com/icinga/icinga-livestatus/pkg/core"
	"github.com/icinga/icinga-livestatus/pkg/crashreport"
	"github.com/icinga/icinga-livestatus/pkg/livestatus"
	"go.uber.org/zap"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CrashReports lists crash reports.
type CrashReports interface {
	All() ([]crashreport.Report, error)
}

// NewExecutor returns a new Executor for the objects in index, their comments and downtimes,
// the status and the crash reports. crashReports may be nil.
func NewExecutor(
	index *livestatus.Index, associations *livestatus.Associations, status livestatus.StatusProvider,
	crashReports CrashReports, logger *zap.SugaredLogger,
) *Executor {
	e := &Executor{tables: map[string]querier{}, logger: logger}

	e.tables["hosts"] = table[*livestatus.Host]{
		name: "hosts",
		columns: append([]column[*livestatus.Host]{
			{"name", (*livestatus.Host).Name},
			{"alias", (*livestatus.Host).Alias},
			{"address", (*livestatus.Host).Address},
			{"display_name", (*livestatus.Host).DisplayName},
			{"check_command", (*livestatus.Host).CheckCommand},
			{"parents", func(h *livestatus.Host) string { return names(h.Handle().Parents, hostName) }},
			{"contacts", func(h *livestatus.Host) string { return names(h.Handle().Contacts, contactName) }},
			{"contact_groups", func(h *livestatus.Host) string {
				return names(h.Handle().ContactGroups, contactGroupName)
			}},
			{"comments", func(h *livestatus.Host) string { return commentIDs(associations.CommentsOfHost(h)) }},
			{"downtimes", func(h *livestatus.Host) string { return downtimeIDs(associations.DowntimesOfHost(h)) }},
		}, attributeColumns[*livestatus.Host]()...),
		rows: index.AllOfHosts,
	}

	e.tables["services"] = table[*livestatus.Service]{
		name: "services",
		columns: append([]column[*livestatus.Service]{
			{"host_name", func(s *livestatus.Service) string { return s.Host().Name() }},
			{"description", (*livestatus.Service).Description},
			{"display_name", (*livestatus.Service).DisplayName},
			{"check_command", (*livestatus.Service).CheckCommand},
			{"contacts", func(s *livestatus.Service) string { return names(s.Handle().Contacts, contactName) }},
			{"contact_groups", func(s *livestatus.Service) string {
				return names(s.Handle().ContactGroups, contactGroupName)
			}},
			{"comments", func(s *livestatus.Service) string {
				return commentIDs(associations.CommentsOfService(s))
			}},
			{"downtimes", func(s *livestatus.Service) string {
				return downtimeIDs(associations.DowntimesOfService(s))
			}},
		}, attributeColumns[*livestatus.Service]()...),
		rows: index.AllOfServices,
	}

	e.tables["hostgroups"] = table[*livestatus.HostGroup]{
		name: "hostgroups",
		columns: []column[*livestatus.HostGroup]{
			{"name", (*livestatus.HostGroup).Name},
			{"alias", (*livestatus.HostGroup).Alias},
			{"members", func(g *livestatus.HostGroup) string { return names(g.Handle().Members, hostName) }},
			{"num_hosts", func(g *livestatus.HostGroup) string { return strconv.Itoa(len(g.Handle().Members)) }},
		},
		rows: index.AllOfHostGroups,
	}

	e.tables["servicegroups"] = table[*livestatus.ServiceGroup]{
		name: "servicegroups",
		columns: []column[*livestatus.ServiceGroup]{
			{"name", (*livestatus.ServiceGroup).Name},
			{"alias", (*livestatus.ServiceGroup).Alias},
			{"members", func(g *livestatus.ServiceGroup) string { return names(g.Handle().Members, serviceName) }},
			{"num_services", func(g *livestatus.ServiceGroup) string {
				return strconv.Itoa(len(g.Handle().Members))
			}},
		},
		rows: index.AllOfServiceGroups,
	}

	e.tables["contacts"] = table[*livestatus.Contact]{
		name: "contacts",
		columns: append([]column[*livestatus.Contact]{
			{"name", (*livestatus.Contact).Name},
			{"alias", (*livestatus.Contact).Alias},
			{"email", (*livestatus.Contact).Email},
			{"pager", (*livestatus.Contact).Pager},
		}, customVariableColumns[*livestatus.Contact]()...),
		rows: index.AllOfContacts,
	}

	e.tables["contactgroups"] = table[*livestatus.ContactGroup]{
		name: "contactgroups",
		columns: []column[*livestatus.ContactGroup]{
			{"name", (*livestatus.ContactGroup).Name},
			{"alias", (*livestatus.ContactGroup).Alias},
			{"members", func(g *livestatus.ContactGroup) string { return names(g.Handle().Members, contactName) }},
		},
		rows: index.AllOfContactGroups,
	}

	e.tables["comments"] = table[*core.Comment]{
		name: "comments",
		columns: []column[*core.Comment]{
			{"id", func(c *core.Comment) string { return strconv.FormatUint(c.ID, 10) }},
			{"host_name", func(c *core.Comment) string { return c.Host.Name }},
			{"service_description", func(c *core.Comment) string { return serviceDescription(c.Service) }},
			{"is_service", func(c *core.Comment) string { return boolean(c.Service != nil) }},
			{"author", func(c *core.Comment) string { return c.Author }},
			{"comment", func(c *core.Comment) string { return c.Text }},
			{"entry_type", func(c *core.Comment) string { return strconv.Itoa(int(c.EntryType)) }},
			{"entry_time", func(c *core.Comment) string { return unix(c.EntryTime) }},
			{"persistent", func(c *core.Comment) string { return boolean(c.Persistent) }},
			{"expire_time", func(c *core.Comment) string { return unix(c.ExpireTime) }},
		},
		rows: associations.AllOfComments,
	}

	e.tables["downtimes"] = table[*core.Downtime]{
		name: "downtimes",
		columns: []column[*core.Downtime]{
			{"id", func(d *core.Downtime) string { return strconv.FormatUint(d.ID, 10) }},
			{"host_name", func(d *core.Downtime) string { return d.Host.Name }},
			{"service_description", func(d *core.Downtime) string { return serviceDescription(d.Service) }},
			{"is_service", func(d *core.Downtime) string { return boolean(d.Service != nil) }},
			{"author", func(d *core.Downtime) string { return d.Author }},
			{"comment", func(d *core.Downtime) string { return d.Comment }},
			{"entry_time", func(d *core.Downtime) string { return unix(d.EntryTime) }},
			{"start_time", func(d *core.Downtime) string { return unix(d.StartTime) }},
			{"end_time", func(d *core.Downtime) string { return unix(d.EndTime) }},
			{"fixed", func(d *core.Downtime) string { return boolean(d.Fixed) }},
			{"duration", func(d *core.Downtime) string { return strconv.FormatInt(int64(d.Duration/time.Second), 10) }},
			{"triggered_by", func(d *core.Downtime) string { return strconv.FormatUint(d.TriggeredBy, 10) }},
		},
		rows: associations.AllOfDowntimes,
	}

	e.tables["status"] = table[livestatus.StatusProvider]{
		name: "status",
		columns: []column[livestatus.StatusProvider]{
			{"program_start", func(s livestatus.StatusProvider) string { return unix(s.ProgramStart()) }},
			{"num_hosts", func(s livestatus.StatusProvider) string { return strconv.Itoa(s.NumHosts()) }},
			{"num_services", func(s livestatus.StatusProvider) string { return strconv.Itoa(s.NumServices()) }},
			{"connections", func(s livestatus.StatusProvider) string {
				return strconv.FormatUint(s.Connections(), 10)
			}},
			{"requests", func(s livestatus.StatusProvider) string { return strconv.FormatUint(s.Requests(), 10) }},
			{"external_commands", func(s livestatus.StatusProvider) string {
				return strconv.FormatUint(s.Commands(), 10)
			}},
			{"livestatus_active_connections", func(s livestatus.StatusProvider) string {
				return strconv.FormatInt(s.ActiveConnections(), 10)
			}},
			{"livestatus_queued_connections", func(s livestatus.StatusProvider) string {
				return strconv.FormatInt(s.QueuedConnections(), 10)
			}},
			{"livestatus_threads", func(s livestatus.StatusProvider) string { return strconv.Itoa(s.Threads()) }},
			{"livestatus_version", livestatus.StatusProvider.Version},
			{"last_log_rotation", func(s livestatus.StatusProvider) string { return unix(s.LastLogRotation()) }},
		},
		rows: func(yield func(livestatus.StatusProvider) bool) bool {
			return yield(status)
		},
	}

	if crashReports != nil {
		e.tables["crashreports"] = table[crashreport.Report]{
			name: "crashreports",
			columns: []column[crashreport.Report]{
				{"id", func(r crashreport.Report) string { return r.ID.String() }},
				{"component", func(r crashreport.Report) string { return r.Component }},
			},
			rows: func(yield func(crashreport.Report) bool) bool {
				reports, err := crashReports.All()
				if err != nil {
					logger.Warnw("Can't list crash reports", zap.Error(err))
					return true
				}

				for _, r := range reports {
					if !yield(r) {
						return false
					}
				}

				return true
			},
		}
	}

	return e
}

// attributed is implemented by objects with custom variables, tags, labels and label sources.
type attributed interface {
	Attributes(kind attributes.Kind) attributes.Attributes
}

func customVariableColumns[T attributed]() []column[T] {
	return []column[T]{
		{"custom_variable_names", func(o T) string { return keys(o.Attributes(attributes.CustomVariables)) }},
		{"custom_variable_values", func(o T) string { return values(o.Attributes(attributes.CustomVariables)) }},
		{"custom_variables", func(o T) string { return pairs(o.Attributes(attributes.CustomVariables)) }},
	}
}

func attributeColumns[T attributed]() []column[T] {
	return append(customVariableColumns[T](),
		column[T]{"tags", func(o T) string { return pairs(o.Attributes(attributes.Tags)) }},
		column[T]{"labels", func(o T) string { return pairs(o.Attributes(attributes.Labels)) }},
		column[T]{"label_sources", func(o T) string { return pairs(o.Attributes(attributes.LabelSources)) }},
	)
}

func keys(a attributes.Attributes) string {
	return strings.Join(slices.Sorted(maps.Keys(a)), ",")
}

func values(a attributes.Attributes) string {
	var v []string
	for _, k := range slices.Sorted(maps.Keys(a)) {
		v = append(v, a[k])
	}

	return strings.Join(v, ",")
}

func pairs(a attributes.Attributes) string {
	var p []string
	for _, k := range slices.Sorted(maps.Keys(a)) {
		p = append(p, k+"|"+a[k])
	}

	return strings.Join(p, ",")
}

func names[T any](objects []T, name func(T) string) string {
	n := make([]string, 0, len(objects))
	for _, o := range objects {
		n = append(n, name(o))
	}

	return strings.Join(n, ",")
}

func hostName(h *core.Host) string {
	return h.Name
}

func serviceName(s *core.Service) string {
	return s.Host.Name + "|" + s.Description
}

func contactName(c *core.Contact) string {
	return c.Name
}

func contactGroupName(g *core.ContactGroup) string {
	return g.Name
}

func commentIDs(comments []core.Comment) string {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, strconv.FormatUint(c.ID, 10))
	}

	return strings.Join(ids, ",")
}

func downtimeIDs(downtimes []core.Downtime) string {
	ids := make([]string, 0, len(downtimes))
	for _, d := range downtimes {
		ids = append(ids, strconv.FormatUint(d.ID, 10))
	}

	return strings.Join(ids, ",")
}

func serviceDescription(s *core.Service) string {
	if s == nil {
		return ""
	}

	return s.Description
}

func boolean(b bool) string {
	if b {
		return "1"
	}

	return "0"
}

// unix renders t as Unix time in seconds, the zero time as 0.
func unix(t time.Time) string {
	if t.IsZero() {
		return "0"
	}

	return strconv.FormatInt(t.Unix(), 10)
}
