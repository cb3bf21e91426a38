package livestatus

import (
	"github.com/icinga/icinga-livestatus/pkg/core"
)

// Retention provides the comments and downtimes of the monitoring core,
// which are owned and replaced by the retention subsystem.
// Implementations must be safe for concurrent use.
type Retention interface {
	AllComments(pred func(*core.Comment) bool) bool
	AllDowntimes(pred func(*core.Downtime) bool) bool
}

// Associations answers which comments and downtimes belong to which host or service.
// Every query scans all comments or downtimes, results are in ascending ID order.
type Associations struct {
	retention Retention
}

func NewAssociations(r Retention) *Associations {
	return &Associations{retention: r}
}

// CommentsOfHost returns the comments of the host itself, not the ones of its services.
func (a *Associations) CommentsOfHost(h *Host) []core.Comment {
	return collect(a.retention.AllComments, func(c *core.Comment) bool {
		return c.Host == h.handle && c.Service == nil
	})
}

// CommentsOfService returns the comments of the service.
func (a *Associations) CommentsOfService(s *Service) []core.Comment {
	return collect(a.retention.AllComments, func(c *core.Comment) bool {
		return c.Host == s.handle.Host && c.Service == s.handle
	})
}

// DowntimesOfHost returns the downtimes of the host itself, not the ones of its services.
func (a *Associations) DowntimesOfHost(h *Host) []core.Downtime {
	return collect(a.retention.AllDowntimes, func(d *core.Downtime) bool {
		return d.Host == h.handle && d.Service == nil
	})
}

func (a *Associations) DowntimesOfService(s *Service) []core.Downtime {
	return collect(a.retention.AllDowntimes, func(d *core.Downtime) bool {
		return d.Host == s.handle.Host && d.Service == s.handle
	})
}

// AllOfComments calls pred for every comment and returns false as soon as pred does, true otherwise.
func (a *Associations) AllOfComments(pred func(*core.Comment) bool) bool {
	return a.retention.AllComments(pred)
}

func (a *Associations) AllOfDowntimes(pred func(*core.Downtime) bool) bool {
	return a.retention.AllDowntimes(pred)
}

// collect returns copies of all entries matching filter.
func collect[T any](all func(func(*T) bool) bool, filter func(*T) bool) []T {
	var matches []T
	all(func(e *T) bool {
		if filter(e) {
			matches = append(matches, *e)
		}

		return true
	})

	return matches
}
