package livestatus

import (
	"github.com/icinga/icinga-livestatus/pkg/attributes"
	"github.com/icinga/icinga-livestatus/pkg/core"
)

// Host is the read-only view of a host of the monitoring core that queries operate on.
type Host struct {
	handle *core.Host
}

// Handle returns the monitoring core's host.
func (h *Host) Handle() *core.Host {
	return h.handle
}

func (h *Host) Name() string {
	return h.handle.Name
}

func (h *Host) Alias() string {
	return h.handle.Alias
}

func (h *Host) Address() string {
	return h.handle.Address
}

func (h *Host) DisplayName() string {
	return h.handle.DisplayName
}

func (h *Host) CheckCommand() string {
	return h.handle.CheckCommand
}

// Attributes returns the host's custom variables, tags, labels or label sources.
func (h *Host) Attributes(kind attributes.Kind) attributes.Attributes {
	return attributes.Collect(h.handle.CustomVariables, kind)
}

// AttributeValue returns the value of a single attribute of the given kind.
func (h *Host) AttributeValue(kind attributes.Kind, key string) (string, bool) {
	return attributes.Find(h.handle.CustomVariables, kind, key)
}

// Service is the read-only view of a service of the monitoring core.
type Service struct {
	handle *core.Service
}

func (s *Service) Handle() *core.Service {
	return s.handle
}

// Host returns the host the service belongs to.
func (s *Service) Host() *Host {
	return &Host{handle: s.handle.Host}
}

func (s *Service) Description() string {
	return s.handle.Description
}

func (s *Service) DisplayName() string {
	return s.handle.DisplayName
}

func (s *Service) CheckCommand() string {
	return s.handle.CheckCommand
}

func (s *Service) Attributes(kind attributes.Kind) attributes.Attributes {
	return attributes.Collect(s.handle.CustomVariables, kind)
}

func (s *Service) AttributeValue(kind attributes.Kind, key string) (string, bool) {
	return attributes.Find(s.handle.CustomVariables, kind, key)
}

type HostGroup struct {
	handle *core.HostGroup
}

func (g *HostGroup) Handle() *core.HostGroup {
	return g.handle
}

func (g *HostGroup) Name() string {
	return g.handle.Name
}

func (g *HostGroup) Alias() string {
	return g.handle.Alias
}

// AllOfMembers calls pred for every member and stops at the first one it returns false for.
func (g *HostGroup) AllOfMembers(pred func(*Host) bool) bool {
	for _, h := range g.handle.Members {
		if !pred(&Host{handle: h}) {
			return false
		}
	}

	return true
}

type ServiceGroup struct {
	handle *core.ServiceGroup
}

func (g *ServiceGroup) Handle() *core.ServiceGroup {
	return g.handle
}

func (g *ServiceGroup) Name() string {
	return g.handle.Name
}

func (g *ServiceGroup) Alias() string {
	return g.handle.Alias
}

func (g *ServiceGroup) AllOfMembers(pred func(*Service) bool) bool {
	for _, s := range g.handle.Members {
		if !pred(&Service{handle: s}) {
			return false
		}
	}

	return true
}

// Contact is the read-only view of a user the monitoring core notifies.
type Contact struct {
	handle *core.Contact
}

func (c *Contact) Handle() *core.Contact {
	return c.handle
}

func (c *Contact) Name() string {
	return c.handle.Name
}

func (c *Contact) Alias() string {
	return c.handle.Alias
}

func (c *Contact) Email() string {
	return c.handle.Email
}

func (c *Contact) Pager() string {
	return c.handle.Pager
}

func (c *Contact) Attributes(kind attributes.Kind) attributes.Attributes {
	return attributes.Collect(c.handle.CustomVariables, kind)
}

func (c *Contact) AttributeValue(kind attributes.Kind, key string) (string, bool) {
	return attributes.Find(c.handle.CustomVariables, kind, key)
}

type ContactGroup struct {
	handle *core.ContactGroup
}

func (g *ContactGroup) Handle() *core.ContactGroup {
	return g.handle
}

func (g *ContactGroup) Name() string {
	return g.handle.Name
}

func (g *ContactGroup) Alias() string {
	return g.handle.Alias
}

func (g *ContactGroup) AllOfMembers(pred func(*Contact) bool) bool {
	for _, c := range g.handle.Members {
		if !pred(&Contact{handle: c}) {
			return false
		}
	}

	return true
}
