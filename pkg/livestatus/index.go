package livestatus

import (
	"github.com/icinga/icinga-livestatus/pkg/core"
	"go.uber.org/zap"
	"iter"
	"strings"
)

// Index wraps every object of one configuration generation of the monitoring core
// and resolves hosts by designation, i.e. by name, alias or address.
// It is built once and read-only afterwards, so lookups need no locking.
type Index struct {
	objects core.Objects

	hosts         registry[*core.Host, Host]
	services      registry[*core.Service, Service]
	hostGroups    registry[*core.HostGroup, HostGroup]
	serviceGroups registry[*core.ServiceGroup, ServiceGroup]
	contacts      registry[*core.Contact, Contact]
	contactGroups registry[*core.ContactGroup, ContactGroup]

	designations map[string]*core.Host
}

// NewIndex wraps all objects yielded by objects.
// Designations are registered lower-cased in the order address, alias, name.
// The first host registering a designation keeps it,
// a different host trying to register the same designation is logged as a warning.
func NewIndex(objects core.Objects, logger *zap.SugaredLogger) *Index {
	idx := &Index{
		objects: objects,
		hosts: newRegistry(objects.Hosts(), func(h *core.Host) *Host {
			return &Host{handle: h}
		}),
		services: newRegistry(objects.Services(), func(s *core.Service) *Service {
			return &Service{handle: s}
		}),
		hostGroups: newRegistry(objects.HostGroups(), func(g *core.HostGroup) *HostGroup {
			return &HostGroup{handle: g}
		}),
		serviceGroups: newRegistry(objects.ServiceGroups(), func(g *core.ServiceGroup) *ServiceGroup {
			return &ServiceGroup{handle: g}
		}),
		contacts: newRegistry(objects.Contacts(), func(c *core.Contact) *Contact {
			return &Contact{handle: c}
		}),
		contactGroups: newRegistry(objects.ContactGroups(), func(g *core.ContactGroup) *ContactGroup {
			return &ContactGroup{handle: g}
		}),
		designations: map[string]*core.Host{},
	}

	for _, h := range idx.hosts.ordered {
		for _, designation := range []string{h.Address(), h.Alias(), h.Name()} {
			idx.designate(designation, h.handle, logger)
		}
	}

	logger.Infof(
		"Indexed %d hosts, %d services, %d host groups, %d service groups, %d contacts and %d contact groups",
		len(idx.hosts.ordered), len(idx.services.ordered), len(idx.hostGroups.ordered),
		len(idx.serviceGroups.ordered), len(idx.contacts.ordered), len(idx.contactGroups.ordered),
	)

	return idx
}

func (idx *Index) designate(designation string, h *core.Host, logger *zap.SugaredLogger) {
	if designation == "" {
		return
	}

	key := strings.ToLower(designation)
	if existing, ok := idx.designations[key]; ok {
		if existing != h {
			logger.Warnw("Ignoring ambiguous host designation",
				zap.String("designation", key), zap.String("host", h.Name), zap.String("existing_host", existing.Name))
		}

		return
	}

	idx.designations[key] = h
}

// Host returns the wrapper of h or nil if h isn't indexed.
func (idx *Index) Host(h *core.Host) *Host {
	return idx.hosts.get(h)
}

func (idx *Index) Service(s *core.Service) *Service {
	return idx.services.get(s)
}

func (idx *Index) HostGroup(g *core.HostGroup) *HostGroup {
	return idx.hostGroups.get(g)
}

func (idx *Index) ServiceGroup(g *core.ServiceGroup) *ServiceGroup {
	return idx.serviceGroups.get(g)
}

func (idx *Index) Contact(c *core.Contact) *Contact {
	return idx.contacts.get(c)
}

func (idx *Index) ContactGroup(g *core.ContactGroup) *ContactGroup {
	return idx.contactGroups.get(g)
}

// FindHost returns the host with the given name or nil if there's no such host.
func (idx *Index) FindHost(name string) *Host {
	return idx.hosts.get(idx.objects.FindHost(name))
}

func (idx *Index) FindService(hostName, description string) *Service {
	return idx.services.get(idx.objects.FindService(hostName, description))
}

func (idx *Index) FindHostGroup(name string) *HostGroup {
	return idx.hostGroups.get(idx.objects.FindHostGroup(name))
}

func (idx *Index) FindServiceGroup(name string) *ServiceGroup {
	return idx.serviceGroups.get(idx.objects.FindServiceGroup(name))
}

func (idx *Index) FindContact(name string) *Contact {
	return idx.contacts.get(idx.objects.FindContact(name))
}

func (idx *Index) FindContactGroup(name string) *ContactGroup {
	return idx.contactGroups.get(idx.objects.FindContactGroup(name))
}

// HostByDesignation returns the host with the given name, alias or address, ignoring case,
// or nil if there's no such host. The returned wrapper is a new one owned by the caller.
func (idx *Index) HostByDesignation(designation string) *Host {
	h, ok := idx.designations[strings.ToLower(designation)]
	if !ok {
		return nil
	}

	return &Host{handle: h}
}

// AllOfHosts calls pred for every host in definition order
// and returns false as soon as pred does, true otherwise.
func (idx *Index) AllOfHosts(pred func(*Host) bool) bool {
	return idx.hosts.all(pred)
}

func (idx *Index) AllOfServices(pred func(*Service) bool) bool {
	return idx.services.all(pred)
}

func (idx *Index) AllOfHostGroups(pred func(*HostGroup) bool) bool {
	return idx.hostGroups.all(pred)
}

func (idx *Index) AllOfServiceGroups(pred func(*ServiceGroup) bool) bool {
	return idx.serviceGroups.all(pred)
}

func (idx *Index) AllOfContacts(pred func(*Contact) bool) bool {
	return idx.contacts.all(pred)
}

func (idx *Index) AllOfContactGroups(pred func(*ContactGroup) bool) bool {
	return idx.contactGroups.all(pred)
}

func (idx *Index) NumHosts() int {
	return len(idx.hosts.ordered)
}

func (idx *Index) NumServices() int {
	return len(idx.services.ordered)
}

// registry maps handles of one object kind to their wrappers.
type registry[H comparable, W any] struct {
	wrappers map[H]*W
	ordered  []*W
}

func newRegistry[H comparable, W any](handles iter.Seq[H], wrap func(H) *W) registry[H, W] {
	r := registry[H, W]{wrappers: map[H]*W{}}
	for h := range handles {
		if _, ok := r.wrappers[h]; ok {
			continue
		}

		w := wrap(h)
		r.wrappers[h] = w
		r.ordered = append(r.ordered, w)
	}

	return r
}

// get returns nil for unknown handles including the nil handle.
func (r registry[H, W]) get(h H) *W {
	return r.wrappers[h]
}

func (r registry[H, W]) all(pred func(*W) bool) bool {
	for _, w := range r.ordered {
		if !pred(w) {
			return false
		}
	}

	return true
}
