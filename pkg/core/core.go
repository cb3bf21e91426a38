package core

import (
	"iter"
	"slices"
	"time"
)

// Objects provides read access to the object graph of one configuration generation of the monitoring core.
// Name lookups return nil if there's no such object.
type Objects interface {
	Hosts() iter.Seq[*Host]
	Services() iter.Seq[*Service]
	HostGroups() iter.Seq[*HostGroup]
	ServiceGroups() iter.Seq[*ServiceGroup]
	Contacts() iter.Seq[*Contact]
	ContactGroups() iter.Seq[*ContactGroup]

	FindHost(name string) *Host
	FindService(hostName, description string) *Service
	FindHostGroup(name string) *HostGroup
	FindServiceGroup(name string) *ServiceGroup
	FindContact(name string) *Contact
	FindContactGroup(name string) *ContactGroup
}

// Snapshot is an immutable-after-construction Objects implementation
// which keeps objects in definition order.
// The Add* methods are not safe for concurrent use and must not be called once the Snapshot is shared.
type Snapshot struct {
	// ProgramStart is the time the configuration generation was loaded.
	ProgramStart time.Time

	hosts         []*Host
	services      []*Service
	hostGroups    []*HostGroup
	serviceGroups []*ServiceGroup
	contacts      []*Contact
	contactGroups []*ContactGroup

	hostsByName         map[string]*Host
	servicesByName      map[serviceKey]*Service
	hostGroupsByName    map[string]*HostGroup
	serviceGroupsByName map[string]*ServiceGroup
	contactsByName      map[string]*Contact
	contactGroupsByName map[string]*ContactGroup
}

type serviceKey struct {
	host        string
	description string
}

// NewSnapshot returns an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		ProgramStart:        time.Now(),
		hostsByName:         map[string]*Host{},
		servicesByName:      map[serviceKey]*Service{},
		hostGroupsByName:    map[string]*HostGroup{},
		serviceGroupsByName: map[string]*ServiceGroup{},
		contactsByName:      map[string]*Contact{},
		contactGroupsByName: map[string]*ContactGroup{},
	}
}

// AddHost adds h unless a host of the same name exists already and reports whether h was added.
func (s *Snapshot) AddHost(h *Host) bool {
	return add(&s.hosts, s.hostsByName, h.Name, h)
}

// AddService adds svc unless its host has a service of the same description already
// and reports whether svc was added. svc.Host must not be nil.
func (s *Snapshot) AddService(svc *Service) bool {
	return add(&s.services, s.servicesByName, serviceKey{svc.Host.Name, svc.Description}, svc)
}

func (s *Snapshot) AddHostGroup(hg *HostGroup) bool {
	return add(&s.hostGroups, s.hostGroupsByName, hg.Name, hg)
}

func (s *Snapshot) AddServiceGroup(sg *ServiceGroup) bool {
	return add(&s.serviceGroups, s.serviceGroupsByName, sg.Name, sg)
}

func (s *Snapshot) AddContact(c *Contact) bool {
	return add(&s.contacts, s.contactsByName, c.Name, c)
}

func (s *Snapshot) AddContactGroup(cg *ContactGroup) bool {
	return add(&s.contactGroups, s.contactGroupsByName, cg.Name, cg)
}

func (s *Snapshot) Hosts() iter.Seq[*Host] {
	return slices.Values(s.hosts)
}

func (s *Snapshot) Services() iter.Seq[*Service] {
	return slices.Values(s.services)
}

func (s *Snapshot) HostGroups() iter.Seq[*HostGroup] {
	return slices.Values(s.hostGroups)
}

func (s *Snapshot) ServiceGroups() iter.Seq[*ServiceGroup] {
	return slices.Values(s.serviceGroups)
}

func (s *Snapshot) Contacts() iter.Seq[*Contact] {
	return slices.Values(s.contacts)
}

func (s *Snapshot) ContactGroups() iter.Seq[*ContactGroup] {
	return slices.Values(s.contactGroups)
}

func (s *Snapshot) FindHost(name string) *Host {
	return s.hostsByName[name]
}

func (s *Snapshot) FindService(hostName, description string) *Service {
	return s.servicesByName[serviceKey{hostName, description}]
}

func (s *Snapshot) FindHostGroup(name string) *HostGroup {
	return s.hostGroupsByName[name]
}

func (s *Snapshot) FindServiceGroup(name string) *ServiceGroup {
	return s.serviceGroupsByName[name]
}

func (s *Snapshot) FindContact(name string) *Contact {
	return s.contactsByName[name]
}

func (s *Snapshot) FindContactGroup(name string) *ContactGroup {
	return s.contactGroupsByName[name]
}

func add[K comparable, V any](list *[]V, byName map[K]V, key K, v V) bool {
	if _, ok := byName[key]; ok {
		return false
	}

	byName[key] = v
	*list = append(*list, v)

	return true
}

// Assert interface compliance.
var _ Objects = (*Snapshot)(nil)
