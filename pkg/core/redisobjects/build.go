package redisobjects

import (
	"cmp"
	"encoding/json"
	"github.com/cespare/xxhash/v2"
	"github.com/icinga/icinga-livestatus/pkg/attributes"
	"github.com/icinga/icinga-livestatus/pkg/core"
	"github.com/icinga/icinga-livestatus/pkg/flatten"
	"github.com/icinga/icinga-livestatus/pkg/retention"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"maps"
	"slices"
	"strings"
	"time"
)

// hashes maps Redis keys to the field-value pairs of the hashes stored at them.
type hashes map[string]map[string]string

// decode unmarshals the JSON values of the hash at key.
func decode[T any](h hashes, key string) (map[string]*T, error) {
	entities := make(map[string]*T, len(h[key]))
	for id, value := range h[key] {
		e := new(T)
		if err := json.Unmarshal([]byte(value), e); err != nil {
			return nil, errors.Wrapf(err, "can't decode %s %q", key, id)
		}

		entities[id] = e
	}

	return entities, nil
}

// sortedByName returns the IDs of entities ordered by the entities' names.
func sortedByName[T any](entities map[string]*T, name func(*T) string) []string {
	return slices.SortedFunc(maps.Keys(entities), func(a, b string) int {
		return cmp.Or(cmp.Compare(name(entities[a]), name(entities[b])), cmp.Compare(a, b))
	})
}

// objectID maps an Icinga 2 object ID to the 64-bit IDs comments and downtimes are identified by.
func objectID(id string) uint64 {
	return xxhash.Sum64String(id)
}

// builder assembles a core.Snapshot from the decoded hashes. IDs in the maps below refer to Redis object IDs.
type builder struct {
	logger   *zap.SugaredLogger
	snapshot *core.Snapshot

	hosts         map[string]*core.Host
	services      map[string]*core.Service
	contacts      map[string]*core.Contact
	contactGroups map[string]*core.ContactGroup
}

func buildSnapshot(h hashes, logger *zap.SugaredLogger) (*core.Snapshot, error) {
	b := &builder{
		logger:        logger,
		snapshot:      core.NewSnapshot(),
		hosts:         map[string]*core.Host{},
		services:      map[string]*core.Service{},
		contacts:      map[string]*core.Contact{},
		contactGroups: map[string]*core.ContactGroup{},
	}

	for _, step := range []func(hashes) error{b.contactsAndGroups, b.hostsAndServices, b.customvars, b.notifications, b.groups} {
		if err := step(h); err != nil {
			return nil, err
		}
	}

	return b.snapshot, nil
}

func (b *builder) contactsAndGroups(h hashes) error {
	users, err := decode[userEntity](h, keyUser)
	if err != nil {
		return err
	}

	for _, id := range sortedByName(users, func(u *userEntity) string { return u.Name }) {
		u := users[id]
		c := &core.Contact{Name: u.Name, Alias: cmp.Or(u.DisplayName, u.Name), Email: u.Email, Pager: u.Pager}
		if b.snapshot.AddContact(c) {
			b.contacts[id] = c
		}
	}

	usergroups, err := decode[groupEntity](h, keyUserGroup)
	if err != nil {
		return err
	}

	for _, id := range sortedByName(usergroups, func(g *groupEntity) string { return g.Name }) {
		g := usergroups[id]
		cg := &core.ContactGroup{Name: g.Name, Alias: cmp.Or(g.DisplayName, g.Name)}
		if b.snapshot.AddContactGroup(cg) {
			b.contactGroups[id] = cg
		}
	}

	members, err := decode[memberEntity](h, keyUserGroupMember)
	if err != nil {
		return err
	}

	for _, id := range slices.Sorted(maps.Keys(members)) {
		m := members[id]
		cg, c := b.contactGroups[m.UsergroupId], b.contacts[m.UserId]
		if cg == nil || c == nil {
			b.logger.Debugf("Ignoring dangling user group member %q", id)
			continue
		}

		cg.Members = append(cg.Members, c)
	}

	return nil
}

func (b *builder) hostsAndServices(h hashes) error {
	hosts, err := decode[hostEntity](h, keyHost)
	if err != nil {
		return err
	}

	for _, id := range sortedByName(hosts, func(h *hostEntity) string { return h.Name }) {
		raw := hosts[id]
		host := &core.Host{
			Name:         raw.Name,
			Alias:        cmp.Or(raw.DisplayName, raw.Name),
			Address:      raw.Address,
			DisplayName:  cmp.Or(raw.DisplayName, raw.Name),
			CheckCommand: raw.Checkcommand,
		}

		if b.snapshot.AddHost(host) {
			b.hosts[id] = host
		} else {
			b.logger.Warnf("Ignoring duplicate host %q", raw.Name)
		}
	}

	services, err := decode[serviceEntity](h, keyService)
	if err != nil {
		return err
	}

	for _, id := range sortedByName(services, func(s *serviceEntity) string { return s.Name }) {
		raw := services[id]
		host := b.hosts[raw.HostId]
		if host == nil {
			b.logger.Warnf("Ignoring service %q of unknown host", raw.Name)
			continue
		}

		svc := &core.Service{
			Host:         host,
			Description:  raw.Name,
			DisplayName:  cmp.Or(raw.DisplayName, raw.Name),
			CheckCommand: raw.Checkcommand,
		}

		if b.snapshot.AddService(svc) {
			b.services[id] = svc
		}
	}

	return nil
}

func (b *builder) customvars(h hashes) error {
	customvars, err := decode[customvarEntity](h, keyCustomvar)
	if err != nil {
		return err
	}

	assign := func(key string, vars func(objectId string) *[]attributes.Variable) error {
		assignments, err := decode[objectCustomvar](h, key)
		if err != nil {
			return err
		}

		for _, id := range slices.Sorted(maps.Keys(assignments)) {
			a := assignments[id]
			cv := customvars[a.CustomvarId]
			target := vars(a.objectId())
			if cv == nil || target == nil {
				continue
			}

			variables, err := flattenCustomvar(cv)
			if err != nil {
				b.logger.Warnw("Ignoring malformed custom variable", zap.String("name", cv.Name), zap.Error(err))
				continue
			}

			*target = append(*target, variables...)
		}

		return nil
	}

	if err := assign(keyHostCustomvar, func(id string) *[]attributes.Variable {
		if host := b.hosts[id]; host != nil {
			return &host.CustomVariables
		}

		return nil
	}); err != nil {
		return err
	}

	if err := assign(keyServiceCustomvar, func(id string) *[]attributes.Variable {
		if svc := b.services[id]; svc != nil {
			return &svc.CustomVariables
		}

		return nil
	}); err != nil {
		return err
	}

	return assign(keyUserCustomvar, func(id string) *[]attributes.Variable {
		if c := b.contacts[id]; c != nil {
			return &c.CustomVariables
		}

		return nil
	})
}

// flattenCustomvar converts an Icinga 2 custom variable, whose value is JSON and may be nested,
// into flat variables with upper-cased names like classic monitoring cores use them.
func flattenCustomvar(cv *customvarEntity) ([]attributes.Variable, error) {
	var value any
	if err := json.Unmarshal([]byte(cv.Value), &value); err != nil {
		return nil, errors.Wrap(err, "can't decode custom variable value")
	}

	flattened := flatten.Flatten(value, cv.Name)
	variables := make([]attributes.Variable, 0, len(flattened))
	for _, name := range slices.Sorted(maps.Keys(flattened)) {
		variables = append(variables, attributes.Variable{Name: strings.ToUpper(name), Value: flattened[name]})
	}

	return variables, nil
}

// notifications derives the contacts and contact groups of hosts and services
// from the users and user groups notified about them.
func (b *builder) notifications(h hashes) error {
	notifications, err := decode[notificationEntity](h, keyNotification)
	if err != nil {
		return err
	}

	for _, key := range []string{keyNotificationUser, keyNotificationUsergroup} {
		recipients, err := decode[notificationRecipient](h, key)
		if err != nil {
			return err
		}

		for _, id := range slices.Sorted(maps.Keys(recipients)) {
			r := recipients[id]
			n := notifications[r.NotificationId]
			if n == nil {
				continue
			}

			var contacts *[]*core.Contact
			var contactGroups *[]*core.ContactGroup
			if n.ServiceId != "" {
				if svc := b.services[n.ServiceId]; svc != nil {
					contacts, contactGroups = &svc.Contacts, &svc.ContactGroups
				}
			} else if host := b.hosts[n.HostId]; host != nil {
				contacts, contactGroups = &host.Contacts, &host.ContactGroups
			}

			if contacts == nil {
				continue
			}

			if c := b.contacts[r.UserId]; c != nil && !slices.Contains(*contacts, c) {
				*contacts = append(*contacts, c)
			}

			if cg := b.contactGroups[r.UsergroupId]; cg != nil && !slices.Contains(*contactGroups, cg) {
				*contactGroups = append(*contactGroups, cg)
			}
		}
	}

	return nil
}

func (b *builder) groups(h hashes) error {
	hostgroups, err := decode[groupEntity](h, keyHostGroup)
	if err != nil {
		return err
	}

	hostgroupsById := map[string]*core.HostGroup{}
	for _, id := range sortedByName(hostgroups, func(g *groupEntity) string { return g.Name }) {
		g := hostgroups[id]
		hg := &core.HostGroup{Name: g.Name, Alias: cmp.Or(g.DisplayName, g.Name)}
		if b.snapshot.AddHostGroup(hg) {
			hostgroupsById[id] = hg
		}
	}

	servicegroups, err := decode[groupEntity](h, keyServiceGroup)
	if err != nil {
		return err
	}

	servicegroupsById := map[string]*core.ServiceGroup{}
	for _, id := range sortedByName(servicegroups, func(g *groupEntity) string { return g.Name }) {
		g := servicegroups[id]
		sg := &core.ServiceGroup{Name: g.Name, Alias: cmp.Or(g.DisplayName, g.Name)}
		if b.snapshot.AddServiceGroup(sg) {
			servicegroupsById[id] = sg
		}
	}

	hostgroupMembers, err := decode[memberEntity](h, keyHostGroupMember)
	if err != nil {
		return err
	}

	for _, id := range slices.Sorted(maps.Keys(hostgroupMembers)) {
		m := hostgroupMembers[id]
		if hg, host := hostgroupsById[m.HostgroupId], b.hosts[m.HostId]; hg != nil && host != nil {
			hg.Members = append(hg.Members, host)
		}
	}

	servicegroupMembers, err := decode[memberEntity](h, keyServiceGroupMember)
	if err != nil {
		return err
	}

	for _, id := range slices.Sorted(maps.Keys(servicegroupMembers)) {
		m := servicegroupMembers[id]
		if sg, svc := servicegroupsById[m.ServicegroupId], b.services[m.ServiceId]; sg != nil && svc != nil {
			sg.Members = append(sg.Members, svc)
		}
	}

	return nil
}

// buildRetention resolves the comments and downtimes in h against objects.
// Entries of objects which aren't part of objects are skipped.
func buildRetention(h hashes, objects core.Objects) (retention.Comments, retention.Downtimes, error) {
	hosts, err := decode[hostEntity](h, keyHost)
	if err != nil {
		return nil, nil, err
	}

	services, err := decode[serviceEntity](h, keyService)
	if err != nil {
		return nil, nil, err
	}

	resolve := func(hostId, serviceId string) (*core.Host, *core.Service) {
		if serviceId != "" {
			svc := services[serviceId]
			if svc == nil || hosts[svc.HostId] == nil {
				return nil, nil
			}

			if s := objects.FindService(hosts[svc.HostId].Name, svc.Name); s != nil {
				return s.Host, s
			}

			return nil, nil
		}

		if raw := hosts[hostId]; raw != nil {
			return objects.FindHost(raw.Name), nil
		}

		return nil, nil
	}

	rawComments, err := decode[commentEntity](h, keyComment)
	if err != nil {
		return nil, nil, err
	}

	comments := make(retention.Comments, len(rawComments))
	for id, raw := range rawComments {
		host, svc := resolve(raw.HostId, raw.ServiceId)
		if host == nil {
			continue
		}

		c := &core.Comment{
			ID:         objectID(id),
			Host:       host,
			Service:    svc,
			Author:     raw.Author,
			Text:       raw.Text,
			EntryType:  commentEntryType(raw.EntryType),
			EntryTime:  unixMilli(raw.EntryTime),
			Persistent: raw.IsPersistent,
			ExpireTime: unixMilli(raw.ExpireTime),
		}
		comments[c.ID] = c
	}

	rawDowntimes, err := decode[downtimeEntity](h, keyDowntime)
	if err != nil {
		return nil, nil, err
	}

	downtimes := make(retention.Downtimes, len(rawDowntimes))
	for id, raw := range rawDowntimes {
		host, svc := resolve(raw.HostId, raw.ServiceId)
		if host == nil {
			continue
		}

		d := &core.Downtime{
			ID:        objectID(id),
			Host:      host,
			Service:   svc,
			Author:    raw.Author,
			Comment:   raw.Comment,
			EntryTime: unixMilli(raw.EntryTime),
			StartTime: unixMilli(raw.ScheduledStartTime),
			EndTime:   unixMilli(raw.ScheduledEndTime),
			Fixed:     !raw.IsFlexible,
		}

		if raw.IsFlexible {
			d.Duration = time.Duration(raw.FlexibleDuration) * time.Millisecond
		} else {
			d.Duration = d.EndTime.Sub(d.StartTime)
		}

		if raw.TriggeredById != "" {
			d.TriggeredBy = objectID(raw.TriggeredById)
		}

		downtimes[d.ID] = d
	}

	return comments, downtimes, nil
}

func commentEntryType(t string) core.CommentEntryType {
	switch t {
	case "ack":
		return core.AcknowledgementComment
	case "downtime":
		return core.DowntimeComment
	case "flapping":
		return core.FlappingComment
	default:
		return core.UserComment
	}
}

func unixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}

	return time.UnixMilli(ms)
}
