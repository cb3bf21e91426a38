// Package objectscache loads the monitoring core's object graph from the objects.cache file
// the core writes on every (re)start.
package objectscache

import (
	"bufio"
	"github.com/icinga/icinga-livestatus/pkg/attributes"
	"github.com/icinga/icinga-livestatus/pkg/core"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"io"
	"os"
	"strings"
)

// maxLineLength limits the length of a single line of the objects.cache file.
const maxLineLength = 1 << 20

// definition is a single "define <type> { ... }" block.
type definition struct {
	kind       string
	line       int
	attributes map[string]string
	variables  []attributes.Variable
}

func (d *definition) get(key string) string {
	return d.attributes[key]
}

func (d *definition) list(key string) []string {
	var items []string
	for _, item := range strings.Split(d.attributes[key], ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

// Load parses the objects.cache file at path.
func Load(path string, logger *zap.SugaredLogger) (*core.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "can't open objects cache")
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "can't stat objects cache")
	}

	snapshot, err := Parse(f, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "can't parse %s", path)
	}

	snapshot.ProgramStart = st.ModTime()

	return snapshot, nil
}

// Parse reads object definitions from r and resolves their references.
func Parse(r io.Reader, logger *zap.SugaredLogger) (*core.Snapshot, error) {
	defs, err := readDefinitions(r)
	if err != nil {
		return nil, err
	}

	return build(defs, logger), nil
}

func readDefinitions(r io.Reader) ([]*definition, error) {
	var defs []*definition
	var current *definition

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}

		if current == nil {
			kind, ok := strings.CutPrefix(line, "define ")
			if !ok {
				return nil, errors.Errorf("line %d: expected object definition, got %q", lineNo, line)
			}

			kind = strings.TrimSpace(strings.TrimSuffix(kind, "{"))
			current = &definition{kind: kind, line: lineNo, attributes: map[string]string{}}

			continue
		}

		if line == "}" {
			defs = append(defs, current)
			current = nil

			continue
		}

		key, value := splitAttribute(line)
		if strings.HasPrefix(key, "_") {
			// Like the core, strip the leading underscore and upper-case custom variable names.
			current.variables = append(current.variables, attributes.Variable{
				Name:  strings.ToUpper(key[1:]),
				Value: value,
			})
		} else {
			current.attributes[key] = value
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "can't read object definitions")
	}

	if current != nil {
		return nil, errors.Errorf("line %d: unterminated %s definition", current.line, current.kind)
	}

	return defs, nil
}

func splitAttribute(line string) (string, string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}

	return line[:i], strings.TrimSpace(line[i+1:])
}

// build creates the objects in dependency order, so that references can be resolved by name.
func build(defs []*definition, logger *zap.SugaredLogger) *core.Snapshot {
	s := core.NewSnapshot()
	byKind := map[string][]*definition{}

	for _, d := range defs {
		byKind[d.kind] = append(byKind[d.kind], d)
	}

	for _, d := range byKind["contact"] {
		c := &core.Contact{
			Name:            d.get("contact_name"),
			Alias:           d.get("alias"),
			Email:           d.get("email"),
			Pager:           d.get("pager"),
			CustomVariables: d.variables,
		}
		if !s.AddContact(c) {
			logger.Warnf("Ignoring duplicate contact %q defined in line %d", c.Name, d.line)
		}
	}

	for _, d := range byKind["contactgroup"] {
		cg := &core.ContactGroup{Name: d.get("contactgroup_name"), Alias: d.get("alias")}
		for _, name := range d.list("members") {
			if c := s.FindContact(name); c != nil {
				cg.Members = append(cg.Members, c)
			} else {
				logger.Warnf("Contact group %q references unknown contact %q", cg.Name, name)
			}
		}

		if !s.AddContactGroup(cg) {
			logger.Warnf("Ignoring duplicate contact group %q defined in line %d", cg.Name, d.line)
		}
	}

	for _, d := range byKind["host"] {
		h := &core.Host{
			Name:            d.get("host_name"),
			Alias:           d.get("alias"),
			Address:         d.get("address"),
			DisplayName:     d.get("display_name"),
			CheckCommand:    d.get("check_command"),
			CustomVariables: d.variables,
		}
		h.Contacts, h.ContactGroups = contactsOf(s, d, logger)

		if !s.AddHost(h) {
			logger.Warnf("Ignoring duplicate host %q defined in line %d", h.Name, d.line)
		}
	}

	// Parents may be defined after their children.
	for _, d := range byKind["host"] {
		h := s.FindHost(d.get("host_name"))
		for _, name := range d.list("parents") {
			if parent := s.FindHost(name); parent != nil {
				h.Parents = append(h.Parents, parent)
			}
		}
	}

	for _, d := range byKind["service"] {
		host := s.FindHost(d.get("host_name"))
		if host == nil {
			logger.Warnf("Ignoring service %q of unknown host %q", d.get("service_description"), d.get("host_name"))
			continue
		}

		svc := &core.Service{
			Host:            host,
			Description:     d.get("service_description"),
			DisplayName:     d.get("display_name"),
			CheckCommand:    d.get("check_command"),
			CustomVariables: d.variables,
		}
		svc.Contacts, svc.ContactGroups = contactsOf(s, d, logger)

		if !s.AddService(svc) {
			logger.Warnf("Ignoring duplicate service %q of host %q", svc.Description, host.Name)
		}
	}

	for _, d := range byKind["hostgroup"] {
		hg := &core.HostGroup{Name: d.get("hostgroup_name"), Alias: d.get("alias")}
		for _, name := range d.list("members") {
			if h := s.FindHost(name); h != nil {
				hg.Members = append(hg.Members, h)
			}
		}

		if !s.AddHostGroup(hg) {
			logger.Warnf("Ignoring duplicate host group %q defined in line %d", hg.Name, d.line)
		}
	}

	for _, d := range byKind["servicegroup"] {
		sg := &core.ServiceGroup{Name: d.get("servicegroup_name"), Alias: d.get("alias")}

		// Members are host,service pairs: "web,HTTP,db,MySQL".
		members := d.list("members")
		for i := 0; i+1 < len(members); i += 2 {
			if svc := s.FindService(members[i], members[i+1]); svc != nil {
				sg.Members = append(sg.Members, svc)
			}
		}

		if !s.AddServiceGroup(sg) {
			logger.Warnf("Ignoring duplicate service group %q defined in line %d", sg.Name, d.line)
		}
	}

	return s
}

func contactsOf(s *core.Snapshot, d *definition, logger *zap.SugaredLogger) ([]*core.Contact, []*core.ContactGroup) {
	var contacts []*core.Contact
	for _, name := range d.list("contacts") {
		if c := s.FindContact(name); c != nil {
			contacts = append(contacts, c)
		} else {
			logger.Debugf("Ignoring unknown contact %q referenced in line %d", name, d.line)
		}
	}

	var groups []*core.ContactGroup
	for _, name := range d.list("contact_groups") {
		if cg := s.FindContactGroup(name); cg != nil {
			groups = append(groups, cg)
		}
	}

	return contacts, groups
}
