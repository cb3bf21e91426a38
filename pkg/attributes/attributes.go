package attributes

import "strings"

// Kind classifies a custom variable by its naming convention.
type Kind int

const (
	CustomVariables Kind = iota
	Tags
	Labels
	LabelSources
)

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case CustomVariables:
		return "custom_variables"
	case Tags:
		return "tags"
	case Labels:
		return "labels"
	case LabelSources:
		return "label_sources"
	default:
		return "unknown"
	}
}

// Variable is a custom variable as the monitoring core stores it.
type Variable struct {
	Name  string
	Value string
}

// Attributes maps attribute names to their values, all of the same Kind.
type Attributes map[string]string

// prefixes must not shadow each other, i.e. no prefix may be a prefix of another one.
var prefixes = []struct {
	prefix string
	kind   Kind
}{
	{"_TAG_", Tags},
	{"_LABEL_", Labels},
	{"_LABELSOURCE_", LabelSources},
}

// Classify returns the Kind of the given variable name and the name without its kind prefix.
func Classify(name string) (Kind, string) {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p.prefix) {
			return p.kind, name[len(p.prefix):]
		}
	}

	return CustomVariables, name
}

// Collect builds the Attributes of the given Kind from vars.
// Only the first occurrence of a key is kept.
func Collect(vars []Variable, kind Kind) Attributes {
	attrs := Attributes{}

	for _, v := range vars {
		k, name := Classify(v.Name)
		if k != kind {
			continue
		}

		key, value := decode(kind, name, v.Value)
		if _, ok := attrs[key]; !ok {
			attrs[key] = value
		}
	}

	return attrs
}

// Find returns the value of the first variable of the given Kind named key.
func Find(vars []Variable, kind Kind, key string) (string, bool) {
	for _, v := range vars {
		k, name := Classify(v.Name)
		if k != kind {
			continue
		}

		if kind == CustomVariables {
			if name == key {
				return v.Value, true
			}
		} else if B16Decode(name) == key {
			return B16Decode(v.Value), true
		}
	}

	return "", false
}

func decode(kind Kind, name, value string) (string, string) {
	if kind == CustomVariables {
		return name, value
	}

	return B16Decode(name), B16Decode(value)
}
