package flatten

import (
	"encoding/json"
	"strconv"
)

// Flatten creates a flat, one-dimensional map from an arbitrarily nested value decoded from JSON.
// Keys of nested objects are joined with dots, array indices are appended in brackets.
// Leaves are rendered as strings, JSON-encoded unless they are strings already,
// and empty objects and arrays yield an empty string.
func Flatten(value any, prefix string) map[string]string {
	flattened := make(map[string]string)

	var flatten func(string, any)
	flatten = func(key string, value any) {
		switch value := value.(type) {
		case map[string]any:
			if len(value) == 0 {
				flattened[key] = ""
				break
			}

			for k, v := range value {
				flatten(key+"."+k, v)
			}
		case []any:
			if len(value) == 0 {
				flattened[key] = ""
				break
			}

			for i, v := range value {
				flatten(key+"["+strconv.Itoa(i)+"]", v)
			}
		case string:
			flattened[key] = value
		case nil:
			flattened[key] = "null"
		case float64:
			flattened[key] = strconv.FormatFloat(value, 'f', -1, 64)
		default:
			if encoded, err := json.Marshal(value); err == nil {
				flattened[key] = string(encoded)
			}
		}
	}

	flatten(prefix, value)

	return flattened
}
