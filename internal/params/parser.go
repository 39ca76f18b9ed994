package params

import (
	"fmt"
	"strings"
)

// ParseKeyValuePairs turns repeated --param "key=value" flags into a
// map. Values may contain further '=' characters; only the first one
// splits. A duplicate key keeps the last value given.
func ParseKeyValuePairs(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("parameter %q is not in key=value format (example: --param title=Auckland)", pair)
		}
		if key == "" {
			return nil, fmt.Errorf("parameter has empty key: %q", pair)
		}
		result[key] = value
	}

	return result, nil
}
