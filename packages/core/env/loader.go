package env

import (
	"os"
	"strings"
)

func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// StringVariables widens a string map for use with MergeVariables.
func StringVariables(vars map[string]string) map[string]any {
	result := make(map[string]any, len(vars))
	for k, v := range vars {
		result[k] = v
	}
	return result
}

// LoadSystemEnv returns process environment variables whose name starts
// with prefix, keyed by the name with the prefix removed. An empty prefix
// returns nothing so the whole environment never leaks into variables.
func LoadSystemEnv(prefix string) map[string]any {
	result := make(map[string]any)
	if prefix == "" {
		return result
	}
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if name, found := strings.CutPrefix(key, prefix); found && name != "" {
			result[name] = value
		}
	}
	return result
}
