package env

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var dotenvReference = regexp.MustCompile(`\$\{(\w+)\}`)

// LoadDotEnv reads the env file at path. Nothing is exported to the process
// environment.
func LoadDotEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer file.Close()

	vars, err := ParseDotEnv(file)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return vars, nil
}

// ParseDotEnv parses KEY=value lines. It accepts an optional `export `
// prefix, # comments, single quoted literals and double quoted values with
// \n escapes. Unquoted and double quoted values may refer to earlier keys as
// ${KEY}.
func ParseDotEnv(r io.Reader) (map[string]string, error) {
	result := make(map[string]string)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		if key == "" {
			continue
		}
		value = strings.TrimSpace(value)

		switch {
		case len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'':
			value = value[1 : len(value)-1]
		case len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"':
			value = strings.ReplaceAll(value[1:len(value)-1], `\n`, "\n")
			value = expandReferences(value, result)
		default:
			if i := strings.Index(value, " #"); i >= 0 {
				value = strings.TrimSpace(value[:i])
			}
			value = expandReferences(value, result)
		}

		result[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// expandReferences replaces ${KEY} with an earlier value. Unknown keys are
// left as written.
func expandReferences(value string, known map[string]string) string {
	return dotenvReference.ReplaceAllStringFunc(value, func(ref string) string {
		if v, ok := known[ref[2:len(ref)-1]]; ok {
			return v
		}
		return ref
	})
}
