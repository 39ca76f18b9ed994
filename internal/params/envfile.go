package params

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// ParseEnvFile parses .env-style content into key/value pairs. Lines
// starting with # and blank lines are skipped; values may be wrapped in
// single or double quotes, which are stripped. Variable expansion and
// multiline values are not supported.
func ParseEnvFile(content []byte) (map[string]string, error) {
	result := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(content))
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, err := splitEnvLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		result[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading content: %w", err)
	}

	return result, nil
}

func splitEnvLine(line string) (string, string, error) {
	eq := strings.Index(line, "=")
	if eq == -1 {
		return "", "", fmt.Errorf("invalid format, expected KEY=VALUE")
	}

	key := strings.TrimSpace(line[:eq])
	if key == "" {
		return "", "", fmt.Errorf("empty key")
	}

	return key, unquote(strings.TrimSpace(line[eq+1:])), nil
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	if (value[0] == '"' && value[len(value)-1] == '"') ||
		(value[0] == '\'' && value[len(value)-1] == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}
