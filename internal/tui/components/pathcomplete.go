package components

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PathCompleter backs the Tab key on path prompts, like the GeoPackage
// file question in the init wizard. Repeated Tab presses against the
// same directory cycle through the matches; any other keypress should
// call Reset.
type PathCompleter struct {
	matches    []string
	cycleIndex int
	cycleDir   string
	dirsOnly   bool
}

// NewPathCompleter creates a completer. With dirsOnly set, plain files
// are skipped.
func NewPathCompleter(dirsOnly bool) *PathCompleter {
	return &PathCompleter{dirsOnly: dirsOnly}
}

// Next completes input one step. The first call against a directory
// extends the common prefix of all matches (or returns the first match);
// later calls cycle.
func (c *PathCompleter) Next(input string) string {
	parent, prefix := splitPath(input)

	if parent == c.cycleDir && c.matches != nil {
		if len(c.matches) == 0 {
			return input
		}
		c.cycleIndex = (c.cycleIndex + 1) % len(c.matches)
		return c.formatMatch(parent, c.matches[c.cycleIndex])
	}

	c.matches = c.findMatches(parent, prefix)
	c.cycleIndex = 0
	c.cycleDir = parent

	if len(c.matches) == 0 {
		return input
	}

	// Extend to the shared prefix first, so `auck` becomes `auckland_`
	// before cycling starts.
	if len(c.matches) > 1 {
		common := longestCommonPrefix(c.matches)
		candidate := filepath.Join(parent, common)
		if len(candidate) > len(input) {
			return candidate
		}
	}

	return c.formatMatch(parent, c.matches[c.cycleIndex])
}

// Reset clears cycling state.
func (c *PathCompleter) Reset() {
	c.matches = nil
	c.cycleIndex = 0
	c.cycleDir = ""
}

func (c *PathCompleter) findMatches(parent, prefix string) []string {
	if parent == "" {
		parent = "."
	}

	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil
	}

	var matches []string
	lowPrefix := strings.ToLower(prefix)

	for _, entry := range entries {
		if c.dirsOnly && !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(strings.ToLower(name), lowPrefix) {
			matches = append(matches, name)
		}
	}

	sort.Strings(matches)
	return matches
}

func (c *PathCompleter) formatMatch(parent, name string) string {
	result := filepath.Join(parent, name)

	// Directories get a trailing separator so the next Tab descends.
	info, err := os.Stat(result)
	if err == nil && info.IsDir() {
		result += string(filepath.Separator)
	}

	return result
}

// splitPath splits an input into the directory to search and the name
// prefix to match.
//
//	"./tiles/auck" → ("tiles", "auck")
//	"./tiles/"     → ("./tiles", "")
//	"my"           → (".", "my")
//	""             → (".", "")
func splitPath(input string) (parent, prefix string) {
	if input == "" || input == "." {
		return ".", ""
	}

	if strings.HasSuffix(input, string(filepath.Separator)) || strings.HasSuffix(input, "/") {
		return strings.TrimRight(input, `/\`), ""
	}

	return filepath.Dir(input), filepath.Base(input)
}

// longestCommonPrefix is case-insensitive but returns the casing of the
// first match.
func longestCommonPrefix(strs []string) string {
	if len(strs) == 0 {
		return ""
	}
	if len(strs) == 1 {
		return strs[0]
	}

	lowered := make([]string, len(strs))
	for i, s := range strs {
		lowered[i] = strings.ToLower(s)
	}

	first := lowered[0]
	for i := 0; i < len(first); i++ {
		for _, s := range lowered[1:] {
			if i >= len(s) || s[i] != first[i] {
				return strs[0][:i]
			}
		}
	}
	return strs[0]
}
