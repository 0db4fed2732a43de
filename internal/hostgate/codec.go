package hostgate

import (
	"sort"
	"strings"
)

// Delimiter joins persisted host entries. It contains '@' twice and
// normalized hosts never contain '@', so entries cannot collide with it.
const Delimiter = "_@@_"

// Encode joins host entries into the single persisted string.
// Entries are sorted so identical sets always encode identically.
func Encode(hosts []string) string {
	sorted := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h != "" {
			sorted = append(sorted, h)
		}
	}
	sort.Strings(sorted)
	return strings.Join(sorted, Delimiter)
}

// Decode splits a persisted string back into host entries.
// Empty entries are dropped and duplicates collapse.
func Decode(value string) []string {
	if value == "" {
		return nil
	}

	seen := make(map[string]bool)
	hosts := make([]string, 0)
	for _, part := range strings.Split(value, Delimiter) {
		h := strings.TrimSpace(part)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		hosts = append(hosts, h)
	}
	return hosts
}
