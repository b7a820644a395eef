// Package members normalises sponsor names taken from bill pages so they can
// be matched against known Members of Parliament.
package members

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"bill_spider/internal/feed"
)

var honorifics = []string{"Mr ", "Ms ", "Mrs ", "Sir ", "Dr "}

// NormalizeName trims a sponsor name, drops a leading honorific and maps it
// through aliases (name on the bill -> name the member goes by).
func NormalizeName(name string, aliases map[string]string) string {
	name = strings.TrimSpace(name)
	for _, h := range honorifics {
		if strings.HasPrefix(name, h) {
			name = strings.TrimSpace(strings.TrimPrefix(name, h))
			break
		}
	}
	if alias, ok := aliases[name]; ok {
		return alias
	}
	return name
}

// NormalizeNames applies NormalizeName to every non-empty name.
func NormalizeNames(names []string, aliases map[string]string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = NormalizeName(n, aliases); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// PlaceholderID is the internal id given to a member not found elsewhere.
func PlaceholderID(name string) string {
	return fmt.Sprintf("0-%x", sha1.Sum([]byte(name)))
}

// Path is the member's human-readable path, "/<id>/<slugged name>".
func Path(id, name string) string {
	return "/" + id + "/" + feed.Slug(name)
}
