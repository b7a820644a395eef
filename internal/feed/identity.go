package feed

import (
	"crypto/sha1"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	reHyphenRuns = regexp.MustCompile(`-{2,}`)
	reSlugJunk   = regexp.MustCompile(`[^a-z0-9-]`)
)

// ComputeID hashes a feed guid into the stable bill identity.
func ComputeID(guid string) string {
	hash := sha1.Sum([]byte(guid))
	return fmt.Sprintf("%x", hash)
}

// Slug makes a URL-friendly name: "Inheritance and Trustees' Powers"
// becomes "inheritance-and-trustees-powers".
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = reSlugJunk.ReplaceAllString(s, "")
	s = reHyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// BillPath is the human-readable path of a bill, e.g. "/2013-2014/care".
func BillPath(year, name string) string {
	return "/" + year + "/" + Slug(name)
}

// SessionYear returns the parliamentary session containing t. Sessions are
// taken to start in May.
func SessionYear(t time.Time) string {
	y := t.Year()
	if t.Month() < time.May {
		y--
	}
	return fmt.Sprintf("%d-%d", y, y+1)
}
