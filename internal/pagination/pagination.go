// Package pagination expands the last-page link of a multi-page bill text
// into the full, ordered list of page URLs.
package pagination

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const pageExt = ".htm"

// maxPages bounds the page count read from a last-page link.
const maxPages = 1000

// ErrNoContentYet is returned when the page count cannot be read from the
// last-page link. Bills without a published text look like this.
var ErrNoContentYet = errors.New("no bill text yet")

// BaseURL strips the file name from a page URL, keeping the trailing slash.
func BaseURL(pageURL string) string {
	if i := strings.LastIndex(pageURL, "/"); i >= 0 {
		return pageURL[:i+1]
	}
	return ""
}

// ResolvePages turns a last-page href such as "cbill_2013-20140132_en_16.htm"
// into 16 URLs, baseURL + "cbill_2013-20140132_en_" + n + ".htm" for n in 1..16.
func ResolvePages(baseURL, lastPageHref string) ([]string, error) {
	if !strings.HasSuffix(lastPageHref, pageExt) {
		return nil, fmt.Errorf("%w: %q does not end in %s", ErrNoContentYet, lastPageHref, pageExt)
	}
	name := strings.TrimSuffix(lastPageHref, pageExt)

	underscore := strings.LastIndex(name, "_")
	if underscore < 0 {
		return nil, fmt.Errorf("%w: no page suffix in %q", ErrNoContentYet, lastPageHref)
	}
	count, err := strconv.Atoi(name[underscore+1:])
	if err != nil || count <= 0 {
		return nil, fmt.Errorf("%w: bad page count in %q", ErrNoContentYet, lastPageHref)
	}
	if count > maxPages {
		return nil, fmt.Errorf("%w: %d pages in %q exceeds %d", ErrNoContentYet, count, lastPageHref, maxPages)
	}
	prefix := name[:underscore+1]

	pages := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		pages = append(pages, baseURL+prefix+strconv.Itoa(i)+pageExt)
	}
	return pages, nil
}
