package fetch

import (
	"context"
	"net/url"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"
)

type getFunc func(rawURL string) (int, []byte, string, error)

// Robots caches one robots.txt group per scheme+host.
type Robots struct {
	userAgent string
	get       getFunc

	mu     sync.Mutex
	groups map[string]*robotstxt.Group
}

func NewRobots(userAgent string, get getFunc) *Robots {
	return &Robots{
		userAgent: userAgent,
		get:       get,
		groups:    make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether rawURL may be fetched. Hosts whose robots.txt
// cannot be loaded are allowed.
func (r *Robots) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	group := r.group(ctx, u)
	if group == nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

func (r *Robots) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	key := u.Scheme + "://" + u.Host

	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.groups[key]; ok {
		return g
	}
	if ctx.Err() != nil {
		return nil
	}

	robotsURL := key + "/robots.txt"
	status, body, _, err := r.get(robotsURL)
	if err != nil {
		log.Warn().Err(err).Str("url", robotsURL).Msg("robots.txt unavailable, allowing host")
		r.groups[key] = nil
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(status, body)
	if err != nil {
		log.Warn().Err(err).Str("url", robotsURL).Msg("robots.txt unparsable, allowing host")
		r.groups[key] = nil
		return nil
	}
	g := data.FindGroup(r.userAgent)
	r.groups[key] = g
	return g
}
