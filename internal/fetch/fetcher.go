package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gocolly/colly"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
)

type Options struct {
	UserAgent string
	Timeout   time.Duration
	// Parallelism caps in-flight requests per host across all Fetch calls.
	Parallelism int
	Delay       time.Duration
	// RespectRobots enables the robots.txt gate.
	RespectRobots bool
}

// Fetcher performs single-attempt GETs. It is safe for concurrent use:
// every Fetch runs on a clone of one collector, so limits and the HTTP
// backend are shared while callbacks are not.
type Fetcher struct {
	collector *colly.Collector
	robots    *Robots
}

func NewFetcher(opts Options) (*Fetcher, error) {
	collector := colly.NewCollector(
		colly.AllowURLRevisit(),
	)
	if opts.UserAgent != "" {
		collector.UserAgent = opts.UserAgent
	}
	if opts.Timeout > 0 {
		collector.SetRequestTimeout(opts.Timeout)
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
		Delay:       opts.Delay,
	})
	if err != nil {
		return nil, fmt.Errorf("collector limit: %w", err)
	}

	f := &Fetcher{collector: collector}
	if opts.RespectRobots {
		f.robots = NewRobots(collector.UserAgent, f.get)
	}
	return f, nil
}

// Fetch returns the body of rawURL or a *Error. Bodies that are not valid
// UTF-8 are decoded using the declared or sniffed charset.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: Unreachable, URL: rawURL, Err: err}
	}
	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		log.Debug().Str("url", rawURL).Msg("blocked by robots.txt")
		return nil, &Error{Kind: Disallowed, URL: rawURL}
	}

	status, body, contentType, err := f.get(rawURL)
	if err != nil {
		return nil, &Error{Kind: Unreachable, URL: rawURL, Err: err}
	}
	if status < 200 || status > 299 {
		return nil, &Error{Kind: BadStatus, URL: rawURL, StatusCode: status}
	}

	if !utf8.Valid(body) {
		body = decode(body, contentType)
	}
	return body, nil
}

// get issues the request without status validation. Transport failures are
// the only errors it returns.
func (f *Fetcher) get(rawURL string) (int, []byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, nil, "", err
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return 0, nil, "", fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}

	c := f.collector.Clone()
	c.ParseHTTPErrorResponse = true

	var resp *colly.Response
	c.OnResponse(func(r *colly.Response) {
		resp = r
	})
	if err := c.Visit(rawURL); err != nil {
		return 0, nil, "", err
	}
	if resp == nil {
		return 0, nil, "", errors.New("no response")
	}
	return resp.StatusCode, resp.Body, resp.Headers.Get("Content-Type"), nil
}

func decode(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}
