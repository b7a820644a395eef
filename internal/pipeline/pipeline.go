// Package pipeline drives one bill through fetching, extraction, pagination
// and assembly, degrading instead of failing whenever a source is missing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"bill_spider/internal/assemble"
	"bill_spider/internal/extract"
	"bill_spider/internal/members"
	"bill_spider/internal/models"
	"bill_spider/internal/pagination"
)

// ErrInvalidBillURL is the only error Run returns.
var ErrInvalidBillURL = errors.New("bill url must be an absolute http(s) url")

const defaultMaxPageFetches = 8

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// MemberResolver turns normalised sponsor names into member references.
type MemberResolver interface {
	Resolve(ctx context.Context, names []string) ([]models.MemberRef, error)
}

type BillPipeline struct {
	fetcher        Fetcher
	resolver       MemberResolver
	aliases        map[string]string
	maxPageFetches int
}

type Option func(*BillPipeline)

// WithResolver enables member enrichment of sponsor names.
func WithResolver(r MemberResolver, aliases map[string]string) Option {
	return func(p *BillPipeline) {
		p.resolver = r
		p.aliases = aliases
	}
}

// WithMaxPageFetches caps the page fetches a single bill has in flight.
func WithMaxPageFetches(n int) Option {
	return func(p *BillPipeline) {
		if n > 0 {
			p.maxPageFetches = n
		}
	}
}

func NewBillPipeline(fetcher Fetcher, opts ...Option) *BillPipeline {
	p := &BillPipeline{
		fetcher:        fetcher,
		maxPageFetches: defaultMaxPageFetches,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func validBillURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// Run fills in bill. Stages run in order and every source failure is logged
// and degrades the result; only a bad bill URL is an error.
func (p *BillPipeline) Run(ctx context.Context, bill *models.Bill) error {
	if !validBillURL(bill.URL) {
		return fmt.Errorf("%w: %q", ErrInvalidBillURL, bill.URL)
	}
	logger := log.With().Str("bill", bill.Name).Logger()

	raw, err := p.fetcher.Fetch(ctx, bill.URL)
	if err != nil {
		logger.Warn().Err(err).Str("stage", "sponsors").Msg("bill page unavailable, bill left unchanged")
		return nil
	}
	p.applySponsors(ctx, bill, raw, logger)

	docs, err := p.fetchDocuments(ctx, bill.URL)
	if err != nil {
		logger.Warn().Err(err).Str("stage", "documents").Msg("no documents, bill has no text")
		bill.ClearText()
		return nil
	}
	bill.Documents = docs
	bill.Summary = p.summarize(ctx, docs, logger)

	version, ok := docs.LatestVersion()
	if !ok {
		logger.Debug().Msg("no published versions yet")
		bill.ClearText()
		return nil
	}

	pages, err := p.resolvePages(ctx, version.URL)
	if err != nil {
		logger.Warn().Err(err).Str("stage", "pages").Str("url", version.URL).Msg("can't resolve pages, bill has no text")
		bill.ClearText()
		return nil
	}

	res := assemble.Assemble(bill.Name, p.fetchPages(ctx, pages, logger))
	bill.Pages = pages
	bill.Text = res.Text
	bill.SetHTML(res.HTML)

	logger.Debug().Int("pages", len(pages)).Bool("has_text", bill.HasText).Msg("bill assembled")
	return nil
}

func (p *BillPipeline) applySponsors(ctx context.Context, bill *models.Bill, raw []byte, logger zerolog.Logger) {
	sponsors, err := extract.ExtractSponsors(raw)
	if err != nil {
		logger.Warn().Err(err).Str("stage", "sponsors").Msg("no sponsor list on bill page")
		return
	}
	bill.Type = sponsors.Type
	bill.Sponsors = append([]string{}, sponsors.Names...)

	if p.resolver == nil {
		return
	}
	names := members.NormalizeNames(bill.Sponsors, p.aliases)
	if len(names) == 0 {
		return
	}
	refs, err := p.resolver.Resolve(ctx, names)
	if err != nil {
		logger.Warn().Err(err).Str("stage", "members").Msg("can't resolve sponsors")
		bill.Members = nil
		return
	}
	bill.Members = refs
}

// DocumentsURL is the address of a bill's documents index, derived from the
// bill page address ("care.html" -> "care/documents.html").
func DocumentsURL(billURL string) string {
	if strings.HasSuffix(billURL, ".html") {
		return strings.TrimSuffix(billURL, ".html") + "/documents.html"
	}
	return strings.TrimRight(billURL, "/") + "/documents.html"
}

func (p *BillPipeline) fetchDocuments(ctx context.Context, billURL string) (models.Documents, error) {
	docsURL := DocumentsURL(billURL)
	raw, err := p.fetcher.Fetch(ctx, docsURL)
	if err != nil {
		return models.Documents{}, err
	}
	return extract.ExtractDocuments(raw, docsURL)
}

// resolvePages reads the pagination marker of the first page of a version
// and expands it into every page URL.
func (p *BillPipeline) resolvePages(ctx context.Context, versionURL string) ([]string, error) {
	raw, err := p.fetcher.Fetch(ctx, versionURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pagination.ErrNoContentYet, err)
	}
	href, err := extract.ExtractLastPage(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pagination.ErrNoContentYet, err)
	}
	return pagination.ResolvePages(pagination.BaseURL(versionURL), lastPageName(href))
}

// lastPageName drops any directory part and fragment of a last-page href.
func lastPageName(href string) string {
	if i := strings.IndexAny(href, "#?"); i >= 0 {
		href = href[:i]
	}
	if i := strings.LastIndex(href, "/"); i >= 0 {
		href = href[i+1:]
	}
	return href
}

// fetchPages fetches every page concurrently. A page that can't be fetched
// or has no content container contributes an empty body.
func (p *BillPipeline) fetchPages(ctx context.Context, urls []string, logger zerolog.Logger) []assemble.Page {
	pages := make([]assemble.Page, len(urls))

	var g errgroup.Group
	g.SetLimit(p.maxPageFetches)
	for i, pageURL := range urls {
		pages[i].Index = i + 1
		g.Go(func() error {
			raw, err := p.fetcher.Fetch(ctx, pageURL)
			if err != nil {
				logger.Warn().Err(err).Int("page", i+1).Str("url", pageURL).Msg("page fetch failed")
				return nil
			}
			body, err := extract.ExtractContentBody(raw)
			if err != nil {
				logger.Warn().Err(err).Int("page", i+1).Str("url", pageURL).Msg("page has no content")
				return nil
			}
			pages[i].Body = body
			return nil
		})
	}
	_ = g.Wait()
	return pages
}
