// Package feed reads the list of bills currently before Parliament from the
// bills RSS feed and seeds one Bill record per entry.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"bill_spider/internal/models"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Source struct {
	URL string
	// SessionYear overrides the year derived from the clock.
	SessionYear string

	fetcher Fetcher
	now     func() time.Time
}

func NewSource(url, sessionYear string, fetcher Fetcher) *Source {
	return &Source{
		URL:         url,
		SessionYear: sessionYear,
		fetcher:     fetcher,
		now:         time.Now,
	}
}

func (s *Source) year() string {
	if s.SessionYear != "" {
		return s.SessionYear
	}
	return SessionYear(s.now())
}

// Bills fetches the feed and returns a fresh record for every entry with a link.
func (s *Source) Bills(ctx context.Context) ([]*models.Bill, error) {
	body, err := s.fetcher.Fetch(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch bill feed: %w", err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse bill feed: %w", err)
	}

	year := s.year()
	bills := make([]*models.Bill, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			log.Warn().Str("title", item.Title).Msg("feed entry without link, skipping")
			continue
		}
		guid := strings.TrimSpace(item.GUID)
		if guid == "" {
			guid = link
		}
		name := strings.TrimSpace(item.Title)

		bills = append(bills, &models.Bill{
			ID:          ComputeID(guid),
			Name:        name,
			URL:         link,
			Description: strings.TrimSpace(item.Description),
			Year:        year,
			Path:        BillPath(year, name),
			Sponsors:    []string{},
		})
	}

	log.Info().Str("feed", s.URL).Int("bills", len(bills)).Msg("bill feed read")
	return bills, nil
}
