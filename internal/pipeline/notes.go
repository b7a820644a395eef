package pipeline

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"

	"bill_spider/internal/models"
)

const summaryWords = 60

func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " ..."
}

// summarize returns a short readable summary of the latest explanatory
// notes, or "" when there are none or they can't be read.
func (p *BillPipeline) summarize(ctx context.Context, docs models.Documents, logger zerolog.Logger) string {
	note, ok := docs.LatestNote()
	if !ok {
		return ""
	}

	raw, err := p.fetcher.Fetch(ctx, note.URL)
	if err != nil {
		logger.Debug().Err(err).Str("stage", "notes").Str("url", note.URL).Msg("notes unavailable")
		return ""
	}
	parsedURL, err := url.Parse(note.URL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(raw), parsedURL)
	if err != nil {
		logger.Debug().Err(err).Str("stage", "notes").Str("url", note.URL).Msg("notes not readable")
		return ""
	}

	if excerpt := normalizeText(article.Excerpt); excerpt != "" {
		return excerpt
	}
	return firstWords(article.TextContent, summaryWords)
}
