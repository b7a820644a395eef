// Package extract pulls the structured fragments the bill pipeline needs out of
// parliament.uk bill pages: the sponsor list, the document tables, the
// pagination marker of a bill text and the text body itself.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bill_spider/internal/models"
)

var (
	// ErrMalformedMarkup means none of the expected elements were present.
	ErrMalformedMarkup = errors.New("expected elements not found")
	// ErrMalformedPagination means the bill text has no last-page marker,
	// which usually just means the text is not published yet.
	ErrMalformedPagination = errors.New("last page marker not found")
)

const (
	sponsorsSelector    = "dl.bill-agents > dd"
	billTablesSelector  = "table.bill-items"
	documentLinkSelect  = "td.bill-item-description a"
	lastPageSelector    = "span.LegLastPage a"
	contentBodySelector = "div.LegContent"
)

var billTypes = map[string]string{
	"Private Members' Bill (Ballot Bill)":                         models.BillTypeBallot,
	"Private Members' Bill (Presentation Bill)":                   models.BillTypePresentation,
	"Private Members' Bill (under the Ten Minute Rule, SO No 23)": models.BillTypeTenMinute,
	"Private Members' Bill (Starting in the House of Lords)":      models.BillTypeFromLords,
	models.BillTypeGovernment:                                     models.BillTypeGovernment,
	models.BillTypePrivate:                                        models.BillTypePrivate,
	models.BillTypeHybrid:                                         models.BillTypeHybrid,
}

// ClassifyBillType maps a label from the bill page onto the short bill type.
// Unknown labels are returned unchanged.
func ClassifyBillType(label string) string {
	if t, ok := billTypes[label]; ok {
		return t
	}
	return label
}

type Sponsors struct {
	Type  string
	Names []string
}

func parse(raw []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// firstLine keeps only the first line of an entry. Text after the first
// line break in a node is an annotation.
func firstLine(s string) string {
	s = strings.TrimLeft(s, " \t\r\n")
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// ExtractSponsors reads the bill agents list. The first entry is the bill
// type, the rest are sponsor names.
func ExtractSponsors(raw []byte) (Sponsors, error) {
	doc, err := parse(raw)
	if err != nil {
		return Sponsors{}, err
	}

	entries := doc.Find(sponsorsSelector)
	if entries.Length() == 0 {
		return Sponsors{}, ErrMalformedMarkup
	}

	var res Sponsors
	entries.Each(func(i int, s *goquery.Selection) {
		line := firstLine(s.Text())
		if i == 0 {
			res.Type = ClassifyBillType(line)
			return
		}
		if line == "" {
			return
		}
		res.Names = append(res.Names, line)
	})
	return res, nil
}

// isHTMLLink reports whether a document link points at an HTML page.
func isHTMLLink(href string) bool {
	return strings.Contains(strings.ToLower(href), ".htm")
}

// ExtractDocuments classifies the links of every bill-items table on a
// documents page. The first table holds the bill text versions, the second
// the explanatory notes, anything after that goes to Other.
func ExtractDocuments(raw []byte, pageURL string) (models.Documents, error) {
	var docs models.Documents

	base, err := url.Parse(pageURL)
	if err != nil {
		return docs, fmt.Errorf("parse base url: %w", err)
	}
	doc, err := parse(raw)
	if err != nil {
		return docs, err
	}

	tables := doc.Find(billTablesSelector)
	if tables.Length() == 0 {
		return docs, ErrMalformedMarkup
	}

	tables.Each(func(i int, table *goquery.Selection) {
		table.Find(documentLinkSelect).Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || !isHTMLLink(href) {
				return
			}
			parsed, err := url.Parse(strings.TrimSpace(href))
			if err != nil {
				return
			}
			ref := models.DocumentRef{
				URL:  base.ResolveReference(parsed).String(),
				Name: strings.TrimSpace(a.Text()),
			}
			switch i {
			case 0:
				docs.Versions = append(docs.Versions, ref)
			case 1:
				docs.Notes = append(docs.Notes, ref)
			default:
				docs.Other = append(docs.Other, ref)
			}
		})
	})
	return docs, nil
}

// ExtractLastPage returns the href of the last-page pagination link.
func ExtractLastPage(raw []byte) (string, error) {
	doc, err := parse(raw)
	if err != nil {
		return "", err
	}
	href, ok := doc.Find(lastPageSelector).First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return "", ErrMalformedPagination
	}
	return href, nil
}

// ExtractContentBody returns the inner markup of the bill text container,
// untouched.
func ExtractContentBody(raw []byte) (string, error) {
	doc, err := parse(raw)
	if err != nil {
		return "", err
	}
	content := doc.Find(contentBodySelector).First()
	if content.Length() == 0 {
		return "", ErrMalformedMarkup
	}
	return content.Html()
}
