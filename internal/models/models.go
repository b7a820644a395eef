package models

import "time"

// Bill types as shown on bill pages. Labels outside this table are kept verbatim.
const (
	BillTypeBallot       = "Ballot Bill"
	BillTypePresentation = "Presentation Bill"
	BillTypeTenMinute    = "10 Minute Rule Bill"
	BillTypeFromLords    = "From the House of Lords"
	BillTypeGovernment   = "Government Bill"
	BillTypePrivate      = "Private Bill"
	BillTypeHybrid       = "Hybrid Bill"
)

type DocumentRef struct {
	URL  string `bson:"url"`
	Name string `bson:"name"`
}

// Documents groups the links found on a bill's documents page.
// Versions are ordered oldest first.
type Documents struct {
	Versions []DocumentRef `bson:"versions"`
	Notes    []DocumentRef `bson:"notes"`
	Other    []DocumentRef `bson:"other"`
}

// LatestVersion returns the most recent full-text edition.
func (d Documents) LatestVersion() (DocumentRef, bool) {
	if len(d.Versions) == 0 {
		return DocumentRef{}, false
	}
	return d.Versions[len(d.Versions)-1], true
}

func (d Documents) LatestNote() (DocumentRef, bool) {
	if len(d.Notes) == 0 {
		return DocumentRef{}, false
	}
	return d.Notes[len(d.Notes)-1], true
}

type MemberRef struct {
	ID          string `bson:"_id"`
	Name        string `bson:"name"`
	Party       string `bson:"party,omitempty"`
	House       string `bson:"house,omitempty"`
	Type        string `bson:"type,omitempty"`
	Path        string `bson:"path,omitempty"`
	LastUpdated int64  `bson:"last_updated"`
}

type Bill struct {
	ID          string      `bson:"_id"`
	Name        string      `bson:"name"`
	URL         string      `bson:"url"`
	Description string      `bson:"description"`
	Year        string      `bson:"year"`
	Path        string      `bson:"path"`
	Type        string      `bson:"type"`
	Sponsors    []string    `bson:"sponsors"`
	Members     []MemberRef `bson:"members"`
	Documents   Documents   `bson:"documents"`
	Pages       []string    `bson:"pages"`
	Summary     string      `bson:"summary"`
	Text        string      `bson:"text"`
	LastUpdated time.Time   `bson:"last_updated"`

	// html and hasText only change together, through SetHTML.
	HTML    string `bson:"html"`
	HasText bool   `bson:"has_text"`
}

// SetHTML stores the assembled markup and recomputes HasText from it.
func (b *Bill) SetHTML(html string) {
	b.HTML = html
	b.HasText = html != ""
}

// ClearText drops any derived text, leaving the bill in the "no text yet" state.
func (b *Bill) ClearText() {
	b.Pages = nil
	b.Text = ""
	b.SetHTML("")
}
