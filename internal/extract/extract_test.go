package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bill_spider/internal/models"
)

const billPage = `<html><body>
<dl class="bill-agents">
  <dt>Type of Bill:</dt>
  <dd>Private Members' Bill (Ballot Bill)</dd>
  <dt>Sponsors:</dt>
  <dd>Mr Christopher Chope
Conservative</dd>
  <dd>  Sir Alan Duncan  </dd>
  <dd>   </dd>
  <dd>Ms Jane Doe</dd>
</dl>
</body></html>`

func TestExtractSponsors(t *testing.T) {
	s, err := ExtractSponsors([]byte(billPage))
	require.NoError(t, err)

	assert.Equal(t, models.BillTypeBallot, s.Type)
	assert.Equal(t, []string{"Mr Christopher Chope", "Sir Alan Duncan", "Ms Jane Doe"}, s.Names)
}

func TestExtractSponsors_UnknownTypePassesThrough(t *testing.T) {
	page := `<dl class="bill-agents"><dd>Some New Kind of Bill</dd><dd>Lord Nash</dd></dl>`
	s, err := ExtractSponsors([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Some New Kind of Bill", s.Type)
	assert.Equal(t, []string{"Lord Nash"}, s.Names)
}

func TestExtractSponsors_CRLFAnnotation(t *testing.T) {
	page := "<dl class=\"bill-agents\"><dd>Government Bill\r\n(carried over)</dd><dd>Theresa May\r\nHome Office</dd></dl>"
	s, err := ExtractSponsors([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, models.BillTypeGovernment, s.Type)
	assert.Equal(t, []string{"Theresa May"}, s.Names)
}

func TestExtractSponsors_Missing(t *testing.T) {
	_, err := ExtractSponsors([]byte("<html><body><p>nothing</p></body></html>"))
	assert.ErrorIs(t, err, ErrMalformedMarkup)
}

func TestClassifyBillType(t *testing.T) {
	cases := map[string]string{
		"Private Members' Bill (Ballot Bill)":                         "Ballot Bill",
		"Private Members' Bill (Presentation Bill)":                   "Presentation Bill",
		"Private Members' Bill (under the Ten Minute Rule, SO No 23)": "10 Minute Rule Bill",
		"Private Members' Bill (Starting in the House of Lords)":      "From the House of Lords",
		"Government Bill": "Government Bill",
		"Hybrid Bill":     "Hybrid Bill",
		"Private Bill":    "Private Bill",
		"Something else":  "Something else",
	}
	for in, want := range cases {
		assert.Equal(t, want, ClassifyBillType(in), in)
	}
}

const documentsPage = `<html><body>
<table class="bill-items">
  <tr><td class="bill-item-description"><a href="/bills/text/cbill_1.htm">As introduced</a></td></tr>
  <tr><td class="bill-item-description"><a href="cbill_1.pdf">As introduced (PDF)</a></td></tr>
  <tr><td class="bill-item-description"><a href="http://www.publications.parliament.uk/pa/cbill/2.html">As amended</a></td></tr>
</table>
<table class="bill-items">
  <tr><td class="bill-item-description"><a href="notes/en_1.htm">Explanatory notes</a></td></tr>
</table>
<table class="bill-items">
  <tr><td class="bill-item-description"><a href="amend.htm">Amendment paper</a></td></tr>
  <tr><td class="other"><a href="ignored.htm">Not a description cell</a></td></tr>
</table>
<table class="bill-items">
  <tr><td class="bill-item-description"><a href="research.html">Research paper</a></td></tr>
</table>
</body></html>`

func TestExtractDocuments(t *testing.T) {
	docs, err := ExtractDocuments([]byte(documentsPage), "http://services.parliament.uk/bills/2013-14/somebill/documents.html")
	require.NoError(t, err)

	assert.Equal(t, []models.DocumentRef{
		{URL: "http://services.parliament.uk/bills/text/cbill_1.htm", Name: "As introduced"},
		{URL: "http://www.publications.parliament.uk/pa/cbill/2.html", Name: "As amended"},
	}, docs.Versions)
	assert.Equal(t, []models.DocumentRef{
		{URL: "http://services.parliament.uk/bills/2013-14/somebill/notes/en_1.htm", Name: "Explanatory notes"},
	}, docs.Notes)
	assert.Equal(t, []models.DocumentRef{
		{URL: "http://services.parliament.uk/bills/2013-14/somebill/amend.htm", Name: "Amendment paper"},
		{URL: "http://services.parliament.uk/bills/2013-14/somebill/research.html", Name: "Research paper"},
	}, docs.Other)

	latest, ok := docs.LatestVersion()
	require.True(t, ok)
	assert.Equal(t, "As amended", latest.Name)
}

func TestExtractDocuments_NoTables(t *testing.T) {
	docs, err := ExtractDocuments([]byte("<html></html>"), "http://example.test/documents.html")
	assert.ErrorIs(t, err, ErrMalformedMarkup)
	assert.Empty(t, docs.Versions)
}

func TestExtractLastPage(t *testing.T) {
	page := `<p class="LegNavTextTop"><span class="LegLastPage"><a href="cbill_2013-20140132_en_16.htm">Last</a></span></p>`
	href, err := ExtractLastPage([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "cbill_2013-20140132_en_16.htm", href)
}

func TestExtractLastPage_Missing(t *testing.T) {
	_, err := ExtractLastPage([]byte(`<p>No text yet</p>`))
	assert.ErrorIs(t, err, ErrMalformedPagination)
}

func TestExtractContentBody(t *testing.T) {
	page := `<html><body><div class="header">nav</div><div class="LegContent"><p class="LegClearFix">Clause <a href="cbill_2.htm#s1">1</a></p></div></body></html>`
	body, err := ExtractContentBody([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, `<p class="LegClearFix">Clause <a href="cbill_2.htm#s1">1</a></p>`, body)
}

func TestExtractContentBody_Missing(t *testing.T) {
	_, err := ExtractContentBody([]byte(`<html><body>holding page</body></html>`))
	assert.ErrorIs(t, err, ErrMalformedMarkup)
}
