package enrich

import (
	"strings"
	"testing"

	"github.com/mudassirfayaz/Kings-Properties/models"
)

const detailHTML = `<html><head><title>14 Industrial Way</title></head><body>
<article>
<h1>14 Industrial Way</h1>
<p>Free-standing warehouse with dock-high loading, heavy power and fenced
yard storage. Located minutes from the interstate with quick access to the
port. Ideal for distribution or light manufacturing users looking for an
efficient, functional footprint in a proven submarket.</p>
<table><tr><td>Building Size</td><td>42,000 SF</td></tr></table>
<p><a href="/files/14-industrial-way-brochure.pdf">Download Brochure</a></p>
</article>
</body></html>`

func TestFindBrochureLink(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		pageURL string
		want    string
	}{
		{
			name:    "relative pdf resolved against page",
			html:    detailHTML,
			pageURL: "https://buildout.com/website/921775-abc",
			want:    "https://buildout.com/files/14-industrial-way-brochure.pdf",
		},
		{
			name:    "brochure keyword without pdf extension",
			html:    `<a href="https://cdn.example.com/brochures/42">flyer</a>`,
			pageURL: "https://buildout.com/website/1",
			want:    "https://cdn.example.com/brochures/42",
		},
		{
			name:    "no candidate links",
			html:    `<a href="/contact">Contact us</a>`,
			pageURL: "https://buildout.com/website/1",
			want:    "",
		},
		{
			name:    "non-http scheme rejected",
			html:    `<a href="javascript:openBrochure.pdf">view</a>`,
			pageURL: "https://buildout.com/website/1",
			want:    "",
		},
		{
			name:    "first match wins",
			html:    `<a href="/a.pdf">one</a><a href="/b.pdf">two</a>`,
			pageURL: "https://buildout.com/website/1",
			want:    "https://buildout.com/a.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findBrochureLink(tt.html, tt.pageURL)
			if got != tt.want {
				t.Errorf("findBrochureLink() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	rec := models.NewPropertyRecord()
	rec.URL = "https://buildout.com/website/921775-abc"

	Apply(rec, detailHTML)

	if rec.Description == "" {
		t.Fatal("Apply() left Description empty")
	}
	if !strings.Contains(rec.Description, "warehouse") {
		t.Errorf("Description missing body text: %q", rec.Description)
	}
	if rec.PDFURL != "https://buildout.com/files/14-industrial-way-brochure.pdf" {
		t.Errorf("PDFURL = %q, want brochure link backfilled", rec.PDFURL)
	}
}

func TestApply_KeepsExistingPDF(t *testing.T) {
	rec := models.NewPropertyRecord()
	rec.URL = "https://buildout.com/website/921775-abc"
	rec.PDFURL = "https://buildout.com/already-there.pdf"

	Apply(rec, detailHTML)

	if rec.PDFURL != "https://buildout.com/already-there.pdf" {
		t.Errorf("PDFURL = %q, want existing link preserved", rec.PDFURL)
	}
}

func TestExtractArticle_ShortContentFallsBack(t *testing.T) {
	raw := `<html><body><p>tiny</p></body></html>`
	got := extractArticle(raw, "https://buildout.com/website/1")
	if got != raw {
		t.Errorf("extractArticle() = %q, want raw document fallback", got)
	}
}

func TestDomainOf(t *testing.T) {
	if got := domainOf("https://www.kingindustrial.com/home-5/properties/"); got != "www.kingindustrial.com" {
		t.Errorf("domainOf() = %q", got)
	}
	if got := domainOf("://bad"); got != "" {
		t.Errorf("domainOf() on invalid input = %q, want empty", got)
	}
}
