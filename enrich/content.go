package enrich

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mudassirfayaz/Kings-Properties/models"
)

// minContentLength is the minimum extracted text length (in characters) for
// readability's result to count. Below it the page layout is assumed to
// have defeated the algorithm and the full document is used instead.
const minContentLength = 50

// mdConverter is shared across all conversions; the v2 converter is safe
// for concurrent use.
var mdConverter = newMarkdownConverter()

// newMarkdownConverter creates the converter used for descriptions:
//
//   - base plugin: strips scripts, styles, iframes and other non-content noise
//   - commonmark plugin: standard Markdown rendering
//   - table plugin: keeps detail-page spec tables readable, with minimal
//     cell padding to save space
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// Apply derives the record's description and brochure link from detail-page
// HTML. It is separate from the page drive so offline callers can reuse it.
func Apply(rec *models.PropertyRecord, rawHTML string) {
	if md := describe(rawHTML, rec.URL); md != "" {
		rec.Description = md
	}
	if rec.PDFURL == "" {
		if pdf := findBrochureLink(rawHTML, rec.URL); pdf != "" {
			rec.PDFURL = pdf
		}
	}
}

// describe runs the readability + Markdown pipeline over the document.
// Returns "" when nothing usable comes out.
func describe(rawHTML, pageURL string) string {
	content := extractArticle(rawHTML, pageURL)
	if strings.TrimSpace(content) == "" {
		return ""
	}
	md, err := mdConverter.ConvertString(content, converter.WithDomain(domainOf(pageURL)))
	if err != nil {
		slog.Debug("markdown conversion failed", "url", pageURL, "error", err)
		return ""
	}
	return strings.TrimSpace(md)
}

// extractArticle isolates the main content of the document. When the result
// is implausibly short the raw document is returned so the converter still
// has something to work with.
func extractArticle(rawHTML, pageURL string) string {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = nil
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("readability failed, using full document", "url", pageURL, "error", err)
		return rawHTML
	}
	if len(article.TextContent) < minContentLength {
		slog.Debug("readability result too short, using full document",
			"url", pageURL, "textLength", len(article.TextContent))
		return rawHTML
	}
	return article.Content
}

// domainOf extracts the hostname used to resolve relative links during
// Markdown conversion.
func domainOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// findBrochureLink scans the document's anchors for a PDF or brochure link
// and returns the first one that resolves to an absolute http(s) URL.
func findBrochureLink(rawHTML, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return true
		}
		lower := strings.ToLower(href)
		if !strings.Contains(lower, ".pdf") &&
			!strings.Contains(lower, "brochure") &&
			!strings.Contains(lower, "flyer") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		if (ref.Scheme != "http" && ref.Scheme != "https") || ref.Host == "" {
			return true
		}
		found = ref.String()
		return false
	})
	return found
}
