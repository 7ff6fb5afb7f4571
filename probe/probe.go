// Package probe is the cheap pre-flight that runs before a browser session:
// fetch the catalog page over plain HTTP, confirm it responds, look for the
// widget iframe in the static HTML and consult robots.txt. Every finding is
// advisory; the browser run proceeds regardless and the report only feeds
// logging and diagnostics.
package probe

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/mudassirfayaz/Kings-Properties/config"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/html"
)

// robotsAgent is the product token matched against robots.txt groups.
const robotsAgent = "kingscrape"

// Report is the outcome of one pre-flight check.
type Report struct {
	// StatusCode of the catalog page fetch.
	StatusCode int

	// Title of the static document, when parseable.
	Title string

	// WidgetInHTML is true when an iframe naming both the widget host and
	// marker already exists in the static HTML. The widget is normally
	// injected by script, so false here is expected, not alarming.
	WidgetInHTML bool

	// NeedsBrowser reports whether the static HTML looks like a JS shell.
	NeedsBrowser bool

	// RobotsAllowed is the advisory robots.txt verdict for the target path.
	RobotsAllowed bool
}

// Prober checks a catalog URL before the browser is committed to it.
type Prober struct {
	cfg    config.ProbeConfig
	host   string
	marker string
	client *Client
}

// New builds a Prober for the configured widget identity.
func New(cfg config.ProbeConfig, target config.TargetConfig, client *Client) *Prober {
	return &Prober{
		cfg:    cfg,
		host:   strings.ToLower(target.WidgetHost),
		marker: strings.ToLower(target.WidgetMarker),
		client: client,
	}
}

// Run performs the pre-flight. A non-nil error means the target did not
// answer plain HTTP at all; callers treat that as a warning, not a failure,
// since the browser may still get through.
func (p *Prober) Run(ctx context.Context, targetURL string) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	rep := &Report{RobotsAllowed: true}

	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("probe: parse target: %w", err)
	}

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	if body, status, ferr := p.client.Fetch(ctx, robotsURL); ferr == nil {
		if robots, rerr := robotstxt.FromStatusAndBytes(status, body); rerr == nil {
			rep.RobotsAllowed = robots.FindGroup(robotsAgent).Test(u.Path)
		}
	}

	body, status, err := p.client.Fetch(ctx, targetURL)
	rep.StatusCode = status
	if err != nil {
		return rep, err
	}

	rep.Title = extractTitle(body)
	rep.WidgetInHTML = scanForWidget(body, p.host, p.marker)
	rep.NeedsBrowser = needsBrowser(body)
	return rep, nil
}

// scanForWidget walks the static HTML looking for an iframe whose src names
// both the widget host and the marker.
func scanForWidget(body []byte, host, marker string) bool {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return false
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tn, hasAttr := tokenizer.TagName()
		if string(tn) != "iframe" || !hasAttr {
			continue
		}
		for {
			key, val, more := tokenizer.TagAttr()
			if string(key) == "src" {
				src := strings.ToLower(string(val))
				if strings.Contains(src, host) && strings.Contains(src, marker) {
					return true
				}
			}
			if !more {
				break
			}
		}
	}
}

// needsBrowser uses heuristics to decide if the HTTP-fetched HTML likely
// needs JS rendering (SPA shell, heavy JS dependency, noscript warnings).
func needsBrowser(body []byte) bool {
	bodyText := extractVisibleText(body)

	// Very little visible text in <body> means an SPA shell.
	if len(bodyText) < 200 {
		return true
	}

	lower := strings.ToLower(string(body))

	// Empty SPA root containers.
	for _, root := range []string{
		`<div id="root"></div>`,
		`<div id="app"></div>`,
		`<div id="__next"></div>`,
	} {
		if strings.Contains(lower, root) {
			return true
		}
	}

	// <noscript> with JS-required warnings.
	if reNoscript.MatchString(lower) {
		return true
	}

	// Many <script> tags plus little body text.
	if strings.Count(lower, "<script") > 10 && len(bodyText) < 500 {
		return true
	}

	return false
}

var reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

// extractTitle extracts the <title> content from raw HTML bytes.
func extractTitle(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				if tokenizer.Next() == html.TextToken {
					return strings.TrimSpace(string(tokenizer.Text()))
				}
				return ""
			}
		}
	}
}

// extractVisibleText extracts the visible text from within <body>, stripping
// all tags and <script>/<style> content. Used for heuristic analysis only.
func extractVisibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "body" {
				inBody = true
			}
			if tag == "script" || tag == "style" || tag == "noscript" {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "script" || tag == "style" || tag == "noscript" {
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
