package scraper

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mudassirfayaz/Kings-Properties/dom"
	"github.com/mudassirfayaz/Kings-Properties/models"
)

// heuristicRules map secondary-information keywords to detail keys. Rules
// are checked in order and the first hit per fragment wins. They only ever
// fill keys the detail table left empty.
var heuristicRules = []struct {
	keyword string
	key     string
}{
	{"sf", "available_space"},
	{"call agent", "price"},
	{"spaces", "number_of_spaces"},
	{"bldg", "building_size"},
}

// propertyTypeVocab are the catalog's known property types, matched against
// secondary-information fragments that no heuristic rule claimed.
var propertyTypeVocab = []string{
	"manufacturing", "office", "warehouse", "retail", "industrial",
}

// extractPage finds the listing containers in the widget and builds one
// record per container.
func extractPage(view View, pageNum int) []*models.PropertyRecord {
	base := parseBase(view.URL())
	containers := resolveAll(view, "listing container", containerStrategies)
	records := make([]*models.PropertyRecord, 0, len(containers))
	for _, c := range containers {
		records = append(records, extractRecord(c, base, pageNum))
	}
	return records
}

// extractRecord pulls every field of one listing. Fields are independent: a
// miss on one leaves its default in place and never disturbs the others.
// Transport-level failures (the node vanished mid-read) are recorded on the
// record instead of raised, so a degraded container still yields a partial
// record.
func extractRecord(container dom.Node, base *url.URL, pageNum int) (rec *models.PropertyRecord) {
	rec = models.NewPropertyRecord()
	rec.PageNumber = pageNum
	rec.ScrapedAt = time.Now()

	defer func() {
		if r := recover(); r != nil {
			rec.ExtractionError = fmt.Sprintf("extraction panicked: %v", r)
			slog.Error("listing extraction panicked", "page", pageNum, "panic", r)
		}
	}()

	fields := []struct {
		name string
		fn   func() error
	}{
		{"link", func() error { return extractLink(container, base, rec) }},
		{"image", func() error { return extractImage(container, base, rec) }},
		{"title", func() error { return extractListingTitle(container, rec) }},
		{"banner", func() error { return extractBanner(container, rec) }},
		{"secondary info", func() error { return extractSecondaryInfo(container, rec) }},
		{"detail table", func() error { return extractDetailTable(container, rec) }},
		{"brochure", func() error { return extractBrochure(container, base, rec) }},
	}
	for _, f := range fields {
		if err := f.fn(); err != nil {
			if rec.ExtractionError == "" {
				rec.ExtractionError = fmt.Sprintf("%s: %v", f.name, err)
			}
			slog.Debug("field extraction failed", "field", f.name, "error", err)
		}
	}

	applyHeuristics(rec)
	return rec
}

// extractLink resolves the listing URL from the container itself when it is
// an anchor, otherwise from its first anchor descendant.
func extractLink(c dom.Node, base *url.URL, rec *models.PropertyRecord) error {
	tag, err := c.TagName()
	if err != nil {
		return err
	}
	anchor := c
	if tag != "a" {
		anchors, err := c.Find(anchorSel)
		if err != nil {
			return err
		}
		if len(anchors) == 0 {
			return nil
		}
		anchor = anchors[0]
	}

	href, ok, err := anchor.Attr("href")
	if err != nil {
		return err
	}
	if !ok || strings.TrimSpace(href) == "" {
		return nil
	}
	abs := absolutize(base, href)
	if abs == "" {
		return nil
	}
	rec.URL = abs
	rec.PropertyID = parsePropertyID(abs)
	return nil
}

func extractImage(c dom.Node, base *url.URL, rec *models.PropertyRecord) error {
	img := resolveFirst(c, "listing image", imageStrategies)
	if img == nil {
		return nil
	}
	src, ok, err := img.Attr("src")
	if err != nil {
		return err
	}
	if ok {
		if abs := absolutize(base, src); abs != "" {
			rec.ImageURL = abs
		}
	}
	alt, ok, err := img.Attr("alt")
	if err != nil {
		return err
	}
	if ok && strings.TrimSpace(alt) != "" {
		rec.ImageAlt = strings.TrimSpace(alt)
	}
	return nil
}

// extractListingTitle walks the title catalog itself rather than using
// resolveFirst: a strategy whose first match has empty text is a miss here,
// because an empty heading is as useless as no heading.
func extractListingTitle(c dom.Node, rec *models.PropertyRecord) error {
	for _, sel := range titleStrategies {
		nodes, err := c.Find(sel)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			continue
		}
		text, err := nodes[0].Text()
		if err != nil {
			return err
		}
		if text != "" {
			rec.Title = text
			return nil
		}
	}
	return nil
}

func extractBanner(c dom.Node, rec *models.PropertyRecord) error {
	node := resolveFirst(c, "type banner", bannerStrategies)
	if node == nil {
		return nil
	}
	text, err := node.Text()
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	banner := strings.ToUpper(text)
	rec.ListingType = banner
	applyListingFlags(rec, banner)
	return nil
}

// applyListingFlags updates the lease/sale flags only when the banner names
// at least one of them; an unrecognised banner keeps the defaults.
func applyListingFlags(rec *models.PropertyRecord, banner string) {
	hasLease := strings.Contains(banner, "LEASE")
	hasSale := strings.Contains(banner, "SALE")
	if !hasLease && !hasSale {
		return
	}
	rec.ForLease = hasLease
	rec.ForSale = hasSale
}

func extractSecondaryInfo(c dom.Node, rec *models.PropertyRecord) error {
	nodes, err := c.Find(secondaryInfoSel)
	if err != nil {
		return err
	}
	var frags []string
	for _, n := range nodes {
		text, err := n.Text()
		if err != nil {
			return err
		}
		// "-" is the widget's placeholder for an absent value.
		if text == "" || text == "-" {
			continue
		}
		frags = append(frags, text)
	}
	rec.SecondaryInfo = frags

	for _, f := range frags {
		if isLocationFragment(f) {
			rec.Location = f
			break
		}
	}
	return nil
}

// isLocationFragment filters out the price and availability strings that
// share the secondary-information styling with the address line.
func isLocationFragment(s string) bool {
	if strings.HasPrefix(s, "$") {
		return false
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "call") {
		return false
	}
	if strings.HasPrefix(lower, "available") {
		return false
	}
	return true
}

func extractDetailTable(c dom.Node, rec *models.PropertyRecord) error {
	tables, err := c.Find(detailTableSel)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return nil
	}
	rows, err := tables[0].Find(tableRowSel)
	if err != nil {
		return err
	}
	for _, row := range rows {
		cells, err := row.Find(tableCellSel)
		if err != nil {
			return err
		}
		// Rows without a label/value pair are skipped, not errors.
		if len(cells) < 2 {
			continue
		}
		label, err := cells[0].Text()
		if err != nil {
			return err
		}
		value, err := cells[1].Text()
		if err != nil {
			return err
		}
		key := normalizeKey(label)
		if key == "" || value == "" || value == "-" {
			continue
		}
		rec.Details[key] = value
	}
	return nil
}

// normalizeKey turns a table label into a stable detail key:
// "Building Size:" becomes "building_size".
func normalizeKey(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ":")
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, "_")
}

// applyHeuristics mines the secondary-information fragments for details the
// table did not provide. Existing keys are never overwritten.
func applyHeuristics(rec *models.PropertyRecord) {
	for _, frag := range rec.SecondaryInfo {
		lower := strings.ToLower(frag)

		matched := false
		for _, rule := range heuristicRules {
			if strings.Contains(lower, rule.keyword) {
				if _, exists := rec.Details[rule.key]; !exists {
					rec.Details[rule.key] = frag
				}
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		for _, pt := range propertyTypeVocab {
			if strings.Contains(lower, pt) {
				if _, exists := rec.Details["property_type"]; !exists {
					rec.Details["property_type"] = frag
				}
				break
			}
		}
	}
}

func extractBrochure(c dom.Node, base *url.URL, rec *models.PropertyRecord) error {
	node := resolveFirst(c, "brochure link", pdfStrategies)
	if node == nil {
		return nil
	}
	href, ok, err := node.Attr("href")
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if abs := absolutize(base, href); abs != "" {
		rec.PDFURL = abs
	}
	return nil
}

// absolutize resolves ref against base and returns it only when the result
// is a fully qualified http(s) URL; anything else yields "".
func absolutize(base *url.URL, ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	return u.String()
}

// parsePropertyID pulls the propertyId query token out of a listing URL.
func parsePropertyID(raw string) string {
	_, after, found := strings.Cut(raw, "propertyId=")
	if !found {
		return ""
	}
	id, _, _ := strings.Cut(after, "&")
	return id
}

func parseBase(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return nil
	}
	return u
}
