package scraper

import (
	"errors"
	"net/url"
	"testing"

	"github.com/mudassirfayaz/Kings-Properties/dom"
	"github.com/mudassirfayaz/Kings-Properties/models"
)

const widgetURL = "https://buildout.com/plugins/site_search_engines/abc/inventory"

// widgetHTML mirrors the widget's grid markup: a fully populated listing
// followed by a sparse one.
const widgetHTML = `<html><body>
<div class="list">
  <div class="grid-item">
    <a href="/plugins/site_search_engines/property?propertyId=921775&tab=inventory">
      <img class="image-cover" src="//images.buildout.com/14-industrial.jpg" alt="14 Industrial Way">
    </a>
    <div class="list-item-banner"><span>For Lease</span></div>
    <h5 class="mb-0">14 Industrial Way</h5>
    <div class="secondary-information">Atlanta, GA 30318</div>
    <div class="secondary-information">8,000 SF Available</div>
    <div class="secondary-information">Call Agent</div>
    <div class="secondary-information">-</div>
    <table class="mt-2">
      <tbody>
        <tr><td>Building Size:</td><td>42,000 SF</td></tr>
        <tr><td>Lot Size:</td><td>3.2 Acres</td></tr>
        <tr><td>Zoning:</td><td>-</td></tr>
        <tr><td>Note</td></tr>
      </tbody>
    </table>
    <a href="/brochures/14-industrial.pdf">Brochure</a>
  </div>
  <div class="grid-item">
    <h5 class="mb-0"></h5>
    <div class="list-item-banner">New</div>
    <div class="secondary-information">$1,200,000</div>
  </div>
</div>
</body></html>`

func widgetView(t *testing.T) View {
	t.Helper()
	view, err := newSnapshotView(widgetHTML, widgetURL)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return view
}

func TestExtractPage_FullListing(t *testing.T) {
	records := extractPage(widgetView(t), 2)
	if len(records) != 2 {
		t.Fatalf("extractPage() found %d records, want 2", len(records))
	}

	rec := records[0]
	if rec.URL != "https://buildout.com/plugins/site_search_engines/property?propertyId=921775&tab=inventory" {
		t.Errorf("URL = %q", rec.URL)
	}
	if rec.PropertyID != "921775" {
		t.Errorf("PropertyID = %q, want 921775", rec.PropertyID)
	}
	if rec.Title != "14 Industrial Way" {
		t.Errorf("Title = %q", rec.Title)
	}
	if rec.ImageURL != "https://images.buildout.com/14-industrial.jpg" {
		t.Errorf("ImageURL = %q", rec.ImageURL)
	}
	if rec.ImageAlt != "14 Industrial Way" {
		t.Errorf("ImageAlt = %q", rec.ImageAlt)
	}
	if rec.ListingType != "FOR LEASE" {
		t.Errorf("ListingType = %q", rec.ListingType)
	}
	if !rec.ForLease || rec.ForSale {
		t.Errorf("flags = lease:%v sale:%v, want lease only", rec.ForLease, rec.ForSale)
	}
	if rec.Location != "Atlanta, GA 30318" {
		t.Errorf("Location = %q", rec.Location)
	}
	if rec.PDFURL != "https://buildout.com/brochures/14-industrial.pdf" {
		t.Errorf("PDFURL = %q", rec.PDFURL)
	}
	if len(rec.SecondaryInfo) != 3 {
		t.Errorf("SecondaryInfo = %v, want 3 fragments with the placeholder dropped", rec.SecondaryInfo)
	}
	if rec.PageNumber != 2 {
		t.Errorf("PageNumber = %d, want 2", rec.PageNumber)
	}
	if rec.ExtractionError != "" {
		t.Errorf("ExtractionError = %q, want empty", rec.ExtractionError)
	}

	wantDetails := map[string]string{
		"building_size":   "42,000 SF",
		"lot_size":        "3.2 Acres",
		"available_space": "8,000 SF Available",
		"price":           "Call Agent",
	}
	if len(rec.Details) != len(wantDetails) {
		t.Errorf("Details = %v, want %v", rec.Details, wantDetails)
	}
	for k, want := range wantDetails {
		if got := rec.Details[k]; got != want {
			t.Errorf("Details[%q] = %q, want %q", k, got, want)
		}
	}
}

func TestExtractPage_SparseListingKeepsDefaults(t *testing.T) {
	records := extractPage(widgetView(t), 1)
	if len(records) != 2 {
		t.Fatalf("extractPage() found %d records, want 2", len(records))
	}

	rec := records[1]
	if rec.Title != models.Unknown {
		t.Errorf("Title = %q, want %q for an empty heading", rec.Title, models.Unknown)
	}
	if rec.URL != "" || rec.PropertyID != "" {
		t.Errorf("URL/PropertyID = %q/%q, want empty without an anchor", rec.URL, rec.PropertyID)
	}
	if rec.ListingType != "NEW" {
		t.Errorf("ListingType = %q, want NEW", rec.ListingType)
	}
	if !rec.ForLease || rec.ForSale {
		t.Errorf("unrecognised banner must keep default flags, got lease:%v sale:%v", rec.ForLease, rec.ForSale)
	}
	if rec.Location != models.Unknown {
		t.Errorf("Location = %q, a price fragment is not an address", rec.Location)
	}
	if len(rec.Details) != 0 {
		t.Errorf("Details = %v, want empty", rec.Details)
	}
	if rec.ExtractionError != "" {
		t.Errorf("ExtractionError = %q, absence is not an error", rec.ExtractionError)
	}
}

// brokenNode simulates an element that detached between discovery and read.
type brokenNode struct {
	dom.Node
}

func (b *brokenNode) TagName() (string, error) { return "", errors.New("node detached") }

func TestExtractRecord_TransportErrorLeavesOtherFields(t *testing.T) {
	snap, err := dom.ParseSnapshot(widgetHTML)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	containers, err := snap.Find(dom.MustCompile(".grid-item"))
	if err != nil || len(containers) == 0 {
		t.Fatalf("fixture containers: %v", err)
	}
	base, _ := url.Parse(widgetURL)

	rec := extractRecord(&brokenNode{Node: containers[0]}, base, 3)

	if rec.ExtractionError != "link: node detached" {
		t.Errorf("ExtractionError = %q, want the first transport failure", rec.ExtractionError)
	}
	if rec.Title != "14 Industrial Way" {
		t.Errorf("Title = %q, remaining fields must still extract", rec.Title)
	}
	if rec.PageNumber != 3 {
		t.Errorf("PageNumber = %d, want 3", rec.PageNumber)
	}
}

func TestApplyListingFlags(t *testing.T) {
	tests := []struct {
		banner    string
		wantLease bool
		wantSale  bool
	}{
		{"FOR LEASE", true, false},
		{"FOR SALE", false, true},
		{"FOR LEASE / SALE", true, true},
		{"JUST LISTED", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.banner, func(t *testing.T) {
			rec := models.NewPropertyRecord()
			applyListingFlags(rec, tt.banner)
			if rec.ForLease != tt.wantLease || rec.ForSale != tt.wantSale {
				t.Errorf("flags = lease:%v sale:%v, want lease:%v sale:%v",
					rec.ForLease, rec.ForSale, tt.wantLease, tt.wantSale)
			}
		})
	}
}

func TestApplyHeuristics(t *testing.T) {
	rec := models.NewPropertyRecord()
	rec.SecondaryInfo = []string{
		"8,000 SF Available",
		"Call Agent for pricing",
		"4 Spaces",
		"Warehouse District",
	}

	applyHeuristics(rec)

	want := map[string]string{
		"available_space":  "8,000 SF Available",
		"price":            "Call Agent for pricing",
		"number_of_spaces": "4 Spaces",
		"property_type":    "Warehouse District",
	}
	if len(rec.Details) != len(want) {
		t.Fatalf("Details = %v, want %v", rec.Details, want)
	}
	for k, v := range want {
		if rec.Details[k] != v {
			t.Errorf("Details[%q] = %q, want %q", k, rec.Details[k], v)
		}
	}
}

func TestApplyHeuristics_NeverOverwrites(t *testing.T) {
	rec := models.NewPropertyRecord()
	rec.Details["price"] = "$900,000"
	rec.SecondaryInfo = []string{"Call Agent"}

	applyHeuristics(rec)

	if rec.Details["price"] != "$900,000" {
		t.Errorf("price = %q, table values must win over heuristics", rec.Details["price"])
	}
}

func TestIsLocationFragment(t *testing.T) {
	tests := []struct {
		frag string
		want bool
	}{
		{"Atlanta, GA 30318", true},
		{"14 Industrial Way", true},
		{"$1,200,000", false},
		{"Call Agent", false},
		{"call for details", false},
		{"Available Now", false},
	}

	for _, tt := range tests {
		if got := isLocationFragment(tt.frag); got != tt.want {
			t.Errorf("isLocationFragment(%q) = %v, want %v", tt.frag, got, tt.want)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Building Size:", "building_size"},
		{" Lot  Size ", "lot_size"},
		{"ZONING:", "zoning"},
		{"Price", "price"},
		{":", ""},
	}

	for _, tt := range tests {
		if got := normalizeKey(tt.in); got != tt.want {
			t.Errorf("normalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAbsolutize(t *testing.T) {
	base, _ := url.Parse("https://buildout.com/plugins/inventory")

	tests := []struct {
		name string
		base *url.URL
		ref  string
		want string
	}{
		{"rooted path", base, "/x/y", "https://buildout.com/x/y"},
		{"relative path", base, "detail?propertyId=5", "https://buildout.com/plugins/detail?propertyId=5"},
		{"already absolute", base, "https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"protocol relative", base, "//cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"mailto rejected", base, "mailto:agent@example.com", ""},
		{"javascript rejected", base, "javascript:void(0)", ""},
		{"no base, relative rejected", nil, "/x/y", ""},
		{"no base, absolute kept", nil, "https://ok.example.com/x", "https://ok.example.com/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := absolutize(tt.base, tt.ref); got != tt.want {
				t.Errorf("absolutize(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestParsePropertyID(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://b.com/p?propertyId=921775&tab=inventory", "921775"},
		{"https://b.com/p?propertyId=921775", "921775"},
		{"https://b.com/p?tab=inventory", ""},
		{"https://b.com/p?propertyId=&tab=x", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := parsePropertyID(tt.raw); got != tt.want {
			t.Errorf("parsePropertyID(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
