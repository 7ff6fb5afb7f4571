package models

import "time"

// ScraperVersion is the fixed tag stamped into result metadata.
const ScraperVersion = "1.0"

// Unknown is the sentinel for text fields whose every selector strategy
// missed. It is a valid value, not an error marker.
const Unknown = "Unknown"

// PropertyRecord is one extracted listing. Every field is populated
// independently: a miss on one field never disturbs the others, so partial
// records are normal and expected.
type PropertyRecord struct {
	// URL is the canonical link target of the listing. Only scheme-qualified
	// URLs are accepted; empty when no absolute anchor resolved.
	URL string `json:"url,omitempty"`

	// PropertyID is the token following "propertyId=" in URL, when present.
	PropertyID string `json:"property_id,omitempty"`

	// Title defaults to the Unknown sentinel when no title node matched.
	Title string `json:"title"`

	// ImageURL/ImageAlt come from the first image-like descendant with an
	// absolute src.
	ImageURL string `json:"image_url,omitempty"`
	ImageAlt string `json:"image_alt,omitempty"`

	// ListingType is the upper-cased text of the type banner, or Unknown.
	ListingType string `json:"listing_type"`

	// ForLease/ForSale derive from ListingType. Both may be true for a
	// combined banner. With no usable banner, ForLease defaults to true:
	// most listings on the target catalog are lease offers.
	ForLease bool `json:"for_lease"`
	ForSale  bool `json:"for_sale"`

	// Location is the first secondary-information fragment that does not
	// look like a price or availability string, or Unknown.
	Location string `json:"location"`

	// PDFURL is a brochure/flyer link found inside the listing, if any.
	PDFURL string `json:"pdf_url,omitempty"`

	// Description is Markdown produced by optional detail-page enrichment.
	Description string `json:"description,omitempty"`

	// SecondaryInfo holds every non-placeholder auxiliary text fragment in
	// document order.
	SecondaryInfo []string `json:"secondary_info,omitempty"`

	// Details maps normalized keys (lower-case, underscores) to values from
	// the detail table, patched by secondary-info heuristics that never
	// overwrite an existing key.
	Details map[string]string `json:"details,omitempty"`

	// PageNumber and ScrapedAt are provenance stamps set by the orchestrator.
	PageNumber int       `json:"page_number"`
	ScrapedAt  time.Time `json:"scraped_at"`

	// ExtractionError is set, never raised, when processing this node hit an
	// unrecoverable condition. All other fields keep their partial values.
	ExtractionError string `json:"extraction_error,omitempty"`
}

// NewPropertyRecord returns a record with every sentinel and default applied.
func NewPropertyRecord() *PropertyRecord {
	return &PropertyRecord{
		Title:       Unknown,
		ListingType: Unknown,
		ForLease:    true,
		Location:    Unknown,
		Details:     make(map[string]string),
	}
}

// PaginationInfo is the transient totals estimate re-read on each page visit.
// Every field is best-effort with its own default.
type PaginationInfo struct {
	// TotalListings parsed from the "out of N listings" phrase; 0 if absent.
	TotalListings int `json:"total_listings"`

	// CurrentRange is the human-readable range preceding "out of", e.g.
	// "1 - 30"; empty if unreadable.
	CurrentRange string `json:"current_range,omitempty"`

	// TotalPages is the highest numeric page-button label; 1 if undiscoverable.
	TotalPages int `json:"total_pages"`
}

// RunMetadata describes one completed run.
type RunMetadata struct {
	ScrapedAt       time.Time `json:"scraped_at"`
	TotalProperties int       `json:"total_properties"`
	ScraperVersion  string    `json:"scraper_version"`
}

// ScrapeResult is the immutable outcome of one run: the accumulated records
// plus run metadata. Its JSON form is the "wrapped" on-disk shape.
type ScrapeResult struct {
	Metadata RunMetadata       `json:"metadata"`
	Records  []*PropertyRecord `json:"properties"`
}

// NewScrapeResult assembles the final result for a finished run.
func NewScrapeResult(records []*PropertyRecord) *ScrapeResult {
	return &ScrapeResult{
		Metadata: RunMetadata{
			ScrapedAt:       time.Now(),
			TotalProperties: len(records),
			ScraperVersion:  ScraperVersion,
		},
		Records: records,
	}
}
