package models

import "time"

// Defaults applied when flattening records for export.
const (
	// DefaultContactEmail is the static contact attached to every flat record.
	DefaultContactEmail = "contact@kingindustrial.com"

	// fallbackItemURL stands in for listings whose link never resolved.
	fallbackItemURL = "https://example.com/item/unknown"
)

// Output shapes accepted by writers and the API.
const (
	ShapeFlat     = "flat"
	ShapeExtended = "extended"
	ShapeWrapped  = "wrapped"
)

// FlatRecord is the downstream-compatible export row. The base fields are
// always present; the extended fields are emitted only under ShapeExtended.
type FlatRecord struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	ItemURL  string `json:"item_url"`
	PDFURL   string `json:"pdf_url"`
	ForLease bool   `json:"for_lease"`
	ForSale  bool   `json:"for_sale"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Property string `json:"property"`

	// Extended shape only.
	Location        string            `json:"location,omitempty"`
	ListingType     string            `json:"listing_type,omitempty"`
	ImageURL        string            `json:"image_url,omitempty"`
	PropertyDetails map[string]string `json:"property_details,omitempty"`
}

// FlattenOptions controls the flat export.
type FlattenOptions struct {
	// ContactEmail overrides DefaultContactEmail when non-empty.
	ContactEmail string

	// Extended includes the optional location/type/image/details columns.
	Extended bool
}

// Flatten converts one record to the export row. Both name and property carry
// the title; the timestamp splits into separate date and time columns.
func Flatten(rec *PropertyRecord, opts FlattenOptions) FlatRecord {
	email := opts.ContactEmail
	if email == "" {
		email = DefaultContactEmail
	}

	itemURL := rec.URL
	if itemURL == "" {
		itemURL = fallbackItemURL
	}

	at := rec.ScrapedAt
	if at.IsZero() {
		at = time.Now()
	}

	flat := FlatRecord{
		Name:     rec.Title,
		Email:    email,
		ItemURL:  itemURL,
		PDFURL:   rec.PDFURL,
		ForLease: rec.ForLease,
		ForSale:  rec.ForSale,
		Date:     at.Format("2006-01-02"),
		Time:     at.Format("15:04:05"),
		Property: rec.Title,
	}

	if opts.Extended {
		flat.Location = rec.Location
		flat.ListingType = rec.ListingType
		flat.ImageURL = rec.ImageURL
		if len(rec.Details) > 0 {
			flat.PropertyDetails = rec.Details
		}
	}

	return flat
}

// FlattenAll applies Flatten across a result's records.
func FlattenAll(result *ScrapeResult, opts FlattenOptions) []FlatRecord {
	rows := make([]FlatRecord, 0, len(result.Records))
	for _, rec := range result.Records {
		rows = append(rows, Flatten(rec, opts))
	}
	return rows
}

// Unflatten rebuilds a partial record from an export row. Only the columns
// the flat shapes carry survive the round trip; everything else keeps its
// defaults.
func Unflatten(row FlatRecord) *PropertyRecord {
	rec := NewPropertyRecord()

	if row.Name != "" {
		rec.Title = row.Name
	} else if row.Property != "" {
		rec.Title = row.Property
	}
	if row.ItemURL != "" && row.ItemURL != fallbackItemURL {
		rec.URL = row.ItemURL
	}
	rec.PDFURL = row.PDFURL
	rec.ForLease = row.ForLease
	rec.ForSale = row.ForSale
	if at, err := time.ParseInLocation("2006-01-02 15:04:05", row.Date+" "+row.Time, time.Local); err == nil {
		rec.ScrapedAt = at
	}

	if row.Location != "" {
		rec.Location = row.Location
	}
	if row.ListingType != "" {
		rec.ListingType = row.ListingType
	}
	rec.ImageURL = row.ImageURL
	for k, v := range row.PropertyDetails {
		rec.Details[k] = v
	}

	return rec
}
