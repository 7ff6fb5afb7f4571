package models

import (
	"testing"
	"time"
)

func TestNewPropertyRecord_Defaults(t *testing.T) {
	rec := NewPropertyRecord()

	if rec.Title != Unknown {
		t.Errorf("Title = %q, want %q", rec.Title, Unknown)
	}
	if rec.ListingType != Unknown {
		t.Errorf("ListingType = %q, want %q", rec.ListingType, Unknown)
	}
	if rec.Location != Unknown {
		t.Errorf("Location = %q, want %q", rec.Location, Unknown)
	}
	if !rec.ForLease {
		t.Error("ForLease = false, want true by default")
	}
	if rec.ForSale {
		t.Error("ForSale = true, want false by default")
	}
	if rec.Details == nil {
		t.Error("Details map not initialized")
	}
}

func TestFlatten_Defaults(t *testing.T) {
	rec := NewPropertyRecord()
	rec.Title = "4500 Atlanta Industrial Pkwy"
	rec.ScrapedAt = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	flat := Flatten(rec, FlattenOptions{})

	if flat.Name != rec.Title {
		t.Errorf("Name = %q, want %q", flat.Name, rec.Title)
	}
	if flat.Property != rec.Title {
		t.Errorf("Property = %q, want %q", flat.Property, rec.Title)
	}
	if flat.Email != DefaultContactEmail {
		t.Errorf("Email = %q, want %q", flat.Email, DefaultContactEmail)
	}
	if flat.ItemURL != fallbackItemURL {
		t.Errorf("ItemURL = %q, want placeholder %q", flat.ItemURL, fallbackItemURL)
	}
	if flat.Date != "2025-03-14" {
		t.Errorf("Date = %q, want 2025-03-14", flat.Date)
	}
	if flat.Time != "09:26:53" {
		t.Errorf("Time = %q, want 09:26:53", flat.Time)
	}
	if !flat.ForLease || flat.ForSale {
		t.Errorf("flags = (%v, %v), want (true, false)", flat.ForLease, flat.ForSale)
	}
	if flat.Location != "" || flat.ListingType != "" {
		t.Error("extended fields set without Extended option")
	}
}

func TestFlatten_Extended(t *testing.T) {
	rec := NewPropertyRecord()
	rec.Title = "Chattahoochee Industrial Park"
	rec.URL = "https://buildout.com/plugins/0/inventory?propertyId=12345"
	rec.Location = "Atlanta, GA"
	rec.ListingType = "FOR SALE"
	rec.ImageURL = "https://images.buildout.com/12345.jpg"
	rec.Details = map[string]string{"building_size": "24,000 SF"}

	flat := Flatten(rec, FlattenOptions{Extended: true, ContactEmail: "broker@example.com"})

	if flat.ItemURL != rec.URL {
		t.Errorf("ItemURL = %q, want %q", flat.ItemURL, rec.URL)
	}
	if flat.Email != "broker@example.com" {
		t.Errorf("Email = %q, want override", flat.Email)
	}
	if flat.Location != "Atlanta, GA" {
		t.Errorf("Location = %q, want Atlanta, GA", flat.Location)
	}
	if flat.ListingType != "FOR SALE" {
		t.Errorf("ListingType = %q, want FOR SALE", flat.ListingType)
	}
	if flat.PropertyDetails["building_size"] != "24,000 SF" {
		t.Errorf("PropertyDetails = %v, want building_size entry", flat.PropertyDetails)
	}
}

func TestFlattenAll_Count(t *testing.T) {
	recs := []*PropertyRecord{NewPropertyRecord(), NewPropertyRecord(), NewPropertyRecord()}
	result := NewScrapeResult(recs)

	if result.Metadata.TotalProperties != 3 {
		t.Errorf("TotalProperties = %d, want 3", result.Metadata.TotalProperties)
	}
	if result.Metadata.ScraperVersion != ScraperVersion {
		t.Errorf("ScraperVersion = %q, want %q", result.Metadata.ScraperVersion, ScraperVersion)
	}

	rows := FlattenAll(result, FlattenOptions{})
	if len(rows) != 3 {
		t.Errorf("len(rows) = %d, want 3", len(rows))
	}
}

func TestRunRequest_Defaults(t *testing.T) {
	var req RunRequest
	req.Defaults()

	if req.Shape != ShapeFlat {
		t.Errorf("Shape = %q, want %q", req.Shape, ShapeFlat)
	}
	if req.Dedupe == nil || !*req.Dedupe {
		t.Error("Dedupe default should be true")
	}
	if req.Timeout != 900 {
		t.Errorf("Timeout = %d, want 900", req.Timeout)
	}
}
