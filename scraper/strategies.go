package scraper

import "github.com/mudassirfayaz/Kings-Properties/dom"

// Selector strategy catalogs. Order matters: the first strategy that yields
// a match wins and later entries are never evaluated. The leading entries
// match the widget's current markup; the rest cover plausible future markup
// so a redesign degrades the scrape instead of breaking it.
var (
	containerStrategies = dom.MustCompileAll(
		".grid-item",
		".property-item",
		".listing-item",
		".property-card",
		"div[class*='property']",
		"div[class*='listing']",
		"a[href*='property']",
		".col-md-6",
		".property",
		".listing",
	)

	loadingStrategies = dom.MustCompileAll(
		".loading",
		".spinner",
		".loader",
		"[class*='loading']",
		"[class*='spinner']",
		"[class*='loader']",
		".overlay",
		".modal-backdrop",
	)

	imageStrategies = dom.MustCompileAll(
		"img.image-cover",
		"img",
		".property-image img",
		".listing-image img",
	)

	titleStrategies = dom.MustCompileAll(
		"h5.mb-0",
		"h5",
		"h4",
		"h3",
		".title",
		".property-title",
		".listing-title",
		"[class*='title']",
	)

	bannerStrategies = dom.MustCompileAll(
		".list-item-banner",
		"[class*='banner']",
		"[class*='type']",
	)

	pdfStrategies = dom.MustCompileAll(
		"a[href*='.pdf']",
		"a[href*='brochure']",
		"a[href*='flyer']",
		"a[title*='PDF']",
		"a[title*='Brochure']",
	)

	pageButtonStrategies = dom.MustCompileAll(
		".js-paginate-btn",
		".page-link",
		".pagination a",
		".pager a",
		"[class*='page']",
	)

	// totalsStrategies locate elements whose text may carry the
	// "<range> out of <N> listings" phrase.
	totalsStrategies = dom.MustCompileAll(
		".js-total-container",
		".total-results",
		".results-total",
		".js-pagination-container",
		".pagination-info",
		".results-info",
		"[class*='total']",
		"[class*='pagination']",
		"[class*='results']",
	)
)

// Single-shot selectors outside the fallback catalogs.
var (
	bodySel          = dom.MustCompile("body")
	iframeSel        = dom.MustCompile("iframe")
	anchorSel        = dom.MustCompile("a")
	secondaryInfoSel = dom.MustCompile(".secondary-information")
	detailTableSel   = dom.MustCompile("table.mt-2")
	tableRowSel      = dom.MustCompile("tr")
	tableCellSel     = dom.MustCompile("td, th")
	activePageSel    = dom.MustCompile(".js-paginate-btn.active")
)
