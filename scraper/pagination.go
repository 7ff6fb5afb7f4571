package scraper

import (
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/mudassirfayaz/Kings-Properties/config"
	"github.com/mudassirfayaz/Kings-Properties/dom"
	"github.com/mudassirfayaz/Kings-Properties/models"
)

// Sentinel outcomes of an advancement attempt. Both end the traversal
// normally; neither fails the run.
var (
	// errNoNextPage means the pager offers no button for the next page.
	errNoNextPage = errors.New("no next page button")

	// errStalled means the click happened but the counter did not move
	// strictly forward, so the widget is looping or ignoring input.
	errStalled = errors.New("pagination did not advance")
)

// reTotals parses the widget's "<range> out of <N> listings" phrase.
var reTotals = regexp.MustCompile(`(?i)([\d,\s\x{2013}-]+?)\s*out of\s*([\d,]+)\s*listings`)

// PageState is what the widget's pager reports during one visit. Everything
// in it is best-effort: unreadable parts carry defaults, never errors.
type PageState struct {
	// Current is the highlighted page number; 1 when unreadable.
	Current int

	// Info is the transient totals estimate for this visit.
	Info models.PaginationInfo
}

// Paginator reads and advances the widget's pager.
type Paginator struct {
	cfg config.TraversalConfig
}

func newPaginator(cfg config.TraversalConfig) *Paginator {
	return &Paginator{cfg: cfg}
}

// ReadState re-reads the pager from the DOM. The DOM is the source of truth
// for the current page; no counter is carried between visits.
func (pg *Paginator) ReadState(view View) PageState {
	rangeStr, totalListings := readTotals(view)
	return PageState{
		Current: readCurrent(view),
		Info: models.PaginationInfo{
			TotalListings: totalListings,
			CurrentRange:  rangeStr,
			TotalPages:    readTotalPages(view),
		},
	}
}

// Advance moves the widget from page current to current+1 and verifies the
// move by re-reading the counter. The check is strictly greater-than: a
// pager that slides backwards counts as a stall.
func (pg *Paginator) Advance(view View, w *Waiter, current int) (int, error) {
	target := current + 1

	btn := findPageButton(view, target)
	if btn == nil {
		return current, errNoNextPage
	}

	if err := btn.ScrollIntoView(); err != nil {
		slog.Debug("scroll to page button failed", "target", target, "error", err)
	}
	if err := btn.Click(); err != nil {
		slog.Warn("pagination click failed", "target", target, "error", err)
		return current, errStalled
	}

	if err := view.Sleep(pg.cfg.PostClickWait); err != nil {
		return current, err
	}
	if err := w.Settle(view); err != nil {
		return current, err
	}

	now := readCurrent(view)
	if now <= current {
		return now, errStalled
	}
	return now, nil
}

// readCurrent returns the highlighted page number, defaulting to 1 when the
// pager or its label is unreadable.
func readCurrent(view View) int {
	nodes, err := view.Find(activePageSel)
	if err != nil || len(nodes) == 0 {
		return 1
	}
	text, err := nodes[0].Text()
	if err != nil {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// readTotalPages returns the highest numeric label among the pager buttons,
// or 1 when none parse. Arrow buttons have no numeric label and drop out
// naturally.
func readTotalPages(view View) int {
	max := 1
	for _, n := range resolveAll(view, "page buttons", pageButtonStrategies) {
		text, err := n.Text()
		if err != nil {
			continue
		}
		if v, err := strconv.Atoi(strings.TrimSpace(text)); err == nil && v > max {
			max = v
		}
	}
	return max
}

// readTotals scans the totals candidates for the "out of N listings" phrase
// and returns the preceding range text and the listing count. Unlike
// element resolution, the winner here is the first matching text, so every
// candidate element is inspected.
func readTotals(view View) (string, int) {
	for _, sel := range totalsStrategies {
		nodes, err := view.Find(sel)
		if err != nil {
			continue
		}
		for _, n := range nodes {
			text, err := n.Text()
			if err != nil {
				continue
			}
			m := reTotals.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			total, _ := strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
			return strings.TrimSpace(m[1]), total
		}
	}
	return "", 0
}

// findPageButton returns the pager button whose label is exactly the target
// page number, or nil when the pager offers none.
func findPageButton(view View, target int) dom.Node {
	label := strconv.Itoa(target)
	for _, n := range resolveAll(view, "page buttons", pageButtonStrategies) {
		text, err := n.Text()
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == label {
			return n
		}
	}
	return nil
}
