package scraper

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mudassirfayaz/Kings-Properties/config"
	"github.com/mudassirfayaz/Kings-Properties/dom"
)

const pagerURL = "https://buildout.com/plugins/site_search_engines/abc/inventory"

// pagerPage renders one widget page: a single listing, the totals phrase
// and a pager with buttons 1, 2, 3 and 5.
func pagerPage(active int, title string) string {
	btn := func(n int) string {
		cls := "js-paginate-btn"
		if n == active {
			cls += " active"
		}
		return fmt.Sprintf("<button class=%q>%d</button>", cls, n)
	}
	lo, hi := (active-1)*2+1, active*2
	return fmt.Sprintf(`<html><body>
<div class="grid-item"><h5 class="mb-0">%s</h5></div>
<span class="js-total-container">%d – %d out of 9 listings</span>
<div class="paging">%s%s%s%s</div>
</body></html>`, title, lo, hi, btn(1), btn(2), btn(3), btn(5))
}

func testTraversalConfig() config.TraversalConfig {
	return config.TraversalConfig{
		SafetyCeiling:   50,
		DefaultMaxPages: 20,
		PostClickWait:   time.Millisecond,
	}
}

func TestReadState(t *testing.T) {
	view := newPagingView(t, pagerURL, pagerPage(1, "Alpha Warehouse"))
	pg := newPaginator(testTraversalConfig())

	state := pg.ReadState(view)

	if state.Current != 1 {
		t.Errorf("Current = %d, want 1", state.Current)
	}
	if state.Info.TotalPages != 5 {
		t.Errorf("TotalPages = %d, want the highest numeric button label", state.Info.TotalPages)
	}
	if state.Info.TotalListings != 9 {
		t.Errorf("TotalListings = %d, want 9", state.Info.TotalListings)
	}
	if state.Info.CurrentRange != "1 – 2" {
		t.Errorf("CurrentRange = %q, want %q", state.Info.CurrentRange, "1 – 2")
	}
}

func TestReadState_DefaultsWithoutPager(t *testing.T) {
	view := newPagingView(t, pagerURL,
		`<html><body><div class="grid-item"><h5 class="mb-0">Solo</h5></div></body></html>`)
	pg := newPaginator(testTraversalConfig())

	state := pg.ReadState(view)

	if state.Current != 1 {
		t.Errorf("Current = %d, want 1 when the pager is unreadable", state.Current)
	}
	if state.Info.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", state.Info.TotalPages)
	}
	if state.Info.TotalListings != 0 || state.Info.CurrentRange != "" {
		t.Errorf("totals = %d/%q, want zero values", state.Info.TotalListings, state.Info.CurrentRange)
	}
}

func TestAdvance_WalksForward(t *testing.T) {
	view := newPagingView(t, pagerURL,
		pagerPage(1, "Alpha"), pagerPage(2, "Beta"), pagerPage(3, "Gamma"))
	pg := newPaginator(testTraversalConfig())
	w := quickWait()

	next, err := pg.Advance(view, w, 1)
	if err != nil || next != 2 {
		t.Fatalf("Advance(1) = %d, %v, want 2, nil", next, err)
	}

	next, err = pg.Advance(view, w, 2)
	if err != nil || next != 3 {
		t.Fatalf("Advance(2) = %d, %v, want 3, nil", next, err)
	}
}

func TestAdvance_NoButtonForNextPage(t *testing.T) {
	// The pager offers 1, 2, 3 and 5, so page 4 has no button.
	view := newPagingView(t, pagerURL, pagerPage(3, "Gamma"))
	pg := newPaginator(testTraversalConfig())

	_, err := pg.Advance(view, quickWait(), 3)
	if !errors.Is(err, errNoNextPage) {
		t.Errorf("Advance(3) error = %v, want errNoNextPage", err)
	}
}

func TestAdvance_StallWhenCounterDoesNotMove(t *testing.T) {
	view := newPagingView(t, pagerURL, pagerPage(1, "Alpha"))
	view.stick = true
	pg := newPaginator(testTraversalConfig())

	next, err := pg.Advance(view, quickWait(), 1)
	if !errors.Is(err, errStalled) {
		t.Errorf("Advance() error = %v, want errStalled", err)
	}
	if next != 1 {
		t.Errorf("Advance() read back page %d, want 1", next)
	}
}

func TestAdvance_ClickFailureIsAStall(t *testing.T) {
	view := newPagingView(t, pagerURL, pagerPage(1, "Alpha"))
	view.clickErr = dom.ErrInert
	pg := newPaginator(testTraversalConfig())

	_, err := pg.Advance(view, quickWait(), 1)
	if !errors.Is(err, errStalled) {
		t.Errorf("Advance() error = %v, want errStalled on a failed click", err)
	}
}

func TestFindPageButton(t *testing.T) {
	view := newPagingView(t, pagerURL, pagerPage(1, "Alpha"))

	if btn := findPageButton(view, 5); btn == nil {
		t.Error("findPageButton(5) = nil, want the labelled button")
	}
	if btn := findPageButton(view, 4); btn != nil {
		t.Error("findPageButton(4) should be nil, the pager offers no 4")
	}
}

func TestReadTotals_ParsesPhrase(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantRange string
		wantTotal int
	}{
		{
			name:      "en dash range",
			html:      `<span class="js-total-container">1 – 10 out of 43 listings</span>`,
			wantRange: "1 – 10",
			wantTotal: 43,
		},
		{
			name:      "comma grouped total",
			html:      `<span class="js-total-container">1 – 10 out of 1,204 listings</span>`,
			wantRange: "1 – 10",
			wantTotal: 1204,
		},
		{
			name:      "case insensitive, fallback selector",
			html:      `<div class="results-info">1 - 5 OUT OF 9 LISTINGS</div>`,
			wantRange: "1 - 5",
			wantTotal: 9,
		},
		{
			name:      "no phrase",
			html:      `<span class="js-total-container">Showing results</span>`,
			wantRange: "",
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := newPagingView(t, pagerURL, "<html><body>"+tt.html+"</body></html>")
			gotRange, gotTotal := readTotals(view)
			if gotRange != tt.wantRange || gotTotal != tt.wantTotal {
				t.Errorf("readTotals() = %q, %d, want %q, %d",
					gotRange, gotTotal, tt.wantRange, tt.wantTotal)
			}
		})
	}
}
