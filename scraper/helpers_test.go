package scraper

import (
	"fmt"
	"testing"
	"time"

	"github.com/mudassirfayaz/Kings-Properties/config"
	"github.com/mudassirfayaz/Kings-Properties/dom"
	"github.com/ysmood/gson"
)

// fakeScope serves canned nodes per selector and records lookup order.
type fakeScope struct {
	results map[string][]dom.Node
	errs    map[string]error
	calls   []string
}

func (f *fakeScope) Find(sel dom.Selector) ([]dom.Node, error) {
	f.calls = append(f.calls, sel.CSS())
	if err := f.errs[sel.CSS()]; err != nil {
		return nil, err
	}
	return f.results[sel.CSS()], nil
}

// fakeNode is a minimal inert node for resolver tests.
type fakeNode struct {
	text string
}

func (n *fakeNode) Find(sel dom.Selector) ([]dom.Node, error) { return nil, nil }
func (n *fakeNode) Text() (string, error)                     { return n.text, nil }
func (n *fakeNode) Attr(string) (string, bool, error)         { return "", false, nil }
func (n *fakeNode) TagName() (string, error)                  { return "div", nil }
func (n *fakeNode) ScrollIntoView() error                     { return nil }
func (n *fakeNode) Click() error                              { return nil }

// pagingView is a scripted View over a sequence of page snapshots. Clicking
// any node served by it turns to the next snapshot, imitating the widget's
// in-place pagination. With stick set, clicks land but the page never
// changes; with clickErr set, clicks fail outright.
type pagingView struct {
	snaps    []*dom.Snapshot
	idx      int
	url      string
	stick    bool
	clickErr error
}

func newPagingView(t *testing.T, url string, pages ...string) *pagingView {
	t.Helper()
	v := &pagingView{url: url}
	for _, p := range pages {
		snap, err := dom.ParseSnapshot(p)
		if err != nil {
			t.Fatalf("parse page fixture: %v", err)
		}
		v.snaps = append(v.snaps, snap)
	}
	return v
}

func (v *pagingView) Find(sel dom.Selector) ([]dom.Node, error) {
	nodes, err := v.snaps[v.idx].Find(sel)
	if err != nil {
		return nil, err
	}
	wrapped := make([]dom.Node, len(nodes))
	for i, n := range nodes {
		wrapped[i] = &clickThrough{Node: n, view: v}
	}
	return wrapped, nil
}

func (v *pagingView) URL() string { return v.url }

func (v *pagingView) Eval(js string, params ...interface{}) (gson.JSON, error) {
	return gson.New(nil), nil
}

func (v *pagingView) WaitPresent(sel dom.Selector, timeout time.Duration) error {
	nodes, err := v.Find(sel)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("no element matches %s", sel.CSS())
	}
	return nil
}

func (v *pagingView) WaitStable(timeout time.Duration) error { return nil }

func (v *pagingView) Sleep(d time.Duration) error { return nil }

// clickThrough overrides interaction on a snapshot node so a click can turn
// the fake page.
type clickThrough struct {
	dom.Node
	view *pagingView
}

func (c *clickThrough) ScrollIntoView() error { return nil }

func (c *clickThrough) Click() error {
	if c.view.clickErr != nil {
		return c.view.clickErr
	}
	if c.view.stick {
		return nil
	}
	if c.view.idx+1 < len(c.view.snaps) {
		c.view.idx++
	}
	return nil
}

// waitConfigForTests keeps every settle window tiny so snapshot-backed
// tests finish instantly.
func waitConfigForTests() config.WaitConfig {
	return config.WaitConfig{
		BodyTimeout:      50 * time.Millisecond,
		RenderTimeout:    10 * time.Millisecond,
		SettleDelay:      time.Millisecond,
		IndicatorTimeout: 10 * time.Millisecond,
		IndicatorPoll:    time.Millisecond,
		ScrollRounds:     2,
		ScrollRoundWait:  time.Millisecond,
		SweepSteps:       2,
		SweepStepWait:    time.Millisecond,
	}
}

// quickWait returns a Waiter whose windows are all effectively instant for
// snapshot-backed views.
func quickWait() *Waiter {
	return newWaiter(waitConfigForTests())
}
