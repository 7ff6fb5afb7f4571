// Package scraper implements the catalog traversal: resolving elements
// through layered selector strategies, settling dynamically loaded pages,
// extracting listing records and walking the widget's pagination.
package scraper

import (
	"fmt"
	"time"

	"github.com/mudassirfayaz/Kings-Properties/dom"
	"github.com/ysmood/gson"
)

// View is the rendered-document surface traversal operates on. The live
// implementation is browser.PageView; replay and tests substitute parsed
// snapshots.
type View interface {
	dom.Scope

	// URL is the document location, used to absolutize extracted links.
	URL() string

	// Eval runs a script in the document and returns its value.
	Eval(js string, params ...interface{}) (gson.JSON, error)

	// WaitPresent blocks until sel matches at least once or timeout passes.
	WaitPresent(sel dom.Selector, timeout time.Duration) error

	// WaitStable waits for DOM mutations to quiet down.
	WaitStable(timeout time.Duration) error

	// Sleep pauses, returning early if the document's context ends.
	Sleep(d time.Duration) error
}

// snapshotView serves a captured widget DOM as a View. Scripts evaluate to
// nothing and waits return immediately, so the traversal code above it runs
// unchanged, just instantly.
type snapshotView struct {
	snap *dom.Snapshot
	url  string
}

func newSnapshotView(rawHTML, url string) (*snapshotView, error) {
	snap, err := dom.ParseSnapshot(rawHTML)
	if err != nil {
		return nil, err
	}
	return &snapshotView{snap: snap, url: url}, nil
}

func (v *snapshotView) Find(sel dom.Selector) ([]dom.Node, error) {
	return v.snap.Find(sel)
}

func (v *snapshotView) URL() string {
	return v.url
}

func (v *snapshotView) Eval(js string, params ...interface{}) (gson.JSON, error) {
	return gson.New(nil), nil
}

func (v *snapshotView) WaitPresent(sel dom.Selector, timeout time.Duration) error {
	nodes, err := v.snap.Find(sel)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("no element matches %s", sel.CSS())
	}
	return nil
}

func (v *snapshotView) WaitStable(timeout time.Duration) error {
	return nil
}

func (v *snapshotView) Sleep(d time.Duration) error {
	return nil
}
