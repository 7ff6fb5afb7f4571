package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/mudassirfayaz/Kings-Properties/dom"
	"github.com/ysmood/gson"
)

// PageView presents a live rod page (or iframe) as a rendered document:
// element lookup through the dom package plus script evaluation and waits.
type PageView struct {
	p    *rod.Page
	live *dom.LivePage
}

// NewPageView wraps a page whose context is already bound to the run.
func NewPageView(p *rod.Page) *PageView {
	return &PageView{p: p, live: dom.NewLivePage(p)}
}

// Page exposes the underlying rod page.
func (v *PageView) Page() *rod.Page {
	return v.p
}

func (v *PageView) Find(sel dom.Selector) ([]dom.Node, error) {
	return v.live.Find(sel)
}

// URL returns the document location, used to absolutize extracted links.
func (v *PageView) URL() string {
	return evalStringOrEmpty(v.p, `() => window.location.href`)
}

// Eval runs js in the document and returns the result value.
func (v *PageView) Eval(js string, params ...interface{}) (gson.JSON, error) {
	res, err := v.p.Eval(js, params...)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

// WaitPresent blocks until at least one element matches sel or the timeout
// passes.
func (v *PageView) WaitPresent(sel dom.Selector, timeout time.Duration) error {
	return v.p.Timeout(timeout).WaitElementsMoreThan(sel.CSS(), 0)
}

// WaitStable waits for DOM mutations to quiet down, giving up after timeout.
func (v *PageView) WaitStable(timeout time.Duration) error {
	return v.p.Timeout(timeout).WaitDOMStable(300*time.Millisecond, 0.1)
}

// Sleep pauses without outliving the page's context.
func (v *PageView) Sleep(d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-v.p.GetContext().Done():
		return v.p.GetContext().Err()
	}
}

// HTML returns the serialized document, used for debug snapshots.
func (v *PageView) HTML() (string, error) {
	return v.p.HTML()
}

// EnterFrame descends into the iframe held by n and returns the frame's
// content document as its own view.
func (v *PageView) EnterFrame(n dom.Node) (*PageView, error) {
	ln, ok := n.(*dom.LiveNode)
	if !ok {
		return nil, fmt.Errorf("node is not a live element")
	}
	frame, err := ln.Element().Frame()
	if err != nil {
		return nil, fmt.Errorf("enter iframe: %w", err)
	}
	return NewPageView(frame), nil
}

// FrameSrc returns the iframe src attribute lower-cased, or "" when absent.
func FrameSrc(n dom.Node) string {
	src, ok, err := n.Attr("src")
	if err != nil || !ok {
		return ""
	}
	return strings.ToLower(src)
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
