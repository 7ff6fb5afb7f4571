package dom

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// LivePage adapts a rod page (or an iframe entered via Element.Frame) to the
// Scope interface. Queries use the non-waiting Elements call so that a miss
// returns immediately instead of blocking on rod's retry loop.
type LivePage struct {
	p *rod.Page
}

// NewLivePage wraps p. The page keeps whatever context is bound to it.
func NewLivePage(p *rod.Page) *LivePage {
	return &LivePage{p: p}
}

// Page exposes the underlying rod page for waits and script evaluation.
func (lp *LivePage) Page() *rod.Page {
	return lp.p
}

func (lp *LivePage) Find(sel Selector) ([]Node, error) {
	els, err := lp.p.Elements(sel.CSS())
	if err != nil {
		return nil, err
	}
	return wrapElements(els), nil
}

func wrapElements(els rod.Elements) []Node {
	nodes := make([]Node, 0, len(els))
	for _, el := range els {
		nodes = append(nodes, &LiveNode{el: el})
	}
	return nodes
}

// LiveNode is one element on a live page.
type LiveNode struct {
	el *rod.Element
}

// Element exposes the underlying rod element.
func (n *LiveNode) Element() *rod.Element {
	return n.el
}

func (n *LiveNode) Find(sel Selector) ([]Node, error) {
	els, err := n.el.Elements(sel.CSS())
	if err != nil {
		return nil, err
	}
	return wrapElements(els), nil
}

func (n *LiveNode) Text() (string, error) {
	s, err := n.el.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (n *LiveNode) Attr(name string) (string, bool, error) {
	v, err := n.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (n *LiveNode) TagName() (string, error) {
	res, err := n.el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (n *LiveNode) ScrollIntoView() error {
	return n.el.ScrollIntoView()
}

func (n *LiveNode) Click() error {
	return n.el.Click(proto.InputMouseButtonLeft, 1)
}
