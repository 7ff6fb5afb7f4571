package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is a parsed HTML document. It backs tests and the offline replay
// mode, where a previously captured widget DOM is traversed without a browser.
type Snapshot struct {
	doc *goquery.Document
}

// ParseSnapshot parses serialized HTML into a queryable Snapshot.
func ParseSnapshot(rawHTML string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	return &Snapshot{doc: doc}, nil
}

func (s *Snapshot) Find(sel Selector) ([]Node, error) {
	return wrapSelection(s.doc.FindMatcher(sel.Matcher())), nil
}

func wrapSelection(selection *goquery.Selection) []Node {
	nodes := make([]Node, 0, selection.Length())
	selection.Each(func(_ int, el *goquery.Selection) {
		nodes = append(nodes, &SnapshotNode{sel: el})
	})
	return nodes
}

// SnapshotNode is one element inside a parsed document. Interaction methods
// are inert: scrolling is a no-op and clicking reports ErrInert.
type SnapshotNode struct {
	sel *goquery.Selection
}

func (n *SnapshotNode) Find(sel Selector) ([]Node, error) {
	return wrapSelection(n.sel.FindMatcher(sel.Matcher())), nil
}

func (n *SnapshotNode) Text() (string, error) {
	return strings.TrimSpace(n.sel.Text()), nil
}

func (n *SnapshotNode) Attr(name string) (string, bool, error) {
	v, ok := n.sel.Attr(name)
	return v, ok, nil
}

func (n *SnapshotNode) TagName() (string, error) {
	return goquery.NodeName(n.sel), nil
}

func (n *SnapshotNode) ScrollIntoView() error {
	return nil
}

func (n *SnapshotNode) Click() error {
	return ErrInert
}
