// Package dom abstracts element lookup over both a live browser page and a
// parsed HTML snapshot, so extraction logic runs unchanged against either.
package dom

import "errors"

// ErrInert is returned by interactions that require a live browser when the
// receiver is a snapshot node.
var ErrInert = errors.New("dom: snapshot nodes cannot be interacted with")

// Scope is anything queryable with a compiled selector: a page, an iframe,
// an element subtree, or a parsed snapshot.
type Scope interface {
	// Find returns all descendants matching sel in document order. A miss is
	// an empty slice, not an error; errors report transport failures only.
	Find(sel Selector) ([]Node, error)
}

// Node is one matched element.
type Node interface {
	Scope

	// Text returns the element's visible text, trimmed.
	Text() (string, error)

	// Attr returns the raw attribute value and whether the attribute exists.
	Attr(name string) (string, bool, error)

	// TagName returns the lower-case tag name.
	TagName() (string, error)

	// ScrollIntoView brings the element into the viewport.
	ScrollIntoView() error

	// Click dispatches a left click on the element.
	Click() error
}
