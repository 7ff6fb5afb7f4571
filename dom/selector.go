package dom

import "github.com/andybalholm/cascadia"

// Selector is a CSS selector compiled once at construction. Strategy catalogs
// are fixed at startup, so a malformed selector is a programming error caught
// immediately rather than a silent per-element miss at runtime.
type Selector struct {
	css      string
	compiled cascadia.Selector
}

// Compile parses css into a reusable Selector.
func Compile(css string) (Selector, error) {
	sel, err := cascadia.Compile(css)
	if err != nil {
		return Selector{}, err
	}
	return Selector{css: css, compiled: sel}, nil
}

// MustCompile is Compile for hardcoded selectors; it panics on a parse error.
func MustCompile(css string) Selector {
	sel, err := Compile(css)
	if err != nil {
		panic(err)
	}
	return sel
}

// MustCompileAll compiles an ordered strategy catalog.
func MustCompileAll(css ...string) []Selector {
	sels := make([]Selector, 0, len(css))
	for _, c := range css {
		sels = append(sels, MustCompile(c))
	}
	return sels
}

// CSS returns the selector source text, used verbatim for live page queries.
func (s Selector) CSS() string { return s.css }

// Matcher returns the compiled form used for snapshot queries.
func (s Selector) Matcher() cascadia.Selector { return s.compiled }
