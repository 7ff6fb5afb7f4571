package scraper

import (
	"log/slog"

	"github.com/mudassirfayaz/Kings-Properties/dom"
)

// resolveAll tries the ordered strategies against scope and returns the
// nodes from the first one that matches anything; strategies past the winner
// are never evaluated. A strategy that errors is treated as a miss so a
// broken lookup degrades to the next fallback instead of aborting. When
// every strategy misses the result is nil, which callers treat as a default,
// never as a failure.
func resolveAll(scope dom.Scope, label string, strategies []dom.Selector) []dom.Node {
	for _, sel := range strategies {
		nodes, err := scope.Find(sel)
		if err != nil {
			slog.Debug("selector strategy errored",
				"label", label, "selector", sel.CSS(), "error", err)
			continue
		}
		if len(nodes) > 0 {
			slog.Debug("selector strategy matched",
				"label", label, "selector", sel.CSS(), "count", len(nodes))
			return nodes
		}
	}
	slog.Debug("all selector strategies missed", "label", label)
	return nil
}

// resolveFirst returns the first node of the winning strategy, or nil.
func resolveFirst(scope dom.Scope, label string, strategies []dom.Selector) dom.Node {
	nodes := resolveAll(scope, label, strategies)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}
