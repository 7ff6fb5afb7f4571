package scraper

import (
	"log/slog"
	"time"

	"github.com/mudassirfayaz/Kings-Properties/config"
)

// Page-script snippets used by the settle sequence.
const (
	scrollHeightJS   = `() => document.body ? document.body.scrollHeight : 0`
	scrollToBottomJS = `() => window.scrollTo(0, document.body.scrollHeight)`
	scrollToTopJS    = `() => window.scrollTo(0, 0)`
	scrollToJS       = `(y) => window.scrollTo(0, y)`
)

// Waiter drives the settle sequence after navigation and after each
// pagination step. Settling never fails a run: every phase is best-effort
// and the sequence carries on past timeouts and script errors. The only
// error it returns is run-context cancellation, which callers surface.
type Waiter struct {
	cfg config.WaitConfig
}

func newWaiter(cfg config.WaitConfig) *Waiter {
	return &Waiter{cfg: cfg}
}

// Settle runs the full sequence: body wait, render wait, fixed delay,
// indicator drain, lazy-load scrolling, a stepwise sweep, then a final
// drain with the viewport back at the top.
func (w *Waiter) Settle(view View) error {
	// A usable body. The longest wait, and still not fatal on a miss: the
	// later phases just see an empty document and fall through quickly.
	if err := view.WaitPresent(bodySel, w.cfg.BodyTimeout); err != nil {
		slog.Warn("document body never appeared, continuing with current DOM", "error", err)
	}

	if err := view.WaitStable(w.cfg.RenderTimeout); err != nil {
		slog.Debug("DOM did not stabilise, proceeding", "error", err)
	}

	if err := view.Sleep(w.cfg.SettleDelay); err != nil {
		return err
	}

	if err := w.drainIndicators(view); err != nil {
		return err
	}

	if err := w.scrollUntilStable(view); err != nil {
		return err
	}

	if err := w.sweep(view); err != nil {
		return err
	}

	if _, err := view.Eval(scrollToTopJS); err != nil {
		slog.Debug("scroll to top failed", "error", err)
	}
	return w.drainIndicators(view)
}

// drainIndicators polls the loading-indicator catalog until nothing matches
// or the indicator window closes. Indicators that never leave the DOM stop
// delaying the run once the window is spent.
func (w *Waiter) drainIndicators(view View) error {
	deadline := time.Now().Add(w.cfg.IndicatorTimeout)
	for {
		nodes := resolveAll(view, "loading indicator", loadingStrategies)
		if len(nodes) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			slog.Debug("loading indicators still present after wait window", "count", len(nodes))
			return nil
		}
		if err := view.Sleep(w.cfg.IndicatorPoll); err != nil {
			return err
		}
	}
}

// scrollUntilStable repeatedly scrolls to the bottom until the document
// height stops growing, firing lazy loaders along the way.
func (w *Waiter) scrollUntilStable(view View) error {
	prev := -1
	for i := 0; i < w.cfg.ScrollRounds; i++ {
		res, err := view.Eval(scrollHeightJS)
		if err != nil {
			slog.Debug("height read failed, stopping scroll", "error", err)
			return nil
		}
		h := res.Int()
		if h == prev {
			break
		}
		prev = h

		if _, err := view.Eval(scrollToBottomJS); err != nil {
			slog.Debug("scroll to bottom failed", "error", err)
			return nil
		}
		if err := view.Sleep(w.cfg.ScrollRoundWait); err != nil {
			return err
		}
	}
	return nil
}

// sweep steps the viewport from top to bottom in fixed fractions, catching
// loaders that trigger on intermediate positions rather than the bottom.
func (w *Waiter) sweep(view View) error {
	if w.cfg.SweepSteps <= 0 {
		return nil
	}
	res, err := view.Eval(scrollHeightJS)
	if err != nil || res.Int() == 0 {
		return nil
	}
	height := res.Int()

	for i := 1; i <= w.cfg.SweepSteps; i++ {
		y := height * i / w.cfg.SweepSteps
		if _, err := view.Eval(scrollToJS, y); err != nil {
			slog.Debug("sweep scroll failed", "step", i, "error", err)
			return nil
		}
		if err := view.Sleep(w.cfg.SweepStepWait); err != nil {
			return err
		}
	}
	return nil
}
