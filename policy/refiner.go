// Package policy holds the score refinement policy shared by the feature
// registries of one host.
//
// A Refiner owns a single replaceable RefineFunc. The host composition point
// creates one Refiner and passes its Score method to every registry it
// builds, so installing a refine function affects all of them at once.
// Tests build their own Refiner to stay isolated.
package policy

import (
	"sync"

	"github.com/reglet-dev/reglet-langfeatures/selector"
)

// Refiner applies an optional refine function on top of the selector score.
type Refiner struct {
	mu          sync.RWMutex
	fn          RefineFunc
	base        func(sel selector.Selector, doc selector.Document) int
	vetoHandler VetoHandler
}

var _ Scorer = (*Refiner)(nil)

// RefinerOption configures a Refiner.
type RefinerOption func(*Refiner)

// WithVetoHandler sets the handler notified when a refine function vetoes a match.
func WithVetoHandler(h VetoHandler) RefinerOption {
	return func(r *Refiner) {
		if h != nil {
			r.vetoHandler = h
		}
	}
}

// WithRefineFunc installs an initial refine function.
func WithRefineFunc(fn RefineFunc) RefinerOption {
	return func(r *Refiner) {
		r.fn = fn
	}
}

// WithBaseScore replaces selector.Score as the source of base scores.
func WithBaseScore(base func(sel selector.Selector, doc selector.Document) int) RefinerOption {
	return func(r *Refiner) {
		if base != nil {
			r.base = base
		}
	}
}

// NewRefiner creates a Refiner with no refine function installed.
func NewRefiner(opts ...RefinerOption) *Refiner {
	r := &Refiner{
		base:        selector.Score,
		vetoHandler: &NopVetoHandler{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Set installs fn, or clears the slot when fn is nil, and returns the function
// it replaced. The last writer wins; callers that need the old function back
// must restore it themselves.
func (r *Refiner) Set(fn RefineFunc) RefineFunc {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.fn
	r.fn = fn
	return previous
}

// Current returns the installed refine function, or nil.
func (r *Refiner) Current() RefineFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fn
}

// Score returns the effective score of sel for doc:
//
//	base := selector score
//	base == 0 or sel is absent        -> base
//	no refine function                -> base
//	refined == 0                      -> 0 (veto)
//	otherwise                         -> max(refined, base)
func (r *Refiner) Score(sel selector.Selector, doc selector.Document) int {
	base := r.base(sel, doc)
	if base == 0 || sel.IsAbsent() {
		return base
	}

	fn := r.Current()
	if fn == nil {
		return base
	}

	refined := fn(base, sel, doc.Location, doc.ContentType)
	if refined == 0 {
		r.vetoHandler.OnVeto(sel, doc, base)
		return 0
	}
	return max(refined, base)
}

// Chain composes refine functions. Each function sees the running score,
// the first veto wins, and no step lowers the score.
func Chain(fns ...RefineFunc) RefineFunc {
	chained := make([]RefineFunc, 0, len(fns))
	for _, fn := range fns {
		if fn != nil {
			chained = append(chained, fn)
		}
	}

	return func(base int, sel selector.Selector, location, contentType string) int {
		score := base
		for _, fn := range chained {
			refined := fn(score, sel, location, contentType)
			if refined == 0 {
				return 0
			}
			score = max(refined, score)
		}
		return score
	}
}
