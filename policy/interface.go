package policy

import "github.com/reglet-dev/reglet-langfeatures/selector"

// RefineFunc adjusts the base score of a matching selector for a document.
// Returning 0 vetoes the match; any other result is raised to at least base.
type RefineFunc func(base int, sel selector.Selector, location, contentType string) int

// Scorer computes the effective score of a selector for a document.
type Scorer interface {
	Score(sel selector.Selector, doc selector.Document) int
}

// VetoHandler is called when a refine function suppresses a match.
type VetoHandler interface {
	// OnVeto receives the selector, the document and the base score that was discarded.
	OnVeto(sel selector.Selector, doc selector.Document, base int)
}
