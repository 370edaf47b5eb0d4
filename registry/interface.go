package registry

import "github.com/reglet-dev/reglet-langfeatures/selector"

// Query is the read side of a feature registry. Consumers that only select
// providers should depend on it rather than on *Registry.
type Query[P any] interface {
	// All returns every live provider in registration order.
	All() []P

	// Ordered returns the providers matching doc, most specific first.
	Ordered(doc selector.Document) []P

	// OrderedGroups returns Ordered split into runs of equal score.
	OrderedGroups(doc selector.Document) [][]P

	// Has reports whether any provider matches doc.
	Has(doc selector.Document) bool

	// Len returns the number of live registrations.
	Len() int

	// OnDidChange subscribes to registration changes.
	OnDidChange(listener func()) *Subscription
}

// Disposable releases a registration, subscription or group of them.
type Disposable interface {
	Dispose()
}
