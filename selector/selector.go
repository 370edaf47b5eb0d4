// Package selector describes which documents a feature provider applies to
// and scores how specifically a selector matches a given document.
//
// A Selector is one of four variants, each created by its own constructor:
//
//	selector.Any()                                  // explicit wildcard
//	selector.ContentType("json")                    // content-type tag, "*" allowed
//	selector.Where(selector.Filter{Pattern: "**/*.json", Synchronized: true})
//	selector.OneOf(selector.ContentType("json"), selector.Where(...))
//
// Selectors are immutable values. The zero Selector is the absent selector: it
// matches like the wildcard but is exempt from score refinement.
package selector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind tags the variant held by a Selector.
type Kind uint8

const (
	// KindAbsent is the zero Selector: no selector was given.
	KindAbsent Kind = iota
	// KindWildcard matches every document with minimal specificity.
	KindWildcard
	// KindContentType matches on the document content-type tag.
	KindContentType
	// KindFilter matches on a structured Filter.
	KindFilter
	// KindSequence holds ordered alternatives.
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindWildcard:
		return "wildcard"
	case KindContentType:
		return "content-type"
	case KindFilter:
		return "filter"
	case KindSequence:
		return "sequence"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Filter is the structured selector variant. Empty fields do not constrain.
type Filter struct {
	// ContentType is an exact tag or "*".
	ContentType string
	// Scheme is an exact location scheme or "*".
	Scheme string
	// Pattern is a doublestar glob matched against the location path.
	Pattern string
	// Synchronized restricts the filter to the synchronized copy of a document.
	Synchronized bool
	// Exclude turns a match of this filter into a veto.
	Exclude bool
}

// Document is the query-time description of a document.
type Document struct {
	Location     string
	ContentType  string
	Synchronized bool
}

// Selector is an immutable document-matching pattern.
type Selector struct {
	kind         Kind
	tag          string
	filter       Filter
	alternatives []Selector
}

// Any returns the explicit wildcard selector.
func Any() Selector {
	return Selector{kind: KindWildcard}
}

// ContentType returns a selector matching the content-type tag exactly, or
// any content type when tag is "*".
func ContentType(tag string) Selector {
	return Selector{kind: KindContentType, tag: tag}
}

// Where returns a structured selector.
func Where(f Filter) Selector {
	return Selector{kind: KindFilter, filter: f}
}

// OneOf returns a selector whose alternatives are tried in order.
func OneOf(alternatives ...Selector) Selector {
	alts := make([]Selector, len(alternatives))
	copy(alts, alternatives)
	return Selector{kind: KindSequence, alternatives: alts}
}

// Kind reports the variant of s.
func (s Selector) Kind() Kind { return s.kind }

// IsWildcard reports whether s is the explicit wildcard built by Any.
func (s Selector) IsWildcard() bool { return s.kind == KindWildcard }

// IsAbsent reports whether s is the zero Selector.
func (s Selector) IsAbsent() bool { return s.kind == KindAbsent }

// Tag returns the content-type tag of a KindContentType selector.
func (s Selector) Tag() string { return s.tag }

// Filter returns the filter of a KindFilter selector.
func (s Selector) Filter() (Filter, bool) {
	return s.filter, s.kind == KindFilter
}

// Alternatives returns a copy of the alternatives of a KindSequence selector.
func (s Selector) Alternatives() []Selector {
	if s.kind != KindSequence {
		return nil
	}
	alts := make([]Selector, len(s.alternatives))
	copy(alts, s.alternatives)
	return alts
}

// IsExclusive reports whether s carries an excluding filter, directly or as
// one of its alternatives.
func (s Selector) IsExclusive() bool {
	switch s.kind {
	case KindFilter:
		return s.filter.Exclude
	case KindSequence:
		for _, alt := range s.alternatives {
			if alt.IsExclusive() {
				return true
			}
		}
	}
	return false
}

func (s Selector) String() string {
	switch s.kind {
	case KindAbsent:
		return "<none>"
	case KindWildcard:
		return "*"
	case KindContentType:
		return fmt.Sprintf("contentType(%s)", s.tag)
	case KindFilter:
		return s.filter.String()
	case KindSequence:
		parts := make([]string, len(s.alternatives))
		for i, alt := range s.alternatives {
			parts[i] = alt.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return s.kind.String()
	}
}

func (f Filter) String() string {
	var parts []string
	if f.ContentType != "" {
		parts = append(parts, "contentType="+f.ContentType)
	}
	if f.Scheme != "" {
		parts = append(parts, "scheme="+f.Scheme)
	}
	if f.Pattern != "" {
		parts = append(parts, "pattern="+f.Pattern)
	}
	if f.Synchronized {
		parts = append(parts, "synchronized")
	}
	if f.Exclude {
		parts = append(parts, "exclude")
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// ErrInvalidSelector is matched by every error returned from Validate.
var ErrInvalidSelector = errors.New("invalid selector")

// ValidationError reports a malformed selector and where the problem is.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid selector: %s", e.Reason)
	}
	return fmt.Sprintf("invalid selector at %s: %s", e.Path, e.Reason)
}

// Is allows errors.Is(err, selector.ErrInvalidSelector).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSelector
}

// Validate checks the selector shape: non-empty tags, well-formed glob
// patterns, and non-empty, flat sequences.
func (s Selector) Validate() error {
	return s.validate("", false)
}

func (s Selector) validate(path string, nested bool) error {
	switch s.kind {
	case KindAbsent:
		if nested {
			return &ValidationError{Path: path, Reason: "absent alternative"}
		}
		return nil
	case KindWildcard:
		return nil
	case KindContentType:
		if strings.TrimSpace(s.tag) == "" {
			return &ValidationError{Path: path, Reason: "empty content-type tag"}
		}
		return nil
	case KindFilter:
		if s.filter.Pattern != "" && !doublestar.ValidatePattern(s.filter.Pattern) {
			return &ValidationError{Path: join(path, "pattern"), Reason: fmt.Sprintf("malformed glob %q", s.filter.Pattern)}
		}
		return nil
	case KindSequence:
		if nested {
			return &ValidationError{Path: path, Reason: "nested sequence"}
		}
		if len(s.alternatives) == 0 {
			return &ValidationError{Path: path, Reason: "empty sequence"}
		}
		for i, alt := range s.alternatives {
			if err := alt.validate(fmt.Sprintf("%s[%d]", path, i), true); err != nil {
				return err
			}
		}
		return nil
	default:
		return &ValidationError{Path: path, Reason: "unknown kind " + s.kind.String()}
	}
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
