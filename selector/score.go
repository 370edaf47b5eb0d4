package selector

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/reglet-dev/reglet-langfeatures/location"
)

// Specificity scores. A structured filter scores the sum of the
// contributions of its present fields, so a glob match always outranks a
// content-type-only match, and an exact tag outranks "*".
const (
	ScoreNone                = 0
	ScoreWildcard            = 1
	ScoreContentTypeWildcard = 5
	ScoreContentTypeExact    = 10
	ScoreSchemeWildcard      = 5
	ScoreSchemeExact         = 10
	ScorePattern             = 20
)

// Score returns how specifically sel matches doc; 0 means no match.
//
// Excluding filters never contribute a score. Within a sequence, a matching
// excluding alternative vetoes the whole selector.
func Score(sel Selector, doc Document) int {
	c := &candidate{doc: doc}
	return c.score(sel)
}

// Vetoes reports whether an excluding filter of sel matches doc.
func Vetoes(sel Selector, doc Document) bool {
	c := &candidate{doc: doc}
	return c.vetoes(sel)
}

// candidate parses the document location at most once per evaluation.
type candidate struct {
	doc    Document
	loc    location.Location
	parsed bool
}

func (c *candidate) location() location.Location {
	if !c.parsed {
		c.loc = location.Parse(c.doc.Location)
		c.parsed = true
	}
	return c.loc
}

func (c *candidate) score(sel Selector) int {
	switch sel.kind {
	case KindAbsent, KindWildcard:
		return ScoreWildcard
	case KindContentType:
		return c.scoreTag(sel.tag)
	case KindFilter:
		if sel.filter.Exclude {
			return ScoreNone
		}
		return c.scoreFilter(sel.filter)
	case KindSequence:
		best := ScoreNone
		for _, alt := range sel.alternatives {
			if alt.kind == KindFilter && alt.filter.Exclude {
				if c.scoreFilter(alt.filter) > ScoreNone {
					return ScoreNone
				}
				continue
			}
			if s := c.score(alt); s > best {
				best = s
			}
		}
		return best
	default:
		return ScoreNone
	}
}

func (c *candidate) vetoes(sel Selector) bool {
	switch sel.kind {
	case KindFilter:
		return sel.filter.Exclude && c.scoreFilter(sel.filter) > ScoreNone
	case KindSequence:
		for _, alt := range sel.alternatives {
			if c.vetoes(alt) {
				return true
			}
		}
	}
	return false
}

func (c *candidate) scoreTag(tag string) int {
	switch {
	case tag == c.doc.ContentType:
		return ScoreContentTypeExact
	case tag == "*":
		return ScoreContentTypeWildcard
	default:
		return ScoreNone
	}
}

// scoreFilter ignores the Exclude flag; callers decide what a match means.
func (c *candidate) scoreFilter(f Filter) int {
	if f.Synchronized && !c.doc.Synchronized {
		return ScoreNone
	}

	total := 0

	if f.ContentType != "" {
		s := c.scoreTag(f.ContentType)
		if s == ScoreNone {
			return ScoreNone
		}
		total += s
	}

	if f.Scheme != "" {
		switch scheme := c.location().Scheme; {
		case f.Scheme == scheme:
			total += ScoreSchemeExact
		case f.Scheme == "*":
			total += ScoreSchemeWildcard
		default:
			return ScoreNone
		}
	}

	if f.Pattern != "" {
		if !matchPattern(f.Pattern, c.location()) {
			return ScoreNone
		}
		total += ScorePattern
	}

	if total == 0 {
		return ScoreWildcard
	}
	return total
}

// matchPattern tries the glob against the location path, then against the
// scheme-qualified form so patterns like "untitled:*" work. Relative patterns
// such as "**/package.json" also match absolute paths.
func matchPattern(pattern string, loc location.Location) bool {
	if ok, err := doublestar.Match(pattern, loc.Path); err == nil && ok {
		return true
	}
	if !strings.HasPrefix(pattern, "/") && strings.HasPrefix(loc.Path, "/") {
		if ok, err := doublestar.Match(pattern, strings.TrimPrefix(loc.Path, "/")); err == nil && ok {
			return true
		}
	}
	if loc.Scheme == "" {
		return false
	}
	ok, err := doublestar.Match(pattern, loc.String())
	return err == nil && ok
}
