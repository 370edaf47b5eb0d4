// Package location parses the opaque location identifiers handed to the
// feature registry into the scheme and slash-separated path used by
// selector matching.
package location

import (
	"net/url"
	"path"
	"strings"
)

// Location is the matchable form of a location identifier.
type Location struct {
	Scheme string
	Path   string
}

// String renders the location as scheme:path, or the bare path when no
// scheme is present.
func (l Location) String() string {
	if l.Scheme == "" {
		return l.Path
	}
	return l.Scheme + ":" + l.Path
}

// Parse splits a location identifier into scheme and path.
// The scheme is lowercased, credentials and query are dropped, backslashes
// become forward slashes and the path is cleaned. Identifiers that are not
// URLs are treated as plain paths. Single-letter schemes are Windows drive
// letters, not schemes.
func Parse(id string) Location {
	parsed, err := url.Parse(id)
	if err != nil || len(parsed.Scheme) < 2 {
		return Location{Path: cleanPath(id)}
	}

	p := parsed.Path
	if p == "" {
		p = parsed.Opaque
	}

	return Location{
		Scheme: strings.ToLower(parsed.Scheme),
		Path:   cleanPath(p),
	}
}

// Scheme returns the lowercased scheme of id, or "" if it has none.
func Scheme(id string) string {
	return Parse(id).Scheme
}

// StripCredentials removes user:password@ from a location for safe logging.
// Returns the original string if it cannot be parsed.
func StripCredentials(id string) string {
	parsed, err := url.Parse(id)
	if err != nil {
		return id
	}
	if parsed.User == nil {
		return id
	}
	parsed.User = nil
	return parsed.String()
}

func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, `\`, "/")
	return path.Clean(p)
}
