// Package feature enumerates the feature kinds a host exposes a registry for.
package feature

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned by ParseKind for names outside the fixed set.
var ErrUnknownKind = errors.New("unknown feature kind")

// Kind names one category of pluggable capability.
type Kind string

const (
	Reference                   Kind = "reference"
	Rename                      Kind = "rename"
	CodeAction                  Kind = "codeAction"
	Definition                  Kind = "definition"
	TypeDefinition              Kind = "typeDefinition"
	Declaration                 Kind = "declaration"
	Implementation              Kind = "implementation"
	DocumentSymbol              Kind = "documentSymbol"
	InlayHints                  Kind = "inlayHints"
	Color                       Kind = "color"
	CodeLens                    Kind = "codeLens"
	DocumentFormattingEdit      Kind = "documentFormattingEdit"
	DocumentRangeFormattingEdit Kind = "documentRangeFormattingEdit"
	OnTypeFormattingEdit        Kind = "onTypeFormattingEdit"
	SignatureHelp               Kind = "signatureHelp"
	Hover                       Kind = "hover"
	DocumentHighlight           Kind = "documentHighlight"
	SelectionRange              Kind = "selectionRange"
	FoldingRange                Kind = "foldingRange"
	Link                        Kind = "link"
	InlineCompletions           Kind = "inlineCompletions"
	Completion                  Kind = "completion"
	LinkedEditingRange          Kind = "linkedEditingRange"
	InlineValues                Kind = "inlineValues"
	EvaluatableExpression       Kind = "evaluatableExpression"
	DocumentRangeSemanticTokens Kind = "documentRangeSemanticTokens"
	DocumentSemanticTokens      Kind = "documentSemanticTokens"
)

var kinds = []Kind{
	Reference,
	Rename,
	CodeAction,
	Definition,
	TypeDefinition,
	Declaration,
	Implementation,
	DocumentSymbol,
	InlayHints,
	Color,
	CodeLens,
	DocumentFormattingEdit,
	DocumentRangeFormattingEdit,
	OnTypeFormattingEdit,
	SignatureHelp,
	Hover,
	DocumentHighlight,
	SelectionRange,
	FoldingRange,
	Link,
	InlineCompletions,
	Completion,
	LinkedEditingRange,
	InlineValues,
	EvaluatableExpression,
	DocumentRangeSemanticTokens,
	DocumentSemanticTokens,
}

// Kinds returns every feature kind in a stable order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	_, err := ParseKind(string(k))
	return err == nil
}

func (k Kind) String() string { return string(k) }
