package token

import (
	"macrokit/internal/source"
)

// Token represents a single fragment token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
}

// IsLiteral reports whether the token is a string, char or number literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case StringLit, CharLit, NumberLit:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is one of the recognized keywords.
func (t Token) IsKeyword() bool {
	switch t.Kind {
	case KwFn, KwStruct, KwEnum:
		return true
	default:
		return false
	}
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// IsPunct reports whether the token is punctuation of any kind.
func (t Token) IsPunct() bool {
	return t.Kind >= Hash && t.Kind <= Punct
}

// Unquoted returns the content of a string literal between its quotes.
// Escape sequences are kept verbatim so the value can be re-quoted as is.
// For any other token it returns Text unchanged.
func (t Token) Unquoted() string {
	if t.Kind != StringLit || len(t.Text) < 2 {
		return t.Text
	}
	return t.Text[1 : len(t.Text)-1]
}

// ContentSpan returns the span of a string literal's content (quotes excluded).
func (t Token) ContentSpan() source.Span {
	if t.Kind != StringLit || t.Span.Len() < 2 {
		return t.Span
	}
	return source.Span{File: t.Span.File, Start: t.Span.Start + 1, End: t.Span.End - 1}
}
