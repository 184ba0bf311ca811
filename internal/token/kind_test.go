package token_test

import (
	"testing"

	"macrokit/internal/source"
	"macrokit/internal/token"
)

func tok(k token.Kind) token.Token {
	return token.Token{Kind: k, Span: source.Span{Start: 0, End: 0}}
}

func TestIsLiteral(t *testing.T) {
	for _, k := range []token.Kind{token.StringLit, token.CharLit, token.NumberLit} {
		if !tok(k).IsLiteral() {
			t.Fatalf("%v should be literal", k)
		}
	}
	for _, k := range []token.Kind{token.Ident, token.KwFn, token.Hash, token.Lifetime} {
		if tok(k).IsLiteral() {
			t.Fatalf("%v must NOT be literal", k)
		}
	}
}

func TestIsPunct(t *testing.T) {
	for _, b := range []byte("#!=,;:.<>(){}[]+-&") {
		k := token.LookupPunct(b)
		if !tok(k).IsPunct() {
			t.Fatalf("%q -> %v should be punct", b, k)
		}
	}
	if tok(token.Ident).IsPunct() || tok(token.StringLit).IsPunct() {
		t.Fatal("ident/string must not be punct")
	}
}

func TestLookupPunct(t *testing.T) {
	cases := map[byte]token.Kind{
		'#': token.Hash,
		'{': token.LBrace,
		']': token.RBracket,
		'=': token.Assign,
		'+': token.Punct,
		'?': token.Punct,
	}
	for b, want := range cases {
		if got := token.LookupPunct(b); got != want {
			t.Errorf("LookupPunct(%q) = %v, want %v", b, got, want)
		}
	}
}

func TestKindString(t *testing.T) {
	if token.KwStruct.String() != "KwStruct" {
		t.Errorf("unexpected %q", token.KwStruct.String())
	}
	if token.Kind(250).String() != "Kind(?)" {
		t.Errorf("unexpected %q", token.Kind(250).String())
	}
}

func TestUnquoted(t *testing.T) {
	lit := token.Token{Kind: token.StringLit, Text: `"a \"b\""`, Span: source.Span{Start: 4, End: 13}}
	if got := lit.Unquoted(); got != `a \"b\"` {
		t.Errorf("Unquoted = %q", got)
	}
	if sp := lit.ContentSpan(); sp.Start != 5 || sp.End != 12 {
		t.Errorf("ContentSpan = %v", sp)
	}
	ident := token.Token{Kind: token.Ident, Text: "User"}
	if ident.Unquoted() != "User" {
		t.Error("non-string tokens keep their text")
	}
}
