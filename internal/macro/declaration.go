package macro

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	// DeclarationTag marks a registration header: `//! MACRO: kind(name)`.
	DeclarationTag = "MACRO"
	// LegacyDeclarationTag is accepted as an alias of DeclarationTag.
	LegacyDeclarationTag = "JS_MACRO"
)

// ErrBadDeclaration wraps every header parse failure.
var ErrBadDeclaration = errors.New("bad macro declaration")

// Declaration is the registration metadata of one macro.
type Declaration struct {
	Kind Kind
	Name string
	// Attributes lists helper attributes; only derive macros may have them.
	Attributes []string
}

// String renders the canonical header line.
func (d Declaration) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "//! %s: %s(%s)", DeclarationTag, d.Kind, d.Name)
	if len(d.Attributes) > 0 {
		fmt.Fprintf(&sb, " attributes(%s)", strings.Join(d.Attributes, ", "))
	}
	return sb.String()
}

// HasAttribute reports whether name is a declared helper attribute.
func (d Declaration) HasAttribute(name string) bool {
	for _, a := range d.Attributes {
		if a == name {
			return true
		}
	}
	return false
}

// ParseDeclaration parses one header line.
// A line without the tag is not a declaration: ok is false and err is nil.
func ParseDeclaration(line string) (decl Declaration, ok bool, err error) {
	rest, found := stripDeclarationTag(line)
	if !found {
		return Declaration{}, false, nil
	}

	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return Declaration{}, true, fmt.Errorf("%w: expected `kind(name)` after the tag", ErrBadDeclaration)
	}
	kindText := strings.TrimSpace(rest[:open])
	rest = rest[open+1:]
	closing := strings.IndexByte(rest, ')')
	if closing < 0 {
		return Declaration{}, true, fmt.Errorf("%w: unclosed macro name", ErrBadDeclaration)
	}
	name := strings.TrimSpace(rest[:closing])
	rest = strings.TrimSpace(rest[closing+1:])

	var (
		attrs    []string
		hasAttrs bool
	)
	if rest != "" {
		inner, isAttrs := strings.CutPrefix(rest, "attributes(")
		if !isAttrs || !strings.HasSuffix(inner, ")") {
			return Declaration{}, true, fmt.Errorf("%w: unexpected trailing text %q", ErrBadDeclaration, rest)
		}
		hasAttrs = true
		attrs = splitList(strings.TrimSuffix(inner, ")"))
	}

	kind, known := ParseKind(kindText)
	switch {
	case !known:
		return Declaration{}, true, fmt.Errorf("%w: unexpected macro type `%s`, should be one of: derive, attribute, function",
			ErrBadDeclaration, kindText)
	case hasAttrs && kind != Derive:
		return Declaration{}, true, fmt.Errorf("%w: macro type %s does not support helper attributes (%s)",
			ErrBadDeclaration, kind, strings.Join(attrs, ", "))
	}

	if !isIdentifier(name) {
		return Declaration{}, true, fmt.Errorf("%w: invalid macro name %q", ErrBadDeclaration, name)
	}
	for _, a := range attrs {
		if !isIdentifier(a) {
			return Declaration{}, true, fmt.Errorf("%w: invalid helper attribute %q", ErrBadDeclaration, a)
		}
	}

	return Declaration{Kind: kind, Name: name, Attributes: attrs}, true, nil
}

// ScanDeclaration returns the first header found among the lines of text.
func ScanDeclaration(text string) (Declaration, bool, error) {
	for line := range strings.Lines(text) {
		decl, ok, err := ParseDeclaration(line)
		if ok || err != nil {
			return decl, ok, err
		}
	}
	return Declaration{}, false, nil
}

func stripDeclarationTag(line string) (string, bool) {
	s := strings.TrimSpace(line)
	s, ok := strings.CutPrefix(s, "//!")
	if !ok {
		return "", false
	}
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	for _, tag := range []string{LegacyDeclarationTag, DeclarationTag} {
		if rest, found := strings.CutPrefix(s, tag); found {
			rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
			if rest, found = strings.CutPrefix(rest, ":"); found {
				return strings.TrimSpace(rest), true
			}
		}
	}
	return "", false
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
