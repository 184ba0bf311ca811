package macro

import "strings"

// Kind is the macro flavour.
type Kind uint8

const (
	KindInvalid Kind = iota
	// Attribute rewrites the annotated item in place.
	Attribute
	// Derive appends new code next to a type definition.
	Derive
	// Function replaces a call-like invocation with an expression.
	Function
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	Attribute:   "attribute",
	Derive:      "derive",
	Function:    "function",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// ParseKind maps the textual kind used in declaration headers.
func ParseKind(s string) (Kind, bool) {
	switch strings.TrimSpace(s) {
	case "attribute":
		return Attribute, true
	case "derive":
		return Derive, true
	case "function":
		return Function, true
	default:
		return KindInvalid, false
	}
}

// Kinds returns the valid kinds in declaration order.
func Kinds() []Kind {
	return []Kind{Attribute, Derive, Function}
}
