package macro

import (
	"fmt"

	"macrokit/internal/diag"
)

const (
	DeriveName = "SayHello"
	// DefaultHelper is the helper attribute carrying the derive message.
	DefaultHelper = "hello_message"
	// DefaultDeriveMessage is used when no helper attribute is present.
	DefaultDeriveMessage = "Default hello world message"
	typeNameKey          = "type"
)

const deriveTemplate = "\nimpl SayHello for %s {\n\tfn say_hello(){\n\t\tprintln!(\"%s\");\n\t}\n}\n"

// SayHelloDerive generates `impl SayHello for <Type>` next to a struct or enum.
// Helper is the helper attribute name; empty means DefaultHelper.
type SayHelloDerive struct {
	Helper string
}

func (SayHelloDerive) Kind() Kind { return Derive }

func (d SayHelloDerive) helper() string {
	if d.Helper == "" {
		return DefaultHelper
	}
	return d.Helper
}

func (d SayHelloDerive) Expand(ctx *Context, inv Invocation) (Expansion, error) {
	ctx = ctx.orDefault()
	if err := ctx.checkKind(&inv, Derive); err != nil {
		return Expansion{}, err
	}

	input := ctx.fragment(inv.Name, "input", inv.Input)
	header, ok := parseDeriveHeader(significant(input.tokens))
	if !ok {
		// имя типа обязательно, дефолта нет
		return Expansion{}, ctx.fail(inv, diag.MacroDeriveNoTypeName, input.whole(), ErrMissingTypeName,
			"derive input has no `struct` or `enum` followed by a type name")
	}

	typeName := Directive{Name: typeNameKey, Value: header.name.Text, Span: header.name.Span, Found: true}
	msg := ctx.helperMessage(input, header, d.helper(), DefaultDeriveMessage)

	return Expansion{
		Output:     fmt.Sprintf(deriveTemplate, typeName.Value, msg.Value),
		Directives: []Directive{typeName, msg},
		Additive:   true,
	}, nil
}
