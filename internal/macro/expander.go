package macro

import (
	"fmt"

	"macrokit/internal/diag"
	"macrokit/internal/source"
)

// Expander is a macro implementation.
// Expand runs Extract → Synthesize once; it never retries and never mutates inv.
type Expander interface {
	Kind() Kind
	Expand(ctx *Context, inv Invocation) (Expansion, error)
}

// checkKind rejects an invocation addressed to a different kind.
// KindInvalid in the invocation means "whatever the expander is".
func (c *Context) checkKind(inv *Invocation, want Kind) error {
	if inv.Kind == KindInvalid {
		inv.Kind = want
		return nil
	}
	if inv.Kind == want {
		return nil
	}
	got := inv.Kind
	inv.Kind = want
	return c.fail(*inv, diag.MacroKindMismatch, source.Span{}, ErrKindMismatch,
		fmt.Sprintf("%s is a %s macro, invoked as %s", inv.Name, want, got))
}

// ExpandAttribute runs the builtin attribute macro without diagnostics.
func ExpandAttribute(input, args string) (string, error) {
	exp, err := SayHelloAttribute{}.Expand(nil, Invocation{
		Kind: Attribute, Name: AttributeName, Input: input, Args: args, HasArgs: true,
	})
	return exp.Output, err
}

// ExpandDerive runs the builtin derive macro without diagnostics.
func ExpandDerive(input string) (string, error) {
	exp, err := SayHelloDerive{}.Expand(nil, Invocation{Kind: Derive, Name: DeriveName, Input: input})
	return exp.Output, err
}

// ExpandFunction runs the builtin function-like macro without diagnostics.
func ExpandFunction(input string) (string, error) {
	exp, err := HelloWorldFunction{}.Expand(nil, Invocation{Kind: Function, Name: FunctionName, Input: input})
	return exp.Output, err
}
