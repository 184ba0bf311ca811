package macro

import (
	"fmt"
	"strings"

	"macrokit/internal/diag"
	"macrokit/internal/token"
)

const (
	AttributeName = "say_hello"
	// DefaultAttributeMessage is used when the arguments carry no message.
	DefaultAttributeMessage = "Default hello message"
	messageKey              = "message"
)

// SayHelloAttribute inserts a print statement right after the opening brace
// of the first function in the annotated item.
type SayHelloAttribute struct{}

func (SayHelloAttribute) Kind() Kind { return Attribute }

func (SayHelloAttribute) Expand(ctx *Context, inv Invocation) (Expansion, error) {
	ctx = ctx.orDefault()
	if err := ctx.checkKind(&inv, Attribute); err != nil {
		return Expansion{}, err
	}

	// Extract
	input := ctx.fragment(inv.Name, "input", inv.Input)
	var msg Directive
	if inv.HasArgs || inv.Args != "" {
		args := ctx.fragment(inv.Name, "args", inv.Args)
		msg = ctx.stringArg(args, ctx.splitArgs(args), messageKey, DefaultAttributeMessage)
	} else {
		msg = defaultDirective(messageKey, DefaultAttributeMessage, input.start())
		ctx.noteDefault(input, msg)
	}

	// Synthesize
	fn, brace, ok := functionBodyOpen(significant(input.tokens))
	if !ok {
		if ctx.Options.Strict {
			return Expansion{}, ctx.fail(inv, diag.MacroAttrNoFunctionBody, input.whole(), ErrNoFunctionBody,
				"attribute target has no function body")
		}
		b := diag.ReportInfo(ctx.Reporter, diag.MacroAttrNoFunctionBody, input.whole(),
			"attribute target has no function body, input is returned unchanged")
		if fn.Kind == token.KwFn {
			b = b.WithNote(fn.Span, "`fn` without an opening brace")
		}
		b.Emit()
		return Expansion{Output: inv.Input, Directives: []Directive{msg}}, nil
	}

	at := brace.Span.End
	var sb strings.Builder
	sb.Grow(len(inv.Input) + len(msg.Value) + 16)
	sb.WriteString(inv.Input[:at])
	fmt.Fprintf(&sb, " println!(\"%s\");", msg.Value)
	sb.WriteString(inv.Input[at:])

	return Expansion{Output: sb.String(), Directives: []Directive{msg}}, nil
}
