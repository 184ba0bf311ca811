package macro

import "fmt"

const (
	FunctionName = "hello_world"
	// DefaultFunctionMessage is used when the input holds no string literal.
	DefaultFunctionMessage = "Default hello message"
)

// HelloWorldFunction turns its input into a bare print expression.
type HelloWorldFunction struct{}

func (HelloWorldFunction) Kind() Kind { return Function }

func (HelloWorldFunction) Expand(ctx *Context, inv Invocation) (Expansion, error) {
	ctx = ctx.orDefault()
	if err := ctx.checkKind(&inv, Function); err != nil {
		return Expansion{}, err
	}

	input := ctx.fragment(inv.Name, "input", inv.Input)
	var msg Directive
	if lit, ok := firstStringLit(input.tokens); ok {
		msg = foundDirective(messageKey, lit)
	} else {
		msg = defaultDirective(messageKey, DefaultFunctionMessage, input.start())
		ctx.noteDefault(input, msg)
	}

	return Expansion{
		Output:     fmt.Sprintf("println!(\"%s\")", msg.Value),
		Directives: []Directive{msg},
	}, nil
}
