package macro

import (
	"fmt"

	"macrokit/internal/diag"
	"macrokit/internal/lexer"
	"macrokit/internal/source"
	"macrokit/internal/token"
)

// Options tune how expanders treat soft failures.
type Options struct {
	// Strict turns the attribute no-op (no `fn … {` in the input) into an error.
	Strict bool
	// NoteDefaults reports an info diagnostic every time a default is used.
	NoteDefaults bool
}

// Context is what an expander may touch besides its invocation.
// A nil Context is valid and behaves like NewContext(nil, Options{}).
type Context struct {
	FileSet  *source.FileSet
	Reporter diag.Reporter
	Options  Options
}

// NewContext creates a context with a fresh FileSet.
func NewContext(reporter diag.Reporter, opts Options) *Context {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Context{
		FileSet:  source.NewFileSet(),
		Reporter: reporter,
		Options:  opts,
	}
}

func (c *Context) orDefault() *Context {
	if c == nil {
		return NewContext(nil, Options{})
	}
	if c.FileSet == nil || c.Reporter == nil {
		cp := *c
		if cp.FileSet == nil {
			cp.FileSet = source.NewFileSet()
		}
		if cp.Reporter == nil {
			cp.Reporter = diag.NopReporter{}
		}
		return &cp
	}
	return c
}

// fragment is a piece of macro text registered in the FileSet and tokenized.
type fragment struct {
	file   *source.File
	tokens []token.Token // последний всегда EOF
}

// fragment registers text as a virtual file named "<name role>" and lexes it.
func (c *Context) fragment(name, role, text string) fragment {
	id := c.FileSet.AddVirtual(fmt.Sprintf("<%s %s>", name, role), []byte(text))
	file := c.FileSet.Get(id)
	lx := lexer.New(file, lexer.Options{Reporter: c.Reporter})
	return fragment{file: file, tokens: lx.All()}
}

// whole covers the entire fragment text.
func (f fragment) whole() source.Span {
	return f.file.FullSpan()
}

// start is an empty span at the beginning of the fragment.
func (f fragment) start() source.Span {
	return source.Span{File: f.file.ID}
}

func (c *Context) noteDefault(f fragment, d Directive) {
	if !c.Options.NoteDefaults {
		return
	}
	diag.ReportInfo(c.Reporter, diag.MacroDefaultUsed, f.start(),
		fmt.Sprintf("no %s given, using default %q", d.Name, d.Value)).Emit()
}
