package macro

import "macrokit/internal/source"

// Invocation is one execution of one macro.
// Input is never mutated by an expander.
type Invocation struct {
	Kind  Kind
	Name  string
	Input string
	// Args is the raw attribute argument text. HasArgs tells an absent
	// argument list apart from an empty one.
	Args    string
	HasArgs bool
}

// Directive is a value extracted from the arguments or the input fragment.
type Directive struct {
	Name  string
	Value string
	// Span points at the literal content inside the fragment file. For a
	// defaulted directive it is empty.
	Span      source.Span
	Found     bool
	Defaulted bool
}

// Expansion is the single output of an invocation.
type Expansion struct {
	Output     string
	Directives []Directive
	// Additive is set when Output goes next to the original item instead of
	// replacing it.
	Additive bool
}

// Directive returns the first directive with the given name.
func (e Expansion) Directive(name string) (Directive, bool) {
	for _, d := range e.Directives {
		if d.Name == name {
			return d, true
		}
	}
	return Directive{}, false
}

// Defaulted reports whether any directive fell back to its default.
func (e Expansion) Defaulted() bool {
	for _, d := range e.Directives {
		if d.Defaulted {
			return true
		}
	}
	return false
}
