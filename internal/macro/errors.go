package macro

import (
	"errors"
	"fmt"

	"macrokit/internal/diag"
	"macrokit/internal/source"
)

var (
	// ErrMissingTypeName: derive input has no `struct`/`enum` followed by an identifier.
	ErrMissingTypeName = errors.New("missing type name")
	// ErrNoFunctionBody: strict attribute expansion found no `fn … {`.
	ErrNoFunctionBody = errors.New("no function body")
	// ErrKindMismatch: invocation kind differs from the expander kind.
	ErrKindMismatch = errors.New("macro kind mismatch")
)

// ExpansionError is a fatal expansion failure localized to the input fragment.
// The host must not splice any output when it gets one.
type ExpansionError struct {
	Macro string
	Kind  Kind
	Code  diag.Code
	Span  source.Span
	Msg   string
	Err   error
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("%s macro %s: %s", e.Kind, e.Macro, e.Msg)
}

func (e *ExpansionError) Unwrap() error { return e.Err }

// Diagnostic converts the failure into an error diagnostic.
func (e *ExpansionError) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code, e.Span, e.Msg)
}

// fail reports the error diagnostic and returns the matching ExpansionError.
func (c *Context) fail(inv Invocation, code diag.Code, sp source.Span, sentinel error, msg string) error {
	diag.ReportError(c.Reporter, code, sp, msg).Emit()
	return &ExpansionError{
		Macro: inv.Name,
		Kind:  inv.Kind,
		Code:  code,
		Span:  sp,
		Msg:   msg,
		Err:   sentinel,
	}
}

// AsExpansionError unwraps err into an *ExpansionError if it carries one.
func AsExpansionError(err error) (*ExpansionError, bool) {
	var ee *ExpansionError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
