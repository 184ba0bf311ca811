package macro_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"macrokit/internal/macro"
)

func names(defs []macro.Definition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Name())
	}
	return out
}

func TestBuiltins(t *testing.T) {
	r := macro.Builtins()
	if r.Len() != 3 {
		t.Fatalf("Len() = %d", r.Len())
	}
	if diff := cmp.Diff([]string{"SayHello", "hello_world", "say_hello"}, names(r.All())); diff != "" {
		t.Errorf("All() order (-want +got):\n%s", diff)
	}
	d, ok := r.Lookup("SayHello")
	if !ok || d.Declaration.Kind != macro.Derive || !d.Declaration.HasAttribute("hello_message") {
		t.Errorf("SayHello = %+v", d.Declaration)
	}
	if diff := cmp.Diff([]string{"hello_world", "say_hello"}, names(r.FilterByKind(macro.Attribute, macro.Function))); diff != "" {
		t.Errorf("FilterByKind (-want +got):\n%s", diff)
	}
	if len(r.FilterByKind()) != 3 {
		t.Error("FilterByKind() without kinds returns everything")
	}
}

func TestRegistry_Errors(t *testing.T) {
	r := macro.Builtins()
	err := r.Register(macro.Declaration{Kind: macro.Attribute, Name: "say_hello"}, macro.SayHelloAttribute{})
	if !errors.Is(err, macro.ErrDuplicateMacro) {
		t.Errorf("duplicate: got %v", err)
	}
	err = r.Register(macro.Declaration{Kind: macro.Function, Name: "wrong"}, macro.SayHelloAttribute{})
	if !errors.Is(err, macro.ErrKindMismatch) {
		t.Errorf("kind mismatch: got %v", err)
	}
	if _, err := r.Declare("not a header", macro.HelloWorldFunction{}); !errors.Is(err, macro.ErrBadDeclaration) {
		t.Errorf("bad header: got %v", err)
	}
	if err := r.Register(macro.Declaration{Kind: macro.Function, Name: "x"}, nil); err == nil {
		t.Error("nil expander must be rejected")
	}
	if r.Len() != 3 {
		t.Errorf("failed registrations must not change the registry, Len() = %d", r.Len())
	}
}

func TestRegistry_Declare(t *testing.T) {
	r := macro.NewRegistry()
	def, err := r.Declare("//! MACRO: function(shout)", macro.HelloWorldFunction{})
	if err != nil {
		t.Fatal(err)
	}
	got, ok := r.Lookup("shout")
	if !ok || got.Declaration.String() != def.Declaration.String() {
		t.Errorf("Lookup = %+v, %v", got, ok)
	}
}

func TestRegistry_Alias(t *testing.T) {
	r := macro.Builtins()
	def, err := r.Alias("//! MACRO: derive(Greet) attributes(greet_message)", "SayHello")
	if err != nil {
		t.Fatal(err)
	}
	exp, err := def.Expander.Expand(nil, macro.Invocation{
		Kind: macro.Derive, Name: "Greet", Input: "#[greet_message = \"yo\"]\nstruct P;",
	})
	if err != nil {
		t.Fatal(err)
	}
	msg, _ := exp.Directive("greet_message")
	if msg.Value != "yo" {
		t.Errorf("alias must use its own helper, got %+v", msg)
	}

	if _, err := r.Alias("//! MACRO: function(g)", "say_hello"); !errors.Is(err, macro.ErrKindMismatch) {
		t.Errorf("alias kind mismatch: got %v", err)
	}
	if _, err := r.Alias("//! MACRO: function(g)", "missing"); err == nil {
		t.Error("alias of an unknown macro must fail")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := macro.NewRegistry()
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Register(macro.Declaration{Kind: macro.Function, Name: fmt.Sprintf("f%d", i)}, macro.HelloWorldFunction{})
			_, _ = r.Lookup("f0")
			_ = r.All()
		}()
	}
	wg.Wait()
	if r.Len() != 32 {
		t.Errorf("Len() = %d", r.Len())
	}
}
