package macro

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrDuplicateMacro is returned when a name is registered twice.
var ErrDuplicateMacro = errors.New("duplicate macro")

// Definition binds a declaration to its implementation.
type Definition struct {
	Declaration Declaration
	Expander    Expander
}

// Name is a shortcut for Declaration.Name.
func (d Definition) Name() string { return d.Declaration.Name }

// Registry holds named macros. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty macro registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a macro. The expander must be of the declared kind.
func (r *Registry) Register(decl Declaration, exp Expander) error {
	if exp == nil {
		return fmt.Errorf("register %s: nil expander", decl.Name)
	}
	if !isIdentifier(decl.Name) {
		return fmt.Errorf("%w: invalid macro name %q", ErrBadDeclaration, decl.Name)
	}
	if exp.Kind() != decl.Kind {
		return fmt.Errorf("register %s: %w: declared %s, expander is %s", decl.Name, ErrKindMismatch, decl.Kind, exp.Kind())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[decl.Name]; exists {
		return fmt.Errorf("register %s: %w", decl.Name, ErrDuplicateMacro)
	}
	decl.Attributes = slices.Clone(decl.Attributes)
	r.defs[decl.Name] = Definition{Declaration: decl, Expander: exp}
	return nil
}

// Declare parses header and registers exp under it.
func (r *Registry) Declare(header string, exp Expander) (Definition, error) {
	decl, ok, err := ParseDeclaration(header)
	if err != nil {
		return Definition{}, err
	}
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q is not a declaration header", ErrBadDeclaration, header)
	}
	if err := r.Register(decl, exp); err != nil {
		return Definition{}, err
	}
	return Definition{Declaration: decl, Expander: exp}, nil
}

// Alias registers the expander of an existing macro under a new header.
// A derive alias with helper attributes reads its message from the first one.
func (r *Registry) Alias(header, target string) (Definition, error) {
	base, ok := r.Lookup(target)
	if !ok {
		return Definition{}, fmt.Errorf("alias %q: unknown macro %q", header, target)
	}
	decl, ok, err := ParseDeclaration(header)
	if err != nil {
		return Definition{}, fmt.Errorf("alias of %s: %w", target, err)
	}
	if !ok {
		return Definition{}, fmt.Errorf("alias of %s: %w: %q is not a declaration header", target, ErrBadDeclaration, header)
	}
	exp := base.Expander
	if d, isDerive := exp.(SayHelloDerive); isDerive && len(decl.Attributes) > 0 {
		d.Helper = decl.Attributes[0]
		exp = d
	}
	if err := r.Register(decl, exp); err != nil {
		return Definition{}, err
	}
	return Definition{Declaration: decl, Expander: exp}, nil
}

// Lookup finds a macro by name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	return d, ok
}

// All returns every definition sorted by name.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Definition) int {
		return strings.Compare(a.Declaration.Name, b.Declaration.Name)
	})
	return out
}

// FilterByKind returns definitions of the given kinds, sorted by name.
// If kinds is empty, returns all definitions.
func (r *Registry) FilterByKind(kinds ...Kind) []Definition {
	all := r.All()
	if len(kinds) == 0 {
		return all
	}
	result := all[:0]
	for _, d := range all {
		if slices.Contains(kinds, d.Declaration.Kind) {
			result = append(result, d)
		}
	}
	return result
}

// Len returns the number of registered macros.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Builtins returns a registry with say_hello, SayHello and hello_world.
func Builtins() *Registry {
	r := NewRegistry()
	must := func(decl Declaration, exp Expander) {
		if err := r.Register(decl, exp); err != nil {
			panic(err)
		}
	}
	must(Declaration{Kind: Attribute, Name: AttributeName}, SayHelloAttribute{})
	must(Declaration{Kind: Derive, Name: DeriveName, Attributes: []string{DefaultHelper}}, SayHelloDerive{Helper: DefaultHelper})
	must(Declaration{Kind: Function, Name: FunctionName}, HelloWorldFunction{})
	return r
}
