// Package definition holds the construction metadata the container works
// from: definitions, their scopes and the values used for constructor
// arguments and properties.
package definition

import (
	"fmt"
	"slices"
	"strings"

	beanerrors "github.com/xraph/beans/errors"
)

// Scope is the lifecycle of the instances built from a definition.
type Scope int

const (
	// ScopeSingleton shares one instance per container.
	ScopeSingleton Scope = iota
	// ScopePrototype builds a new instance on every request.
	ScopePrototype
)

// String returns a human-readable representation of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeSingleton:
		return "singleton"
	case ScopePrototype:
		return "prototype"
	default:
		return "unknown"
	}
}

// ParseScope maps the textual scope of a document onto a Scope.
// The empty string is the default singleton scope.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "singleton":
		return ScopeSingleton, nil
	case "prototype":
		return ScopePrototype, nil
	default:
		return ScopeSingleton, fmt.Errorf("unknown scope %q", s)
	}
}

// Property is a named value applied after construction.
type Property struct {
	Name  string
	Value Value
}

// Definition is the construction metadata for one named object.
type Definition struct {
	ID      string
	Aliases []string
	// Type is an opaque token resolved through the container's type table.
	Type            string
	ConstructorArgs []Value
	Properties      []Property
	Scope           Scope
	Lazy            bool

	// DependsOn names beans that must be initialized before this one.
	// They are not injected.
	DependsOn     []string
	InitMethod    string
	DestroyMethod string
	Description   string
	// Source is the document the definition was read from.
	Source string
}

// IsSingleton reports whether the definition is singleton scoped.
func (d *Definition) IsSingleton() bool { return d.Scope == ScopeSingleton }

// IsPrototype reports whether the definition is prototype scoped.
func (d *Definition) IsPrototype() bool { return d.Scope == ScopePrototype }

// Names returns the id followed by every alias.
func (d *Definition) Names() []string {
	names := make([]string, 0, 1+len(d.Aliases))
	names = append(names, d.ID)
	return append(names, d.Aliases...)
}

// References returns every bean id the definition refers to through its
// constructor arguments and properties, in declaration order.
func (d *Definition) References() []string {
	var refs []string
	for _, arg := range d.ConstructorArgs {
		refs = append(refs, arg.References()...)
	}
	for _, p := range d.Properties {
		refs = append(refs, p.Value.References()...)
	}
	return refs
}

// ConstructorReferences returns the ids referenced by constructor arguments,
// leaving out parent-only references. Cycles through these cannot be broken
// by early references.
func (d *Definition) ConstructorReferences() []string {
	var refs []string
	for _, arg := range d.ConstructorArgs {
		refs = append(refs, arg.localReferences()...)
	}
	return refs
}

// PropertyReferences returns the ids referenced by properties, leaving
// out parent-only references.
func (d *Definition) PropertyReferences() []string {
	var refs []string
	for _, p := range d.Properties {
		refs = append(refs, p.Value.localReferences()...)
	}
	return refs
}

// Validate checks the definition is well formed before registration.
func (d *Definition) Validate() error {
	if d == nil {
		return beanerrors.ErrInvalidDefinition("", "definition is nil")
	}
	if strings.TrimSpace(d.ID) == "" {
		return beanerrors.ErrInvalidDefinition(d.ID, "id cannot be empty")
	}
	if strings.TrimSpace(d.Type) == "" {
		return beanerrors.ErrInvalidDefinition(d.ID, "type cannot be empty")
	}
	if d.Scope != ScopeSingleton && d.Scope != ScopePrototype {
		return beanerrors.ErrInvalidDefinition(d.ID, fmt.Sprintf("unknown scope %d", d.Scope))
	}

	seen := map[string]struct{}{d.ID: {}}
	for _, alias := range d.Aliases {
		if strings.TrimSpace(alias) == "" {
			return beanerrors.ErrInvalidDefinition(d.ID, "alias cannot be empty")
		}
		if _, dup := seen[alias]; dup {
			return beanerrors.ErrInvalidDefinition(d.ID, "alias '"+alias+"' repeats a name of the same definition")
		}
		seen[alias] = struct{}{}
	}

	for i, arg := range d.ConstructorArgs {
		if err := arg.Validate(); err != nil {
			return beanerrors.ErrInvalidDefinition(d.ID, fmt.Sprintf("constructor argument %d: %v", i, err))
		}
	}

	props := make(map[string]struct{}, len(d.Properties))
	for _, p := range d.Properties {
		if p.Name == "" {
			return beanerrors.ErrInvalidDefinition(d.ID, "property name cannot be empty")
		}
		if _, dup := props[p.Name]; dup {
			return beanerrors.ErrInvalidDefinition(d.ID, "property '"+p.Name+"' declared twice")
		}
		props[p.Name] = struct{}{}
		if err := p.Value.Validate(); err != nil {
			return beanerrors.ErrInvalidDefinition(d.ID, fmt.Sprintf("property %s: %v", p.Name, err))
		}
	}

	for _, dep := range d.DependsOn {
		if dep == "" {
			return beanerrors.ErrInvalidDefinition(d.ID, "depends-on entry cannot be empty")
		}
	}

	return nil
}

// Clone returns a deep copy, so callers cannot mutate a registered
// definition through the pointer they registered.
func (d *Definition) Clone() *Definition {
	cp := *d
	cp.Aliases = slices.Clone(d.Aliases)
	cp.DependsOn = slices.Clone(d.DependsOn)
	if d.ConstructorArgs != nil {
		cp.ConstructorArgs = make([]Value, len(d.ConstructorArgs))
		for i, v := range d.ConstructorArgs {
			cp.ConstructorArgs[i] = v.clone()
		}
	}
	if d.Properties != nil {
		cp.Properties = make([]Property, len(d.Properties))
		for i, p := range d.Properties {
			cp.Properties[i] = Property{Name: p.Name, Value: p.Value.clone()}
		}
	}
	return &cp
}
