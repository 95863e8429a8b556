package definition

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Kind tags a Value.
type Kind int

const (
	KindLiteral Kind = iota
	KindRef
	KindList
	KindMap
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindRef:
		return "ref"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// MapEntry is one key/value pair of a map value.
type MapEntry struct {
	Key   string
	Value Value
}

// Value describes an injected value: a literal, a reference to another bean,
// or a list/map of nested values.
type Value struct {
	Kind    Kind
	Literal any
	// Ref is the target bean name for KindRef. On a KindLiteral created by
	// IDRef it names the bean whose name the literal carries.
	Ref string
	// Parent resolves Ref from the parent container only.
	Parent bool
	List   []Value
	Map    []MapEntry
}

// Literal creates a literal value passed to the factory as is.
func Literal(v any) Value {
	return Value{Kind: KindLiteral, Literal: v}
}

// Ref creates a reference to another bean, resolved through the owning
// container's local-then-parent chain.
func Ref(id string) Value {
	return Value{Kind: KindRef, Ref: id}
}

// IDRef creates a literal carrying the name id. The name is checked
// against the registry at load time but the bean is never resolved.
func IDRef(id string) Value {
	return Value{Kind: KindLiteral, Literal: id, Ref: id}
}

// ParentRef creates a reference resolved from the parent container only.
func ParentRef(id string) Value {
	return Value{Kind: KindRef, Ref: id, Parent: true}
}

// List creates a list value resolving to []any.
func List(items ...Value) Value {
	return Value{Kind: KindList, List: items}
}

// Map creates a map value resolving to map[string]any.
func Map(entries ...MapEntry) Value {
	return Value{Kind: KindMap, Map: entries}
}

// Entry is a shorthand for a MapEntry.
func Entry(key string, v Value) MapEntry {
	return MapEntry{Key: key, Value: v}
}

// References returns every reference target inside the value.
func (v Value) References() []string {
	switch v.Kind {
	case KindRef:
		return []string{v.Ref}
	case KindList:
		var refs []string
		for _, item := range v.List {
			refs = append(refs, item.References()...)
		}
		return refs
	case KindMap:
		var refs []string
		for _, e := range v.Map {
			refs = append(refs, e.Value.References()...)
		}
		return refs
	default:
		return nil
	}
}

func (v Value) localReferences() []string {
	switch v.Kind {
	case KindRef:
		if v.Parent {
			return nil
		}
		return []string{v.Ref}
	case KindList:
		var refs []string
		for _, item := range v.List {
			refs = append(refs, item.localReferences()...)
		}
		return refs
	case KindMap:
		var refs []string
		for _, e := range v.Map {
			refs = append(refs, e.Value.localReferences()...)
		}
		return refs
	default:
		return nil
	}
}

// Validate checks the value is well formed.
func (v Value) Validate() error {
	switch v.Kind {
	case KindLiteral:
		return nil
	case KindRef:
		if strings.TrimSpace(v.Ref) == "" {
			return errors.New("reference target cannot be empty")
		}
		return nil
	case KindList:
		for i, item := range v.List {
			if err := item.Validate(); err != nil {
				return fmt.Errorf("list item %d: %w", i, err)
			}
		}
		return nil
	case KindMap:
		keys := make(map[string]struct{}, len(v.Map))
		for _, e := range v.Map {
			if _, dup := keys[e.Key]; dup {
				return fmt.Errorf("map key %q declared twice", e.Key)
			}
			keys[e.Key] = struct{}{}
			if err := e.Value.Validate(); err != nil {
				return fmt.Errorf("map key %q: %w", e.Key, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown value kind %d", v.Kind)
	}
}

// String renders the value in a compact form for diagnostics.
func (v Value) String() string {
	switch v.Kind {
	case KindLiteral:
		return fmt.Sprintf("%v", v.Literal)
	case KindRef:
		if v.Parent {
			return "ref(parent:" + v.Ref + ")"
		}
		return "ref(" + v.Ref + ")"
	case KindList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, len(v.Map))
		for i, e := range v.Map {
			parts[i] = e.Key + ": " + e.Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<invalid>"
	}
}

func (v Value) clone() Value {
	cp := v
	if v.List != nil {
		cp.List = make([]Value, len(v.List))
		for i, item := range v.List {
			cp.List[i] = item.clone()
		}
	}
	if v.Map != nil {
		cp.Map = slices.Clone(v.Map)
		for i, e := range cp.Map {
			cp.Map[i].Value = e.Value.clone()
		}
	}
	return cp
}
