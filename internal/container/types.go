package container

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Factory builds a raw instance from resolved constructor arguments.
// Singletons taking part in property cycles must be pointers, since the
// value returned here is what early references observe.
type Factory func(ctx context.Context, args []any) (any, error)

// Setter applies one resolved property value to an instance.
type Setter func(instance any, name string, value any) error

// Method is a lifecycle callback.
type Method func(ctx context.Context, instance any) error

// Type tells the container how to build and manage instances of one type
// token.
type Type struct {
	// New is required.
	New Factory
	// Set applies properties; when nil the instance must implement
	// PropertySetter.
	Set Setter
	// Init runs after all properties are applied.
	Init Method
	// Destroy runs when the owning container closes.
	Destroy Method
	// Methods are the named callbacks addressable from a definition's
	// init-method and destroy-method.
	Methods map[string]Method
}

// PropertySetter is implemented by instances that accept properties
// themselves.
type PropertySetter interface {
	SetProperty(name string, value any) error
}

// Initializer is implemented by instances needing a callback once fully
// populated.
type Initializer interface {
	Init(ctx context.Context) error
}

// Disposer is implemented by instances releasing resources on close.
type Disposer interface {
	Dispose(ctx context.Context) error
}

// TypeTable maps type tokens to Types.
type TypeTable struct {
	mu    sync.RWMutex
	types map[string]Type
}

// NewTypeTable creates an empty table.
func NewTypeTable() *TypeTable {
	return &TypeTable{types: make(map[string]Type)}
}

// Register adds typ under token.
func (t *TypeTable) Register(token string, typ Type) error {
	if token == "" {
		return fmt.Errorf("type token cannot be empty")
	}
	if typ.New == nil {
		return fmt.Errorf("type %q: factory cannot be nil", token)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.types[token]; exists {
		return fmt.Errorf("type %q already registered", token)
	}
	t.types[token] = typ
	return nil
}

// MustRegister is like Register but panics on error.
func (t *TypeTable) MustRegister(token string, typ Type) *TypeTable {
	if err := t.Register(token, typ); err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the Type registered under token.
func (t *TypeTable) Lookup(token string) (Type, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	typ, ok := t.types[token]
	return typ, ok
}

// Tokens returns the registered tokens, sorted.
func (t *TypeTable) Tokens() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tokens := make([]string, 0, len(t.types))
	for k := range t.types {
		tokens = append(tokens, k)
	}
	slices.Sort(tokens)
	return tokens
}

// Func wraps a constructor ignoring its arguments.
func Func[T any](fn func(ctx context.Context) (T, error)) Factory {
	return func(ctx context.Context, _ []any) (any, error) {
		return fn(ctx)
	}
}

// Value wraps a constant; every creation returns v.
func Value(v any) Factory {
	return func(context.Context, []any) (any, error) {
		return v, nil
	}
}
