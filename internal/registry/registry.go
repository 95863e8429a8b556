package registry

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	beanerrors "github.com/xraph/beans/errors"
	"github.com/xraph/beans/internal/definition"
)

// Parent is the upward lookup a child registry delegates to.
type Parent interface {
	Lookup(name string) (*definition.Definition, error)
}

// Registry maps ids and aliases to definitions. Lookups read an immutable
// snapshot without locking; writers copy the snapshot under mu.
type Registry struct {
	mu     sync.Mutex
	state  atomic.Pointer[snapshot]
	parent Parent
}

type snapshot struct {
	defs    map[string]*definition.Definition
	aliases map[string]string // alias -> id
	order   []string
}

func (s *snapshot) copy() *snapshot {
	return &snapshot{
		defs:    maps.Clone(s.defs),
		aliases: maps.Clone(s.aliases),
		order:   slices.Clone(s.order),
	}
}

// New creates an empty registry. parent may be nil.
func New(parent Parent) *Registry {
	r := &Registry{parent: parent}
	r.state.Store(&snapshot{
		defs:    make(map[string]*definition.Definition),
		aliases: make(map[string]string),
	})
	return r
}

// Register adds def. Without override any clash of its id or aliases with a
// registered name fails with a duplicate definition error. With override the
// id mapping is replaced and clashing aliases are re-pointed; an alias can
// never take over the id of another definition.
func (r *Registry) Register(def *definition.Definition, override bool) error {
	return r.RegisterBatch([]*definition.Definition{def}, override)
}

// RegisterBatch registers defs in order as one write: either all of them
// become visible or none do.
func (r *Registry) RegisterBatch(defs []*definition.Definition, override bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.state.Load().copy()
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return err
		}
		if err := next.put(def.Clone(), override); err != nil {
			return err
		}
	}

	r.state.Store(next)
	return nil
}

func (s *snapshot) put(def *definition.Definition, override bool) error {
	id := def.ID

	if owner, isAlias := s.aliases[id]; isAlias {
		if !override {
			return beanerrors.ErrDuplicateDefinition(id, owner)
		}
		delete(s.aliases, id)
	}

	_, exists := s.defs[id]
	if exists && !override {
		return beanerrors.ErrDuplicateDefinition(id, id)
	}

	for _, alias := range def.Aliases {
		if _, taken := s.defs[alias]; taken {
			return beanerrors.ErrDuplicateDefinition(alias, alias)
		}
		if owner, taken := s.aliases[alias]; taken && owner != id && !override {
			return beanerrors.ErrDuplicateDefinition(alias, owner)
		}
	}

	s.defs[id] = def
	if !exists {
		s.order = append(s.order, id)
	}
	for _, alias := range def.Aliases {
		s.aliases[alias] = id
	}
	return nil
}

// Lookup returns the definition for name, delegating to the parent when it
// is not registered locally.
func (r *Registry) Lookup(name string) (*definition.Definition, error) {
	if def, ok := r.LookupLocal(name); ok {
		return def, nil
	}
	if r.parent != nil {
		return r.parent.Lookup(name)
	}
	return nil, beanerrors.ErrDefinitionNotFound(name)
}

// LookupLocal returns the definition for name from this level only.
func (r *Registry) LookupLocal(name string) (*definition.Definition, bool) {
	s := r.state.Load()
	if def, ok := s.defs[name]; ok {
		return def, true
	}
	if id, ok := s.aliases[name]; ok {
		return s.defs[id], true
	}
	return nil, false
}

// ContainsLocally reports whether name is owned by this level.
func (r *Registry) ContainsLocally(name string) bool {
	_, ok := r.LookupLocal(name)
	return ok
}

// Canonical resolves a local alias to its id.
func (r *Registry) Canonical(name string) (string, bool) {
	s := r.state.Load()
	if _, ok := s.defs[name]; ok {
		return name, true
	}
	id, ok := s.aliases[name]
	return id, ok
}

// Aliases returns the local aliases of id, sorted.
func (r *Registry) Aliases(id string) []string {
	s := r.state.Load()
	var out []string
	for alias, owner := range s.aliases {
		if owner == id {
			out = append(out, alias)
		}
	}
	slices.Sort(out)
	return out
}

// Names returns the local ids in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.state.Load().order)
}

// Definitions returns the local definitions in registration order.
func (r *Registry) Definitions() []*definition.Definition {
	s := r.state.Load()
	out := make([]*definition.Definition, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.defs[id])
	}
	return out
}

// Len returns the number of local definitions.
func (r *Registry) Len() int {
	return len(r.state.Load().order)
}

// ValidateReferences checks that every reference and depends-on entry of the
// local definitions resolves through the lookup chain.
func (r *Registry) ValidateReferences() error {
	var errs []error
	for _, def := range r.Definitions() {
		for _, v := range append(slices.Clone(def.ConstructorArgs), propertyValues(def)...) {
			errs = append(errs, r.checkValue(def.ID, v)...)
		}
		for _, dep := range def.DependsOn {
			if _, err := r.Lookup(dep); err != nil {
				errs = append(errs, chained(err, def.ID, dep))
			}
		}
	}
	return beanerrors.Join(errs...)
}

func (r *Registry) checkValue(owner string, v definition.Value) []error {
	switch v.Kind {
	case definition.KindLiteral:
		if v.Ref == "" {
			return nil
		}
		if _, err := r.Lookup(v.Ref); err != nil {
			return []error{chained(err, owner, v.Ref)}
		}
	case definition.KindRef:
		var err error
		if v.Parent {
			if r.parent == nil {
				err = beanerrors.ErrDefinitionNotFound(v.Ref)
			} else {
				_, err = r.parent.Lookup(v.Ref)
			}
		} else {
			_, err = r.Lookup(v.Ref)
		}
		if err != nil {
			return []error{chained(err, owner, v.Ref)}
		}
	case definition.KindList:
		var errs []error
		for _, item := range v.List {
			errs = append(errs, r.checkValue(owner, item)...)
		}
		return errs
	case definition.KindMap:
		var errs []error
		for _, e := range v.Map {
			errs = append(errs, r.checkValue(owner, e.Value)...)
		}
		return errs
	}
	return nil
}

func propertyValues(def *definition.Definition) []definition.Value {
	out := make([]definition.Value, len(def.Properties))
	for i, p := range def.Properties {
		out[i] = p.Value
	}
	return out
}

func chained(err error, chain ...string) error {
	var be *beanerrors.BeanError
	if beanerrors.As(err, &be) {
		return be.WithChain(chain)
	}
	return err
}
