// Package container implements the scope-resolving bean container: a
// definition registry, a scope manager and an optional parent, composed
// into GetBean with recursive reference resolution.
package container

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	beanerrors "github.com/xraph/beans/errors"
	"github.com/xraph/beans/internal/definition"
	"github.com/xraph/beans/internal/logger"
	"github.com/xraph/beans/internal/metrics"
	"github.com/xraph/beans/internal/reader"
	"github.com/xraph/beans/internal/registry"
	"github.com/xraph/beans/internal/resource"
	"github.com/xraph/beans/internal/scope"
)

const tracerName = "github.com/xraph/beans"

// BeanFactory is the lookup side of a container, which is all a child
// needs from its parent.
type BeanFactory interface {
	GetBean(ctx context.Context, name string) (any, error)
	ContainsBean(name string) bool
}

// Container resolves beans by name. It is safe for concurrent GetBean
// calls once loading has finished.
type Container struct {
	id   string
	name string

	registry *registry.Registry
	scopes   *scope.Manager
	parent   BeanFactory
	types    *TypeTable

	logger  logger.Logger
	metrics metrics.Collector
	tracer  trace.Tracer
	locator resource.Locator
	reader  reader.Reader

	closed atomic.Bool
}

// New creates an empty container.
func New(opts ...Option) *Container {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Container{
		id:      uuid.NewString(),
		name:    o.name,
		parent:  o.parent,
		types:   o.types,
		logger:  o.logger,
		metrics: o.metrics,
		tracer:  o.tracer,
		locator: o.locator,
		reader:  o.reader,
	}
	c.scopes = scope.NewManager(scope.WithRelease(c.release))

	if c.name == "" {
		c.name = c.id[:8]
	}
	if c.types == nil {
		c.types = NewTypeTable()
	}
	if c.logger == nil {
		c.logger = logger.NewNoopLogger()
	}
	c.logger = c.logger.Named("beans").With(logger.Container(c.name))
	if c.metrics == nil {
		c.metrics = metrics.NewNoop()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	if c.locator == nil {
		c.locator = resource.NewDefault(resource.Options{})
	}

	c.registry = registry.New(parentDefinitions(c.parent))
	return c
}

// ID returns the unique id of the container.
func (c *Container) ID() string { return c.id }

// Name returns the container name used in logs and metrics.
func (c *Container) Name() string { return c.name }

// Parent returns the parent, or nil.
func (c *Container) Parent() BeanFactory { return c.parent }

// Types returns the container's own type table.
func (c *Container) Types() *TypeTable { return c.types }

// GetBean returns the bean registered under name or one of its aliases.
// Names not defined locally are delegated to the parent.
func (c *Container) GetBean(ctx context.Context, name string) (any, error) {
	if c.closed.Load() {
		return nil, beanerrors.ErrContainerClosed
	}

	topLevel := scope.SessionFrom(ctx) == nil
	instance, err := c.getBean(ctx, name)
	if err != nil && topLevel {
		c.metrics.InstanceFailed(beanerrors.CodeOf(err))
		c.logger.Debug("bean resolution failed", logger.Bean(name), logger.Error(err))
	}
	return instance, err
}

func (c *Container) getBean(ctx context.Context, name string) (any, error) {
	def, ok := c.registry.LookupLocal(name)
	if !ok {
		if c.parent != nil {
			return c.parent.GetBean(ctx, name)
		}
		return nil, beanerrors.ErrDefinitionNotFound(name).WithChain(scope.Chain(ctx, name))
	}

	create := func(ctx context.Context, expose scope.Expose) (any, error) {
		return c.create(ctx, def, expose)
	}
	if def.IsPrototype() {
		return c.scopes.Prototype(ctx, def.ID, create)
	}
	return c.scopes.Singleton(ctx, def.ID, create)
}

// ContainsBean reports whether name resolves here or in an ancestor.
func (c *Container) ContainsBean(name string) bool {
	if c.registry.ContainsLocally(name) {
		return true
	}
	return c.parent != nil && c.parent.ContainsBean(name)
}

// ContainsLocalBean reports whether name is defined by this container.
func (c *Container) ContainsLocalBean(name string) bool {
	return c.registry.ContainsLocally(name)
}

// Definition returns a copy of the definition name resolves to.
func (c *Container) Definition(name string) (*definition.Definition, error) {
	def, err := c.describe(name)
	if err != nil {
		return nil, err
	}
	return def.Clone(), nil
}

// describe returns the definition name resolves to. Beans served by a
// parent that is not a Container have no metadata and report
// ErrNoMetadata.
func (c *Container) describe(name string) (*definition.Definition, error) {
	def, err := c.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	if def.Type == "" {
		nf := beanerrors.ErrDefinitionNotFound(name)
		nf.Cause = beanerrors.ErrNoMetadata
		return nil, nf
	}
	return def, nil
}

// Lookup implements registry.Parent so that registries of child
// containers can see this container's definitions.
func (c *Container) Lookup(name string) (*definition.Definition, error) {
	return c.registry.Lookup(name)
}

// IsSingleton reports whether name resolves to a singleton definition.
func (c *Container) IsSingleton(name string) (bool, error) {
	def, err := c.describe(name)
	if err != nil {
		return false, err
	}
	return def.IsSingleton(), nil
}

// IsPrototype reports whether name resolves to a prototype definition.
func (c *Container) IsPrototype(name string) (bool, error) {
	def, err := c.describe(name)
	if err != nil {
		return false, err
	}
	return def.IsPrototype(), nil
}

// TypeOf returns the type token of the definition name resolves to.
func (c *Container) TypeOf(name string) (string, error) {
	def, err := c.describe(name)
	if err != nil {
		return "", err
	}
	return def.Type, nil
}

// Aliases returns the other names of the bean name resolves to: its id
// when name is an alias, and every alias except name itself.
func (c *Container) Aliases(name string) []string {
	id, ok := c.registry.Canonical(name)
	if !ok {
		if p, ok := c.parent.(interface{ Aliases(string) []string }); ok {
			return p.Aliases(name)
		}
		return nil
	}

	var out []string
	if id != name {
		out = append(out, id)
	}
	for _, alias := range c.registry.Aliases(id) {
		if alias != name {
			out = append(out, alias)
		}
	}
	return out
}

// DefinitionNames returns the local definition ids in registration order.
func (c *Container) DefinitionNames() []string {
	return c.registry.Names()
}

// DefinitionCount returns the number of local definitions.
func (c *Container) DefinitionCount() int {
	return c.registry.Len()
}

// State reports the instantiation state of a local bean.
func (c *Container) State(name string) scope.State {
	id, ok := c.registry.Canonical(name)
	if !ok {
		return scope.StateAbsent
	}
	return c.scopes.State(id)
}

// Singletons returns the ids of created singletons in creation order.
func (c *Container) Singletons() []string {
	return c.scopes.Singletons()
}

// RegisterDefinition adds def to the container. It belongs to the load
// phase. With WithOverride an existing definition is replaced and its
// cached singleton is destroyed.
func (c *Container) RegisterDefinition(def *definition.Definition, opts ...RegisterOption) error {
	if c.closed.Load() {
		return beanerrors.ErrContainerClosed
	}

	o := &registerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	var previous *definition.Definition
	if def != nil {
		previous, _ = c.registry.LookupLocal(def.ID)
	}

	if err := c.registry.Register(def, o.override); err != nil {
		return err
	}
	c.metrics.DefinitionsRegistered(c.name, c.registry.Len())

	if previous == nil {
		c.logger.Debug("definition registered", logger.Bean(def.ID), logger.Scope(def.Scope.String()))
		return nil
	}

	c.logger.Info("definition overridden", logger.Bean(def.ID), logger.String("type", def.Type))
	if instance, ok := c.scopes.Evict(previous.ID); ok {
		if err := c.destroy(context.Background(), previous, instance); err != nil {
			c.logger.Warn("destroying overridden singleton failed", logger.Bean(previous.ID), logger.Error(err))
		}
	}
	return nil
}

// release destroys a singleton the scope manager evicted because it held
// the early reference of a failed creation.
func (c *Container) release(id string, instance any) {
	def, ok := c.registry.LookupLocal(id)
	if !ok {
		return
	}
	c.logger.Info("singleton evicted after failed creation", logger.Bean(id))
	if err := c.destroy(context.Background(), def, instance); err != nil {
		c.logger.Warn("destroying evicted singleton failed", logger.Bean(id), logger.Error(err))
	}
}

// lookupType finds token in this container's table, then in ancestors'.
func (c *Container) lookupType(token string) (Type, bool) {
	if typ, ok := c.types.Lookup(token); ok {
		return typ, true
	}
	if p, ok := c.parent.(*Container); ok {
		return p.lookupType(token)
	}
	return Type{}, false
}

// parentDefinitions adapts the parent for the registry's upward lookup.
func parentDefinitions(parent BeanFactory) registry.Parent {
	switch p := parent.(type) {
	case nil:
		return nil
	case registry.Parent:
		return p
	default:
		return opaqueParent{p}
	}
}

// opaqueParent serves parents that expose no definitions. Names the
// parent contains are reported with a placeholder definition carrying
// only the id, enough for reference checks. Metadata queries reject it.
type opaqueParent struct {
	factory BeanFactory
}

func (p opaqueParent) Lookup(name string) (*definition.Definition, error) {
	if !p.factory.ContainsBean(name) {
		return nil, beanerrors.ErrDefinitionNotFound(name)
	}
	return &definition.Definition{ID: name}, nil
}
