package container

import (
	"context"
	"time"

	beanerrors "github.com/xraph/beans/errors"
	"github.com/xraph/beans/internal/definition"
	"github.com/xraph/beans/internal/logger"
	"github.com/xraph/beans/internal/reader"
)

// Load opens descriptor, reads its definitions and registers them, then
// runs the eager singleton pass. On error the container must be closed
// and discarded.
func (c *Container) Load(ctx context.Context, descriptor string) error {
	if c.closed.Load() {
		return beanerrors.ErrContainerClosed
	}

	defs, err := c.read(ctx, descriptor)
	if err != nil {
		return err
	}
	return c.LoadDefinitions(ctx, defs)
}

// Read returns the definitions in descriptor without registering them.
func (c *Container) Read(ctx context.Context, descriptor string) ([]*definition.Definition, error) {
	return c.read(ctx, descriptor)
}

func (c *Container) read(ctx context.Context, descriptor string) ([]*definition.Definition, error) {
	rc, err := c.locator.Open(ctx, descriptor)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := c.reader
	if r == nil {
		r = reader.ForSource(descriptor)
	}
	defs, err := r.Read(ctx, rc, descriptor)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("definitions read", logger.String("source", descriptor), logger.Int("count", len(defs)))
	return defs, nil
}

// LoadDefinitions registers defs as one batch, checks every reference
// resolves and instantiates the eager singletons.
func (c *Container) LoadDefinitions(ctx context.Context, defs []*definition.Definition) error {
	if c.closed.Load() {
		return beanerrors.ErrContainerClosed
	}
	if err := c.registry.RegisterBatch(defs, false); err != nil {
		return err
	}
	c.metrics.DefinitionsRegistered(c.name, c.registry.Len())

	if err := c.registry.ValidateReferences(); err != nil {
		return err
	}
	return c.PreInstantiateSingletons(ctx)
}

// PreInstantiateSingletons creates every non-lazy singleton in
// registration order and stops at the first failure.
func (c *Container) PreInstantiateSingletons(ctx context.Context) error {
	start := time.Now()
	count := 0
	for _, def := range c.registry.Definitions() {
		if !def.IsSingleton() || def.Lazy {
			continue
		}
		if _, err := c.GetBean(ctx, def.ID); err != nil {
			c.logger.Error("eager singleton failed", logger.Bean(def.ID), logger.Error(err))
			return err
		}
		count++
	}
	c.logger.Info("singletons pre-instantiated", logger.Int("count", count), logger.Elapsed(start))
	return nil
}

// Validate reports unresolved references and constructor cycles without
// creating anything.
func (c *Container) Validate() error {
	refErr := c.registry.ValidateReferences()
	_, cycleErr := c.registry.Graph().TopologicalSort()
	return beanerrors.Join(refErr, cycleErr)
}

// CreationOrder returns the order in which the eager pass would first
// create local singletons: each eager singleton in registration order,
// preceded by the local singletons it depends on.
func (c *Container) CreationOrder() []string {
	visited := make(map[string]bool)
	var order []string

	var visit func(def *definition.Definition)
	visit = func(def *definition.Definition) {
		if visited[def.ID] {
			return
		}
		visited[def.ID] = true

		deps := append([]string(nil), def.DependsOn...)
		deps = append(deps, def.ConstructorReferences()...)
		deps = append(deps, def.PropertyReferences()...)
		for _, name := range deps {
			if dep, ok := c.registry.LookupLocal(name); ok {
				visit(dep)
			}
		}
		if def.IsSingleton() {
			order = append(order, def.ID)
		}
	}

	for _, def := range c.registry.Definitions() {
		if def.IsSingleton() && !def.Lazy {
			visit(def)
		}
	}
	return order
}
