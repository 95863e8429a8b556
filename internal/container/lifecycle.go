package container

import (
	"context"
	"fmt"
	"time"

	beanerrors "github.com/xraph/beans/errors"
	"github.com/xraph/beans/internal/definition"
	"github.com/xraph/beans/internal/logger"
)

// Close destroys the cached singletons in reverse creation order. Later
// calls return ErrContainerClosed.
func (c *Container) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return beanerrors.ErrContainerClosed
	}

	start := time.Now()
	err := c.scopes.Destroy(func(id string, instance any) error {
		def, ok := c.registry.LookupLocal(id)
		if !ok {
			return nil
		}
		return c.destroy(ctx, def, instance)
	})
	if err != nil {
		c.logger.Warn("container closed with errors", logger.Error(err), logger.Elapsed(start))
		return err
	}
	c.logger.Info("container closed", logger.Elapsed(start))
	return nil
}

// Closed reports whether Close has been called.
func (c *Container) Closed() bool { return c.closed.Load() }

// destroy runs the Disposer hook, the type's Destroy callback and the
// definition's destroy-method. All of them run; errors are joined.
func (c *Container) destroy(ctx context.Context, def *definition.Definition, instance any) error {
	var errs []error
	if d, ok := instance.(Disposer); ok {
		errs = append(errs, d.Dispose(ctx))
	}

	typ, ok := c.lookupType(def.Type)
	if ok && typ.Destroy != nil {
		errs = append(errs, typ.Destroy(ctx, instance))
	}
	if def.DestroyMethod != "" {
		if method, found := typ.Methods[def.DestroyMethod]; ok && found {
			errs = append(errs, method(ctx, instance))
		} else {
			errs = append(errs, fmt.Errorf("destroy method %q not declared by type %q", def.DestroyMethod, def.Type))
		}
	}

	if err := beanerrors.Join(errs...); err != nil {
		return fmt.Errorf("destroy bean '%s': %w", def.ID, err)
	}
	return nil
}
