package container

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	beanerrors "github.com/xraph/beans/errors"
	"github.com/xraph/beans/internal/definition"
	"github.com/xraph/beans/internal/logger"
	"github.com/xraph/beans/internal/scope"
)

// create runs the full creation path for def: depends-on, constructor
// arguments, construction, early exposure, properties and init.
func (c *Container) create(ctx context.Context, def *definition.Definition, expose scope.Expose) (instance any, err error) {
	start := time.Now()
	log := c.logger.With(logger.Bean(def.ID))
	ctx = logger.WithLogger(ctx, log)

	ctx, span := c.tracer.Start(ctx, "beans.create", trace.WithAttributes(
		attribute.String("bean.id", def.ID),
		attribute.String("bean.type", def.Type),
		attribute.String("bean.scope", def.Scope.String()),
		attribute.String("beans.container", c.name),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Debug("bean creation failed", logger.Error(err))
		} else {
			c.metrics.InstanceCreated(def.Scope.String(), time.Since(start))
			log.Debug("bean created", logger.Scope(def.Scope.String()), logger.Elapsed(start))
		}
		span.End()
	}()

	typ, ok := c.lookupType(def.Type)
	if !ok {
		return nil, beanerrors.ErrInstantiation(def.ID, "type resolution",
			fmt.Errorf("%w %q", beanerrors.ErrUnknownType, def.Type))
	}

	for _, dep := range def.DependsOn {
		if _, err := c.getBean(ctx, dep); err != nil {
			return nil, err
		}
	}

	args := make([]any, len(def.ConstructorArgs))
	for i, arg := range def.ConstructorArgs {
		v, err := c.resolveValue(ctx, def, arg)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	raw, err := typ.New(ctx, args)
	if err != nil {
		return nil, beanerrors.ErrInstantiation(def.ID, "construction", err)
	}
	if def.IsSingleton() {
		expose(raw)
	}

	for _, p := range def.Properties {
		v, err := c.resolveValue(ctx, def, p.Value)
		if err != nil {
			return nil, err
		}
		if err := applyProperty(typ, raw, p.Name, v); err != nil {
			return nil, beanerrors.ErrInstantiation(def.ID, "property '"+p.Name+"'", err)
		}
	}

	if err := c.initialize(ctx, def, typ, raw); err != nil {
		return nil, beanerrors.ErrInstantiation(def.ID, "initialization", err)
	}
	return raw, nil
}

// resolveValue turns a Value into the value handed to a factory or
// setter. Lists become []any and maps map[string]any.
func (c *Container) resolveValue(ctx context.Context, owner *definition.Definition, v definition.Value) (any, error) {
	switch v.Kind {
	case definition.KindLiteral:
		return v.Literal, nil
	case definition.KindRef:
		return c.resolveRef(ctx, owner, v)
	case definition.KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			resolved, err := c.resolveValue(ctx, owner, item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case definition.KindMap:
		out := make(map[string]any, len(v.Map))
		for _, e := range v.Map {
			resolved, err := c.resolveValue(ctx, owner, e.Value)
			if err != nil {
				return nil, err
			}
			out[e.Key] = resolved
		}
		return out, nil
	default:
		return nil, beanerrors.ErrInvalidDefinition(owner.ID, fmt.Sprintf("unknown value kind %d", v.Kind))
	}
}

// resolveRef resolves a reference from the container that owns the
// referring definition. Parent references skip the local registry.
func (c *Container) resolveRef(ctx context.Context, owner *definition.Definition, v definition.Value) (any, error) {
	if v.Parent {
		if c.parent == nil {
			return nil, beanerrors.ErrDefinitionNotFound(v.Ref).WithChain(scope.Chain(ctx, v.Ref))
		}
		return c.parent.GetBean(ctx, v.Ref)
	}
	return c.getBean(ctx, v.Ref)
}

func applyProperty(typ Type, instance any, name string, value any) error {
	if typ.Set != nil {
		return typ.Set(instance, name, value)
	}
	if ps, ok := instance.(PropertySetter); ok {
		return ps.SetProperty(name, value)
	}
	return fmt.Errorf("%w: %T", beanerrors.ErrNoPropertySink, instance)
}

// initialize runs the Initializer hook, the type's Init callback and the
// definition's init-method, in that order.
func (c *Container) initialize(ctx context.Context, def *definition.Definition, typ Type, instance any) error {
	if in, ok := instance.(Initializer); ok {
		if err := in.Init(ctx); err != nil {
			return err
		}
	}
	if typ.Init != nil {
		if err := typ.Init(ctx, instance); err != nil {
			return err
		}
	}
	if def.InitMethod == "" {
		return nil
	}
	method, ok := typ.Methods[def.InitMethod]
	if !ok {
		return fmt.Errorf("init method %q not declared by type %q", def.InitMethod, def.Type)
	}
	return method(ctx, instance)
}
