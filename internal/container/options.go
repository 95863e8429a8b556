package container

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/beans/internal/logger"
	"github.com/xraph/beans/internal/metrics"
	"github.com/xraph/beans/internal/reader"
	"github.com/xraph/beans/internal/resource"
)

// Option configures a Container.
type Option func(*options)

type options struct {
	name    string
	parent  BeanFactory
	types   *TypeTable
	logger  logger.Logger
	metrics metrics.Collector
	tracer  trace.Tracer
	locator resource.Locator
	reader  reader.Reader
}

// WithName sets the name used in logs and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithParent makes parent the fallback for names this container does not
// define.
func WithParent(parent BeanFactory) Option {
	return func(o *options) { o.parent = parent }
}

// WithTypes sets the type table. Tokens missing from it are looked up in
// the parent container's table.
func WithTypes(types *TypeTable) Option {
	return func(o *options) { o.types = types }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m metrics.Collector) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer sets the tracer used for creation spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithLocator sets how Load opens resources.
func WithLocator(l resource.Locator) Option {
	return func(o *options) { o.locator = l }
}

// WithReader forces one document reader instead of choosing by extension.
func WithReader(r reader.Reader) Option {
	return func(o *options) { o.reader = r }
}

// RegisterOption configures RegisterDefinition.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	override bool
}

// WithOverride allows replacing an existing definition. The replaced
// bean's cached singleton is discarded; beans that already captured it
// keep their reference.
func WithOverride() RegisterOption {
	return func(o *registerOptions) { o.override = true }
}
