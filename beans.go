// Package beans is a definition-driven object container. Definitions are
// read from XML, YAML, JSON, TOML or HCL documents, registered in a
// container and turned into instances on demand, honouring singleton and
// prototype scopes, parent containers and circular references through
// properties.
//
//	types := beans.NewTypeTable().
//		MustRegister("sql.DB", beans.Type{New: openDB})
//
//	c, err := beans.Load(ctx, "beans.yaml", beans.WithTypes(types))
//	if err != nil {
//		return err
//	}
//	defer c.Close(ctx)
//
//	db, err := beans.GetAs[*sql.DB](ctx, c, "db")
package beans

import (
	"context"

	"github.com/xraph/beans/internal/container"
	"github.com/xraph/beans/internal/definition"
	"github.com/xraph/beans/internal/logger"
	"github.com/xraph/beans/internal/metrics"
	"github.com/xraph/beans/internal/reader"
	"github.com/xraph/beans/internal/resource"
	"github.com/xraph/beans/internal/scope"
)

// Container types.
type (
	Container      = container.Container
	BeanFactory    = container.BeanFactory
	Option         = container.Option
	RegisterOption = container.RegisterOption

	TypeTable      = container.TypeTable
	Type           = container.Type
	Factory        = container.Factory
	Setter         = container.Setter
	Method         = container.Method
	PropertySetter = container.PropertySetter
	Initializer    = container.Initializer
	Disposer       = container.Disposer

	State = scope.State
)

// Definition types.
type (
	Definition = definition.Definition
	Property   = definition.Property
	Value      = definition.Value
	MapEntry   = definition.MapEntry
	Scope      = definition.Scope
)

// Collaborator types.
type (
	Logger         = logger.Logger
	Metrics        = metrics.Collector
	Locator        = resource.Locator
	LocatorOptions = resource.Options
	Reader         = reader.Reader
	Format         = reader.Format
)

// Scopes.
const (
	ScopeSingleton = definition.ScopeSingleton
	ScopePrototype = definition.ScopePrototype
)

// Instantiation states.
const (
	StateAbsent     = scope.StateAbsent
	StateInCreation = scope.StateInCreation
	StateCreated    = scope.StateCreated
	StateReleased   = scope.StateReleased
)

// Document formats.
const (
	FormatXML  = reader.FormatXML
	FormatYAML = reader.FormatYAML
	FormatJSON = reader.FormatJSON
	FormatTOML = reader.FormatTOML
	FormatHCL  = reader.FormatHCL
)

// Options.
var (
	WithName     = container.WithName
	WithParent   = container.WithParent
	WithTypes    = container.WithTypes
	WithLogger   = container.WithLogger
	WithMetrics  = container.WithMetrics
	WithTracer   = container.WithTracer
	WithLocator  = container.WithLocator
	WithReader   = container.WithReader
	WithOverride = container.WithOverride
)

// Value constructors.
var (
	Literal   = definition.Literal
	Ref       = definition.Ref
	ParentRef = definition.ParentRef
	List      = definition.List
	Map       = definition.Map
	Entry     = definition.Entry
)

// Type table helpers.
var (
	NewTypeTable = container.NewTypeTable
	ValueFactory = container.Value
)

// Locators and readers.
var (
	NewDefaultLocator = resource.NewDefault
	NewFileLocator    = resource.NewFileLocator
	NewFSLocator      = resource.NewFSLocator
	NewHTTPLocator    = resource.NewHTTPLocator
	NewRedisLocator   = resource.NewRedisLocator
	NewReader         = reader.New
	ReaderForSource   = reader.ForSource
)

// Logging and metrics constructors.
var (
	NewLogger            = logger.NewLogger
	NewDevelopmentLogger = logger.NewDevelopmentLogger
	NewNoopLogger        = logger.NewNoopLogger
	LoggerFromContext    = logger.FromContext
	NewMetrics           = metrics.New
)

// New creates an empty container. Definitions are added with
// RegisterDefinition or LoadDefinitions.
func New(opts ...Option) *Container {
	return container.New(opts...)
}

// Load creates a container from the document at descriptor. Construction
// is all or nothing: on any error the singletons created so far are
// destroyed and no container is returned.
func Load(ctx context.Context, descriptor string, opts ...Option) (*Container, error) {
	c := container.New(opts...)
	if err := c.Load(ctx, descriptor); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	return c, nil
}

// LoadDefinitions creates a container from already built definitions,
// with the same all or nothing semantics as Load.
func LoadDefinitions(ctx context.Context, defs []*Definition, opts ...Option) (*Container, error) {
	c := container.New(opts...)
	if err := c.LoadDefinitions(ctx, defs); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	return c, nil
}

// Func wraps a constructor that takes no arguments.
func Func[T any](fn func(ctx context.Context) (T, error)) Factory {
	return container.Func(fn)
}
