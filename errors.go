package beans

import (
	"github.com/xraph/beans/errors"
)

// BeanError is the structured error returned by container operations.
type BeanError = errors.BeanError

// Error codes.
const (
	CodeResourceNotFound    = errors.CodeResourceNotFound
	CodeDefinitionParse     = errors.CodeDefinitionParse
	CodeDuplicateDefinition = errors.CodeDuplicateDefinition
	CodeDefinitionNotFound  = errors.CodeDefinitionNotFound
	CodeCircularReference   = errors.CodeCircularReference
	CodeInstantiation       = errors.CodeInstantiation
	CodeInvalidDefinition   = errors.CodeInvalidDefinition
)

// Standard errors.
var (
	ErrContainerClosed = errors.ErrContainerClosed
	ErrUnknownType     = errors.ErrUnknownType
	ErrTypeMismatch    = errors.ErrTypeMismatch
	ErrNoPropertySink  = errors.ErrNoPropertySink
	ErrNoMetadata      = errors.ErrNoMetadata
)

// Re-export sentinel errors for error comparison using errors.Is().
var (
	ErrResourceNotFoundSentinel    = errors.ErrResourceNotFoundSentinel
	ErrDefinitionParseSentinel     = errors.ErrDefinitionParseSentinel
	ErrDuplicateDefinitionSentinel = errors.ErrDuplicateDefinitionSentinel
	ErrDefinitionNotFoundSentinel  = errors.ErrDefinitionNotFoundSentinel
	ErrCircularReferenceSentinel   = errors.ErrCircularReferenceSentinel
	ErrInstantiationSentinel       = errors.ErrInstantiationSentinel
	ErrInvalidDefinitionSentinel   = errors.ErrInvalidDefinitionSentinel
)

// Error classification helpers.
var (
	IsResourceNotFound    = errors.IsResourceNotFound
	IsDefinitionParse     = errors.IsDefinitionParse
	IsDuplicateDefinition = errors.IsDuplicateDefinition
	IsDefinitionNotFound  = errors.IsDefinitionNotFound
	IsCircularReference   = errors.IsCircularReference
	IsInstantiation       = errors.IsInstantiation
	IsInvalidDefinition   = errors.IsInvalidDefinition
	CodeOf                = errors.CodeOf
)
