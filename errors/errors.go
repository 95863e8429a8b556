package errors

import (
	"fmt"
	"strings"

	"github.com/xraph/go-utils/errs"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// Error code constants for structured errors.
const (
	CodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	CodeDefinitionParse     = "DEFINITION_PARSE"
	CodeDuplicateDefinition = "DUPLICATE_DEFINITION"
	CodeDefinitionNotFound  = "DEFINITION_NOT_FOUND"
	CodeCircularReference   = "CIRCULAR_REFERENCE"
	CodeInstantiation       = "INSTANTIATION"
	CodeInvalidDefinition   = "INVALID_DEFINITION"
)

// Standard container errors.
var (
	ErrContainerClosed = errs.New("container already closed")
	ErrUnknownType     = errs.New("type token not registered")
	ErrTypeMismatch    = errs.New("bean type mismatch")
	ErrNoPropertySink  = errs.New("instance does not accept properties")
	ErrNoMetadata      = errs.New("parent exposes no definition metadata")
)

// =============================================================================
// BEAN ERROR (STRUCTURED ERROR)
// =============================================================================

// BeanError is the structured error returned by every container operation.
type BeanError struct {
	Code    string
	Message string
	// Bean is the id (or requested name) the error is about.
	Bean string
	// Chain is the resolution path that led to the failure, outermost first.
	Chain []string
	Cause error
}

func (e *BeanError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Chain) > 1 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Chain, " -> "))
		b.WriteString("]")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *BeanError) Unwrap() error {
	return e.Cause
}

// genericCodes maps bean error codes onto the generic errs codes, so that
// errs.IsNotFound and friends work on container errors.
var genericCodes = map[string]string{
	CodeResourceNotFound:    errs.CodeNotFound,
	CodeDefinitionNotFound:  errs.CodeNotFound,
	CodeDuplicateDefinition: errs.CodeAlreadyExists,
	CodeDefinitionParse:     errs.CodeInvalidInput,
	CodeInvalidDefinition:   errs.CodeValidation,
	CodeCircularReference:   errs.CodeConflict,
	CodeInstantiation:       errs.CodeInternal,
}

// Is implements errors.Is interface for BeanError.
// Compares by error code, allowing matching against sentinel errors of
// this package and of errs.
func (e *BeanError) Is(target error) bool {
	if e.Code == "" {
		return false
	}
	switch t := target.(type) {
	case *BeanError:
		return e.Code == t.Code
	case *errs.Error:
		return t.Code != "" && genericCodes[e.Code] == t.Code
	default:
		return false
	}
}

// WithChain returns a copy of e with the resolution chain attached.
func (e *BeanError) WithChain(chain []string) *BeanError {
	cp := *e
	cp.Chain = append([]string(nil), chain...)
	return &cp
}

// ErrResourceNotFound creates a resource lookup error.
func ErrResourceNotFound(descriptor string, cause error) *BeanError {
	return &BeanError{
		Code:    CodeResourceNotFound,
		Message: "resource '" + descriptor + "' not found",
		Cause:   cause,
	}
}

// ErrDefinitionParse creates a reader error for malformed input.
func ErrDefinitionParse(source string, cause error) *BeanError {
	return &BeanError{
		Code:    CodeDefinitionParse,
		Message: "failed to parse definitions from '" + source + "'",
		Cause:   cause,
	}
}

// ErrDuplicateDefinition reports a registration conflict on name.
func ErrDuplicateDefinition(name, existing string) *BeanError {
	msg := "definition '" + name + "' already registered"
	if existing != "" && existing != name {
		msg = fmt.Sprintf("name '%s' already registered as alias of '%s'", name, existing)
	}
	return &BeanError{
		Code:    CodeDuplicateDefinition,
		Message: msg,
		Bean:    name,
	}
}

// ErrDefinitionNotFound reports a name missing from the whole lookup chain.
func ErrDefinitionNotFound(name string) *BeanError {
	return &BeanError{
		Code:    CodeDefinitionNotFound,
		Message: "no definition named '" + name + "'",
		Bean:    name,
	}
}

// ErrCircularReference reports a dependency cycle through chain.
func ErrCircularReference(name string, chain []string) *BeanError {
	return &BeanError{
		Code:    CodeCircularReference,
		Message: "bean '" + name + "' is currently in creation: unresolvable circular reference",
		Bean:    name,
		Chain:   append([]string(nil), chain...),
	}
}

// ErrInstantiation wraps a failure during construction, property
// application or initialization of name.
func ErrInstantiation(name, phase string, cause error) *BeanError {
	return &BeanError{
		Code:    CodeInstantiation,
		Message: "failed to instantiate bean '" + name + "' during " + phase,
		Bean:    name,
		Cause:   cause,
	}
}

// ErrInvalidDefinition reports a definition rejected before registration.
func ErrInvalidDefinition(name, reason string) *BeanError {
	return &BeanError{
		Code:    CodeInvalidDefinition,
		Message: "invalid definition '" + name + "': " + reason,
		Bean:    name,
	}
}

// =============================================================================
// STANDARD ERRORS PACKAGE INTEGRATION
// =============================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errs.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errs.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errs.New(text)
}

// Join returns an error that wraps the given errors.
func Join(list ...error) error {
	return errs.Join(list...)
}

// =============================================================================
// SENTINEL ERRORS (for use with Is)
// =============================================================================

var (
	ErrResourceNotFoundSentinel    = &BeanError{Code: CodeResourceNotFound}
	ErrDefinitionParseSentinel     = &BeanError{Code: CodeDefinitionParse}
	ErrDuplicateDefinitionSentinel = &BeanError{Code: CodeDuplicateDefinition}
	ErrDefinitionNotFoundSentinel  = &BeanError{Code: CodeDefinitionNotFound}
	ErrCircularReferenceSentinel   = &BeanError{Code: CodeCircularReference}
	ErrInstantiationSentinel       = &BeanError{Code: CodeInstantiation}
	ErrInvalidDefinitionSentinel   = &BeanError{Code: CodeInvalidDefinition}
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsResourceNotFound(err error) bool    { return Is(err, ErrResourceNotFoundSentinel) }
func IsDefinitionParse(err error) bool     { return Is(err, ErrDefinitionParseSentinel) }
func IsDuplicateDefinition(err error) bool { return Is(err, ErrDuplicateDefinitionSentinel) }
func IsDefinitionNotFound(err error) bool  { return Is(err, ErrDefinitionNotFoundSentinel) }
func IsCircularReference(err error) bool   { return Is(err, ErrCircularReferenceSentinel) }
func IsInstantiation(err error) bool       { return Is(err, ErrInstantiationSentinel) }
func IsInvalidDefinition(err error) bool   { return Is(err, ErrInvalidDefinitionSentinel) }

// CodeOf returns the code of the outermost BeanError in err's chain, or "".
func CodeOf(err error) string {
	var be *BeanError
	if As(err, &be) {
		return be.Code
	}
	return ""
}
