package logger

import (
	"time"

	"github.com/xraph/go-utils/log"
)

// Field represents a structured log field.
type Field = log.Field

// Field constructors that return wrapped fields.
var (
	// String creates a string field.
	String = log.String
	// Strings creates a string slice field.
	Strings = log.Strings
	// Int creates an int field.
	Int = log.Int
	// Bool creates a bool field.
	Bool = log.Bool
	// Duration creates a duration field.
	Duration = log.Duration
	// Error creates an error field.
	Error = log.Error
	// Any creates a field of arbitrary type.
	Any = log.Any
)

// Bean creates the canonical field for a bean id.
func Bean(id string) Field {
	return log.String("bean", id)
}

// Scope creates the canonical field for a bean scope.
func Scope(scope string) Field {
	return log.String("scope", scope)
}

// Container creates the canonical field for a container id.
func Container(id string) Field {
	return log.String("container", id)
}

// Elapsed creates a duration field measured from start.
func Elapsed(start time.Time) Field {
	return log.Duration("elapsed", time.Since(start))
}
