package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xraph/go-utils/errs"
)

// TestBeanErrorIs tests the Is implementation for BeanError.
func TestBeanErrorIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same error code matches",
			err:    ErrDefinitionNotFound("a"),
			target: ErrDefinitionNotFoundSentinel,
			want:   true,
		},
		{
			name:   "different error code does not match",
			err:    ErrDefinitionNotFound("a"),
			target: ErrDuplicateDefinitionSentinel,
			want:   false,
		},
		{
			name:   "wrapped cause matches",
			err:    ErrInstantiation("a", "construction", ErrCircularReference("b", []string{"a", "b"})),
			target: ErrCircularReferenceSentinel,
			want:   true,
		},
		{
			name:   "fmt wrapped error matches",
			err:    fmt.Errorf("loading: %w", ErrDefinitionParse("beans.xml", errors.New("eof"))),
			target: ErrDefinitionParseSentinel,
			want:   true,
		},
		{
			name:   "nil target does not match",
			err:    ErrDefinitionNotFound("a"),
			target: nil,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.target); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBeanErrorMessage(t *testing.T) {
	err := ErrCircularReference("a", []string{"a", "b", "a"})
	assert.Equal(t, "bean 'a' is currently in creation: unresolvable circular reference [a -> b -> a]", err.Error())

	cause := errors.New("boom")
	inst := ErrInstantiation("svc", "construction", cause)
	assert.Equal(t, "failed to instantiate bean 'svc' during construction: boom", inst.Error())
	assert.ErrorIs(t, inst, cause)
}

func TestDuplicateDefinitionMessage(t *testing.T) {
	assert.Contains(t, ErrDuplicateDefinition("a", "a").Error(), "definition 'a' already registered")
	assert.Contains(t, ErrDuplicateDefinition("alias", "a").Error(), "alias of 'a'")
}

func TestWithChainCopies(t *testing.T) {
	base := ErrDefinitionNotFound("missing")
	chained := base.WithChain([]string{"a", "missing"})

	assert.Nil(t, base.Chain)
	assert.Equal(t, []string{"a", "missing"}, chained.Chain)
	assert.True(t, IsDefinitionNotFound(chained))
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsResourceNotFound(ErrResourceNotFound("x", nil)))
	assert.True(t, IsDefinitionParse(ErrDefinitionParse("x", nil)))
	assert.True(t, IsDuplicateDefinition(ErrDuplicateDefinition("x", "")))
	assert.True(t, IsDefinitionNotFound(ErrDefinitionNotFound("x")))
	assert.True(t, IsCircularReference(ErrCircularReference("x", nil)))
	assert.True(t, IsInstantiation(ErrInstantiation("x", "init", nil)))
	assert.True(t, IsInvalidDefinition(ErrInvalidDefinition("x", "bad")))
	assert.False(t, IsInstantiation(errors.New("plain")))

	assert.Equal(t, CodeInstantiation, CodeOf(fmt.Errorf("wrap: %w", ErrInstantiation("x", "init", nil))))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}

func TestGenericCodes(t *testing.T) {
	assert.True(t, errs.IsNotFound(ErrDefinitionNotFound("x")))
	assert.True(t, errs.IsNotFound(fmt.Errorf("load: %w", ErrResourceNotFound("beans.xml", nil))))
	assert.True(t, errs.IsAlreadyExists(ErrDuplicateDefinition("x", "")))
	assert.True(t, errs.IsValidation(ErrInvalidDefinition("x", "bad")))
	assert.False(t, errs.IsNotFound(ErrInstantiation("x", "init", nil)))
	assert.False(t, Is(ErrDefinitionNotFound("x"), ErrResourceNotFoundSentinel))

	joined := Join(ErrContainerClosed, nil)
	assert.True(t, Is(joined, ErrContainerClosed))
}
