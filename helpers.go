package beans

import (
	"context"
	"fmt"

	"github.com/xraph/beans/errors"
)

// GetAs resolves name from f and asserts the instance to T.
// A failed assertion wraps ErrTypeMismatch.
func GetAs[T any](ctx context.Context, f BeanFactory, name string) (T, error) {
	var zero T
	instance, err := f.GetBean(ctx, name)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		want := fmt.Sprintf("%T", (*T)(nil))[1:]
		return zero, fmt.Errorf("%w: bean '%s' is %T, not %s", errors.ErrTypeMismatch, name, instance, want)
	}
	return typed, nil
}

// Must is like GetAs but panics on error.
// Use only during startup wiring.
func Must[T any](ctx context.Context, f BeanFactory, name string) T {
	v, err := GetAs[T](ctx, f, name)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve bean '%s': %v", name, err))
	}
	return v
}
