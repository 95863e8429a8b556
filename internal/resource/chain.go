package resource

import (
	"context"
	"fmt"
	"io"

	beanerrors "github.com/xraph/beans/errors"
)

// Chain dispatches descriptors to a locator by scheme. Descriptors
// without a scheme go to the fallback.
type Chain struct {
	schemes  map[string]Locator
	fallback Locator
}

// NewChain creates a chain with the given fallback, which may be nil.
func NewChain(fallback Locator) *Chain {
	return &Chain{schemes: make(map[string]Locator), fallback: fallback}
}

// Handle routes scheme to l.
func (c *Chain) Handle(scheme string, l Locator) *Chain {
	c.schemes[scheme] = l
	return c
}

// Open dispatches descriptor.
func (c *Chain) Open(ctx context.Context, descriptor string) (io.ReadCloser, error) {
	scheme, _ := Scheme(descriptor)
	if scheme == "" {
		if c.fallback == nil {
			return nil, beanerrors.ErrResourceNotFound(descriptor, fmt.Errorf("no locator for plain paths"))
		}
		return c.fallback.Open(ctx, descriptor)
	}

	l, ok := c.schemes[scheme]
	if !ok {
		return nil, beanerrors.ErrResourceNotFound(descriptor, fmt.Errorf("unsupported scheme %q", scheme))
	}
	return l.Open(ctx, descriptor)
}
