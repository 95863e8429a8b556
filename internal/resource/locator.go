// Package resource turns resource descriptors into byte streams.
//
// A descriptor is either a plain path or carries a scheme prefix:
// "file:conf/beans.xml", "classpath:beans.xml", "https://host/beans.yaml"
// or "redis://config:beans".
package resource

import (
	"context"
	"io"
	"strings"
	"time"
)

// Locator opens named resources. A missing or unreadable resource is
// reported as a resource-not-found error.
type Locator interface {
	Open(ctx context.Context, descriptor string) (io.ReadCloser, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context, descriptor string) (io.ReadCloser, error)

// Open calls f.
func (f LocatorFunc) Open(ctx context.Context, descriptor string) (io.ReadCloser, error) {
	return f(ctx, descriptor)
}

// Scheme splits descriptor into its scheme and remainder. Descriptors
// without a scheme, and Windows drive letters, yield an empty scheme.
func Scheme(descriptor string) (scheme, rest string) {
	i := strings.Index(descriptor, ":")
	if i <= 1 {
		return "", descriptor
	}
	scheme = strings.ToLower(descriptor[:i])
	for _, r := range scheme {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '+' && r != '-' && r != '.' {
			return "", descriptor
		}
	}
	rest = strings.TrimPrefix(descriptor[i+1:], "//")
	return scheme, rest
}

// Options configures the default locator chain.
type Options struct {
	Roots       []string
	HTTPTimeout time.Duration
	Redis       RedisGetter
	RedisPrefix string
}

// NewDefault builds a chain resolving plain paths and "file:" against the
// given roots, http(s) URLs through HTTP, and "redis://" keys when a
// client is supplied.
func NewDefault(opts Options) *Chain {
	files := NewFileLocator(opts.Roots...)
	web := NewHTTPLocator(opts.HTTPTimeout)

	chain := NewChain(files).
		Handle("file", files).
		Handle("http", web).
		Handle("https", web)
	if opts.Redis != nil {
		chain.Handle("redis", NewRedisLocator(opts.Redis, opts.RedisPrefix))
	}
	return chain
}
