package resource

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/redis/go-redis/v9"

	beanerrors "github.com/xraph/beans/errors"
)

// RedisGetter is the part of a redis client the locator needs.
// *redis.Client, *redis.ClusterClient and *redis.Ring satisfy it.
type RedisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisLocator reads documents stored as string values under a key.
type RedisLocator struct {
	client RedisGetter
	prefix string
}

// NewRedisLocator creates a locator; prefix is prepended to every key.
func NewRedisLocator(client RedisGetter, prefix string) *RedisLocator {
	return &RedisLocator{client: client, prefix: prefix}
}

// Open reads the value stored at the key named by descriptor, with or
// without the "redis://" prefix.
func (l *RedisLocator) Open(ctx context.Context, descriptor string) (io.ReadCloser, error) {
	key := descriptor
	if scheme, rest := Scheme(descriptor); scheme == "redis" {
		key = rest
	}

	val, err := l.client.Get(ctx, l.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, beanerrors.ErrResourceNotFound(descriptor, errors.New("key does not exist"))
		}
		return nil, beanerrors.ErrResourceNotFound(descriptor, err)
	}
	return io.NopCloser(bytes.NewReader(val)), nil
}
