package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for a missing or expired key. Callers must
// treat it differently from a connectivity error: a miss is a normal
// outcome, a failing store is a dependency failure.
var ErrNotFound = errors.New("kv: key not found")

// Message is one pub/sub delivery.
type Message struct {
	Channel string
	Payload []byte
}

// Subscription is a live pub/sub handle. The Events channel is closed when
// the subscription is closed. Delivery is at-most-once: messages published
// while nobody is listening are gone.
type Subscription interface {
	Events() <-chan Message
	Close() error
}

// Store is the key-value collaborator underlying tokens, the catalog
// cache, carts and notifications. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttlSeconds int) error
	Del(ctx context.Context, keys ...string) error

	LPush(ctx context.Context, key string, val []byte) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channels ...string) Subscription

	Ping(ctx context.Context) error
	Close() error
}
