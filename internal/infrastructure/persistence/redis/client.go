// Package redis implements the Redis-backed session store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnreachable is returned by NewClient when the first ping fails.
var ErrUnreachable = errors.New("redis: server unreachable")

// ErrEmptySessionID rejects saving a session without an id.
var ErrEmptySessionID = errors.New("redis: session id is empty")

// DefaultNamespace prefixes every key this package writes.
const DefaultNamespace = "studyquest:"

// DefaultSessionTTL is how long an untouched session survives.
const DefaultSessionTTL = 24 * time.Hour

// Options configures Client. Zero durations and sizes keep go-redis defaults.
type Options struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Namespace defaults to DefaultNamespace.
	Namespace string
}

// DefaultOptions targets a local server on the standard port.
func DefaultOptions() Options {
	return Options{Host: "localhost", Port: 6379, DialTimeout: 5 * time.Second}
}

// Addr returns host:port.
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Client is a connected go-redis client plus the key namespace.
type Client struct {
	rdb       *redis.Client
	namespace string
}

// NewClient connects and pings the server, bounded by DialTimeout.
func NewClient(ctx context.Context, o Options) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         o.Addr(),
		Password:     o.Password,
		DB:           o.DB,
		PoolSize:     o.PoolSize,
		MinIdleConns: o.MinIdleConns,
		DialTimeout:  o.DialTimeout,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
	})

	if o.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.DialTimeout)
		defer cancel()
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w at %s: %v", ErrUnreachable, o.Addr(), err)
	}

	ns := o.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return &Client{rdb: rdb, namespace: ns}, nil
}

// Close closes the underlying pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Addr returns the server address the client dials.
func (c *Client) Addr() string {
	return c.rdb.Options().Addr
}

// Ping checks the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) key(parts ...string) string {
	k := c.namespace
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += p
	}
	return k
}
