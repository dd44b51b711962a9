// Package rediscache keeps detection results in redis so that several
// processes decoding the same documents share the work.
package rediscache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/modfin/autodecode/detect"
)

const defaultPrefix = "autodecode:detect:"

// Pool hands out connections. *redis.Pool satisfies it.
type Pool interface {
	Get() redis.Conn
}

type Cache struct {
	pool   Pool
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// WithTTL expires entries after d. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		c.ttl = d
	}
}

func New(pool Pool, opts ...Option) *Cache {
	c := &Cache{pool: pool, prefix: defaultPrefix}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewPool dials addr on demand.
func NewPool(addr string, opts ...redis.DialOption) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 4 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr, opts...)
		},
	}
}

func (c *Cache) Get(key string) (detect.Result, bool, error) {
	conn := c.pool.Get()
	defer conn.Close()

	b, err := redis.Bytes(conn.Do("GET", c.prefix+key))
	if errors.Is(err, redis.ErrNil) {
		return detect.Result{}, false, nil
	}
	if err != nil {
		return detect.Result{}, false, fmt.Errorf("rediscache: get: %w", err)
	}

	var r detect.Result
	if err := json.Unmarshal(b, &r); err != nil {
		return detect.Result{}, false, fmt.Errorf("rediscache: decode %s: %w", key, err)
	}
	return r, true, nil
}

func (c *Cache) Set(key string, r detect.Result) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}

	conn := c.pool.Get()
	defer conn.Close()

	args := redis.Args{}.Add(c.prefix+key, b)
	if c.ttl > 0 {
		args = args.Add("PX", c.ttl.Milliseconds())
	}
	if _, err := conn.Do("SET", args...); err != nil {
		return fmt.Errorf("rediscache: set: %w", err)
	}
	return nil
}
