// Package cache owns a class corpus together with the methods resolved in it
// and the proxies handed out for it.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/daimatz/gopatcher/pkg/classdef"
	"github.com/daimatz/gopatcher/pkg/logging"
	"github.com/daimatz/gopatcher/pkg/proxy"
	"github.com/daimatz/gopatcher/pkg/signature"
)

// ErrIndexOutOfRange is returned for corpus indices outside the corpus.
var ErrIndexOutOfRange = errors.New("class index out of range")

// Cache holds the read-only corpus, the resolved MethodMap and at most one
// ClassProxy per corpus index. It is not safe for concurrent use.
type Cache struct {
	classes      []classdef.Class
	methods      *signature.MethodMap
	proxies      *proxy.Arena
	logger       *slog.Logger
	resolverOpts []signature.Option
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logging.OrNop(logger) }
}

// WithMethodMap makes the cache start from an existing method map.
func WithMethodMap(m *signature.MethodMap) Option {
	return func(c *Cache) { c.methods = m }
}

// WithResolverOptions passes opts to the resolver used by Resolve.
func WithResolverOptions(opts ...signature.Option) Option {
	return func(c *Cache) { c.resolverOpts = append(c.resolverOpts, opts...) }
}

// New creates a cache over classes. The slice is not copied and must not be
// modified afterwards.
func New(classes []classdef.Class, opts ...Option) *Cache {
	c := &Cache{
		classes: classes,
		methods: signature.NewMethodMap(),
		proxies: proxy.NewArena(),
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classes returns the original corpus. It must not be modified.
func (c *Cache) Classes() []classdef.Class { return c.classes }

// Methods returns the resolved method map.
func (c *Cache) Methods() *signature.MethodMap { return c.methods }

// Proxies returns the proxies created so far, in creation order.
func (c *Cache) Proxies() []*proxy.ClassProxy { return c.proxies.Proxies() }

// Proxy returns the proxy for the class at index, creating it if needed.
func (c *Cache) Proxy(index int) (*proxy.ClassProxy, error) {
	if index < 0 || index >= len(c.classes) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(c.classes))
	}
	return c.proxy(index), nil
}

func (c *Cache) proxy(index int) *proxy.ClassProxy {
	if p, ok := c.proxies.Lookup(index); ok {
		return p
	}
	p := c.proxies.Get(index, c.classes[index])
	c.logger.Debug("class proxy created", "class", p.Original().Type(), "index", index)
	return p
}

// registry adapts the cache to signature.Registry so proxies created while
// resolving are logged like any other.
type registry struct{ c *Cache }

func (r registry) Get(index int, _ classdef.Class) *proxy.ClassProxy { return r.c.proxy(index) }

// Resolve resolves signatures against the corpus into Methods. Proxies for
// matched classes come from the cache, so a later FindClass for the same
// class returns the same proxy.
func (c *Cache) Resolve(signatures []signature.MethodSignature) {
	opts := append([]signature.Option{
		signature.WithLogger(c.logger),
		signature.WithRegistry(registry{c}),
	}, c.resolverOpts...)
	signature.NewResolver(signatures, opts...).Resolve(c.classes, c.methods)
}

// FindClass returns a proxy for the first class whose type contains name.
func (c *Cache) FindClass(name string) *proxy.ClassProxy {
	return c.FindClassFunc(func(class classdef.Class) bool {
		return strings.Contains(class.Type(), name)
	})
}

// FindClassFunc returns a proxy for the first class satisfying predicate, or
// nil. Existing proxies are tried first, against their current view; then
// the remaining corpus classes in order.
func (c *Cache) FindClassFunc(predicate func(classdef.Class) bool) *proxy.ClassProxy {
	for _, p := range c.proxies.Proxies() {
		if predicate(p.Readable()) {
			return p
		}
	}

	for index, class := range c.classes {
		if _, ok := c.proxies.Lookup(index); ok {
			continue
		}
		if predicate(class) {
			return c.proxy(index)
		}
	}
	return nil
}

// Snapshot returns the corpus with every edited class replaced by its
// mutable copy, ready to be written back.
func (c *Cache) Snapshot() []classdef.Class {
	out := append([]classdef.Class(nil), c.classes...)
	for _, p := range c.proxies.Proxies() {
		if p.Resolved() {
			out[p.Index()] = p.Readable()
		}
	}
	return out
}
