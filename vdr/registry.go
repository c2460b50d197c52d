package vdr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wow-sven/nuwa-sub012/identity"
)

// Registry defaults. The cache TTL is deliberately conservative: it bounds
// how long a revoked key can still authorize requests.
const (
	DefaultCacheTTL      = 5 * time.Minute
	DefaultCacheCapacity = 1024
)

// Registry dispatches DID resolution to the VDR registered for each method
// and memoizes resolved documents in a bounded TTL cache. Concurrent
// resolutions of the same DID on a cold cache are collapsed into one
// in-flight request.
type Registry struct {
	mu   sync.RWMutex
	vdrs map[string]VDR

	cache    *documentCache
	group    singleflight.Group
	validate bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	cacheTTL      time.Duration
	cacheCapacity int
	clock         func() time.Time
	validate      bool
}

// WithCacheTTL sets how long resolved documents stay fresh.
func WithCacheTTL(ttl time.Duration) RegistryOption {
	return func(c *registryConfig) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithCacheCapacity bounds the number of cached documents.
func WithCacheCapacity(capacity int) RegistryOption {
	return func(c *registryConfig) {
		if capacity > 0 {
			c.cacheCapacity = capacity
		}
	}
}

// WithClock replaces the cache's time source, letting tests drive expiry
// deterministically.
func WithClock(now func() time.Time) RegistryOption {
	return func(c *registryConfig) {
		if now != nil {
			c.clock = now
		}
	}
}

// WithoutDocumentValidation disables schema validation of resolved
// documents. Validation is on by default.
func WithoutDocumentValidation() RegistryOption {
	return func(c *registryConfig) {
		c.validate = false
	}
}

// NewRegistry creates an empty registry with defaults applied.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := &registryConfig{
		cacheTTL:      DefaultCacheTTL,
		cacheCapacity: DefaultCacheCapacity,
		clock:         time.Now,
		validate:      true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Registry{
		vdrs:     make(map[string]VDR),
		cache:    newDocumentCache(cfg.cacheCapacity, cfg.cacheTTL, cfg.clock),
		validate: cfg.validate,
	}
}

// Register installs a VDR for its method, replacing any previous one.
func (r *Registry) Register(v VDR) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vdrs[v.Method()] = v
}

// vdrFor looks up the resolver for a DID's method.
func (r *Registry) vdrFor(did string) (VDR, error) {
	method, err := identity.MethodOf(did)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.vdrs[method]
	if !ok {
		return nil, fmt.Errorf("%w: did:%s", ErrUnsupportedMethod, method)
	}
	return v, nil
}

// ResolveDID resolves a DID to its document. Cache hits return immediately
// without touching the VDR; misses go through singleflight so identical
// concurrent resolutions share one lookup. A nil document without error
// means the DID genuinely does not exist.
func (r *Registry) ResolveDID(ctx context.Context, did string) (*identity.Document, error) {
	v, err := r.vdrFor(did)
	if err != nil {
		return nil, err
	}

	if doc, ok := r.cache.get(did); ok {
		return doc, nil
	}

	result, err, _ := r.group.Do(did, func() (any, error) {
		doc, err := v.Resolve(ctx, did)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return (*identity.Document)(nil), nil
		}
		if r.validate {
			if err := validateDocument(doc); err != nil {
				return nil, fmt.Errorf("resolved document rejected: %w", err)
			}
		}
		r.cache.put(did, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*identity.Document), nil
}

// Exists reports whether the DID resolves to a document.
func (r *Registry) Exists(ctx context.Context, did string) (bool, error) {
	doc, err := r.ResolveDID(ctx, did)
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}

// CreateDID registers a new DID through the VDR serving the given method.
func (r *Registry) CreateDID(ctx context.Context, method string, req *CreateRequest) (*CreateResult, error) {
	r.mu.RLock()
	v, ok := r.vdrs[method]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: did:%s", ErrUnsupportedMethod, method)
	}
	return v.Create(ctx, req)
}

// Invalidate drops a cached document, forcing the next resolution to hit
// the VDR.
func (r *Registry) Invalidate(did string) {
	r.cache.invalidate(did)
}

// CachedDocuments returns the number of documents currently cached.
func (r *Registry) CachedDocuments() int {
	return r.cache.len()
}
