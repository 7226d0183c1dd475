package locator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	// ErrNotRegistered reports a lookup with no matching provider.
	ErrNotRegistered = errors.New("locator: not registered")
	// ErrNeedsAsync reports a synchronous lookup of a deferred provider.
	ErrNeedsAsync = errors.New("locator: provider requires asynchronous resolution")
	// ErrNeedsParams reports a plain lookup of a parametrized factory.
	ErrNeedsParams = errors.New("locator: provider requires runtime parameters")
)

type entryKind int

const (
	entryValue entryKind = iota
	entryFactory
	entryLazySingleton
	entryFactory1
	entryFactory2
	entryDeferred
)

type entry struct {
	kind     entryKind
	value    any
	factory  func() any
	factory1 func(any) any
	factory2 func(any, any) any
	deferred func(context.Context) (any, error)

	once sync.Once
}

// Container holds registered providers. The zero value is not usable;
// create one with New. All methods are safe for concurrent use.
type Container struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates an empty container.
func New() *Container {
	return &Container{entries: make(map[string]*entry)}
}

// Reset drops every registration. Intended for tests.
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Len returns the number of registered providers.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Container) register(key string, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.entries[key]; dup {
		panic(fmt.Sprintf("locator: %s registered twice", key))
	}
	c.entries[key] = e
}

func (c *Container) lookup(key string) (*entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// keyFor derives the container key for a type and tag. The reflected
// type string is unambiguous per process, which is all a locator needs.
func keyFor[T any](tag string) string {
	t := reflect.TypeOf((*T)(nil)).Elem().String()
	if tag == "" {
		return t
	}
	return t + "#" + tag
}

// RegisterValue registers an already-constructed instance.
func RegisterValue[T any](c *Container, tag string, v T) {
	c.register(keyFor[T](tag), &entry{kind: entryValue, value: v})
}

// RegisterFactory registers a factory invoked on every lookup.
func RegisterFactory[T any](c *Container, tag string, fn func() T) {
	c.register(keyFor[T](tag), &entry{kind: entryFactory, factory: func() any { return fn() }})
}

// RegisterLazySingleton registers a factory invoked at most once; the
// result is shared by all subsequent lookups.
func RegisterLazySingleton[T any](c *Container, tag string, fn func() T) {
	c.register(keyFor[T](tag), &entry{kind: entryLazySingleton, factory: func() any { return fn() }})
}

// RegisterFactory1 registers a factory taking one caller-supplied
// parameter, resolved with Get1.
func RegisterFactory1[T, P any](c *Container, tag string, fn func(P) T) {
	c.register(keyFor[T](tag), &entry{kind: entryFactory1, factory1: func(p any) any { return fn(p.(P)) }})
}

// RegisterFactory2 registers a factory taking two caller-supplied
// parameters, resolved with Get2.
func RegisterFactory2[T, P1, P2 any](c *Container, tag string, fn func(P1, P2) T) {
	c.register(keyFor[T](tag), &entry{kind: entryFactory2, factory2: func(p1, p2 any) any { return fn(p1.(P1), p2.(P2)) }})
}

// RegisterDeferred registers an asynchronous factory resolved with
// GetAsync.
func RegisterDeferred[T any](c *Container, tag string, fn func(context.Context) (T, error)) {
	c.register(keyFor[T](tag), &entry{kind: entryDeferred, deferred: func(ctx context.Context) (any, error) {
		return fn(ctx)
	}})
}

// Registered reports whether a provider exists for the type and tag.
func Registered[T any](c *Container, tag string) bool {
	_, ok := c.lookup(keyFor[T](tag))
	return ok
}

// Get resolves an instance synchronously.
func Get[T any](c *Container, tag string) (T, error) {
	var zero T
	key := keyFor[T](tag)
	e, ok := c.lookup(key)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}
	switch e.kind {
	case entryValue:
		return e.value.(T), nil
	case entryFactory:
		return e.factory().(T), nil
	case entryLazySingleton:
		e.once.Do(func() { e.value = e.factory() })
		return e.value.(T), nil
	case entryFactory1, entryFactory2:
		return zero, fmt.Errorf("%w: %s", ErrNeedsParams, key)
	case entryDeferred:
		return zero, fmt.Errorf("%w: %s", ErrNeedsAsync, key)
	}
	return zero, fmt.Errorf("locator: %s has unknown provider shape", key)
}

// MustGet resolves an instance synchronously and panics on failure.
// Generated factories use it: the generator has already proven the
// provider exists.
func MustGet[T any](c *Container, tag string) T {
	v, err := Get[T](c, tag)
	if err != nil {
		panic(err)
	}
	return v
}

// Get1 resolves an instance from a one-parameter factory.
func Get1[T, P any](c *Container, tag string, p P) (T, error) {
	var zero T
	key := keyFor[T](tag)
	e, ok := c.lookup(key)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}
	if e.kind != entryFactory1 {
		return zero, fmt.Errorf("%w: %s takes no single runtime parameter", ErrNeedsParams, key)
	}
	return e.factory1(p).(T), nil
}

// Get2 resolves an instance from a two-parameter factory.
func Get2[T, P1, P2 any](c *Container, tag string, p1 P1, p2 P2) (T, error) {
	var zero T
	key := keyFor[T](tag)
	e, ok := c.lookup(key)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}
	if e.kind != entryFactory2 {
		return zero, fmt.Errorf("%w: %s takes no runtime parameter pair", ErrNeedsParams, key)
	}
	return e.factory2(p1, p2).(T), nil
}

// GetAsync resolves an instance, awaiting a deferred provider. Providers
// registered synchronously resolve as with Get.
func GetAsync[T any](ctx context.Context, c *Container, tag string) (T, error) {
	var zero T
	key := keyFor[T](tag)
	e, ok := c.lookup(key)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}
	if e.kind != entryDeferred {
		return Get[T](c, tag)
	}
	v, err := e.deferred(ctx)
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
