package locator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type config struct {
	addr string
}

type service struct {
	cfg config
	n   int
}

type greeter interface {
	Greet() string
}

type englishGreeter struct{}

func (englishGreeter) Greet() string { return "hello" }

func TestRegisterValueAndGet(t *testing.T) {
	t.Parallel()

	c := New()
	RegisterValue(c, "", config{addr: "localhost"})

	got, err := Get[config](c, "")
	require.NoError(t, err)
	assert.Equal(t, "localhost", got.addr)
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	c := New()
	_, err := Get[config](c, "")
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestTagsSeparateProviders(t *testing.T) {
	t.Parallel()

	c := New()
	RegisterValue(c, "primary", config{addr: "db1"})
	RegisterValue(c, "replica", config{addr: "db2"})

	primary, err := Get[config](c, "primary")
	require.NoError(t, err)
	replica, err := Get[config](c, "replica")
	require.NoError(t, err)
	assert.Equal(t, "db1", primary.addr)
	assert.Equal(t, "db2", replica.addr)

	_, err = Get[config](c, "")
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	c := New()
	RegisterValue(c, "", config{})
	assert.Panics(t, func() {
		RegisterValue(c, "", config{})
	})
}

func TestFactoryInvokedPerLookup(t *testing.T) {
	t.Parallel()

	c := New()
	calls := 0
	RegisterFactory(c, "", func() service {
		calls++
		return service{n: calls}
	})

	first := MustGet[service](c, "")
	second := MustGet[service](c, "")
	assert.Equal(t, 1, first.n)
	assert.Equal(t, 2, second.n)
}

func TestLazySingletonInvokedOnce(t *testing.T) {
	t.Parallel()

	c := New()
	calls := 0
	RegisterLazySingleton(c, "", func() *service {
		calls++
		return &service{n: calls}
	})

	first := MustGet[*service](c, "")
	second := MustGet[*service](c, "")
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestLazySingletonConcurrentLookups(t *testing.T) {
	t.Parallel()

	c := New()
	calls := 0
	RegisterLazySingleton(c, "", func() *service {
		calls++
		return &service{}
	})

	var wg sync.WaitGroup
	results := make([]*service, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = MustGet[*service](c, "")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestInterfaceBinding(t *testing.T) {
	t.Parallel()

	c := New()
	RegisterFactory[greeter](c, "", func() greeter {
		return englishGreeter{}
	})

	g := MustGet[greeter](c, "")
	assert.Equal(t, "hello", g.Greet())
}

func TestParametrizedFactories(t *testing.T) {
	t.Parallel()

	c := New()
	RegisterFactory1(c, "", func(addr string) config {
		return config{addr: addr}
	})
	RegisterFactory2(c, "two", func(addr string, n int) service {
		return service{cfg: config{addr: addr}, n: n}
	})

	cfg, err := Get1[config](c, "", "remote")
	require.NoError(t, err)
	assert.Equal(t, "remote", cfg.addr)

	svc, err := Get2[service](c, "two", "remote", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, svc.n)

	// A plain lookup cannot supply the parameters.
	_, err = Get[config](c, "")
	assert.ErrorIs(t, err, ErrNeedsParams)

	_, err = Get1[service](c, "two", "remote")
	assert.ErrorIs(t, err, ErrNeedsParams)
}

func TestDeferredResolution(t *testing.T) {
	t.Parallel()

	c := New()
	RegisterDeferred(c, "", func(ctx context.Context) (config, error) {
		return config{addr: "async"}, nil
	})

	// Synchronous lookups refuse deferred providers.
	_, err := Get[config](c, "")
	assert.ErrorIs(t, err, ErrNeedsAsync)

	got, err := GetAsync[config](context.Background(), c, "")
	require.NoError(t, err)
	assert.Equal(t, "async", got.addr)
}

func TestDeferredErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	c := New()
	RegisterDeferred(c, "", func(ctx context.Context) (config, error) {
		return config{}, boom
	})

	_, err := GetAsync[config](context.Background(), c, "")
	assert.ErrorIs(t, err, boom)
}

func TestGetAsyncFallsBackToSyncProviders(t *testing.T) {
	t.Parallel()

	c := New()
	RegisterValue(c, "", config{addr: "plain"})

	got, err := GetAsync[config](context.Background(), c, "")
	require.NoError(t, err)
	assert.Equal(t, "plain", got.addr)
}

func TestMustGetPanicsWhenMissing(t *testing.T) {
	t.Parallel()

	c := New()
	assert.Panics(t, func() {
		MustGet[config](c, "")
	})
}

func TestResetAndLen(t *testing.T) {
	t.Parallel()

	c := New()
	RegisterValue(c, "", config{})
	RegisterValue(c, "x", config{})
	assert.Equal(t, 2, c.Len())
	assert.True(t, Registered[config](c, "x"))

	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.False(t, Registered[config](c, "x"))
}
