package docs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcdickinson/apiref/internal/apimodel"
	"github.com/jcdickinson/apiref/internal/cas"
	"github.com/jcdickinson/apiref/internal/db"
	"github.com/jcdickinson/apiref/internal/docmodel"
	"github.com/jcdickinson/apiref/internal/metrics"
)

// fakeLoader serves doc from memory. When gate is non-nil every Fetch
// blocks until it is closed.
type fakeLoader struct {
	doc   *Document
	err   error
	gate  chan struct{}
	calls atomic.Int32
}

func (f *fakeLoader) Fetch(ctx context.Context, id string) (*Document, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type memCatalog struct {
	mu       sync.Mutex
	packages map[string]db.Package
	symbols  map[string][]db.Symbol
}

func newMemCatalog() *memCatalog {
	return &memCatalog{packages: map[string]db.Package{}, symbols: map[string][]db.Symbol{}}
}

func (c *memCatalog) RecordPackage(_ context.Context, pkg db.Package, symbols []db.Symbol) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packages[pkg.ID] = pkg
	c.symbols[pkg.ID] = symbols
	return nil
}

func (c *memCatalog) GetPackage(_ context.Context, id string) (*db.Package, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pkg, ok := c.packages[id]
	if !ok {
		return nil, nil
	}
	return &pkg, nil
}

func TestRegistry_LoadsAndCaches(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{doc: &Document{Data: calculatorJSON(t)}}
	reg := NewRegistry(loader)

	site, err := reg.Site(context.Background(), "fixtures:calculator")
	require.NoError(t, err)
	assert.Equal(t, "fixtures:calculator", site.ID)
	assert.Equal(t, "@example/calculator", site.Info.Name, "name falls back to the model's package")
	assert.Equal(t, 19, site.Pages.Len())

	again, err := reg.Site(context.Background(), "fixtures:calculator")
	require.NoError(t, err)
	assert.Same(t, site, again)
	assert.EqualValues(t, 1, loader.calls.Load())
	assert.Equal(t, []string{"fixtures:calculator"}, reg.Loaded())
}

func TestRegistry_CoalescesConcurrentLoads(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{doc: &Document{Data: calculatorJSON(t)}, gate: make(chan struct{})}
	reg := NewRegistry(loader)

	const n = 16
	sites := make([]*docmodel.Site, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := reg.Site(context.Background(), "pkg")
			assert.NoError(t, err)
			sites[i] = s
		}()
	}

	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)
	close(loader.gate)
	wg.Wait()

	assert.EqualValues(t, 1, loader.calls.Load())
	for _, s := range sites {
		assert.Same(t, sites[0], s)
	}
}

func TestRegistry_FailuresSharedButNotCached(t *testing.T) {
	t.Parallel()

	boom := errors.New("registry unavailable")
	loader := &fakeLoader{err: boom, gate: make(chan struct{})}
	reg := NewRegistry(loader)

	errs := make(chan error, 4)
	for range 4 {
		go func() {
			_, err := reg.Site(context.Background(), "pkg")
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)
	close(loader.gate)
	for range 4 {
		assert.ErrorIs(t, <-errs, boom)
	}
	assert.EqualValues(t, 1, loader.calls.Load())

	loader.err = nil
	loader.doc = &Document{Data: calculatorJSON(t)}
	site, err := reg.Site(context.Background(), "pkg")
	require.NoError(t, err)
	assert.NotNil(t, site)
	assert.EqualValues(t, 2, loader.calls.Load())
}

func TestRegistry_CancelledWaiterDoesNotCancelLoad(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{doc: &Document{Data: calculatorJSON(t)}, gate: make(chan struct{})}
	reg := NewRegistry(loader)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := reg.Site(ctx, "pkg")
		done <- err
	}()
	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(loader.gate)
	site, err := reg.Site(context.Background(), "pkg")
	require.NoError(t, err)
	assert.NotNil(t, site)
	assert.EqualValues(t, 1, loader.calls.Load())
}

func TestRegistry_MalformedModel(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{doc: &Document{Data: []byte(`{"kind":"Package","name":"p","canonicalReference":"p!","members":[]}`)}}
	_, err := NewRegistry(loader).Site(context.Background(), "p")
	require.ErrorIs(t, err, docmodel.ErrMalformedModel)
}

func TestRegistry_ForgetAndClear(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{doc: &Document{Data: calculatorJSON(t)}}
	reg := NewRegistry(loader)

	_, err := reg.Site(context.Background(), "a")
	require.NoError(t, err)
	_, err = reg.Site(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, reg.Loaded())

	reg.Forget("a")
	assert.Equal(t, []string{"b"}, reg.Loaded())
	_, err = reg.Site(context.Background(), "a")
	require.NoError(t, err)
	assert.EqualValues(t, 3, loader.calls.Load())

	reg.Clear()
	assert.Empty(t, reg.Loaded())
}

func TestRegistry_ClearDuringLoadDiscardsResult(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{doc: &Document{Data: calculatorJSON(t)}, gate: make(chan struct{})}
	catalog := newMemCatalog()
	reg := NewRegistry(loader, WithCatalog(catalog))

	done := make(chan *docmodel.Site, 1)
	go func() {
		site, err := reg.Site(context.Background(), "calc")
		assert.NoError(t, err)
		done <- site
	}()

	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)
	reg.Clear()
	close(loader.gate)

	site := <-done
	require.NotNil(t, site, "the waiter still gets the loaded site")
	assert.Empty(t, reg.Loaded())
	pkg, err := catalog.GetPackage(context.Background(), "calc")
	require.NoError(t, err)
	assert.Nil(t, pkg, "nothing is recorded after the clear")

	again, err := reg.Site(context.Background(), "calc")
	require.NoError(t, err)
	assert.NotSame(t, site, again)
	assert.EqualValues(t, 2, loader.calls.Load())
	assert.Equal(t, []string{"calc"}, reg.Loaded())
}

func TestRegistry_ForgetDuringLoadKeepsOtherLoads(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{doc: &Document{Data: calculatorJSON(t)}, gate: make(chan struct{})}
	reg := NewRegistry(loader)

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Site(context.Background(), id)
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return loader.calls.Load() == 2 }, time.Second, time.Millisecond)
	reg.Forget("a")
	close(loader.gate)
	wg.Wait()

	assert.Equal(t, []string{"b"}, reg.Loaded())
}

func TestRegistry_RecordsAndFallsBackOffline(t *testing.T) {
	t.Parallel()

	store := cas.New(t.TempDir())
	catalog := newMemCatalog()
	info := apimodel.PackageInfo{Name: "@example/calculator", Version: "1.0.0", Homepage: "https://example.com"}
	loader := &fakeLoader{doc: &Document{Data: calculatorJSON(t), Info: info}}

	reg := NewRegistry(loader, WithStore(store), WithCatalog(catalog))
	site, err := reg.Site(context.Background(), "calc")
	require.NoError(t, err)

	pkg, _ := catalog.GetPackage(context.Background(), "calc")
	require.NotNil(t, pkg)
	assert.Equal(t, "1.0.0", pkg.Version)
	assert.Equal(t, 19, pkg.Pages)
	assert.True(t, store.Has(pkg.ContentHash))
	assert.Len(t, catalog.symbols["calc"], len(site.Symbols()))

	// A fresh registry with a failing upstream serves the stored copy.
	loader.err = errors.New("connection refused")
	offline := NewRegistry(loader, WithStore(store), WithCatalog(catalog))
	site, err = offline.Site(context.Background(), "calc")
	require.NoError(t, err)
	assert.Equal(t, info, site.Info)

	// Not-found is authoritative.
	loader.err = ErrPackageNotFound
	_, err = NewRegistry(loader, WithStore(store), WithCatalog(catalog)).Site(context.Background(), "calc")
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestRegistry_Metrics(t *testing.T) {
	t.Parallel()

	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	loader := &fakeLoader{doc: &Document{Data: calculatorJSON(t)}}
	r := NewRegistry(loader, WithMetrics(rec))
	_, err := r.Site(context.Background(), "x")
	require.NoError(t, err)
	_, err = r.Site(context.Background(), "x")
	require.NoError(t, err)

	missing := NewRegistry(&fakeLoader{err: ErrPackageNotFound}, WithMetrics(rec))
	_, err = missing.Site(context.Background(), "y")
	require.Error(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	loads := map[string]float64{}
	var hits float64
	for _, mf := range mfs {
		switch mf.GetName() {
		case "apiref_model_loads_total":
			for _, m := range mf.GetMetric() {
				loads[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
			}
		case "apiref_registry_cache_hits_total":
			hits = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{"success": 1, "not_found": 1}, loads)
	assert.Equal(t, float64(1), hits)
}
