package docs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jcdickinson/apiref/internal/apimodel"
	"github.com/jcdickinson/apiref/internal/cas"
	"github.com/jcdickinson/apiref/internal/db"
	"github.com/jcdickinson/apiref/internal/docmodel"
	"github.com/jcdickinson/apiref/internal/metrics"
)

// Catalog records built packages and answers lookups for the offline
// fallback. *db.DB implements it.
type Catalog interface {
	RecordPackage(ctx context.Context, pkg db.Package, symbols []db.Symbol) error
	GetPackage(ctx context.Context, id string) (*db.Package, error)
}

// Registry hands out one docmodel.Site per package identifier. Concurrent
// first requests for the same identifier share a single load; successful
// loads are kept until Forget or Clear, failures are returned to every
// waiter of that load and then forgotten.
type Registry struct {
	loader  Loader
	store   *cas.Store
	catalog Catalog
	logger  *zap.Logger
	metrics metrics.Recorder

	group singleflight.Group

	// commitMu serialises committing a load against Forget and Clear, so an
	// eviction never races with a load writing the site or the catalogue.
	commitMu sync.Mutex
	mu       sync.RWMutex
	sites    map[string]*docmodel.Site
	inflight map[string]uint64
	seq      uint64
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStore persists fetched doc models so they can be served offline.
func WithStore(s *cas.Store) RegistryOption {
	return func(r *Registry) { r.store = s }
}

// WithCatalog records every built package and its symbols.
func WithCatalog(c Catalog) RegistryOption {
	return func(r *Registry) { r.catalog = c }
}

func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

func WithMetrics(m metrics.Recorder) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

func NewRegistry(loader Loader, opts ...RegistryOption) *Registry {
	r := &Registry{
		loader:  loader,
		logger:  zap.NewNop(),
		metrics: metrics.NoopRecorder{},
		sites:    make(map[string]*docmodel.Site),
		inflight: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Site returns the site for id, loading it on first use. Cancelling ctx
// abandons the wait but not the load, which other callers may share.
func (r *Registry) Site(ctx context.Context, id string) (*docmodel.Site, error) {
	if site := r.cached(id); site != nil {
		r.metrics.IncCacheHit()
		return site, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan(id, func() (any, error) {
		if site := r.cached(id); site != nil {
			return site, nil
		}
		token := r.begin(id)
		defer r.end(id, token)
		return r.load(detached, id, token)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*docmodel.Site), nil
	}
}

func (r *Registry) cached(id string) *docmodel.Site {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sites[id]
}

// begin records a load of id in flight and returns its token.
func (r *Registry) begin(id string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.inflight[id] = r.seq
	return r.seq
}

func (r *Registry) end(id string, token uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight[id] == token {
		delete(r.inflight, id)
	}
}

// live reports whether the load holding token has not been evicted.
func (r *Registry) live(id string, token uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.inflight[id] == token
}

// load builds the site for id. The result is only kept and recorded while
// the load is live; callers still receive it after a Forget or Clear.
func (r *Registry) load(ctx context.Context, id string, token uint64) (*docmodel.Site, error) {
	start := time.Now()
	log := r.logger.With(zap.String("package", id))

	doc, offline, err := r.fetch(ctx, id)
	if err != nil {
		result := metrics.ResultFailed
		if errors.Is(err, ErrPackageNotFound) {
			result = metrics.ResultNotFound
		}
		r.metrics.ObserveModelLoad(result, time.Since(start))
		log.Warn("loading doc model failed", zap.Error(err))
		return nil, err
	}

	model, err := apimodel.Parse(doc.Data)
	if err != nil {
		r.metrics.ObserveModelLoad(metrics.ResultFailed, time.Since(start))
		return nil, fmt.Errorf("parsing doc model for %s: %w", id, err)
	}
	info := doc.Info
	if info.Name == "" {
		info.Name = model.Package.Name
	}

	site, err := docmodel.NewSite(id, model, info)
	if err != nil {
		r.metrics.ObserveModelLoad(metrics.ResultFailed, time.Since(start))
		return nil, err
	}

	if !r.commit(ctx, token, site, doc.Data, offline, log) {
		log.Info("discarding doc model evicted while loading")
	}

	result := metrics.ResultSuccess
	if offline {
		result = metrics.ResultOffline
	}
	r.metrics.ObserveModelLoad(result, time.Since(start))
	log.Info("doc model loaded",
		zap.String("name", info.Name),
		zap.String("version", info.Version),
		zap.Int("pages", site.Pages.Len()),
		zap.Bool("offline", offline),
		zap.Duration("elapsed", time.Since(start)),
	)
	return site, nil
}

// fetch asks the loader first. On a transport or server failure it falls
// back to the last copy recorded in the catalogue; a definite not-found is
// never masked.
func (r *Registry) fetch(ctx context.Context, id string) (*Document, bool, error) {
	doc, err := r.loader.Fetch(ctx, id)
	if err == nil {
		return doc, false, nil
	}
	if errors.Is(err, ErrPackageNotFound) || r.store == nil || r.catalog == nil {
		return nil, false, err
	}

	pkg, lerr := r.catalog.GetPackage(ctx, id)
	if lerr != nil || pkg == nil {
		return nil, false, err
	}
	data, rerr := r.store.Read(pkg.ContentHash)
	if rerr != nil {
		return nil, false, err
	}
	r.logger.Warn("serving cached doc model", zap.String("package", id), zap.Error(err))
	return &Document{
		Data: data,
		Info: apimodel.PackageInfo{Name: pkg.Name, Version: pkg.Version, Homepage: pkg.Homepage},
	}, true, nil
}

func (r *Registry) commit(ctx context.Context, token uint64, site *docmodel.Site, data []byte, offline bool, log *zap.Logger) bool {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	if !r.live(site.ID, token) {
		return false
	}

	r.persist(ctx, site, data, offline, log)

	r.mu.Lock()
	r.sites[site.ID] = site
	r.mu.Unlock()
	return true
}

func (r *Registry) persist(ctx context.Context, site *docmodel.Site, data []byte, offline bool, log *zap.Logger) {
	hash := cas.Hash(data)
	if r.store != nil && !offline {
		if _, err := r.store.Write(data); err != nil {
			log.Warn("caching doc model failed", zap.Error(err))
		}
	}
	if r.catalog == nil {
		return
	}

	var symbols []db.Symbol
	for _, s := range site.Symbols() {
		symbols = append(symbols, db.Symbol{
			CanonicalReference: s.CanonicalReference,
			Route:              s.Route,
			Title:              s.Title,
			Kind:               s.Kind.String(),
		})
	}
	pkg := db.Package{
		ID:          site.ID,
		Name:        site.Info.Name,
		Version:     site.Info.Version,
		Homepage:    site.Info.Homepage,
		ContentHash: hash,
		Pages:       site.Pages.Len(),
	}
	if err := r.catalog.RecordPackage(ctx, pkg, symbols); err != nil {
		log.Warn("recording package failed", zap.Error(err))
	}
}

// Loaded returns the identifiers currently held, sorted.
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sites))
	for id := range r.sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Forget evicts id so the next request reloads it. A load of id already
// in flight still answers its waiters but is not kept.
func (r *Registry) Forget(id string) {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	r.mu.Lock()
	delete(r.sites, id)
	delete(r.inflight, id)
	r.mu.Unlock()
	r.group.Forget(id)
}

// Clear evicts every site and detaches every load in flight. Once it
// returns, no earlier load writes to the sites or the catalogue.
func (r *Registry) Clear() {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	r.mu.Lock()
	r.sites = make(map[string]*docmodel.Site)
	inflight := r.inflight
	r.inflight = make(map[string]uint64)
	r.mu.Unlock()

	for id := range inflight {
		r.group.Forget(id)
	}
}
