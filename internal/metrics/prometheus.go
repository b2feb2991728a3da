package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	loads        *prom.CounterVec
	loadDuration prom.Histogram
	cacheHits    prom.Counter
	pages        prom.Counter
	diagnostics  *prom.CounterVec
}

// NewPrometheusRecorder creates the collectors and registers them with reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		loads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "apiref",
			Name:      "model_loads_total",
			Help:      "Doc model loads by result",
		}, []string{"result"}),
		loadDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "apiref",
			Name:      "model_load_duration_seconds",
			Help:      "Time to fetch, parse and index a doc model",
			Buckets:   prom.DefBuckets,
		}),
		cacheHits: prom.NewCounter(prom.CounterOpts{
			Namespace: "apiref",
			Name:      "registry_cache_hits_total",
			Help:      "Site lookups served from the in-memory registry",
		}),
		pages: prom.NewCounter(prom.CounterOpts{
			Namespace: "apiref",
			Name:      "pages_rendered_total",
			Help:      "Pages rendered",
		}),
		diagnostics: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "apiref",
			Name:      "render_diagnostics_total",
			Help:      "Non-fatal render problems by kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(p.loads, p.loadDuration, p.cacheHits, p.pages, p.diagnostics)
	return p
}

func (p *PrometheusRecorder) ObserveModelLoad(result ResultLabel, d time.Duration) {
	p.loads.WithLabelValues(string(result)).Inc()
	p.loadDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCacheHit() {
	p.cacheHits.Inc()
}

func (p *PrometheusRecorder) IncPageRendered() {
	p.pages.Inc()
}

func (p *PrometheusRecorder) IncRenderDiagnostic(kind string) {
	p.diagnostics.WithLabelValues(kind).Inc()
}

// HTTPHandler serves the metrics gathered by g.
func HTTPHandler(g prom.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
