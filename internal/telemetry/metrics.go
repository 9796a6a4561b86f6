package telemetry

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/TimurManjosov/goprofiles/internal/profile"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	SSEClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sse_clients",
		Help: "Number of currently connected SSE clients",
	})

	resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_resolutions_total",
			Help: "Profile resolutions by tier and winning profile",
		},
		[]string{"tier", "profile", "fallback"},
	)
	registryProviders = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "profile_registry_providers",
			Help: "Number of registered providers per tier, defaults included",
		},
		[]string{"tier"},
	)
	RegistryReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_registry_reloads_total",
			Help: "Registry rebuilds by trigger and outcome",
		},
		[]string{"trigger", "result"},
	)

	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Webhook delivery attempts by event and outcome",
		},
		[]string{"event", "result"},
	)

	initOnce sync.Once
)

// Init registers all collectors with the default registry. It is safe to call
// more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpReqs, httpDur, SSEClients, resolutions, registryProviders, RegistryReloads, WebhookDeliveries)
	})
}

// ResolutionObserver counts resolutions. It satisfies profile.Observer.
type ResolutionObserver struct{}

func (ResolutionObserver) ObserveResolution(tier profile.Tier, profileID string, fallback bool) {
	resolutions.WithLabelValues(string(tier), profileID, strconv.FormatBool(fallback)).Inc()
}

// SetRegistryProviders records how many providers each tier has.
func SetRegistryProviders(infos []profile.Info) {
	counts := make(map[profile.Tier]int, len(profile.Tiers))
	for _, t := range profile.Tiers {
		counts[t] = 0
	}
	for _, i := range infos {
		counts[i.Tier]++
	}
	for tier, n := range counts {
		registryProviders.WithLabelValues(string(tier)).Set(float64(n))
	}
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		// the route pattern is only known after routing
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		httpReqs.WithLabelValues(route, r.Method, strconv.Itoa(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
