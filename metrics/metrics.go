// Package metrics exposes Prometheus collectors for the HTTP surface, wizard
// sessions and registrations.
package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "retailer_registration"

type RegistrationResult string

const (
	REGISTRATION_ACCEPTED RegistrationResult = "accepted"
	REGISTRATION_REJECTED RegistrationResult = "rejected"
	REGISTRATION_FAILED   RegistrationResult = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	registrationsTotal *prometheus.CounterVec
	wizardEventsTotal  *prometheus.CounterVec
	uploadedBytes      prometheus.Counter
}

// New builds a registry with process and Go runtime collectors plus the
// service's own. activeSessions is sampled on every scrape; it may be nil.
func New(activeSessions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_inflight_requests",
			Help:      "HTTP requests currently being served.",
		}),
		registrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registrations received by result.",
		}, []string{"result"}),
		wizardEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_events_total",
			Help:      "Wizard events applied to sessions.",
		}, []string{"event"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_document_bytes_total",
			Help:      "Bytes of documents uploaded through the wizard.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpInflight,
		m.registrationsTotal,
		m.wizardEventsTotal,
		m.uploadedBytes,
	)

	if activeSessions != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wizard_sessions_active",
			Help:      "Wizard sessions currently held in memory.",
		}, func() float64 {
			return float64(activeSessions())
		}))
	}

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) RecordRegistration(result RegistrationResult) {
	m.registrationsTotal.WithLabelValues(string(result)).Inc()
}

func (m *Metrics) RecordWizardEvent(event string) {
	m.wizardEventsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordUpload(bytes int64) {
	m.uploadedBytes.Add(float64(bytes))
}

// Middleware counts requests and observes their latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		m.httpInflight.Inc()
		start := time.Now()

		rec := NewResponseRecorder(w)
		defer func() {
			m.httpInflight.Dec()
			m.httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())
			m.httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(rec.Status())).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

// ResponseRecorder remembers the status and body size written through it.
type ResponseRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w}
}

func (r *ResponseRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *ResponseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *ResponseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Status is 200 when nothing has been written yet.
func (r *ResponseRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *ResponseRecorder) Size() int {
	return r.size
}

var uuidSegmentRE = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// normalizePath replaces ids and indexes with ":param" to keep label
// cardinality bounded.
func normalizePath(p string) string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 48 || uuidSegmentRE.MatchString(seg) {
		return true
	}
	_, err := strconv.Atoi(seg)
	return err == nil
}
