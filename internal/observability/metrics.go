package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the daemon's Prometheus metrics: registry gauges driven
// by the link manager and request metrics for the control API.
type Collector struct {
	gatherer prometheus.Gatherer

	ManagedLinks prometheus.Gauge
	ManagedPeers prometheus.Gauge
	LinkEvents   *prometheus.CounterVec

	APIRequests  *prometheus.CounterVec
	APIDurations *prometheus.HistogramVec
}

// NewCollector registers the daemon metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	links, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "castd_managed_links",
		Help: "Current number of registered links.",
	}), "castd_managed_links")
	if err != nil {
		return nil, err
	}
	peers, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "castd_managed_peers",
		Help: "Current number of peers across all links.",
	}), "castd_managed_peers")
	if err != nil {
		return nil, err
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "castd_link_events_total",
		Help: "Total transport events routed, labeled by event kind.",
	}, []string{"event"})
	events, err = registerCounterVec(reg, events, "castd_link_events_total")
	if err != nil {
		return nil, err
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "castd_api_requests_total",
		Help: "Total handled control API requests, labeled by method, route, and status code.",
	}, []string{"method", "route", "code"})
	requests, err = registerCounterVec(reg, requests, "castd_api_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "castd_api_request_duration_seconds",
		Help:    "Control API request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method", "route"})
	durations, err = registerHistogramVec(reg, durations, "castd_api_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:     gatherer,
		ManagedLinks: links,
		ManagedPeers: peers,
		LinkEvents:   events,
		APIRequests:  requests,
		APIDurations: durations,
	}, nil
}

// SetManagedCounts satisfies the manager's MetricsRecorder interface so the
// registry can drive gauge values directly from its mutators.
func (c *Collector) SetManagedCounts(links, peers int) {
	if c == nil {
		return
	}
	if c.ManagedLinks != nil {
		c.ManagedLinks.Set(float64(links))
	}
	if c.ManagedPeers != nil {
		c.ManagedPeers.Set(float64(peers))
	}
}

// ObserveLinkEvent counts one routed transport event.
func (c *Collector) ObserveLinkEvent(event string) {
	if c == nil || c.LinkEvents == nil {
		return
	}
	c.LinkEvents.WithLabelValues(event).Inc()
}

// ObserveAPIRequest records one handled control API request.
func (c *Collector) ObserveAPIRequest(method, route string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.APIRequests != nil {
		c.APIRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	}
	if c.APIDurations != nil {
		c.APIDurations.WithLabelValues(method, route).Observe(elapsed.Seconds())
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
