// Package ctlapi exposes the daemon's local HTTP control surface: link
// creation and teardown, friendly-name updates and peer listing. It is a
// thin JSON layer over the core link manager.
package ctlapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wfdlabs/castd/core"
	"github.com/wfdlabs/castd/internal/logging"
	"github.com/wfdlabs/castd/internal/observability"
)

// Server serves the control API for one link manager.
type Server struct {
	mgr     *core.Manager
	log     logging.Logger
	metrics *observability.Collector
	tracer  trace.Tracer
}

// NewServer builds a control API server. metrics may be nil.
func NewServer(mgr *core.Manager, log logging.Logger, metrics *observability.Collector) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{
		mgr:     mgr,
		log:     log,
		metrics: metrics,
		tracer:  otel.Tracer("castd/ctlapi"),
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.middleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/links", s.handleListLinks).Methods(http.MethodGet)
	r.HandleFunc("/v1/links", s.handleCreateLink).Methods(http.MethodPost)
	r.HandleFunc("/v1/links/{name}", s.handleDestroyLink).Methods(http.MethodDelete)
	r.HandleFunc("/v1/links/{name}/name", s.handleSetFriendlyName).Methods(http.MethodPut)
	r.HandleFunc("/v1/links/{name}/peers", s.handleListPeers).Methods(http.MethodGet)
	return r
}

// statusRecorder captures the status code written by a handler so the
// middleware can log and count it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// middleware annotates each request with a request-scoped logger, a span
// and request metrics.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		ctx, log := logging.WithRequestLogger(r.Context(), s.log)
		ctx, span := s.tracer.Start(ctx, r.Method+" "+route,
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
			))
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))
		elapsed := time.Since(start)

		span.SetAttributes(attribute.Int("http.status_code", rec.status))
		if s.metrics != nil {
			s.metrics.ObserveAPIRequest(r.Method, route, rec.status, elapsed)
		}
		log.Info(ctx, "api request",
			logging.String("method", r.Method),
			logging.String("route", route),
			logging.Int("status", rec.status),
			logging.String("elapsed", elapsed.String()))
	})
}
