// Package server exposes the bubblechart pipeline over HTTP.
//
// Routes:
//
//	GET    /health                  liveness probe
//	GET    /version                 build information
//	GET    /metrics                 Prometheus metrics
//	POST   /render                  intents body -> rendered artifact
//	POST   /layout                  intents body -> layout JSON
//	POST   /simulations             start a force simulation on a new surface
//	GET    /simulations/{id}        simulation status
//	GET    /simulations/{id}/events SSE stream of simulation frames
//	DELETE /simulations/{id}        cancel a simulation
//
// Request bodies are intent documents in JSON, or YAML when the Content-Type
// says so. Layout and render options come from the query string.
package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/bubblechart/pkg/force"
	"github.com/matzehuels/bubblechart/pkg/observability/prom"
	"github.com/matzehuels/bubblechart/pkg/pipeline"
	"github.com/matzehuels/bubblechart/pkg/surface"
)

// MaxBodyBytes limits the size of intent documents accepted by the server.
const MaxBodyBytes = 10 << 20

// DefaultFrameBuffer is the per-subscriber SSE frame buffer.
const DefaultFrameBuffer = 32

// DefaultRetention is how long a finished simulation stays queryable.
const DefaultRetention = 5 * time.Minute

// Server handles HTTP requests. Create one with [New] and serve
// [Server.Handler], or call [Server.ListenAndServe].
type Server struct {
	runner   *pipeline.Runner
	surfaces *surface.Manager
	logger   *log.Logger
	defaults pipeline.Options

	metrics  *prom.Metrics
	gatherer prometheus.Gatherer

	frameInterval time.Duration
	frameBuffer   int
	retention     time.Duration

	mu          sync.Mutex
	simulations map[string]*simulation
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics instruments requests with m and serves g on /metrics.
func WithMetrics(m *prom.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) { s.metrics, s.gatherer = m, g }
}

// WithDefaults sets option defaults applied before query parameters,
// typically from the configuration file.
func WithDefaults(opts pipeline.Options) Option {
	return func(s *Server) { s.defaults = opts }
}

// WithFrameInterval sets the delay between simulation ticks.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Server) { s.frameInterval = d }
}

// WithFrameBuffer sets how many frames each SSE subscriber may lag behind
// before frames are dropped.
func WithFrameBuffer(n int) Option {
	return func(s *Server) { s.frameBuffer = n }
}

// WithRetention sets how long a finished simulation keeps its final event
// before its surface is released. Non-positive values use [DefaultRetention].
func WithRetention(d time.Duration) Option {
	return func(s *Server) { s.retention = d }
}

// New returns a server that runs the pipeline through runner.
// A nil runner uses an uncached runner.
func New(runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		runner:        runner,
		logger:        log.NewWithOptions(io.Discard, log.Options{}),
		frameInterval: force.DefaultInterval,
		frameBuffer:   DefaultFrameBuffer,
		simulations:   make(map[string]*simulation),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.retention <= 0 {
		s.retention = DefaultRetention
	}
	if s.frameBuffer < 1 {
		s.frameBuffer = 1
	}
	s.surfaces = surface.NewManager(s.logger)
	return s
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Handle("/metrics", s.metricsHandler())

	r.Post("/render", s.handleRender)
	r.Post("/layout", s.handleLayout)

	r.Route("/simulations", func(r chi.Router) {
		r.Post("/", s.handleStartSimulation)
		r.Get("/{id}", s.handleSimulationStatus)
		r.Get("/{id}/events", s.handleSimulationEvents)
		r.Delete("/{id}", s.handleStopSimulation)
	})
	return r
}

func (s *Server) metricsHandler() http.Handler {
	if s.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and releases every simulation surface.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return <-shutdownErr
}

// Close cancels every running simulation and drops finished ones.
func (s *Server) Close() {
	s.surfaces.Close()
	s.mu.Lock()
	for _, sim := range s.simulations {
		sim.stopExpiry()
	}
	s.simulations = make(map[string]*simulation)
	s.mu.Unlock()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
