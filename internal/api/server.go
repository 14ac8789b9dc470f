// Package api serves build orders, classpaths and cycle reports over HTTP.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/buildorder/pkg/diagnose"
	"github.com/matzehuels/buildorder/pkg/errors"
	bio "github.com/matzehuels/buildorder/pkg/io"
	"github.com/matzehuels/buildorder/pkg/observability"
	"github.com/matzehuels/buildorder/pkg/pipeline"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 4 << 20

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Config configures a Server.
type Config struct {
	Runner       *pipeline.Runner
	Logger       *log.Logger
	Hooks        observability.APIHooks
	Gatherer     prometheus.Gatherer // Served on /metrics; nil disables the route
	BaseDir      string              // Resolves relative bundle locations
	MaxBodyBytes int64
}

// Server is the HTTP front end of a pipeline runner.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	hooks   observability.APIHooks
	metrics http.Handler
	baseDir string
	maxBody int64
}

// New creates a server. Runner is required.
func New(cfg Config) *Server {
	s := &Server{
		runner:  cfg.Runner,
		logger:  cfg.Logger,
		hooks:   cfg.Hooks,
		baseDir: cfg.BaseDir,
		maxBody: cfg.MaxBodyBytes,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.hooks == nil {
		s.hooks = observability.API()
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	if cfg.Gatherer != nil {
		s.metrics = promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/order", s.order)
		r.Post("/classpath", s.classpath)
		r.Post("/cycles", s.cycles)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	s.logger.Info("listening", "addr", addr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type ctxKey struct{}

// requestID assigns a UUID to every request unless the client sent a
// valid one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestID returns the id assigned to the request of ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		s.hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request",
			"id", RequestID(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// OrderResponse is the body of a successful /v1/order call.
type OrderResponse struct {
	RequestID string `json:"request_id"`
	bio.OrderReport
	CacheHit bool `json:"cache_hit"`
}

// ClasspathResponse is the body of a successful /v1/classpath call.
type ClasspathResponse struct {
	RequestID  string                `json:"request_id"`
	Platform   string                `json:"platform"`
	Classpaths []bio.ClasspathReport `json:"classpaths"`
	CacheHit   bool                  `json:"cache_hit"`
}

// CyclesResponse is the body of a successful /v1/cycles call.
type CyclesResponse struct {
	RequestID string     `json:"request_id"`
	Kinds     []string   `json:"kinds"`
	Cycles    [][]string `json:"cycles"`
	CacheHit  bool       `json:"cache_hit"`
}

// ErrorResponse is the body of every failed call.
type ErrorResponse struct {
	RequestID string               `json:"request_id"`
	Error     diagnose.Explanation `json:"error"`
}

func (s *Server) order(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decode(w, r)
	if !ok {
		return
	}
	res, err := s.runner.Order(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderResponse{
		RequestID:   RequestID(r.Context()),
		OrderReport: res.Report,
		CacheHit:    res.CacheInfo.Hit,
	})
}

func (s *Server) classpath(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decode(w, r)
	if !ok {
		return
	}
	res, err := s.runner.Classpath(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ClasspathResponse{
		RequestID:  RequestID(r.Context()),
		Platform:   res.Platform,
		Classpaths: res.Classpaths,
		CacheHit:   res.CacheInfo.Hit,
	})
}

func (s *Server) cycles(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decode(w, r)
	if !ok {
		return
	}
	res, err := s.runner.Cycles(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cycles := res.Cycles
	if cycles == nil {
		cycles = [][]string{}
	}
	writeJSON(w, http.StatusOK, CyclesResponse{
		RequestID: RequestID(r.Context()),
		Kinds:     res.Kinds,
		Cycles:    cycles,
		CacheHit:  res.CacheInfo.Hit,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (pipeline.Options, bool) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return opts, false
	}
	if opts.Source == "" {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "workspace is required"))
		return opts, false
	}
	opts.Dir = s.baseDir
	return opts, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ex diagnose.Explanation
	var f *pipeline.Failure
	if stderrors.As(err, &f) {
		ex = f.Explanation
	} else {
		ex = diagnose.Explain(nil, err)
	}
	status := statusOf(ex.Code)
	if status >= 500 {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "error", err)
		ex.Message = "internal error"
	}
	writeJSON(w, status, ErrorResponse{RequestID: RequestID(r.Context()), Error: ex})
}

func statusOf(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidWorkspace,
		errors.ErrCodeInvalidVersion, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeUnknownNode, errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnresolvedDependency, errors.ErrCodeAmbiguousProvider,
		errors.ErrCodeCycleDetected, errors.ErrCodeNoTargetPlatform:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
