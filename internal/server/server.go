// Package server exposes validation over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/reoring/ocppskema"
	"github.com/reoring/ocppskema/internal/config"
	"github.com/reoring/ocppskema/internal/metrics"
	"github.com/reoring/ocppskema/middleware"
	"github.com/reoring/ocppskema/schema"
)

// Options wires a Server.
type Options struct {
	Catalog  *schema.Catalog
	Parse    ocppskema.ParseOpt
	Mode     ocppskema.Mode
	MaxBody  int64
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // served on /metrics; nil means the default gatherer
	Logger   zerolog.Logger
}

// Server holds the handlers of the validation API.
type Server struct {
	opts Options
}

// New returns a server. Zero MaxBody means 1 MiB; a zero parse depth means
// ocppskema.DefaultMaxDepth.
func New(opts Options) *Server {
	if opts.Parse.MaxDepth == 0 {
		opts.Parse.MaxDepth = ocppskema.DefaultMaxDepth
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = 1 << 20
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{opts: opts}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/health", s.health)
	r.Get("/types", s.listTypes)
	r.Get("/types/{type}/schema", s.exportSchema)
	r.With(middleware.Decode(middleware.Options{
		Registry:       s.opts.Catalog,
		Type:           typeParam,
		Parse:          s.opts.Parse,
		MaxBody:        s.opts.MaxBody,
		OnParseFailure: s.observeParseFailure,
	})).Post("/validate/{type}", s.validate)
	r.Post("/frames", s.frame)
	return r
}

// Run serves h until ctx is canceled, then shuts down gracefully. The
// returned channel receives the terminal error, ctx.Err() after a clean
// shutdown.
func Run(ctx context.Context, cfg config.HTTP, h http.Handler, log zerolog.Logger) <-chan error {
	errCh := make(chan error, 1)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	shutdown := cfg.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = 5 * time.Second
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdown)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errCh <- err
			return
		}
		errCh <- ctx.Err()
	}()

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return errCh
}

func typeParam(r *http.Request) string { return chi.URLParam(r, "type") }

func (s *Server) observeParseFailure(_ *http.Request, err error) {
	s.opts.Metrics.ObserveParseFailure(transport, err)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		if m := s.opts.Metrics; m != nil {
			m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		}

		event := s.opts.Logger.Info()
		switch {
		case status >= 500:
			event = s.opts.Logger.Error()
		case status >= 400:
			event = s.opts.Logger.Warn()
		}
		event.
			Str("request_id", GetRequestID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", elapsed).
			Int("bytes", ww.BytesWritten()).
			Msg("http_request")
	})
}
