package diag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"quantum-social/internal/store"
)

// StatsSource is the slice of the store the server reports on.
type StatsSource interface {
	Stats() store.Stats
}

// Options configures a Server.
type Options struct {
	Addr     string
	Stats    StatsSource
	Registry *prometheus.Registry
	// Dropped reports journal events lost to back-pressure. Optional.
	Dropped func() uint64
	Logger  *zap.Logger
}

// Server exposes health, store statistics and Prometheus metrics over HTTP.
type Server struct {
	addr     string
	stats    StatsSource
	registry *prometheus.Registry
	dropped  func() uint64
	log      *zap.Logger
	requests *prometheus.CounterVec
	started  time.Time
	srv      *http.Server
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quantum",
		Subsystem: "diag",
		Name:      "requests_total",
		Help:      "Diagnostics HTTP requests by route and status.",
	}, []string{"route", "status"})
	if err := reg.Register(requests); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			requests = already.ExistingCollector.(*prometheus.CounterVec)
		} else {
			logger.Warn("register diag metrics", zap.Error(err))
		}
	}
	s := &Server{
		addr:     opts.Addr,
		stats:    opts.Stats,
		registry: reg,
		dropped:  opts.Dropped,
		log:      logger,
		requests: requests,
		started:  time.Now(),
	}
	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           httplog.RequestLogger(httplog.NewLogger("diag", httplog.Options{JSON: true}))(s.Router()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router wires up chi routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.loggingMiddleware())

	r.Get("/healthz", s.healthHandler())
	r.Get("/stats", s.statsHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("diagnostics listening", zap.String("addr", s.addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("diagnostics server: %w", err)
	}
	return nil
}

type healthPayload struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, healthPayload{
			Status: "ok",
			Uptime: time.Since(s.started).Truncate(time.Second).String(),
		})
	}
}

type statsPayload struct {
	store.Stats
	JournalDropped *uint64 `json:"journal_dropped,omitempty"`
}

func (s *Server) statsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.stats == nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		payload := statsPayload{Stats: s.stats.Stats()}
		if s.dropped != nil {
			n := s.dropped()
			payload.JournalDropped = &n
		}
		s.writeJSON(w, http.StatusOK, payload)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("json write", zap.Error(err))
	}
}
