package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	rerrors "github.com/vango-dev/routestate/internal/errors"
	"github.com/vango-dev/routestate/pkg/middleware"
	"github.com/vango-dev/routestate/pkg/router"
	"github.com/vango-dev/routestate/pkg/store"
)

// Server serves the HTTP API for one Router.
type Server struct {
	config   *Config
	router   *router.Router
	store    store.Store
	metrics  *middleware.Metrics
	gatherer prometheus.Gatherer
	tracing  []middleware.OTelOption
	traced   bool

	upgrader websocket.Upgrader
	handler  http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	clients    map[*feedClient]struct{}

	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables the snapshot endpoints.
func WithStore(st store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithMetrics records request and feed metrics in m and serves gatherer
// on Config.MetricsPath. The router should be created with
// router.WithObserver(m) to count imports as well.
func WithMetrics(m *middleware.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithTracing enables OpenTelemetry spans for every request.
func WithTracing(opts ...middleware.OTelOption) Option {
	return func(s *Server) {
		s.traced = true
		s.tracing = opts
	}
}

// New creates a Server for r. A nil config uses DefaultConfig.
func New(r *router.Router, config *Config, opts ...Option) *Server {
	config = config.withDefaults()

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		router: r,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		clients: make(map[*feedClient]struct{}),
		logger:  logger.With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(s.recoverer)
	if s.traced {
		mux.Use(middleware.OpenTelemetry(s.tracing...))
	}
	if s.metrics != nil {
		mux.Use(s.metrics.Handler)
	}

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.gatherer != nil {
		mux.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	mux.Get("/url", s.handleGetURL)
	mux.Put("/url", s.handlePutURL)
	mux.Get("/state", s.handleGetState)
	mux.Put("/state", s.handlePutState)
	mux.Get("/tree", s.handleTree)
	mux.Get("/ws", s.handleWebSocket)

	mux.Route("/snapshots", func(sr chi.Router) {
		sr.Use(s.requireStore)
		sr.Get("/", s.handleListSnapshots)
		sr.Post("/", s.handleCreateSnapshot)
		sr.Put("/{name}", s.handleSaveSnapshot)
		sr.Get("/{name}", s.handleGetSnapshot)
		sr.Delete("/{name}", s.handleDeleteSnapshot)
		sr.Post("/{name}/restore", s.handleRestoreSnapshot)
	})

	return mux
}

// recoverer turns handler panics into a coded 500 response and an error log.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("handler panic",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", chimw.GetReqID(r.Context()))
				writeCoded(w, http.StatusInternalServerError, rerrors.New("R161"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Handler returns the HTTP handler for the API.
//
// Use this to mount the API under another router:
//
//	mux.Mount("/api", srv.Handler())
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.config.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("server starting", "address", ln.Addr().String())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run listens on Config.Address and blocks until SIGINT or SIGTERM, then
// shuts down gracefully.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes websocket clients and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	srv := s.httpServer
	clients := make([]*feedClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the router served by s.
func (s *Server) Router() *router.Router {
	return s.router
}

// Config returns the effective server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}
