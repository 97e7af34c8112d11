package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"internship-router/internal/cache"
	"internship-router/internal/config"
	"internship-router/internal/distance"
	"internship-router/internal/engine"
	"internship-router/internal/geocoding"
	"internship-router/internal/handlers"
	"internship-router/internal/metrics"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	store      cache.Store
	listener   net.Listener
	addr       string
}

// New creates and initializes a new server (does not start it)
func New(cfg *config.Config) (*Server, error) {
	log.Printf("Initializing cache store: driver=%s", cfg.StoreDriver)
	store, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache store: %w", err)
	}

	ban := geocoding.NewBANProvider(cfg.BANBaseURL, cfg.UserAgent)
	nominatim := geocoding.NewNominatimProvider(cfg.NominatimBaseURL, cfg.UserAgent)
	provider := geocoding.NewCompositeProvider(ban, nominatim)

	resolver := geocoding.NewResolver(provider, store.Geocode(), geocoding.ResolverOptions{
		AttemptDelay: time.Duration(cfg.GeocodeAttemptDelayMS) * time.Millisecond,
	})

	calculator := distance.NewOSRMCalculator(cfg.OSRMBaseURL, store.Routes())
	eng := engine.New(resolver, calculator, cfg.Solver)

	handler := &handlers.Handler{
		Engine:   eng,
		Resolver: resolver,
		Store:    store,
	}

	mux := setupRoutes(handler)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      observeMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		store:      store,
		addr:       cfg.Addr,
	}, nil
}

// newStore builds the cache backend selected by the configured driver.
// Config validation has already checked the driver-specific fields.
func newStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		return cache.NewMemoryStore(), nil
	case "file":
		return cache.NewFileStore(cfg.StorePath)
	case "sqlite":
		return cache.NewSQLiteStore(cfg.StorePath)
	case "postgres":
		return cache.NewPostgresStore(cfg.PostgresURL)
	case "redis":
		return cache.NewRedisStore(cfg.RedisAddr)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	log.Printf("Starting server on %s", actualAddr)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return s.store.Close()
}

// setupRoutes configures all HTTP routes
func setupRoutes(handler *handlers.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleHealthCheck(w, r)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("/api/v1/geocode", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleGeocode(w, r)
	})

	mux.HandleFunc("/api/v1/assignments", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleComputeAssignments(w, r)
	})

	mux.HandleFunc("/api/v1/cache/geocode", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleListGeocodeCache(w, r)
	})

	mux.HandleFunc("/api/v1/cache/geocode/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/cache/geocode/" {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}

		switch r.Method {
		case http.MethodDelete:
			handler.HandleDeleteGeocodeCacheEntry(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	return mux
}

// observeMiddleware logs each request and records the HTTP metrics
func observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		endpoint := normalizePath(r.URL.Path)
		metrics.RecordHTTPRequest(endpoint, r.Method, strconv.Itoa(sw.status))
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, duration.Seconds())
		log.Printf("[HTTP] %s %s %d %dB %v", r.Method, r.URL.Path, sw.status, sw.bytes, duration)
	})
}

// normalizePath collapses per-entry paths so the metric labels stay bounded
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/api/v1/cache/geocode/") && path != "/api/v1/cache/geocode/" {
		return "/api/v1/cache/geocode/:hash"
	}
	return path
}

// statusWriter captures the final status code and number of bytes written
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
