package http

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"doodleduel/internal/config"
	"doodleduel/internal/store"
	"doodleduel/internal/transport/ws"
	"doodleduel/internal/upload"
)

// Server is the room store host
type Server struct {
	server   *http.Server
	handler  http.Handler
	store    store.Store
	hub      *ws.Hub
	images   *upload.Disk
	config   *config.Config
	logger   *slog.Logger
	limiters *clientLimiters
}

// NewServer creates a new HTTP server. images may be nil to disable uploads.
func NewServer(cfg *config.Config, st store.Store, hub *ws.Hub, images *upload.Disk, logger *slog.Logger) *Server {
	s := &Server{
		store:    st,
		hub:      hub,
		images:   images,
		config:   cfg,
		logger:   logger,
		limiters: newClientLimiters(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst),
	}

	// Set up routes
	mux := http.NewServeMux()
	s.setupRoutes(mux)
	s.handler = s.middleware(mux)

	s.server = &http.Server{
		Addr:         cfg.GetAddr(),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// API routes
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms/{roomCode}", s.handleGetRoom)
	mux.HandleFunc("PUT /api/rooms/{roomCode}", s.handlePutRoom)
	mux.HandleFunc("DELETE /api/rooms/{roomCode}", s.handleDeleteRoom)
	mux.HandleFunc("POST /api/rooms/{roomCode}/heartbeat", s.handleHeartbeat)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Images
	if s.images != nil {
		mux.HandleFunc("POST /api/uploads", s.handleUpload)
		mux.HandleFunc("GET /uploads/{file}", s.handleImage)
	}

	// WebSocket
	mux.Handle("GET /ws", ws.NewHandler(s.hub, s.store, s.logger))
}

// middleware wraps the handler with logging, CORS and rate limiting
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Add CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-Match")
		w.Header().Set("Access-Control-Expose-Headers", "ETag")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/api/") && !s.limiters.allow(clientIP(r)) {
			s.sendError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		// Polling is chatty: successful reads only show up in development
		if s.config.IsDevelopment() || r.Method != http.MethodGet || wrapped.statusCode >= 400 {
			s.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration", time.Since(start),
			)
		}
	})
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.server.Shutdown(ctx)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker for WebSocket support
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Flush implements http.Flusher
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// clientLimiters hands out one token bucket per client address
type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newClientLimiters(limit rate.Limit, burst int) *clientLimiters {
	return &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (c *clientLimiters) allow(key string) bool {
	if c.limit <= 0 {
		return true
	}
	c.mu.Lock()
	l, ok := c.limiters[key]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.limiters[key] = l
	}
	c.mu.Unlock()
	return l.Allow()
}

// clientIP returns the request's remote host without the port
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
