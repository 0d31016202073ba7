// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/defi-dashboard/internal/logging"
)

// ToolRegistry is the tool dispatch surface the REST endpoints need
type ToolRegistry interface {
	Tools() []mcp.Tool
	Call(ctx context.Context, request mcp.CallToolRequest) (any, error)
	Usage(ctx context.Context) (map[string]int64, error)
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
	registry   ToolRegistry
	mcpHandler http.Handler
	metrics    http.Handler
	logger     *logging.Logger
	config     *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int // Requests per second per client
	RateLimitBurst  int
}

// NewServer creates a new API server instance.
// mcpHandler serves the tool protocol at /mcp; metricsHandler serves /metrics
// and may be nil.
func NewServer(
	config *ServerConfig,
	registry ToolRegistry,
	mcpHandler http.Handler,
	metricsHandler http.Handler,
	logger *logging.Logger,
) *Server {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	s := &Server{
		router:     mux.NewRouter(),
		registry:   registry,
		mcpHandler: mcpHandler,
		metrics:    metricsHandler,
		logger:     logger,
		config:     config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	s.setupRoutes()

	// Middleware wraps the whole router so that preflight and unmatched
	// requests are logged, rate limited and get CORS headers too.
	// Order matters: the first entry is the outermost.
	s.handler = chain(s.router,
		RequestIDMiddleware(s.logger),
		LoggingMiddleware,
		RecoveryMiddleware,
		CORSMiddleware,
		RateLimitMiddleware(rateLimiter),
	)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(s.config.Host, s.config.Port),
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods("GET")
	}

	// Tool protocol (streamable HTTP). Never compressed: responses may be event streams.
	if s.mcpHandler != nil {
		s.router.Handle("/mcp", s.mcpHandler).Methods("GET", "POST", "DELETE")
		s.router.Handle("/mcp/", s.mcpHandler).Methods("GET", "POST", "DELETE")
	}

	// REST routes
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(CompressionMiddleware)

	api.HandleFunc("/tools", s.handleListTools).Methods("GET")
	api.HandleFunc("/tools/{name}", s.handleCallTool).Methods("POST")
	api.HandleFunc("/usage", s.handleUsage).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "defi-dashboard",
	})
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}

func chain(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}
