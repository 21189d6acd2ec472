package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// appScheme is the mobile deep-link scheme the callback bounce
	// page redirects to, e.g. "engage://".
	appScheme string

	// Services
	authService       driving.AuthService
	oauthService      driving.OAuthService
	syncService       driving.SyncService
	connectionService driving.ConnectionService

	// Infrastructure
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host      string
	Port      int
	Version   string
	AppScheme string

	// AllowedOrigins for CORS. Defaults to "*".
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AppScheme:      "engage://",
		AllowedOrigins: []string{"*"},
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	oauthService driving.OAuthService,
	syncService driving.SyncService,
	connectionService driving.ConnectionService,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	s := &Server{
		router:            http.NewServeMux(),
		version:           cfg.Version,
		appScheme:         cfg.AppScheme,
		authService:       authService,
		oauthService:      oauthService,
		syncService:       syncService,
		connectionService: connectionService,
		db:                db,
		redisClient:       redisClient,
	}

	s.setupRoutes()

	middleware := withRecovery(
		withCORS(cfg.AllowedOrigins)(
			withLogging(s.router)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      middleware,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes. The connect endpoints keep
// the one-route-per-platform shape the mobile clients already call.
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Auth endpoints
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.router.Handle("POST /api/v1/auth/logout",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleLogout)))

	// OAuth connect endpoints (authenticated)
	s.router.Handle("POST /instagram-auth",
		authMiddleware.Authenticate(s.handleAuthorize(domain.PlatformInstagram)))
	s.router.Handle("POST /tiktok-auth",
		authMiddleware.Authenticate(s.handleAuthorize(domain.PlatformTikTok)))

	// Provider redirects land here unauthenticated: the CSRF state is
	// the only credential. The TikTok POST variant serves clients that
	// intercepted the redirect themselves.
	s.router.HandleFunc("GET /instagram-callback", s.handleCallbackPage(domain.PlatformInstagram))
	s.router.HandleFunc("GET /tiktok-callback", s.handleCallbackPage(domain.PlatformTikTok))
	s.router.HandleFunc("POST /tiktok-callback", s.handleCallbackPost(domain.PlatformTikTok))

	// Sync endpoints (authenticated)
	s.router.Handle("POST /instagram-sync",
		authMiddleware.Authenticate(s.handleSync(domain.PlatformInstagram)))
	s.router.Handle("POST /tiktok-sync",
		authMiddleware.Authenticate(s.handleSync(domain.PlatformTikTok)))

	// Connection management (authenticated)
	s.router.Handle("GET /api/v1/connections",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListConnections)))
	s.router.Handle("POST /social-disconnect",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDisconnect)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
