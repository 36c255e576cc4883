package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"module/internal/core"
	"module/internal/prereq"
)

// Server is the HTTP API server fronting a core.JobManager.
type Server struct {
	port       int
	logger     zerolog.Logger
	jobManager *core.JobManager
	echo       *echo.Echo
	httpServer *http.Server

	sseClients   map[chan core.JobUpdateEvent]struct{}
	sseClientsMu sync.Mutex

	prereqService  *prereq.Service
	configProvider func() interface{}
	configUpdater  func(interface{}) error
	startJobFunc   func(ctx context.Context, req StartCopyRequest) (string, error)
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithPrereqService wires the prerequisite-check service into GET /api/prereqs.
func WithPrereqService(svc *prereq.Service) ServerOption {
	return func(s *Server) { s.prereqService = svc }
}

// WithConfigProvider sets the function used by GET /api/config.
func WithConfigProvider(fn func() interface{}) ServerOption {
	return func(s *Server) { s.configProvider = fn }
}

// WithConfigUpdater sets the function used by PUT /api/config.
func WithConfigUpdater(fn func(interface{}) error) ServerOption {
	return func(s *Server) { s.configUpdater = fn }
}

// WithStartJobFunc sets the function that launches a new performer-backed job.
func WithStartJobFunc(fn func(ctx context.Context, req StartCopyRequest) (string, error)) ServerOption {
	return func(s *Server) { s.startJobFunc = fn }
}

// NewServer creates a new API server bound to jobManager.
func NewServer(port int, logger zerolog.Logger, jobManager *core.JobManager, opts ...ServerOption) *Server {
	s := &Server{
		port:       port,
		logger:     logger.With().Str("component", "api").Logger(),
		jobManager: jobManager,
		sseClients: make(map[chan core.JobUpdateEvent]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.CORS())
	s.echo.Use(s.loggingMiddleware)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/api/health", s.handleHealth)

	s.echo.GET("/api/jobs", s.handleJobs)
	s.echo.POST("/api/jobs", s.handleStartJob)
	s.echo.GET("/api/jobs/active", s.handleActiveJob)
	s.echo.GET("/api/jobs/:id", s.handleGetJob)
	s.echo.POST("/api/jobs/:id/cancel", s.handleCancelJob)
	s.echo.POST("/api/jobs/:id/pause", s.handlePauseJob)
	s.echo.POST("/api/jobs/:id/resume", s.handlePauseJob) // TogglePause; a paused job resumes on the second call
	s.echo.POST("/api/jobs/:id/decision", s.handleDecision)

	s.echo.GET("/api/events", s.handleSSE)

	s.echo.GET("/api/prereqs", s.handlePrereqs)
	s.echo.GET("/api/volumes", s.handleVolumes)

	s.echo.GET("/api/config", s.handleGetConfig)
	s.echo.PUT("/api/config", s.handlePutConfig)
}

// Start starts the HTTP server, blocking until it stops or errors.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.echo,
	}
	s.logger.Info().Int("port", s.port).Msg("starting HTTP API server")
	return s.echo.StartServer(s.httpServer)
}

// StartBackground starts the server in a goroutine and shuts it down when
// ctx is cancelled.
func (s *Server) StartBackground(ctx context.Context) {
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP API server error")
		}
	}()

	go func() {
		<-ctx.Done()
		s.logger.Info().Msg("shutting down HTTP API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP API server shutdown error")
		}
	}()
}

func (s *Server) loggingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		s.logger.Debug().
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Dur("took", time.Since(start)).
			Msg("handled request")
		return err
	}
}

// EmitJobUpdate implements core.JobEventEmitter, broadcasting to SSE clients.
func (s *Server) EmitJobUpdate(event core.JobUpdateEvent) {
	s.sseClientsMu.Lock()
	defer s.sseClientsMu.Unlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
			s.logger.Warn().Str("job_id", event.JobID).Msg("SSE client slow, skipping event")
		}
	}
}

func (s *Server) addSSEClient(ch chan core.JobUpdateEvent) {
	s.sseClientsMu.Lock()
	defer s.sseClientsMu.Unlock()
	s.sseClients[ch] = struct{}{}
	s.logger.Debug().Int("clients", len(s.sseClients)).Msg("SSE client connected")
}

func (s *Server) removeSSEClient(ch chan core.JobUpdateEvent) {
	s.sseClientsMu.Lock()
	defer s.sseClientsMu.Unlock()
	delete(s.sseClients, ch)
	close(ch)
	s.logger.Debug().Int("clients", len(s.sseClients)).Msg("SSE client disconnected")
}

func writeJSON(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, APIResponse{Success: true, Data: data})
}

func writeError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, APIResponse{Success: false, Error: &APIError{Code: code, Message: message}})
}
