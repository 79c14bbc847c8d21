package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/resumetailor/internal/analysis"
	"github.com/resumetailor/internal/documents"
	"github.com/resumetailor/internal/export"
	"github.com/resumetailor/internal/review"
	"github.com/resumetailor/internal/storage"
)

// JobFetcher pulls a job description from a posting URL
type JobFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// SecretChecker rejects documents that carry credentials
type SecretChecker interface {
	Check(text string) error
}

// Deps are the collaborators the API is built from
type Deps struct {
	Analyzer  analysis.Provider
	Documents *documents.Store
	Exporter  *export.Exporter
	Store     storage.Store
	Jobs      JobFetcher
	Secrets   SecretChecker
	Sessions  *review.Registry
	Flights   *review.Flight
}

// Server represents the API server
type Server struct {
	echo *echo.Echo
	port int

	analyzer  analysis.Provider
	documents *documents.Store
	exporter  *export.Exporter
	store     storage.Store
	jobs      JobFetcher
	secrets   SecretChecker
	sessions  *review.Registry
	flights   *review.Flight

	docOnce sync.Once
	doc     *openapi3.T
}

// NewServer creates a new API server
func NewServer(port int, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("10M"))

	if deps.Sessions == nil {
		deps.Sessions = review.NewRegistry(0)
	}
	if deps.Flights == nil {
		deps.Flights = review.NewFlight()
	}

	server := &Server{
		echo:      e,
		port:      port,
		analyzer:  deps.Analyzer,
		documents: deps.Documents,
		exporter:  deps.Exporter,
		store:     deps.Store,
		jobs:      deps.Jobs,
		secrets:   deps.Secrets,
		sessions:  deps.Sessions,
		flights:   deps.Flights,
	}

	server.setupRoutes()

	return server
}

// route is one endpoint. The same table drives routing and the OpenAPI document.
type route struct {
	method  string
	path    string
	name    string
	summary string
	status  int
	handler echo.HandlerFunc
}

func (s *Server) routes() []route {
	return []route{
		{http.MethodGet, "/health", "health", "Liveness and live session count", http.StatusOK, s.health},
		{http.MethodGet, "/api/openapi.json", "openapi", "This document", http.StatusOK, s.openAPI},

		// Review sessions
		{http.MethodPost, "/api/analyze", "analyze", "Analyse a resume against a job description and open a review session", http.StatusOK, s.analyze},
		{http.MethodGet, "/api/sessions/:id", "getSession", "Current overlay of every section", http.StatusOK, s.getSession},
		{http.MethodDelete, "/api/sessions/:id", "deleteSession", "Discard a review session", http.StatusOK, s.deleteSession},
		{http.MethodPatch, "/api/sessions/:id/sections/:section/edits/:edit", "updateEdit", "Change the new content of one edit", http.StatusOK, s.updateEdit},
		{http.MethodPost, "/api/sessions/:id/sections/:section/conflicts/:edit", "resolveConflict", "Decide an overlapping pair of edits", http.StatusOK, s.resolveConflict},
		{http.MethodPost, "/api/sessions/:id/apply", "applySession", "Export the tailored document", http.StatusOK, s.applySession},
		{http.MethodPost, "/api/sessions/:id/save", "saveSession", "Save the tailored resume", http.StatusCreated, s.saveSession},

		// Saved resumes
		{http.MethodGet, "/api/resume/:id", "getResume", "Fetch a saved resume", http.StatusOK, s.getResume},
		{http.MethodPatch, "/api/resume/:id", "updateResume", "Replace a saved resume's sections", http.StatusOK, s.updateResume},

		{http.MethodGet, "/api/job-description", "jobDescription", "Fetch a job description from a posting URL", http.StatusOK, s.jobDescription},

		// Application tracker
		{http.MethodGet, "/applications", "listApplications", "List tracked applications, newest first", http.StatusOK, s.listApplications},
		{http.MethodPost, "/applications", "createApplication", "Track a new application", http.StatusCreated, s.createApplication},
		{http.MethodDelete, "/applications/:id", "deleteApplication", "Stop tracking an application", http.StatusOK, s.deleteApplication},
		{http.MethodPatch, "/applications/:id/status", "updateApplicationStatus", "Move an application to a new status", http.StatusOK, s.updateApplicationStatus},

		{http.MethodGet, "/download/:name", "download", "Download an exported artifact", http.StatusOK, s.download},
	}
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	for _, r := range s.routes() {
		s.echo.Add(r.method, r.path, r.handler)
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"sessions": s.sessions.Len(),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", s.port).Msg("API server listening")
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(shutdownCtx)
}

// requestLogger routes echo's access log through zerolog
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("Request")
			return nil
		},
	})
}

// guard runs fn unless the same logical action is already running
func (s *Server) guard(action, subject string, fn func() error) error {
	release, ok := s.flights.TryBegin(review.Key(action, subject))
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, fmt.Sprintf("%s already in progress", action))
	}
	defer release()
	return fn()
}
