package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/imaddar/drawsim/internal/session"
)

type SessionManager interface {
	Create(ctx context.Context, suits []string) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
}

type FeedServer interface {
	Serve(w http.ResponseWriter, r *http.Request, sessionID string) error
}

type ServerConfig struct {
	Sessions SessionManager
	// Feed is optional; without it the feed route answers 404.
	Feed          FeedServer
	PublicBaseURL string
	Logger        *slog.Logger
}

type Server struct {
	sessions      SessionManager
	feed          FeedServer
	publicBaseURL string
	logger        *slog.Logger
	echo          *echo.Echo
}

func NewServer(config ServerConfig) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		sessions:      config.Sessions,
		feed:          config.Feed,
		publicBaseURL: config.PublicBaseURL,
		logger:        logger,
		echo:          e,
	}

	e.Use(RequestIDMiddleware())
	e.Use(LoggingMiddleware(logger))
	s.register(e)
	return s
}

func (s *Server) register(e *echo.Echo) {
	e.GET("/healthz", s.healthz)

	g := e.Group("/v1/sessions")
	g.POST("", s.createSession)
	g.GET("/:id", s.getSession)
	g.PUT("/:id/suits", s.setSuits)
	g.POST("/:id/draw", s.draw)
	g.POST("/:id/simulate", s.simulate)
	g.POST("/:id/reset", s.reset)
	g.GET("/:id/history", s.history)
	g.GET("/:id/qr", s.qr)
	g.GET("/:id/feed", s.feedHandler)
}

// Echo exposes the router for Start and Shutdown.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
