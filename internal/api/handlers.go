package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/imaddar/drawsim/internal/session"
)

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

func (s *Server) healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) createSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	sess, err := s.sessions.Create(c.Request().Context(), req.Suits)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, s.sessionResponse(sess))
}

func (s *Server) getSession(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) setSuits(c echo.Context) error {
	var req setSuitsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	sess, err := s.lookup(c)
	if err != nil {
		return s.mapError(c, err)
	}
	suits, err := sess.SetSuitOrder(c.Request().Context(), req.Suits)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, SuitsResponse{Suits: suits})
}

func (s *Server) draw(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return s.mapError(c, err)
	}
	result, err := sess.Draw(c.Request().Context())
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) simulate(c echo.Context) error {
	var req simulateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	sess, err := s.lookup(c)
	if err != nil {
		return s.mapError(c, err)
	}
	result, err := sess.Simulate(c.Request().Context(), session.SimulateOptions{BatchSize: req.BatchSize})
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) reset(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return s.mapError(c, err)
	}
	if err := sess.Reset(c.Request().Context()); err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) history(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, toHistoryResponse(sess.History()))
}

// qr renders a PNG that opens the session resource.
func (s *Server) qr(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return s.mapError(c, err)
	}

	size := defaultQRSize
	if raw := c.QueryParam("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < minQRSize || parsed > maxQRSize {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "size must be an integer between 128 and 1024"})
		}
		size = parsed
	}

	png, err := qrcode.Encode(s.sessionURL(sess.ID()), qrcode.Medium, size)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (s *Server) feedHandler(c echo.Context) error {
	if s.feed == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "feed is not enabled"})
	}
	sess, err := s.lookup(c)
	if err != nil {
		return s.mapError(c, err)
	}
	if err := s.feed.Serve(c.Response(), c.Request(), sess.ID()); err != nil {
		// The upgrader has already written the failure response.
		s.logger.Warn("feed upgrade failed", "request_id", c.Get("request_id"), "error", err)
	}
	return nil
}

func (s *Server) lookup(c echo.Context) (*session.Session, error) {
	return s.sessions.Get(c.Request().Context(), c.Param("id"))
}

func (s *Server) sessionURL(id string) string {
	return s.publicBaseURL + "/v1/sessions/" + id
}

func (s *Server) sessionResponse(sess *session.Session) SessionResponse {
	self := s.sessionURL(sess.ID())
	return SessionResponse{
		View: sess.Snapshot(),
		Links: LinksResponse{
			Self: self,
			QR:   self + "/qr",
			Feed: self + "/feed",
		},
	}
}
