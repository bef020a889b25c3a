package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/imaddar/drawsim/internal/domain"
	"github.com/imaddar/drawsim/internal/persistence"
)

func (s *Server) mapError(c echo.Context, err error) error {
	requestID, _ := c.Get("request_id").(string)

	switch {
	case errors.Is(err, persistence.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
	case errors.Is(err, domain.ErrInvalidSuitOrder),
		errors.Is(err, domain.ErrUnknownSuit),
		errors.Is(err, domain.ErrInvalidDrawSize),
		errors.Is(err, domain.ErrInvalidConfig):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNonConvergentBatch):
		s.logger.Warn("batch did not converge", "request_id", requestID, "error", err)
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Hint:  "retry, or use a larger batch_size to make ties less likely",
		})
	default:
		s.logger.Error("internal error", "request_id", requestID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
