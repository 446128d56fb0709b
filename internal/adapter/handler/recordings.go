package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tablevox/agent/errors"
	"github.com/tablevox/agent/internal/adapter/presenter"
	"github.com/tablevox/agent/internal/infrastructure/http/middleware"
	recordingsUsecase "github.com/tablevox/agent/internal/usecase/recordings"
)

// Recordings handles recording collection HTTP requests
type Recordings struct {
	service *recordingsUsecase.Service
	logger  *zap.Logger
}

// NewRecordingsHandler creates a new recordings handler
func NewRecordingsHandler(service *recordingsUsecase.Service, logger *zap.Logger) *Recordings {
	return &Recordings{service: service, logger: logger}
}

// List handles GET /recordings
func (h *Recordings) List(c echo.Context) error {
	recs, err := h.service.List(c.Request().Context(), middleware.RestaurantID(c))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRecordingListResponse(recs))
}

// Get handles GET /recordings/:id
func (h *Recordings) Get(c echo.Context) error {
	id, err := parseRecordingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	rec, err := h.service.Get(c.Request().Context(), middleware.RestaurantID(c), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRecordingResponse(rec))
}

// Delete handles DELETE /recordings/:id
func (h *Recordings) Delete(c echo.Context) error {
	id, err := parseRecordingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := h.service.Delete(c.Request().Context(), middleware.RestaurantID(c), id); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]string{"id": id.String()})
}

// Retry handles POST /recordings/:id/retry
func (h *Recordings) Retry(c echo.Context) error {
	id, err := parseRecordingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	rec, err := h.service.Retry(c.Request().Context(), middleware.RestaurantID(c), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRecordingResponse(rec))
}

func parseRecordingID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument("invalid recording id")
	}
	return id, nil
}
