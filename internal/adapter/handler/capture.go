package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tablevox/agent/errors"
	dtoCapture "github.com/tablevox/agent/internal/adapter/dto/capture"
	"github.com/tablevox/agent/internal/adapter/presenter"
	captureUsecase "github.com/tablevox/agent/internal/usecase/capture"
)

// Capture handles capture session HTTP requests
type Capture struct {
	service *captureUsecase.Service
	logger  *zap.Logger
}

// NewCaptureHandler creates a new capture handler
func NewCaptureHandler(service *captureUsecase.Service, logger *zap.Logger) *Capture {
	return &Capture{service: service, logger: logger}
}

// Start handles POST /capture/start
func (h *Capture) Start(c echo.Context) error {
	var req dtoCapture.StartRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	if err := h.service.Start(c.Request().Context(), req.TableID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, h.stateResponse())
}

// Pause handles POST /capture/pause
func (h *Capture) Pause(c echo.Context) error {
	h.service.Pause()
	return HandleSuccess(h.logger, c, h.stateResponse())
}

// Resume handles POST /capture/resume
func (h *Capture) Resume(c echo.Context) error {
	h.service.Resume()
	return HandleSuccess(h.logger, c, h.stateResponse())
}

// Stop handles POST /capture/stop. The recording is persisted before the
// response is written; processing continues in the background.
func (h *Capture) Stop(c echo.Context) error {
	rec, err := h.service.StopAndSave(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if rec == nil {
		// A concurrent stop already saved this session.
		return HandleSuccess(h.logger, c, h.stateResponse())
	}
	return HandleSuccess(h.logger, c, presenter.ToRecordingResponse(rec))
}

// Reset handles POST /capture/reset
func (h *Capture) Reset(c echo.Context) error {
	h.service.Reset()
	return HandleSuccess(h.logger, c, h.stateResponse())
}

// State handles GET /capture/state
func (h *Capture) State(c echo.Context) error {
	return HandleSuccess(h.logger, c, h.stateResponse())
}

// Levels handles GET /capture/levels as a server-sent event stream of
// amplitude samples. Meant for the single kiosk UI; concurrent consumers
// would split the sample stream between them.
func (h *Capture) Levels(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	levels := h.service.Levels()
	ctx := c.Request().Context()

	for {
		select {
		case <-ctx.Done():
			return nil
		case level, ok := <-levels:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(w, "data: %.4f\n\n", level); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func (h *Capture) stateResponse() dtoCapture.StateResponse {
	state, seconds := h.service.State()
	return dtoCapture.StateResponse{
		State:           string(state),
		DurationSeconds: seconds,
	}
}
