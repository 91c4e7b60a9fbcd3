package handlers

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/scheduler"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/service"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/response"
)

// EngineHandler controls the automation engine and exposes the manual run
// endpoints external schedulers call.
type EngineHandler struct {
	engine     *scheduler.Engine
	scheduled  *service.ScheduledService
	drip       *service.DripService
	reconciler *service.Reconciler
	ctx        context.Context
}

func NewEngineHandler(
	engine *scheduler.Engine,
	scheduled *service.ScheduledService,
	drip *service.DripService,
	reconciler *service.Reconciler,
	ctx context.Context,
) *EngineHandler {
	return &EngineHandler{
		engine:     engine,
		scheduled:  scheduled,
		drip:       drip,
		reconciler: reconciler,
		ctx:        ctx,
	}
}

// StartEngine godoc
// @Summary Start the automation engine
// @Tags engine
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/engine/start [post]
func (h *EngineHandler) StartEngine(c echo.Context) error {
	if h.engine.IsRunning() {
		return response.OkWithMessage(c, "Engine is already running", h.engine.GetStatus())
	}

	if err := h.engine.Start(h.ctx); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Engine started", h.engine.GetStatus())
}

// StopEngine godoc
// @Summary Stop the automation engine
// @Tags engine
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/engine/stop [post]
func (h *EngineHandler) StopEngine(c echo.Context) error {
	if !h.engine.IsRunning() {
		return response.OkWithMessage(c, "Engine is not running", h.engine.GetStatus())
	}

	if err := h.engine.Stop(); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Engine stopped", h.engine.GetStatus())
}

// GetEngineStatus godoc
// @Summary Engine status and counters
// @Tags engine
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/engine/status [get]
func (h *EngineHandler) GetEngineStatus(c echo.Context) error {
	return response.Ok(c, h.engine.GetStatus())
}

// RunScheduled godoc
// @Summary Process due scheduled messages now
// @Tags engine
// @Produce json
// @Param x-cron-secret header string true "Cron secret"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/engine/run/scheduled [post]
func (h *EngineHandler) RunScheduled(c echo.Context) error {
	result, err := h.scheduled.ProcessDue(c.Request().Context(), time.Now())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, result)
}

// RunDrip godoc
// @Summary Process due drip queue entries now
// @Tags engine
// @Produce json
// @Param x-cron-secret header string true "Cron secret"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/engine/run/drip [post]
func (h *EngineHandler) RunDrip(c echo.Context) error {
	result, err := h.drip.ProcessQueue(c.Request().Context(), time.Now())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, result)
}

// RunPoll godoc
// @Summary Poll the gateway for inbound messages now
// @Tags engine
// @Produce json
// @Param x-cron-secret header string true "Cron secret"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/engine/run/poll [post]
func (h *EngineHandler) RunPoll(c echo.Context) error {
	if err := h.reconciler.PollIncoming(c.Request().Context(), time.Now()); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Inbound poll completed", nil)
}

// RunSweep godoc
// @Summary Reset retryable failed messages to pending now
// @Tags engine
// @Produce json
// @Param x-cron-secret header string true "Cron secret"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/engine/run/sweep [post]
func (h *EngineHandler) RunSweep(c echo.Context) error {
	reset, err := h.scheduled.RetrySweep(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, map[string]int64{"reset": reset})
}
