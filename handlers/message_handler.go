package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/repository"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/service"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/response"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/validator"
)

// MessageHandler exposes the message log and scheduled follow-ups.
type MessageHandler struct {
	log       *repository.MessageLogRepository
	scheduled *repository.ScheduledMessageRepository
	processor *service.ScheduledService
}

func NewMessageHandler(
	log *repository.MessageLogRepository,
	scheduled *repository.ScheduledMessageRepository,
	processor *service.ScheduledService,
) *MessageHandler {
	return &MessageHandler{
		log:       log,
		scheduled: scheduled,
		processor: processor,
	}
}

type CreateScheduledMessageRequest struct {
	LeadID     int64     `json:"leadId" validate:"required,min=1"`
	Kind       string    `json:"kind" validate:"required,max=50"`
	CustomBody *string   `json:"customBody,omitempty" validate:"omitempty,max=2000"`
	DueAt      time.Time `json:"dueAt" validate:"required"`
}

// ListMessageLog godoc
// @Summary List message history
// @Description Retrieves the sent/received message log, newest first
// @Tags messages
// @Produce json
// @Param x-api-key header string true "API key"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param leadId query int false "Filter by lead"
// @Param direction query string false "Filter by direction (sent, received)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages [get]
func (h *MessageHandler) ListMessageLog(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	var leadID *int64
	if v := c.QueryParam("leadId"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed <= 0 {
			return response.BadRequestWithMessage(c, "leadId must be a positive integer")
		}
		leadID = &parsed
	}

	var direction *domain.MessageDirection
	if d := c.QueryParam("direction"); d != "" {
		parsed := domain.MessageDirection(d)
		direction = &parsed
	}

	logs, totalCount, err := h.log.List(c.Request().Context(), leadID, direction, page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, logs, page, pageSize, totalCount)
}

// ListScheduledMessages godoc
// @Summary List scheduled messages
// @Tags messages
// @Produce json
// @Param x-api-key header string true "API key"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param status query string false "Filter by status (pending, sent, failed, cancelled)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/scheduled [get]
func (h *MessageHandler) ListScheduledMessages(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	var status *domain.MessageStatus
	if s := c.QueryParam("status"); s != "" {
		parsed := domain.MessageStatus(s)
		status = &parsed
	}

	messages, totalCount, err := h.scheduled.List(c.Request().Context(), status, nil, page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, messages, page, pageSize, totalCount)
}

// CreateScheduledMessage godoc
// @Summary Schedule a follow-up message
// @Description Creates a pending scheduled message; dueAt must be in the future
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param message body CreateScheduledMessageRequest true "Message to schedule"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/scheduled [post]
func (h *MessageHandler) CreateScheduledMessage(c echo.Context) error {
	var req CreateScheduledMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	if !req.DueAt.After(time.Now()) {
		return response.UnprocessableEntity(c, fmt.Errorf("dueAt must be in the future"))
	}

	message, err := h.scheduled.Create(c.Request().Context(), &domain.ScheduledMessage{
		LeadID:     req.LeadID,
		Kind:       req.Kind,
		CustomBody: req.CustomBody,
		DueAt:      req.DueAt,
	})
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Created(c, "Message scheduled successfully", message)
}

// CancelPendingForLead godoc
// @Summary Cancel a lead's pending scheduled messages
// @Tags messages
// @Produce json
// @Param x-api-key header string true "API key"
// @Param leadId path int true "Lead ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/scheduled/lead/{leadId} [delete]
func (h *MessageHandler) CancelPendingForLead(c echo.Context) error {
	leadID, err := parseIDParam(c, "leadId")
	if err != nil {
		return response.BadRequest(c, err)
	}

	if err := h.processor.CancelPending(c.Request().Context(), leadID); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Pending scheduled messages cancelled", nil)
}
