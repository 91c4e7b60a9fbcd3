package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/repository"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/service"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/response"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/validator"
)

type CampaignHandler struct {
	campaigns *repository.CampaignRepository
	queue     *repository.DripQueueRepository
	drip      *service.DripService
}

func NewCampaignHandler(
	campaigns *repository.CampaignRepository,
	queue *repository.DripQueueRepository,
	drip *service.DripService,
) *CampaignHandler {
	return &CampaignHandler{
		campaigns: campaigns,
		queue:     queue,
		drip:      drip,
	}
}

type CreateCampaignStepRequest struct {
	DelayMinutes    int    `json:"delayMinutes" validate:"min=0"`
	MessageTemplate string `json:"messageTemplate" validate:"required,max=2000"`
}

type CreateCampaignRequest struct {
	Name         string                      `json:"name" validate:"required,max=200"`
	Description  *string                     `json:"description,omitempty" validate:"omitempty,max=1000"`
	TriggerEvent string                      `json:"triggerEvent,omitempty" validate:"omitempty,max=50"`
	Steps        []CreateCampaignStepRequest `json:"steps" validate:"required,min=1,dive"`
}

type EnqueueCampaignRequest struct {
	LeadID     int64 `json:"leadId" validate:"required,min=1"`
	CampaignID int64 `json:"campaignId" validate:"required,min=1"`
}

// ListCampaigns godoc
// @Summary List drip campaigns with their steps
// @Tags campaigns
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c echo.Context) error {
	campaigns, err := h.campaigns.List(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, campaigns)
}

// CreateCampaign godoc
// @Summary Create a drip campaign with its steps
// @Tags campaigns
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param campaign body CreateCampaignRequest true "Campaign to create"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c echo.Context) error {
	var req CreateCampaignRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	steps := make([]domain.DripStep, 0, len(req.Steps))
	for _, step := range req.Steps {
		steps = append(steps, domain.DripStep{
			DelayMinutes:    step.DelayMinutes,
			MessageTemplate: step.MessageTemplate,
		})
	}

	campaign, err := h.campaigns.Create(c.Request().Context(), &domain.DripCampaign{
		Name:         req.Name,
		Description:  req.Description,
		TriggerEvent: req.TriggerEvent,
	}, steps)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Created(c, "Campaign created successfully", campaign)
}

// EnqueueCampaign godoc
// @Summary Enqueue a campaign's steps for a lead
// @Description Expands the campaign's active steps into future-dated queue entries
// @Tags campaigns
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param request body EnqueueCampaignRequest true "Lead and campaign"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns/enqueue [post]
func (h *CampaignHandler) EnqueueCampaign(c echo.Context) error {
	var req EnqueueCampaignRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	enqueued, err := h.drip.EnqueueCampaign(c.Request().Context(), req.LeadID, req.CampaignID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveSteps) {
			return response.BadRequest(c, err)
		}
		return response.InternalServerError(c, err)
	}

	return response.Created(c, "Campaign enqueued successfully", map[string]int{"enqueued": enqueued})
}

// GetCampaignStats godoc
// @Summary Queue entry counts per status for a campaign
// @Tags campaigns
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path int true "Campaign ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns/{id}/stats [get]
func (h *CampaignHandler) GetCampaignStats(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err)
	}

	stats, err := h.campaigns.Stats(c.Request().Context(), id)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, stats)
}

// GetLeadQueue godoc
// @Summary List a lead's drip queue entries
// @Tags campaigns
// @Produce json
// @Param x-api-key header string true "API key"
// @Param leadId path int true "Lead ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/campaigns/queue/{leadId} [get]
func (h *CampaignHandler) GetLeadQueue(c echo.Context) error {
	leadID, err := parseIDParam(c, "leadId")
	if err != nil {
		return response.BadRequest(c, err)
	}

	entries, err := h.queue.ListByLead(c.Request().Context(), leadID)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, entries)
}
