package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/domain"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/repository"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/service"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/response"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/validator"
)

type LeadHandler struct {
	service *service.LeadService
}

func NewLeadHandler(service *service.LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

type CreateLeadRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	WhatsApp string  `json:"whatsapp" validate:"required,whatsapp"`
	Source   string  `json:"source" validate:"required,max=100"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type UpdateLeadStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted replied converted lost"`
}

// ListLeads godoc
// @Summary List leads
// @Description Retrieves a paginated list of leads with optional filters
// @Tags leads
// @Produce json
// @Param x-api-key header string true "API key"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param status query string false "Filter by status"
// @Param source query string false "Filter by source"
// @Param search query string false "Filter by name substring"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/leads [get]
func (h *LeadHandler) ListLeads(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	filter := repository.ListFilter{
		Status: domain.LeadStatus(c.QueryParam("status")),
		Source: c.QueryParam("source"),
		Search: c.QueryParam("search"),
	}

	leads, totalCount, err := h.service.List(c.Request().Context(), filter, page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, leads, page, pageSize, totalCount)
}

// GetLead godoc
// @Summary Get a lead with its message history
// @Tags leads
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path int true "Lead ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/leads/{id} [get]
func (h *LeadHandler) GetLead(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err)
	}

	lead, err := h.service.GetWithMessages(c.Request().Context(), id)
	if err != nil {
		return response.InternalServerError(c, err)
	}
	if lead == nil {
		return response.NotFound(c, "Lead not found")
	}

	return response.Ok(c, lead)
}

// CreateLead godoc
// @Summary Create a lead
// @Description Creates a lead and enqueues active lead_created drip campaigns for it
// @Tags leads
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param lead body CreateLeadRequest true "Lead to create"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/leads [post]
func (h *LeadHandler) CreateLead(c echo.Context) error {
	var req CreateLeadRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	lead, err := h.service.Create(c.Request().Context(), &domain.Lead{
		Name:     req.Name,
		WhatsApp: req.WhatsApp,
		Source:   req.Source,
		Notes:    req.Notes,
	})
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Created(c, "Lead created successfully", lead)
}

// UpdateLeadStatus godoc
// @Summary Update a lead's status
// @Tags leads
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key"
// @Param id path int true "Lead ID"
// @Param status body UpdateLeadStatusRequest true "New status"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Router /api/v1/leads/{id}/status [patch]
func (h *LeadHandler) UpdateLeadStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err)
	}

	var req UpdateLeadStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	if err := h.service.UpdateStatus(c.Request().Context(), id, domain.LeadStatus(req.Status)); err != nil {
		return response.NotFound(c, err.Error())
	}

	return response.OkWithMessage(c, "Lead status updated", nil)
}
