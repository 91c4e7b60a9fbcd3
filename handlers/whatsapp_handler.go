package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/gateway"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/response"
)

// WhatsAppHandler exposes gateway instance management.
type WhatsAppHandler struct {
	client *gateway.EvolutionClient
}

func NewWhatsAppHandler(client *gateway.EvolutionClient) *WhatsAppHandler {
	return &WhatsAppHandler{client: client}
}

// GetConnectionStatus godoc
// @Summary WhatsApp connection state
// @Tags whatsapp
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/whatsapp/status [get]
func (h *WhatsAppHandler) GetConnectionStatus(c echo.Context) error {
	state, err := h.client.ConnectionState(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, map[string]string{"state": string(state)})
}

// Connect godoc
// @Summary Connect the WhatsApp instance
// @Description Returns pairing codes when the instance needs to be linked
// @Tags whatsapp
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/whatsapp/connect [post]
func (h *WhatsAppHandler) Connect(c echo.Context) error {
	qrCode, pairingCode, err := h.client.Connect(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, map[string]string{
		"qrCode":      qrCode,
		"pairingCode": pairingCode,
	})
}

// Logout godoc
// @Summary Log the WhatsApp instance out
// @Tags whatsapp
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/whatsapp/logout [post]
func (h *WhatsAppHandler) Logout(c echo.Context) error {
	if err := h.client.Logout(c.Request().Context()); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Instance logged out", nil)
}

// Restart godoc
// @Summary Restart the WhatsApp instance
// @Tags whatsapp
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/whatsapp/restart [post]
func (h *WhatsAppHandler) Restart(c echo.Context) error {
	if err := h.client.Restart(c.Request().Context()); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Instance restarting", nil)
}
