package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/environments"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/handlers"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/internal/middlewares"
)

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	leadHandler *handlers.LeadHandler,
	messageHandler *handlers.MessageHandler,
	campaignHandler *handlers.CampaignHandler,
	engineHandler *handlers.EngineHandler,
	whatsappHandler *handlers.WhatsAppHandler,
	cfg *environments.Config,
) {
	e.GET("/health", healthHandler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 base group behind the API key
	v1 := e.Group("/api/v1", middlewares.APIKeyAuth(cfg.Auth.APIKey))

	leads := v1.Group("/leads")
	leads.GET("", leadHandler.ListLeads)
	leads.POST("", leadHandler.CreateLead)
	leads.GET("/:id", leadHandler.GetLead)
	leads.PATCH("/:id/status", leadHandler.UpdateLeadStatus)

	messages := v1.Group("/messages")
	messages.GET("", messageHandler.ListMessageLog)
	messages.GET("/scheduled", messageHandler.ListScheduledMessages)
	messages.POST("/scheduled", messageHandler.CreateScheduledMessage)
	messages.DELETE("/scheduled/lead/:leadId", messageHandler.CancelPendingForLead)

	campaigns := v1.Group("/campaigns")
	campaigns.GET("", campaignHandler.ListCampaigns)
	campaigns.POST("", campaignHandler.CreateCampaign)
	campaigns.POST("/enqueue", campaignHandler.EnqueueCampaign)
	campaigns.GET("/:id/stats", campaignHandler.GetCampaignStats)
	campaigns.GET("/queue/:leadId", campaignHandler.GetLeadQueue)

	engine := v1.Group("/engine")
	engine.POST("/start", engineHandler.StartEngine)
	engine.POST("/stop", engineHandler.StopEngine)
	engine.GET("/status", engineHandler.GetEngineStatus)

	whatsapp := v1.Group("/whatsapp")
	whatsapp.GET("/status", whatsappHandler.GetConnectionStatus)
	whatsapp.POST("/connect", whatsappHandler.Connect)
	whatsapp.POST("/logout", whatsappHandler.Logout)
	whatsapp.POST("/restart", whatsappHandler.Restart)

	// Manual engine triggers for external schedulers; accept the cron secret
	// or the regular API key.
	run := e.Group("/api/v1/engine/run", middlewares.CronAuth(cfg.Auth.CronSecret, cfg.Auth.APIKey))
	run.POST("/scheduled", engineHandler.RunScheduled)
	run.POST("/drip", engineHandler.RunDrip)
	run.POST("/poll", engineHandler.RunPoll)
	run.POST("/sweep", engineHandler.RunSweep)
}
