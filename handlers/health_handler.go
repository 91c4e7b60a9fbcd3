package handlers

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/redis"
	"github.com/Vitor-Rausis/leads-diversao-brinquedos/pkg/response"
)

// HealthHandler reports component connectivity.
type HealthHandler struct {
	db           *sqlx.DB
	cache        *redis.Client
	checkTimeout time.Duration
}

func NewHealthHandler(db *sqlx.DB, cache *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:           db,
		cache:        cache,
		checkTimeout: 2 * time.Second,
	}
}

// Health godoc
// @Summary Health check
// @Description Returns overall status with database and cache connectivity
// @Tags health
// @Produce json
// @Success 200 {object} response.SuccessResponse
// @Failure 503 {object} response.SuccessResponse
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.checkTimeout)
	defer cancel()

	healthy := true

	dbStatus := "up"
	if h.db == nil {
		dbStatus = "down"
		healthy = false
	} else if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "down"
		healthy = false
	}

	// Cache is an optional fast path; a cold cache degrades dedup to the
	// database but does not take the service down.
	cacheStatus := "disabled"
	if h.cache != nil {
		cacheStatus = "up"
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "down"
		}
	}

	status := map[string]string{
		"database": dbStatus,
		"cache":    cacheStatus,
	}

	if !healthy {
		return response.ServiceUnavailable(c, status)
	}

	return response.Ok(c, status)
}
