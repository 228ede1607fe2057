package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CooldownSource reports when language-model extraction resumes.
type CooldownSource interface {
	CooldownUntil() time.Time
}

type HealthHandler struct {
	db       Pinger
	cooldown CooldownSource
	now      func() time.Time
}

// NewHealthHandler builds the probe handler. cooldown may be nil, in which
// case readiness does not report extraction state.
func NewHealthHandler(db Pinger, cooldown CooldownSource) *HealthHandler {
	return &HealthHandler{db: db, cooldown: cooldown, now: time.Now}
}

// Liveness handles GET /healthz
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Readiness handles GET /readyz. Only the database decides the status code;
// a rate-limited extractor is reported but keeps the instance in rotation.
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /readyz [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		log.Warn().Err(err).Msg("readiness: database ping failed")
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: "database not reachable"})
		return
	}

	resp := HealthResponse{Status: "ok"}
	if h.cooldown != nil {
		resp.Extraction = "ready"
		if until := h.cooldown.CooldownUntil(); until.After(h.now()) {
			resp.Extraction = "paused"
			resp.ExtractionRetryUntil = &until
		}
	}
	c.JSON(http.StatusOK, resp)
}
