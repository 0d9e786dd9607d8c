// Package api exposes donation points and their aggregate views over HTTP.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/aggregation"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/errors"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/monitoring"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/ratelimit"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/types"
	"github.com/gin-gonic/gin"
)

// PointStore is the business layer behind the handlers
type PointStore interface {
	List(ctx context.Context, city string) ([]types.DonationPoint, error)
	Get(ctx context.Context, id int64) (*types.DonationPoint, error)
	Create(ctx context.Context, in types.PointInput) (*types.DonationPoint, error)
	Update(ctx context.Context, id int64, in types.PointInput) (*types.DonationPoint, error)
	Delete(ctx context.Context, id int64) error
	NeedsRanking(ctx context.Context) ([]aggregation.NeedRanking, error)
	Statistics(ctx context.Context) (aggregation.StatisticsSummary, error)
}

// HealthChecker reports database health
type HealthChecker interface {
	Ping(ctx context.Context) error
	GetPoolStats() map[string]interface{}
}

// BreakerReporter exposes a circuit breaker state
type BreakerReporter interface {
	BreakerState() string
}

// MessageResponse is returned by operations without a resource body
type MessageResponse struct {
	Message string `json:"message"`
}

// Handler serves the donation point API
type Handler struct {
	store    PointStore
	health   HealthChecker
	redis    *ratelimit.RedisClient
	limiter  *ratelimit.RateLimiter
	geocoder BreakerReporter
	metrics  *monitoring.Metrics
	version  string
}

// ListPoints godoc
// @Summary      List donation points
// @Description  Returns every donation point, optionally filtered by city (case-insensitive)
// @Tags         pontos
// @Produce      json
// @Param        cidade  query     string  false  "City name"
// @Success      200     {array}   types.DonationPoint
// @Failure      500     {object}  errors.ErrorResponse
// @Router       /api/pontos [get]
func (h *Handler) ListPoints(c *gin.Context) {
	points, err := h.store.List(c.Request.Context(), c.Query("cidade"))
	if err != nil {
		errors.Respond(c, err, "Failed to list donation points")
		return
	}

	c.JSON(http.StatusOK, points)
}

// ListPointsByCity godoc
// @Summary      List donation points in a city
// @Tags         pontos
// @Produce      json
// @Param        cidade  path      string  true  "City name"
// @Success      200     {array}   types.DonationPoint
// @Failure      400     {object}  errors.ErrorResponse
// @Failure      500     {object}  errors.ErrorResponse
// @Router       /api/pontos/cidade/{cidade} [get]
func (h *Handler) ListPointsByCity(c *gin.Context) {
	city := strings.TrimSpace(c.Param("cidade"))
	if city == "" {
		errors.Respond(c, errors.NewValidationError("City is required", nil), "")
		return
	}

	points, err := h.store.List(c.Request.Context(), city)
	if err != nil {
		errors.Respond(c, err, "Failed to list donation points")
		return
	}

	c.JSON(http.StatusOK, points)
}

// GetPoint godoc
// @Summary      Get a donation point
// @Tags         pontos
// @Produce      json
// @Param        id   path      int  true  "Point id"
// @Success      200  {object}  types.DonationPoint
// @Failure      400  {object}  errors.ErrorResponse
// @Failure      404  {object}  errors.ErrorResponse
// @Router       /api/pontos/{id} [get]
func (h *Handler) GetPoint(c *gin.Context) {
	id, ok := pointID(c)
	if !ok {
		return
	}

	point, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		errors.Respond(c, err, pointMessage(err, "Failed to load donation point"))
		return
	}

	c.JSON(http.StatusOK, point)
}

// CreatePoint godoc
// @Summary      Create a donation point
// @Description  Missing coordinates are resolved from the address when geocoding is enabled
// @Tags         pontos
// @Accept       json
// @Produce      json
// @Param        point  body      types.PointInput  true  "Donation point"
// @Success      201    {object}  types.DonationPoint
// @Failure      400    {object}  errors.ErrorResponse
// @Failure      415    {object}  errors.ErrorResponse
// @Failure      429    {object}  errors.ErrorResponse
// @Router       /api/pontos [post]
func (h *Handler) CreatePoint(c *gin.Context) {
	var in types.PointInput
	if err := bindJSON(c, &in); err != nil {
		errors.Respond(c, err, "")
		return
	}

	point, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		errors.Respond(c, err, "Failed to create donation point")
		return
	}

	c.JSON(http.StatusCreated, point)
}

// UpdatePoint godoc
// @Summary      Update a donation point
// @Tags         pontos
// @Accept       json
// @Produce      json
// @Param        id     path      int               true  "Point id"
// @Param        point  body      types.PointInput  true  "Donation point"
// @Success      200    {object}  types.DonationPoint
// @Failure      400    {object}  errors.ErrorResponse
// @Failure      404    {object}  errors.ErrorResponse
// @Router       /api/pontos/{id} [put]
func (h *Handler) UpdatePoint(c *gin.Context) {
	id, ok := pointID(c)
	if !ok {
		return
	}

	var in types.PointInput
	if err := bindJSON(c, &in); err != nil {
		errors.Respond(c, err, "")
		return
	}

	point, err := h.store.Update(c.Request.Context(), id, in)
	if err != nil {
		errors.Respond(c, err, pointMessage(err, "Failed to update donation point"))
		return
	}

	c.JSON(http.StatusOK, point)
}

// DeletePoint godoc
// @Summary      Delete a donation point
// @Tags         pontos
// @Produce      json
// @Param        id   path      int  true  "Point id"
// @Success      200  {object}  MessageResponse
// @Failure      404  {object}  errors.ErrorResponse
// @Router       /api/pontos/{id} [delete]
func (h *Handler) DeletePoint(c *gin.Context) {
	id, ok := pointID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		errors.Respond(c, err, pointMessage(err, "Failed to delete donation point"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Donation point deleted"})
}

// NeedsRanking godoc
// @Summary      Urgent needs ranking
// @Description  Urgent items counted across every point, most needed first; ties keep first-seen order
// @Tags         agregacao
// @Produce      json
// @Success      200  {array}   aggregation.NeedRanking
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /api/pontos/necessidades [get]
func (h *Handler) NeedsRanking(c *gin.Context) {
	ranking, err := h.store.NeedsRanking(c.Request.Context())
	if err != nil {
		errors.Respond(c, err, "Failed to compute needs ranking")
		return
	}

	c.JSON(http.StatusOK, ranking)
}

// Statistics godoc
// @Summary      Aggregate statistics
// @Description  Point and city totals plus donation type and urgent item rankings as [key, count] pairs
// @Tags         agregacao
// @Produce      json
// @Success      200  {object}  aggregation.StatisticsSummary
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /api/pontos/estatisticas [get]
func (h *Handler) Statistics(c *gin.Context) {
	summary, err := h.store.Statistics(c.Request.Context())
	if err != nil {
		errors.Respond(c, err, "Failed to compute statistics")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Health godoc
// @Summary      Service health
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	services := gin.H{}

	if h.health != nil {
		database := gin.H{"status": "ok", "pool": h.health.GetPoolStats()}
		if err := h.health.Ping(ctx); err != nil {
			database["status"] = "down"
			database["error"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		services["database"] = database
	}

	// redis is optional; the limiter falls back to memory
	redis := gin.H{"status": "disabled"}
	if h.redis.IsEnabled() {
		redis["status"] = "ok"
		redis["pool"] = h.redis.GetPoolStats()
		if err := h.redis.HealthCheck(ctx); err != nil {
			redis["status"] = "degraded"
			redis["error"] = err.Error()
		}
	}
	services["redis"] = redis

	if h.limiter != nil {
		services["rate_limiter"] = h.limiter.GetStats()
	}

	if h.geocoder != nil {
		services["geocoder"] = gin.H{"circuit_breaker": h.geocoder.BreakerState()}
	} else {
		services["geocoder"] = gin.H{"status": "disabled"}
	}

	response := gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
		"services":  services,
	}
	if status != http.StatusOK {
		response["status"] = "degraded"
	}
	if h.metrics != nil {
		response["metrics"] = h.metrics.GetStats()
	}

	c.JSON(status, response)
}

// pointMessage picks the public message for a failed single-point operation
func pointMessage(err error, fallback string) string {
	if stderrors.Is(err, errors.ErrNotFound) {
		return "Donation point not found"
	}
	return fallback
}

func pointID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errors.Respond(c, errors.NewValidationError("Invalid donation point id", nil), "")
		return 0, false
	}
	return id, true
}
