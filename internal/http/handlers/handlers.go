package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/voicelens/backend/internal/insight"
	"github.com/voicelens/backend/internal/insight/query"
	"github.com/voicelens/backend/internal/predict"
	"github.com/voicelens/backend/internal/warehouse"
)

// Pinger is the health-check slice of the warehouse connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Insights  *insight.Service
	Predict   predict.Client
	Gateway   warehouse.Gateway
	Health    Pinger
	Validator *validator.Validate
	Schema    string
	Logger    zerolog.Logger
}

const dateLayout = "2006-01-02"

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Health.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "WAREHOUSE_UNAVAILABLE", "Warehouse unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type rootCauseQuery struct {
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// @Summary Root cause analysis
// @Description Sentiment time series and top negative topics for a date range
// @Tags insights
// @Produce json
// @Param start_date query string false "inclusive start (YYYY-MM-DD)"
// @Param end_date query string false "inclusive end (YYYY-MM-DD)"
// @Success 200 {object} models.RootCausePage
// @Failure 400 {object} map[string]any
// @Router /api/insights/root-cause [get]
func (h *Handler) RootCause(c *gin.Context) {
	var q rootCauseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "dates must be valid YYYY-MM-DD values", err.Error())
		return
	}

	start := parseDate(q.StartDate)
	end := parseDate(q.EndDate)

	page, err := h.Insights.RootCause(c.Request.Context(), start, end, q.Limit)
	if err != nil {
		h.respondInsightError(c, "root-cause", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Geographic hotspots
// @Tags insights
// @Produce json
// @Success 200 {object} models.GeoPage
// @Router /api/insights/geo-hotspots [get]
func (h *Handler) GeoHotspots(c *gin.Context) {
	page, err := h.Insights.GeoHotspots(c.Request.Context())
	if err != nil {
		h.respondInsightError(c, "geo-hotspots", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type limitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// @Summary Product feature sentiment
// @Tags insights
// @Produce json
// @Param limit query int false "max features" default(20)
// @Success 200 {object} models.FeaturePage
// @Router /api/insights/product-features [get]
func (h *Handler) ProductFeatures(c *gin.Context) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be between 1 and 50", err.Error())
		return
	}
	page, err := h.Insights.ProductFeatures(c.Request.Context(), q.Limit)
	if err != nil {
		h.respondInsightError(c, "product-features", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type trendsQuery struct {
	Cutoff string `form:"cutoff" binding:"omitempty,datetime=2006-01-02"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// @Summary Emerging trends
// @Tags insights
// @Produce json
// @Param cutoff query string false "recent/past split date (YYYY-MM-DD)"
// @Param limit query int false "max topics" default(10)
// @Success 200 {object} models.TrendPage
// @Router /api/insights/emerging-trends [get]
func (h *Handler) EmergingTrends(c *gin.Context) {
	var q trendsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "cutoff must be a valid YYYY-MM-DD value", err.Error())
		return
	}
	page, err := h.Insights.EmergingTrends(c.Request.Context(), parseDate(q.Cutoff), q.Limit)
	if err != nil {
		h.respondInsightError(c, "emerging-trends", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Competitive intelligence
// @Tags insights
// @Produce json
// @Param limit query int false "max competitors" default(10)
// @Success 200 {object} models.CompetitorPage
// @Router /api/insights/competitors [get]
func (h *Handler) Competitors(c *gin.Context) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be between 1 and 50", err.Error())
		return
	}
	page, err := h.Insights.Competitors(c.Request.Context(), q.Limit)
	if err != nil {
		h.respondInsightError(c, "competitors", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type predictRequest struct {
	Reviews []string `json:"reviews" validate:"required,min=1,max=100,dive,max=5000"`
}

// @Summary Predict review sentiment and entities
// @Tags predict
// @Accept json
// @Produce json
// @Param body body predictRequest true "draft reviews"
// @Success 200 {array} models.Prediction
// @Failure 400 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/predict [post]
func (h *Handler) PredictReviews(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "body must contain a reviews array", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	cleaned := make([]string, 0, len(req.Reviews))
	for _, r := range req.Reviews {
		if t := strings.TrimSpace(r); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "at least one non-empty review is required", nil)
		return
	}

	predictions, err := h.Predict.Predict(c.Request.Context(), cleaned)
	if err != nil {
		var apiErr *predict.APIError
		if errors.As(err, &apiErr) {
			h.Logger.Error().Err(err).Msg("prediction service failed")
			writeError(c, http.StatusBadGateway, "PREDICT_ERROR", "Prediction service failed", apiErr.Error())
			return
		}
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Prediction failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, predictions)
}

// @Summary List warehouse tables
// @Tags debug
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/debug/tables [get]
func (h *Handler) DebugTables(c *gin.Context) {
	sql, args := query.ListTables(h.Schema)
	rs, err := h.Gateway.Query(c.Request.Context(), sql, args...)
	if err != nil {
		h.respondInsightError(c, "debug-tables", err)
		return
	}
	tables := make([]string, 0, len(rs.Rows))
	for i := range rs.Rows {
		tables = append(tables, rs.String(i, "table_name"))
	}
	c.JSON(http.StatusOK, gin.H{"schema": h.Schema, "tables": tables})
}

// respondInsightError maps the error taxonomy onto HTTP statuses. Each page
// is its own failure domain; a failed render never leaks into another page.
func (h *Handler) respondInsightError(c *gin.Context, page string, err error) {
	var vErr *insight.ValidationError
	if errors.As(err, &vErr) {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", vErr.Message, nil)
		return
	}
	var connErr *warehouse.ConnectivityError
	if errors.As(err, &connErr) {
		h.Logger.Error().Err(err).Str("page", page).Msg("warehouse query failed")
		writeError(c, http.StatusServiceUnavailable, "WAREHOUSE_UNAVAILABLE", "Warehouse query failed", connErr.Error())
		return
	}
	h.Logger.Error().Err(err).Str("page", page).Msg("insight render failed")
	writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Insight render failed", err.Error())
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
