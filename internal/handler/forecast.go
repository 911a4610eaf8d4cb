package handler

import (
	"errors"
	"net/http"
	"strings"

	"crypto-weather/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetForecast godoc
// @Summary      Generate a 5-day forecast
// @Description  Returns a weather-style 5-day price forecast for a coin
// @Tags         forecast
// @Produce      json
// @Param        coin        query  string  true   "CoinGecko ID or ticker symbol"
// @Param        confidence  query  string  false  "Confidence level (conservative, moderate, aggressive)"  default(moderate)
// @Param        mock        query  bool    false  "Force the deterministic fallback forecast"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/forecast [get]
func (h *Handler) GetForecast(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-forecast")
	defer span.End()

	coin := strings.TrimSpace(c.Query("coin"))
	if coin == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coin is required"})
		return
	}
	level := domain.ConfidenceLevel(strings.ToLower(strings.TrimSpace(c.Query("confidence"))))
	span.SetAttributes(
		attribute.String("coin", coin),
		attribute.String("confidence", string(level)),
	)

	generate := h.forecastService.Generate
	if isTruthy(c.Query("mock")) {
		generate = h.forecastService.Mock
	}
	result, err := generate(ctx, coin, level)
	if err != nil {
		var invalid domain.InvalidInputError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":           invalid.Error(),
				"supported_coins": domain.SupportedIDs,
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
