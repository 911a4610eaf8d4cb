package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"crypto-weather/internal/chart"
	"crypto-weather/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetChart godoc
// @Summary      Render a price history chart
// @Description  Returns a PNG chart of the daily price series with a selectable overlay panel
// @Tags         crypto
// @Produce      png
// @Param        coin     query  string  true   "CoinGecko ID or ticker symbol"
// @Param        days     query  int     false  "Number of days (default 30, max 365)"  default(30)
// @Param        overlay  query  string  false  "Overlay panel: price, rsi, macd, or volume"  default(price)
// @Success      200  {file}    binary
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/crypto/chart [get]
func (h *Handler) GetChart(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-chart")
	defer span.End()

	coin := strings.TrimSpace(c.Query("coin"))
	if coin == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coin is required"})
		return
	}
	span.SetAttributes(attribute.String("coin", coin))

	days := 30
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 365 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
			return
		}
		days = n
	}

	overlay, err := chart.ParseOverlay(c.Query("overlay"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	points, err := h.quoteService.History(ctx, coin, days)
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

	img, err := h.chartRenderer.RenderHistory(points, overlay)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, img.MimeType, img.Bytes)
}
