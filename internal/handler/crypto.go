package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"crypto-weather/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetCrypto godoc
// @Summary      Get coin quotes
// @Description  Returns the quote for one coin, or all supported coins when no coin is given
// @Tags         crypto
// @Produce      json
// @Param        coin     query  string  false  "CoinGecko ID or ticker symbol (e.g., bitcoin, BTC)"
// @Param        refresh  query  bool    false  "Bypass the cache and fetch upstream"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/crypto [get]
func (h *Handler) GetCrypto(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-crypto")
	defer span.End()

	coin := strings.TrimSpace(c.Query("coin"))
	if coin == "" {
		quotes, err := h.quoteService.ListQuotes(ctx)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": quotes})
		return
	}

	span.SetAttributes(attribute.String("coin", coin))
	fetch := h.quoteService.GetQuote
	if isTruthy(c.Query("refresh")) {
		fetch = h.quoteService.RefreshQuote
	}
	quote, err := fetch(ctx, coin)
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
	c.JSON(http.StatusOK, gin.H{"data": quote})
}

func isTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// GetPopular godoc
// @Summary      Get popular coins
// @Description  Returns the top coins by market cap
// @Tags         crypto
// @Produce      json
// @Param        limit  query  int  false  "Number of coins (default 10, max 50)"  default(10)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/crypto/popular [get]
func (h *Handler) GetPopular(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-popular")
	defer span.End()

	limit := 10
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 50"})
			return
		}
		limit = n
	}

	quotes, err := h.quoteService.Popular(ctx, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": quotes})
}

// GetHistory godoc
// @Summary      Get daily price history
// @Description  Returns a daily price series for a coin, oldest first
// @Tags         crypto
// @Produce      json
// @Param        coin  query  string  true   "CoinGecko ID or ticker symbol"
// @Param        days  query  int     false  "Number of days (default 30, max 365)"  default(30)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/crypto/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
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
	c.JSON(http.StatusOK, gin.H{"data": points})
}
