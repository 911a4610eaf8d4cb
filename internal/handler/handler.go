package handler

import (
	"net/http"
	"time"

	"crypto-weather/internal/chart"
	"crypto-weather/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer          trace.Tracer
	quoteService    *service.QuoteService
	forecastService *service.ForecastService
	regionalService *service.RegionalService
	chartRenderer   *chart.Renderer
	streamInterval  time.Duration
}

func New(
	tracer trace.Tracer,
	quoteService *service.QuoteService,
	forecastService *service.ForecastService,
	regionalService *service.RegionalService,
) *Handler {
	return &Handler{
		tracer:          tracer,
		quoteService:    quoteService,
		forecastService: forecastService,
		regionalService: regionalService,
		chartRenderer:   chart.NewRenderer(),
		streamInterval:  defaultStreamInterval,
	}
}

// SetStreamInterval overrides the websocket push cadence.
func (h *Handler) SetStreamInterval(d time.Duration) {
	if d > 0 {
		h.streamInterval = d
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/crypto", h.GetCrypto)
	r.GET("/api/crypto/popular", h.GetPopular)
	r.GET("/api/crypto/history", h.GetHistory)
	r.GET("/api/crypto/chart", h.GetChart)
	r.GET("/api/forecast", h.GetForecast)
	r.GET("/api/regional", h.GetRegional)
	r.POST("/api/regional", h.AskRegional)
	r.GET("/ws/prices", h.StreamPrices)
}

// Health godoc
// @Summary      Service health
// @Tags         ops
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
