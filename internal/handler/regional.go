package handler

import (
	"errors"
	"net/http"

	"crypto-weather/internal/domain"

	"github.com/gin-gonic/gin"
)

// GetRegional godoc
// @Summary      Regional climate overview
// @Description  Returns the four market regions with their crypto conditions
// @Tags         regional
// @Produce      json
// @Param        analysis  query  bool  false  "Include per-region analysis"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/regional [get]
func (h *Handler) GetRegional(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-regional")
	defer span.End()

	includeAnalysis := c.Query("analysis") == "true"
	overview, err := h.regionalService.Overview(ctx, includeAnalysis)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": overview})
}

type askRequest struct {
	Query  string `json:"query"`
	Region string `json:"region"`
}

// AskRegional godoc
// @Summary      Ask the regional advisor
// @Description  Answers a free-form question about regional crypto-weather conditions
// @Tags         regional
// @Accept       json
// @Produce      json
// @Param        request  body  askRequest  true  "Query and optional region"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/regional [post]
func (h *Handler) AskRegional(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.ask-regional")
	defer span.End()

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	answer, err := h.regionalService.Ask(ctx, req.Query, req.Region)
	if err != nil {
		var invalid domain.InvalidInputError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": answer})
}
