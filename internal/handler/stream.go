package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const defaultStreamInterval = 15 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// StreamPrices godoc
// @Summary      Live quote stream
// @Description  Upgrades to a WebSocket pushing quote snapshots for all supported coins
// @Tags         crypto
// @Router       /ws/prices [get]
func (h *Handler) StreamPrices(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()

	// Drain client frames so close messages are noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()

	for {
		quotes, err := h.quoteService.ListQuotes(ctx)
		if err != nil {
			log.Printf("ws quote refresh: %v", err)
		} else {
			payload, err := json.Marshal(gin.H{
				"type":      "prices",
				"timestamp": time.Now().UTC(),
				"data":      quotes,
			})
			if err == nil {
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
