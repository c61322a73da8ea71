package api

import (
	"bufio"
	"time"

	"staggermail/events"
	"staggermail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/valyala/fasthttp"
)

// EventsHandler streams job progress to browsers over SSE or websocket.
type EventsHandler struct {
	hub       *events.Hub
	keepAlive time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub, keepAlive: 30 * time.Second}
}

// HandleSSE handles Server-Sent Events for job progress
func (h *EventsHandler) HandleSSE(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	ch := h.hub.Subscribe()
	jobFilter := c.Query("job")
	done := c.Context().Done()

	utils.Log.Info("SSE subscriber connected (%d total)", h.hub.Subscribers())

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			h.hub.Unsubscribe(ch)
			utils.Log.Info("SSE subscriber disconnected")
		}()

		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		w.WriteString(": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if jobFilter != "" && ev.JobID != jobFilter {
					continue
				}
				w.WriteString("id: " + ev.ID + "\n")
				w.WriteString("event: " + ev.Type + "\n")
				w.WriteString("data: " + string(ev.JSON()) + "\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-ticker.C:
				w.WriteString(": keepalive\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-done:
				return
			}
		}
	}))

	return nil
}

// UpgradeWebSocket rejects plain HTTP requests to the websocket route.
func UpgradeWebSocket(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleWebSocket handles WebSocket connections for job progress
func (h *EventsHandler) HandleWebSocket(c *websocket.Conn) {
	ch := h.hub.Subscribe()
	jobFilter := c.Query("job")

	defer func() {
		h.hub.Unsubscribe(ch)
		c.Close()
		utils.Log.Info("WebSocket subscriber disconnected")
	}()

	utils.Log.Info("WebSocket subscriber connected (%d total)", h.hub.Subscribers())

	// Reads only detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if jobFilter != "" && ev.JobID != jobFilter {
				continue
			}
			if err := c.WriteJSON(ev); err != nil {
				utils.Log.Error("Failed to send WebSocket event: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}
