package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

const streamKeepAlive = 15 * time.Second

func SetupStreamRoutes(app *fiber.App, h *Handler) {
	app.Get("/api/stream", h.StreamChanges)
}

// StreamChanges pushes every committed store change as a server-sent event.
func (h *Handler) StreamChanges(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	changes := h.store.Subscribe()
	done := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer h.store.Unsubscribe(changes)

		ticker := time.NewTicker(streamKeepAlive)
		defer ticker.Stop()

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case change, ok := <-changes:
				if !ok {
					return
				}
				payload, err := json.Marshal(change)
				if err != nil {
					log.Printf("[Stream] encode change: %v", err)
					continue
				}
				fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-ticker.C:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-done:
				return
			}
		}
	})

	return nil
}
