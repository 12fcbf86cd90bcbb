package ws

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

// Handler upgrades the connection and streams liveness events. The optional
// user_id query parameter narrows the stream to one user. current, when set,
// provides the state sent to the client right after it connects.
func Handler(hub *Hub, current func() domain.Update) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		client := &Client{
			hub:    hub,
			conn:   c,
			userID: c.Query("user_id"),
			send:   make(chan []byte, 256),
		}

		if current != nil {
			if message, err := json.Marshal(Event{
				Type:      EventSessionUpdate,
				Data:      current(),
				Timestamp: time.Now(),
			}); err == nil {
				client.send <- message
			}
		}

		if !hub.Register(client) {
			_ = c.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
