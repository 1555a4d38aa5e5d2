package ws

import (
	"encoding/json"

	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/capture"
)

type messageWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// Client serializa a escrita de eventos em uma conexão websocket. A sessão
// de captura emite no goroutine dela; o WritePump é o único escritor da
// conexão.
type Client struct {
	conn messageWriter
	send chan []byte
	done chan struct{}
}

func NewClient(conn messageWriter) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

func (c *Client) WritePump() {
	defer close(c.done)

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// Emit enqueues one event for the pump. Frame events are dropped when the
// client cannot keep up; terminal events always wait for a slot.
func (c *Client) Emit(event capture.Event) {
	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	if event.Type == capture.EventFrame {
		select {
		case c.send <- message:
		case <-c.done:
		default:
		}
		return
	}

	select {
	case c.send <- message:
	case <-c.done:
	}
}

// Shutdown flushes pending events and stops the pump. Emit must not be
// called after Shutdown.
func (c *Client) Shutdown() {
	close(c.send)
	<-c.done
}
