package ws

import (
	"bytes"
	"context"
	"io"

	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/capture"
)

// connSource adapts inbound websocket messages into a capture.FrameSource.
// Clients stream JPEG frames as binary messages; a "stop" text message or a
// closed connection ends the stream.
type connSource struct {
	conn *websocket.Conn
}

var _ capture.FrameSource = (*connSource)(nil)

func (s *connSource) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			// O cliente fechou ou a conexão caiu: fim normal do stream.
			return nil, io.EOF
		}

		switch messageType {
		case websocket.BinaryMessage:
			return data, nil
		case websocket.TextMessage:
			if string(bytes.TrimSpace(data)) == "stop" {
				return nil, io.EOF
			}
		}
	}
}

// Close is a no-op: the connection is owned by the fiber handler and closed
// when it returns.
func (s *connSource) Close() error {
	return nil
}
