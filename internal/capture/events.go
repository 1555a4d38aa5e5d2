package capture

import (
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

type EventType string

const (
	// EventFrame carries the current frame plus detection annotations.
	EventFrame EventType = "frame"
	// EventStatus is a human-readable state update (e.g. no face in view).
	EventStatus EventType = "status"
	// EventCaptured reports one stored auto-capture frame.
	EventCaptured EventType = "captured"
	// EventError reports a mid-session failure; a complete event follows.
	EventError EventType = "error"
	// EventComplete is emitted exactly once, when the session ends.
	EventComplete EventType = "complete"
)

// FaceAnnotation is one detected face in a frame event. Label and Matched
// are only meaningful in recognition mode.
type FaceAnnotation struct {
	Box     provider.BoundingBox `json:"box"`
	Label   string               `json:"label,omitempty"`
	Matched bool                 `json:"matched"`
}

// Event is the outward message stream of a capture session. Frames are not
// rasterized server-side; clients draw the annotations over the image.
type Event struct {
	Type     EventType        `json:"type"`
	Image    string           `json:"image,omitempty"` // base64-encoded JPEG
	Faces    []FaceAnnotation `json:"faces,omitempty"`
	Detected int              `json:"detected,omitempty"`
	Captured int              `json:"captured,omitempty"`
	Filename string           `json:"filename,omitempty"`
	Message  string           `json:"message,omitempty"`
}
