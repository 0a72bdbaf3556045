// Package events tracks live admin and display connections and fans
// server-side events out to them. Delivery is best effort: every
// connection owns a bounded queue and publishers never block on a slow
// consumer.
package events

// Event names pushed over the stream.
const (
	EventAssignmentChanged = "assignment_changed"
	EventTest              = "test"
)

// Event is one named payload delivered to stream subscribers. Data must be
// JSON-serializable.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// AssignmentChanged is the payload broadcast when a display's slideshow
// assignment changes. SlideshowID is nil on unassignment.
type AssignmentChanged struct {
	Display     string `json:"display"`
	SlideshowID *int   `json:"slideshow_id"`
}

// TestEvent is the payload of operator-triggered test broadcasts.
type TestEvent struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
