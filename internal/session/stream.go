// Package session runs training and detection sessions over a stream of
// poses and UI events, independent of any camera or window.
package session

import (
	"context"

	"github.com/ayusman/mudra/internal/detector"
)

// Event is a discrete request from the UI collaborator.
type Event int

const (
	// EventNone means no UI input arrived with this tick.
	EventNone Event = iota
	// EventCapture asks the training session to store the current pose.
	EventCapture
	// EventQuit ends the session.
	EventQuit
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventCapture:
		return "capture"
	case EventQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Tick is one step of a session: the pose seen in the current frame, if
// any, and the UI event that arrived with it.
type Tick struct {
	Hand  *detector.HandLandmarks
	Event Event
}

// Source yields ticks. Next blocks until the next frame is available and
// returns io.EOF when the stream is over.
type Source interface {
	Next(ctx context.Context) (Tick, error)
}

// Mode distinguishes the two kinds of session.
type Mode string

const (
	ModeTraining  Mode = "training"
	ModeDetection Mode = "detection"
)

// View is what a session shows after each tick.
type View struct {
	Mode Mode

	// Label is the training label, or the detected label ("" when no hand).
	Label string

	// Ready is true when a pose is available to capture or classify.
	Ready bool

	// Captured is the number of examples captured so far in a training session.
	Captured int

	// Distance to the nearest example, detection only.
	Distance float64

	Hand *detector.HandLandmarks
}

// Display receives the session view after every tick.
type Display interface {
	Render(v View) error
}
