// Package ui provides the interactive surfaces of a session: an OpenCV
// window for desktop use and a system tray menu for headless use.
package ui

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/session"
)

// Key codes handled by the window.
const (
	KeyCapture = 's'
	KeyQuit    = 'q'
	KeyEscape  = 27
)

var (
	pointColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	lineColor  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	textColor  = color.RGBA{R: 0, G: 0, B: 255, A: 0}
)

// FrameSource provides a copy of the latest camera frame.
type FrameSource interface {
	Snapshot() (gocv.Mat, bool)
}

// Window shows the camera frame with the detected landmarks and the
// session overlay, and turns key presses into session events.
type Window struct {
	frames FrameSource

	mu     sync.Mutex
	win    *gocv.Window
	closed bool
}

// NewWindow opens a window titled title.
func NewWindow(title string, frames FrameSource) *Window {
	return &Window{
		frames: frames,
		win:    gocv.NewWindow(title),
	}
}

// PollEvent waits one millisecond for a key. Closing the window counts as quit.
func (w *Window) PollEvent() session.Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || !w.win.IsOpen() {
		return session.EventQuit
	}
	return KeyEvent(w.win.WaitKey(1))
}

// Render draws v over the latest frame and shows it.
func (w *Window) Render(v session.View) error {
	frame, ok := w.frames.Snapshot()
	if !ok {
		return nil
	}
	defer frame.Close()

	DrawLandmarks(&frame, v.Hand)
	DrawOverlay(&frame, v)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.win.IMShow(frame)
	}
	return nil
}

// Close destroys the window.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.win.Close()
}

// KeyEvent maps a key code from WaitKey to a session event.
func KeyEvent(key int) session.Event {
	if key < 0 {
		return session.EventNone
	}
	switch key & 0xFF {
	case KeyCapture, 'S':
		return session.EventCapture
	case KeyQuit, 'Q', KeyEscape:
		return session.EventQuit
	default:
		return session.EventNone
	}
}

// OverlayLines returns the text drawn in the top-left corner for v.
func OverlayLines(v session.View) []string {
	switch v.Mode {
	case session.ModeTraining:
		lines := []string{
			fmt.Sprintf("Training: %s (%d saved)", v.Label, v.Captured),
		}
		if v.Ready {
			lines = append(lines, "Press 's' to save gesture")
		} else {
			lines = append(lines, "No hand detected")
		}
		return append(lines, "Press 'q' to finish")
	case session.ModeDetection:
		if !v.Ready {
			return []string{"No hand detected", "Press 'q' to quit"}
		}
		return []string{fmt.Sprintf("Gesture: %s", v.Label), "Press 'q' to quit"}
	default:
		return nil
	}
}

// DrawOverlay writes the overlay text onto frame.
func DrawOverlay(frame *gocv.Mat, v session.View) {
	for i, line := range OverlayLines(v) {
		org := image.Pt(10, 30+i*30)
		gocv.PutText(frame, line, org, gocv.FontHersheySimplex, 0.8, textColor, 2)
	}
}

// DrawLandmarks draws the hand skeleton onto frame. Landmark coordinates
// are normalized to the frame size.
func DrawLandmarks(frame *gocv.Mat, hand *detector.HandLandmarks) {
	if hand == nil {
		return
	}
	width, height := frame.Cols(), frame.Rows()

	for _, c := range detector.Connections {
		a := ToPixel(hand.Points[c[0]], width, height)
		b := ToPixel(hand.Points[c[1]], width, height)
		gocv.Line(frame, a, b, lineColor, 2)
	}
	for _, p := range hand.Points {
		gocv.Circle(frame, ToPixel(p, width, height), 4, pointColor, -1)
	}
}

// ToPixel converts a normalized landmark to pixel coordinates, clamped to
// the frame.
func ToPixel(p detector.Point3D, width, height int) image.Point {
	x := int(p.X * float64(width))
	y := int(p.Y * float64(height))
	return image.Pt(clamp(x, 0, width-1), clamp(y, 0, height-1))
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
