package ui

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/session"
)

func TestKeyEvent(t *testing.T) {
	tests := []struct {
		key  int
		want session.Event
	}{
		{key: -1, want: session.EventNone},
		{key: 's', want: session.EventCapture},
		{key: 'S', want: session.EventCapture},
		{key: 'q', want: session.EventQuit},
		{key: 'Q', want: session.EventQuit},
		{key: KeyEscape, want: session.EventQuit},
		{key: 'x', want: session.EventNone},
		{key: 0x100000 | 's', want: session.EventCapture},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KeyEvent(tt.key), "key %d", tt.key)
	}
}

func TestOverlayLines(t *testing.T) {
	t.Run("training ready", func(t *testing.T) {
		lines := OverlayLines(session.View{Mode: session.ModeTraining, Label: "fist", Ready: true, Captured: 2})
		assert.Equal(t, []string{"Training: fist (2 saved)", "Press 's' to save gesture", "Press 'q' to finish"}, lines)
	})

	t.Run("training without hand", func(t *testing.T) {
		lines := OverlayLines(session.View{Mode: session.ModeTraining, Label: "fist"})
		assert.Contains(t, lines, "No hand detected")
		assert.NotContains(t, lines, "Press 's' to save gesture")
	})

	t.Run("detection", func(t *testing.T) {
		lines := OverlayLines(session.View{Mode: session.ModeDetection, Label: "palm", Ready: true})
		assert.Equal(t, "Gesture: palm", lines[0])
	})

	t.Run("detection without hand", func(t *testing.T) {
		lines := OverlayLines(session.View{Mode: session.ModeDetection})
		assert.Equal(t, "No hand detected", lines[0])
	})

	t.Run("unknown mode", func(t *testing.T) {
		assert.Empty(t, OverlayLines(session.View{}))
	})
}

func TestToPixel(t *testing.T) {
	tests := []struct {
		name string
		p    detector.Point3D
		want image.Point
	}{
		{name: "center", p: detector.Point3D{X: 0.5, Y: 0.5}, want: image.Pt(320, 240)},
		{name: "origin", p: detector.Point3D{}, want: image.Pt(0, 0)},
		{name: "clamped high", p: detector.Point3D{X: 1.2, Y: 1}, want: image.Pt(639, 479)},
		{name: "clamped low", p: detector.Point3D{X: -0.1, Y: -3}, want: image.Pt(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToPixel(tt.p, 640, 480))
		})
	}
}

func TestDrawLandmarks(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	DrawLandmarks(&frame, nil)
	require.Equal(t, 0, gocv.CountNonZero(grayscale(t, frame)), "nil hand draws nothing")

	hand := detector.OpenPalmLandmarks()
	DrawLandmarks(&frame, &hand)
	assert.Greater(t, gocv.CountNonZero(grayscale(t, frame)), 0)

	wrist := ToPixel(hand.Points[detector.Wrist], 640, 480)
	px := frame.GetVecbAt(wrist.Y, wrist.X)
	assert.Equal(t, uint8(255), px[1], "landmark points are drawn in green")
}

func TestDrawOverlay(t *testing.T) {
	frame := gocv.NewMatWithSize(120, 400, gocv.MatTypeCV8UC3)
	defer frame.Close()

	DrawOverlay(&frame, session.View{Mode: session.ModeDetection, Label: "fist", Ready: true})
	assert.Greater(t, gocv.CountNonZero(grayscale(t, frame)), 0)
}

func grayscale(t *testing.T, frame gocv.Mat) gocv.Mat {
	t.Helper()
	gray := gocv.NewMat()
	t.Cleanup(func() { gray.Close() })
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	return gray
}

func TestTray_Events(t *testing.T) {
	tray := NewTray("mudra")

	assert.Equal(t, session.EventNone, tray.PollEvent())

	tray.push(session.EventCapture)
	tray.push(session.EventQuit)
	assert.Equal(t, session.EventCapture, tray.PollEvent())
	assert.Equal(t, session.EventQuit, tray.PollEvent())
	assert.Equal(t, session.EventNone, tray.PollEvent())

	for i := 0; i < 20; i++ {
		tray.push(session.EventCapture)
	}
	tray.Reset()
	assert.Equal(t, session.EventNone, tray.PollEvent(), "Reset drops queued clicks")
}

func TestTray_RenderBeforeSetup(t *testing.T) {
	tray := NewTray("mudra")
	assert.NoError(t, tray.Render(session.View{Mode: session.ModeDetection, Label: "fist", Ready: true}))
}

func TestTray_Titles(t *testing.T) {
	assert.Equal(t, "Last: none", LastTitle(""))
	assert.Equal(t, "Last: fist", LastTitle("fist"))

	assert.Equal(t, "Training fist: 3 saved", StatusTitle(session.View{Mode: session.ModeTraining, Label: "fist", Captured: 3}))
	assert.Equal(t, "Detecting: palm", StatusTitle(session.View{Mode: session.ModeDetection, Label: "palm", Ready: true}))
	assert.Equal(t, "Detecting: no hand", StatusTitle(session.View{Mode: session.ModeDetection}))
	assert.Equal(t, "Idle", StatusTitle(session.View{}))
}

func TestSurfacesImplementSessionInterfaces(t *testing.T) {
	var _ session.Display = (*Window)(nil)
	var _ session.Display = (*Tray)(nil)
}
