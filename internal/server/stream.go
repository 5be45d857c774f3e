package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"
)

const streamInterval = 66 * time.Millisecond // ~15 FPS

// FrameSource provides the most recent camera frame. The returned Mat is
// owned by the caller.
type FrameSource interface {
	Snapshot() (gocv.Mat, bool)
}

// StreamHandler serves the session's frames as MJPEG.
type StreamHandler struct {
	frames FrameSource
}

// NewStreamHandler creates a new StreamHandler reading from frames.
func NewStreamHandler(frames FrameSource) *StreamHandler {
	return &StreamHandler{frames: frames}
}

// ServeHTTP streams MJPEG frames until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		if err := h.writeFrame(w); err != nil {
			return
		}
	}
}

// writeFrame writes one multipart JPEG part. A missing frame is skipped.
func (h *StreamHandler) writeFrame(w http.ResponseWriter) error {
	frame, ok := h.frames.Snapshot()
	if !ok {
		return nil
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	frame.Close()
	if err != nil {
		return nil
	}
	defer buf.Close()

	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", buf.Len()); err != nil {
		return err
	}
	if _, err := w.Write(buf.GetBytes()); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
