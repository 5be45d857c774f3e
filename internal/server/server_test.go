package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/session"
)

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		assert.Equal(t, "ok", response["status"])
		assert.Contains(t, response, "uptime")
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "method %s", method)
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a test HTML file
	testContent := "<html><body>Hello, World!</body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644))

	// Create a CSS file for testing direct file access
	cssContent := "body { color: red; }"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "style.css"), []byte(cssContent), 0644))

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, testContent, rec.Body.String())
	})

	t.Run("serves static files from configured directory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, cssContent, rec.Body.String())
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	t.Run("root path returns 404 when no static dir configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_Gestures(t *testing.T) {
	s := New(Config{})

	get := func(t *testing.T) map[string]interface{} {
		t.Helper()
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/gestures", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		return response
	}

	t.Run("empty before a session loads a store", func(t *testing.T) {
		assert.Equal(t, float64(0), get(t)["total"])
	})

	t.Run("reflects the published store", func(t *testing.T) {
		st := gesture.NewStore()
		require.NoError(t, st.Append(feature.Vector{1, 2}, "fist"))
		s.SetStore(st)

		response := get(t)
		assert.Equal(t, float64(1), response["total"])
		assert.Equal(t, float64(2), response["dimension"])

		require.NoError(t, st.Append(feature.Vector{3, 4}, "palm"))
		assert.Equal(t, float64(2), get(t)["total"], "total after append")
	})
}

func TestServer_DetectionsBroadcast(t *testing.T) {
	s := New(Config{})
	ts := httptest.NewServer(s)
	defer ts.Close()

	url := "ws" + ts.URL[len("http"):] + "/api/detections"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.detections.Clients() == 1 },
		2*time.Second, 5*time.Millisecond, "client was never registered")

	at := time.UnixMilli(1700000000000)
	s.Publish(session.Result{
		Match:     gesture.Match{Label: "fist", Index: 2, Distance: 0.25},
		Timestamp: at,
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg detectionMessage
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, detectionMessage{Label: "fist", Distance: 0.25, Index: 2, Timestamp: at.UnixMilli()}, msg)
}

func TestServer_PublishWithoutClients(t *testing.T) {
	s := New(Config{})
	s.Publish(session.Result{Match: gesture.Match{Label: "fist"}, Timestamp: time.Now()})

	assert.Zero(t, s.detections.Clients())
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	s := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestServer_RunInvalidAddr(t *testing.T) {
	s := New(Config{})

	err := s.Run(context.Background(), "256.0.0.1:-1")
	assert.Error(t, err, "expected an error for an invalid address")
}

type staticFrames struct {
	mat gocv.Mat
}

func (f *staticFrames) Snapshot() (gocv.Mat, bool) {
	if f.mat.Empty() {
		return gocv.Mat{}, false
	}
	return f.mat.Clone(), true
}

func TestServer_Stream(t *testing.T) {
	t.Run("not registered without a frame source", func(t *testing.T) {
		s := New(Config{})
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("streams jpeg parts", func(t *testing.T) {
		frames := &staticFrames{mat: gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)}
		defer frames.mat.Close()

		ts := httptest.NewServer(New(Config{Frames: frames}))
		defer ts.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
		require.NoError(t, err)
		resp, err := ts.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", resp.Header.Get("Content-Type"))

		reader := bufio.NewReader(resp.Body)
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "--frame\r\n", line)

		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "Content-Type: image/jpeg\r\n", line)
	})
}

func TestNew(t *testing.T) {
	t.Run("creates server with config", func(t *testing.T) {
		cfg := Config{StaticDir: "/some/path"}
		s := New(cfg)

		require.NotNil(t, s)
		assert.Equal(t, cfg.StaticDir, s.config.StaticDir)
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		s := New(Config{})
		var _ http.Handler = s
	})
}
