// Package api provides HTTP API handlers for the mudra result server.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
)

// StoreFunc returns the store of the running session, or nil when no
// session has loaded one yet.
type StoreFunc func() *gesture.Store

// GestureHandler serves read-only views of the gesture store.
type GestureHandler struct {
	store StoreFunc
}

// NewGestureHandler creates a new GestureHandler reading from store.
func NewGestureHandler(store StoreFunc) *GestureHandler {
	return &GestureHandler{store: store}
}

// ServeHTTP routes /api/gestures and /api/gestures/{label}.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	label := strings.TrimPrefix(r.URL.Path, "/api/gestures")
	label = strings.TrimPrefix(label, "/")

	if label == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, label)
}

type labelResponse struct {
	Label    string `json:"label"`
	Examples int    `json:"examples"`
}

type listGesturesResponse struct {
	Dimension int             `json:"dimension"`
	Total     int             `json:"total"`
	Gestures  []labelResponse `json:"gestures"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/gestures and returns every label with its example count.
func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	response := listGesturesResponse{Gestures: []labelResponse{}}

	if s := h.current(); s != nil {
		response.Dimension = s.Dim()
		response.Total = s.Len()
		for _, lc := range s.Summary() {
			response.Gestures = append(response.Gestures, labelResponse{Label: lc.Label, Examples: lc.Count})
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/gestures/{label}.
func (h *GestureHandler) get(w http.ResponseWriter, r *http.Request, label string) {
	s := h.current()
	if s == nil {
		writeError(w, http.StatusNotFound, "Gesture not found")
		return
	}

	for _, lc := range s.Summary() {
		if lc.Label == label {
			writeJSON(w, http.StatusOK, labelResponse{Label: lc.Label, Examples: lc.Count})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Gesture not found")
}

func (h *GestureHandler) current() *gesture.Store {
	if h.store == nil {
		return nil
	}
	return h.store()
}
