// Package hook runs external programs when the detected gesture changes.
//
// Each hook lives in its own directory under the hooks directory and is
// described by a hook.json manifest. The program receives a JSON Request on
// stdin and answers with a JSON Response on stdout.
package hook

// ManifestFile is the manifest name inside a hook directory.
const ManifestFile = "hook.json"

// Manifest describes a hook.
type Manifest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Executable  string `json:"executable"`

	// Labels limits the hook to these gestures. Empty means every gesture.
	Labels []string `json:"labels,omitempty"`
}

// Request is sent to a hook when a new gesture is recognized.
type Request struct {
	Label     string  `json:"label"`
	Previous  string  `json:"previous"`
	Distance  float64 `json:"distance"`
	Index     int     `json:"index"`
	Timestamp int64   `json:"timestamp"`
}

// Response is the hook's answer.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Accepts reports whether the hook wants to hear about label.
func (h *Hook) Accepts(label string) bool {
	if len(h.Manifest.Labels) == 0 {
		return true
	}
	for _, l := range h.Manifest.Labels {
		if l == label {
			return true
		}
	}
	return false
}
