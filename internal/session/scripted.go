package session

import (
	"context"
	"io"
	"sync"
)

// ScriptedSource replays a fixed list of ticks and then returns io.EOF.
// It lets sessions run without a camera.
type ScriptedSource struct {
	mu    sync.Mutex
	ticks []Tick
	next  int
}

// NewScriptedSource creates a source that yields ticks in order.
func NewScriptedSource(ticks ...Tick) *ScriptedSource {
	return &ScriptedSource{ticks: ticks}
}

// Next returns the next scripted tick.
func (s *ScriptedSource) Next(ctx context.Context) (Tick, error) {
	if err := ctx.Err(); err != nil {
		return Tick{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.ticks) {
		return Tick{}, io.EOF
	}
	t := s.ticks[s.next]
	s.next++
	return t, nil
}

// Remaining reports how many ticks have not been consumed.
func (s *ScriptedSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ticks) - s.next
}

// RecordingDisplay keeps every rendered view.
type RecordingDisplay struct {
	mu    sync.Mutex
	views []View
}

// Render records v.
func (d *RecordingDisplay) Render(v View) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.views = append(d.views, v)
	return nil
}

// Views returns the recorded views in order.
func (d *RecordingDisplay) Views() []View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]View(nil), d.views...)
}

// Last returns the most recent view.
func (d *RecordingDisplay) Last() (View, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.views) == 0 {
		return View{}, false
	}
	return d.views[len(d.views)-1], true
}
