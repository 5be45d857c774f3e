package ui

import (
	"strconv"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/session"
)

// Tray is the headless surface: a system tray menu with Capture and Quit
// items and a line showing the last recognized gesture.
type Tray struct {
	title  string
	events chan session.Event
	mu     sync.RWMutex

	// Menu items stored for later updates
	menuStatus  *systray.MenuItem
	menuLast    *systray.MenuItem
	menuCapture *systray.MenuItem
	menuQuit    *systray.MenuItem
}

// NewTray creates a Tray. Clicks are queued until polled.
func NewTray(title string) *Tray {
	return &Tray{
		title:  title,
		events: make(chan session.Event, 8),
	}
}

// Run starts the system tray and calls onReady once the menu exists.
// It blocks until Quit is called and must run on the main goroutine.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.setup()
		if onReady != nil {
			onReady()
		}
	}, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// setup creates the menu structure.
func (t *Tray) setup() {
	systray.SetTitle(t.title)
	systray.SetTooltip(t.title + " hand gesture recognition")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem("Idle", "Current session")
	t.menuStatus.Disable()
	t.menuLast = systray.AddMenuItem("Last: none", "Last detected gesture")
	t.menuLast.Disable()
	systray.AddSeparator()

	t.menuCapture = systray.AddMenuItem("Capture", "Save the current pose")
	t.menuQuit = systray.AddMenuItem("End session", "Finish the current session")
	capture, quit := t.menuCapture.ClickedCh, t.menuQuit.ClickedCh
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-capture:
				t.push(session.EventCapture)
			case <-quit:
				t.push(session.EventQuit)
			}
		}
	}()
}

// push queues e, dropping it when the queue is full.
func (t *Tray) push(e session.Event) {
	select {
	case t.events <- e:
	default:
	}
}

// PollEvent returns the oldest queued click, or EventNone.
func (t *Tray) PollEvent() session.Event {
	select {
	case e := <-t.events:
		return e
	default:
		return session.EventNone
	}
}

// Render updates the status and last-gesture lines.
func (t *Tray) Render(v session.View) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(StatusTitle(v))
	}
	if t.menuLast != nil && v.Mode == session.ModeDetection && v.Ready {
		t.menuLast.SetTitle(LastTitle(v.Label))
	}
	return nil
}

// Reset clears the queued clicks and shows the idle status. Call it between
// sessions.
func (t *Tray) Reset() {
	for {
		select {
		case <-t.events:
		default:
			t.mu.RLock()
			if t.menuStatus != nil {
				t.menuStatus.SetTitle("Idle")
			}
			t.mu.RUnlock()
			return
		}
	}
}

// LastTitle is the text of the last-gesture line.
func LastTitle(label string) string {
	if label == "" {
		return "Last: none"
	}
	return "Last: " + label
}

// StatusTitle is the text of the status line.
func StatusTitle(v session.View) string {
	switch v.Mode {
	case session.ModeTraining:
		return "Training " + v.Label + ": " + strconv.Itoa(v.Captured) + " saved"
	case session.ModeDetection:
		if v.Ready {
			return "Detecting: " + v.Label
		}
		return "Detecting: no hand"
	default:
		return "Idle"
	}
}
