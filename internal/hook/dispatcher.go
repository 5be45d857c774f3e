package hook

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/session"
)

// MaxConcurrent caps the number of hook programs running at once.
const MaxConcurrent = 4

// Dispatcher runs the matching hooks whenever the detected label differs
// from the previous detection. Hooks run in the background; when all slots
// are busy the notification is dropped.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	logger   *log.Logger

	mu    sync.Mutex
	last  string
	group errgroup.Group
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(manager *Manager, executor *Executor, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	d := &Dispatcher{manager: manager, executor: executor, logger: logger}
	d.group.SetLimit(MaxConcurrent)
	return d
}

// Handle is a detection result callback.
func (d *Dispatcher) Handle(r session.Result) {
	d.mu.Lock()
	previous := d.last
	if r.Match.Label == previous {
		d.mu.Unlock()
		return
	}
	d.last = r.Match.Label
	d.mu.Unlock()

	req := &Request{
		Label:     r.Match.Label,
		Previous:  previous,
		Distance:  r.Match.Distance,
		Index:     r.Match.Index,
		Timestamp: r.Timestamp.UnixMilli(),
	}

	for _, h := range d.manager.For(r.Match.Label) {
		started := d.group.TryGo(func() error {
			d.run(h, req)
			return nil
		})
		if !started {
			d.logger.Printf("Hook %s skipped for %q: too many hooks running", h.Manifest.Name, req.Label)
		}
	}
}

func (d *Dispatcher) run(h *Hook, req *Request) {
	resp, err := d.executor.Execute(context.Background(), h, req)
	if err != nil {
		d.logger.Printf("Hook error: %v", err)
		return
	}
	if !resp.Success {
		d.logger.Printf("Hook %s reported failure for %q: %s", h.Manifest.Name, req.Label, resp.Error)
	}
}

// Reset forgets the previous label so the next detection always fires.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = ""
}

// Wait blocks until every running hook has finished.
func (d *Dispatcher) Wait() {
	d.group.Wait()
}
