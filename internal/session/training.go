package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// State is the training controller state.
type State string

const (
	StateIdle      State = "idle"
	StateCapturing State = "capturing"
)

// TrainingConfig holds the collaborators of a training session.
type TrainingConfig struct {
	Store       *gesture.Store
	Snapshotter store.Snapshotter
	Encoder     *feature.Encoder
	Label       string
	Logger      *log.Logger
}

// TrainingResult summarizes a finished training session.
type TrainingResult struct {
	SessionID string
	Label     string
	Captured  int
	Total     int
}

// Training accumulates examples under a single label and persists the store
// once when the session ends.
type Training struct {
	config TrainingConfig
	id     string
	logger *log.Logger

	mu       sync.Mutex
	state    State
	captured int
}

// NewTraining validates the configuration and returns an idle controller.
func NewTraining(config TrainingConfig) (*Training, error) {
	if config.Label == "" {
		return nil, gesture.ErrEmptyLabel
	}
	if config.Store == nil || config.Snapshotter == nil || config.Encoder == nil {
		return nil, errors.New("training session requires a store, a snapshotter and an encoder")
	}
	if dim := config.Store.Dim(); dim != 0 && dim != config.Encoder.Dim() {
		return nil, fmt.Errorf("%w: stored gestures have %d values, encoder produces %d",
			gesture.ErrDimensionMismatch, dim, config.Encoder.Dim())
	}

	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Training{
		config: config,
		id:     uuid.NewString(),
		logger: logger,
		state:  StateIdle,
	}, nil
}

// ID returns the session identifier.
func (t *Training) ID() string {
	return t.id
}

// State returns the current controller state.
func (t *Training) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Training) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// Run consumes ticks until a quit event, the end of the stream or context
// cancellation, then saves the store. Errors from the source, the encoder or
// the store end the session without saving.
func (t *Training) Run(ctx context.Context, src Source, disp Display) (TrainingResult, error) {
	t.setState(StateCapturing)
	defer t.setState(StateIdle)

	t.logger.Printf("Training session %s started for %q (%d examples loaded)", t.id, t.config.Label, t.config.Store.Len())

	if err := t.loop(ctx, src, disp); err != nil {
		return t.result(), err
	}

	if err := t.config.Snapshotter.Save(t.config.Store); err != nil {
		return t.result(), fmt.Errorf("save gestures: %w", err)
	}

	t.logger.Printf("Training session %s saved %d new examples (%d total) to %s",
		t.id, t.captured, t.config.Store.Len(), t.config.Snapshotter.Path())
	return t.result(), nil
}

func (t *Training) loop(ctx context.Context, src Source, disp Display) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		tick, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("next frame: %w", err)
		}

		if tick.Event == EventQuit {
			return nil
		}

		if tick.Event == EventCapture && tick.Hand != nil {
			if err := t.capture(tick); err != nil {
				return err
			}
		}

		if disp != nil {
			view := View{
				Mode:     ModeTraining,
				Label:    t.config.Label,
				Ready:    tick.Hand != nil,
				Captured: t.captured,
				Hand:     tick.Hand,
			}
			if err := disp.Render(view); err != nil {
				return fmt.Errorf("render: %w", err)
			}
		}
	}
}

func (t *Training) capture(tick Tick) error {
	v, err := t.config.Encoder.EncodeHand(tick.Hand)
	if err != nil {
		return fmt.Errorf("encode pose: %w", err)
	}
	if err := t.config.Store.Append(v, t.config.Label); err != nil {
		if errors.Is(err, gesture.ErrNonFinite) {
			t.logger.Printf("Pose for %q skipped: %v", t.config.Label, err)
			return nil
		}
		return fmt.Errorf("store pose: %w", err)
	}
	t.captured++
	t.logger.Printf("Gesture %q captured (%d this session)", t.config.Label, t.captured)
	return nil
}

func (t *Training) result() TrainingResult {
	return TrainingResult{
		SessionID: t.id,
		Label:     t.config.Label,
		Captured:  t.captured,
		Total:     t.config.Store.Len(),
	}
}
