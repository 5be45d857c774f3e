package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/gesture"
)

// Result is one classified frame.
type Result struct {
	Match     gesture.Match
	Timestamp time.Time
}

// DetectionConfig holds the collaborators of a detection session.
type DetectionConfig struct {
	Store      *gesture.Store
	Encoder    *feature.Encoder
	Classifier *gesture.Classifier
	Logger     *log.Logger

	// OnResult, if set, is called with every classification.
	OnResult func(Result)
}

// Detection classifies every incoming pose against a read-only store.
type Detection struct {
	config DetectionConfig
	logger *log.Logger
}

// NewDetection refuses to start on an empty store (gesture.ErrNoExamples) or
// on a store whose vectors the encoder cannot match (gesture.ErrDimensionMismatch).
func NewDetection(config DetectionConfig) (*Detection, error) {
	if config.Store == nil || config.Encoder == nil {
		return nil, errors.New("detection session requires a store and an encoder")
	}
	if config.Store.Len() == 0 {
		return nil, gesture.ErrNoExamples
	}
	if dim := config.Store.Dim(); dim != config.Encoder.Dim() {
		return nil, fmt.Errorf("%w: stored gestures have %d values, encoder produces %d",
			gesture.ErrDimensionMismatch, dim, config.Encoder.Dim())
	}
	if config.Classifier == nil {
		config.Classifier = gesture.NewClassifier()
	}

	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Detection{config: config, logger: logger}, nil
}

// Run classifies each tick's pose independently until a quit event, the end
// of the stream or context cancellation. The store is never written.
func (d *Detection) Run(ctx context.Context, src Source, disp Display) error {
	d.logger.Printf("Detection session started with %d examples", d.config.Store.Len())

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

		view := View{Mode: ModeDetection, Hand: tick.Hand}

		if tick.Hand != nil {
			match, err := d.Classify(tick)
			switch {
			case errors.Is(err, gesture.ErrNonFinite):
				d.logger.Printf("Pose skipped: %v", err)
				view.Hand = nil
			case err != nil:
				return err
			default:
				view.Ready = true
				view.Label = match.Label
				view.Distance = match.Distance

				if d.config.OnResult != nil {
					d.config.OnResult(Result{Match: match, Timestamp: time.Now()})
				}
			}
		}

		if err := d.render(disp, view); err != nil {
			return err
		}
	}
}

func (d *Detection) render(disp Display, view View) error {
	if disp == nil {
		return nil
	}
	if err := disp.Render(view); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// Classify encodes the tick's pose and returns its nearest stored gesture.
func (d *Detection) Classify(tick Tick) (gesture.Match, error) {
	if tick.Hand == nil {
		return gesture.Match{}, errors.New("no pose to classify")
	}

	v, err := d.config.Encoder.EncodeHand(tick.Hand)
	if err != nil {
		return gesture.Match{}, fmt.Errorf("encode pose: %w", err)
	}

	match, err := d.config.Classifier.Classify(v, d.config.Store)
	if err != nil {
		return gesture.Match{}, fmt.Errorf("classify pose: %w", err)
	}
	return match, nil
}
