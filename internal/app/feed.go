// Package app wires the camera, the hand detector and the UI into training
// and detection sessions.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"gocv.io/x/gocv"
	"golang.org/x/time/rate"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/session"
)

// DefaultMaxFPS caps the frame rate when FeedConfig.MaxFPS is unset.
const DefaultMaxFPS = 15

// EventSource is polled once per frame for keyboard or menu input.
// PollEvent must not block.
type EventSource interface {
	PollEvent() session.Event
}

// FeedConfig holds the collaborators of a Feed.
type FeedConfig struct {
	Camera   capture.Camera
	Detector detector.Detector
	Events   EventSource
	MaxFPS   float64
	Logger   *log.Logger
}

// Feed turns camera frames into session ticks. It implements session.Source.
type Feed struct {
	camera   capture.Camera
	detector detector.Detector
	events   EventSource
	limiter  *rate.Limiter
	logger   *log.Logger

	mu    sync.Mutex
	frame *gocv.Mat
}

// NewFeed creates a Feed. The camera is opened lazily on the first Next.
func NewFeed(config FeedConfig) *Feed {
	fps := config.MaxFPS
	if fps <= 0 {
		fps = DefaultMaxFPS
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Feed{
		camera:   config.Camera,
		detector: config.Detector,
		events:   config.Events,
		limiter:  rate.NewLimiter(rate.Limit(fps), 1),
		logger:   logger,
	}
}

// SetEvents replaces the event source. It must be called before the
// session starts.
func (f *Feed) SetEvents(events EventSource) {
	f.events = events
}

// Next waits for the next frame slot, reads a frame, detects hands and
// polls the event source. Detector failures are logged and yield a tick
// without a pose. A frame the camera fails to deliver ends the stream with
// an error wrapping io.EOF. Other camera errors are returned as is.
func (f *Feed) Next(ctx context.Context) (session.Tick, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return session.Tick{}, ctxErr
		}
		return session.Tick{}, err
	}

	if !f.camera.IsOpen() {
		if err := f.camera.Open(); err != nil {
			return session.Tick{}, err
		}
	}

	frame, err := f.camera.ReadFrame()
	if errors.Is(err, capture.ErrNoFrame) {
		f.logger.Printf("Camera stopped delivering frames, ending session")
		return session.Tick{}, fmt.Errorf("%w: %w", io.EOF, err)
	}
	if err != nil {
		return session.Tick{}, err
	}

	var tick session.Tick
	if f.detector != nil {
		hands, err := f.detector.Detect(frame)
		if err != nil {
			f.logger.Printf("Error detecting hands: %v", err)
		} else if len(hands) > 0 {
			hand := hands[0]
			tick.Hand = &hand
		}
	}

	f.setFrame(frame)

	if f.events != nil {
		tick.Event = f.events.PollEvent()
	}
	return tick, nil
}

func (f *Feed) setFrame(frame *gocv.Mat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frame != nil {
		f.frame.Close()
	}
	f.frame = frame
}

// Snapshot returns a copy of the latest frame. The caller must close it.
func (f *Feed) Snapshot() (gocv.Mat, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frame == nil || f.frame.Empty() {
		return gocv.Mat{}, false
	}
	return f.frame.Clone(), true
}

// Stop releases the last frame and the camera. The next call to Next
// reopens the camera.
func (f *Feed) Stop() error {
	f.setFrame(nil)
	return f.camera.Close()
}

// Close stops the feed and releases the detector.
func (f *Feed) Close() error {
	firstErr := f.Stop()
	if f.detector != nil {
		if err := f.detector.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
