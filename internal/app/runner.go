package app

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the collaborators shared by every menu choice.
type Config struct {
	Snapshotter store.Snapshotter
	Encoder     *feature.Encoder
	Source      session.Source
	Display     session.Display

	// Server, if set, runs on ServerAddr alongside every session.
	Server     *server.Server
	ServerAddr string

	// OnResult, if set, receives every detection result.
	OnResult func(session.Result)

	Logger *log.Logger
}

// Runner executes training and detection sessions against the configured
// snapshot, source and display.
type Runner struct {
	config Config
	logger *log.Logger
}

// NewRunner creates a Runner.
func NewRunner(config Config) (*Runner, error) {
	if config.Snapshotter == nil || config.Encoder == nil || config.Source == nil {
		return nil, errors.New("runner requires a snapshotter, an encoder and a source")
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{config: config, logger: logger}, nil
}

// Train loads the snapshot and runs a training session for label.
func (r *Runner) Train(ctx context.Context, label string) (session.TrainingResult, error) {
	st, err := r.config.Snapshotter.Load()
	if err != nil {
		return session.TrainingResult{}, err
	}

	training, err := session.NewTraining(session.TrainingConfig{
		Store:       st,
		Snapshotter: r.config.Snapshotter,
		Encoder:     r.config.Encoder,
		Label:       label,
		Logger:      r.logger,
	})
	if err != nil {
		return session.TrainingResult{}, err
	}

	var result session.TrainingResult
	err = r.run(ctx, st, func(ctx context.Context) error {
		var runErr error
		result, runErr = training.Run(ctx, r.config.Source, r.config.Display)
		return runErr
	})
	return result, err
}

// Detect loads the snapshot and runs a detection session. It returns
// gesture.ErrNoExamples when nothing has been trained yet.
func (r *Runner) Detect(ctx context.Context) error {
	st, err := r.config.Snapshotter.Load()
	if err != nil {
		return err
	}

	detection, err := session.NewDetection(session.DetectionConfig{
		Store:    st,
		Encoder:  r.config.Encoder,
		Logger:   r.logger,
		OnResult: r.publish,
	})
	if err != nil {
		return err
	}

	return r.run(ctx, st, func(ctx context.Context) error {
		return detection.Run(ctx, r.config.Source, r.config.Display)
	})
}

// Summary returns the labels in the snapshot with their example counts.
func (r *Runner) Summary() ([]gesture.LabelCount, error) {
	st, err := r.config.Snapshotter.Load()
	if err != nil {
		return nil, err
	}
	return st.Summary(), nil
}

func (r *Runner) publish(res session.Result) {
	if r.config.Server != nil {
		r.config.Server.Publish(res)
	}
	if r.config.OnResult != nil {
		r.config.OnResult(res)
	}
}

// run executes fn, alongside the result server when one is configured.
// The server stops when fn returns.
func (r *Runner) run(ctx context.Context, st *gesture.Store, fn func(context.Context) error) error {
	if r.config.Server == nil || r.config.ServerAddr == "" {
		return fn(ctx)
	}

	r.config.Server.SetStore(st)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return fn(gctx)
	})
	g.Go(func() error {
		return r.config.Server.Run(gctx, r.config.ServerAddr)
	})
	return g.Wait()
}
