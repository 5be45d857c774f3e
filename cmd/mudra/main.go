package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/feature"
	"github.com/ayusman/mudra/internal/hook"
	"github.com/ayusman/mudra/internal/menu"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/ui"
)

const title = "mudra"

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", config.DefaultPath(), "path to a YAML or TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	snap, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open gesture store: %v", err)
	}

	// Try MediaPipe first, fall back to mock detector
	var det detector.Detector
	mp, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:        cfg.Detector.MaxHands,
		MinConfidence:   cfg.Detector.MinConfidence,
		MinTrackingConf: cfg.Detector.MinTrackingConfidence,
	})
	if err != nil {
		color.Yellow("MediaPipe not available (%v); no hands will be detected\n", err)
		det = detector.NewMockDetector()
	} else {
		det = mp
	}

	feed := app.NewFeed(app.FeedConfig{
		Camera:   capture.NewCamera(cfg.Camera.Device, capture.WithResolution(cfg.Camera.Width, cfg.Camera.Height)),
		Detector: det,
		MaxFPS:   cfg.Camera.MaxFPS,
	})
	defer feed.Close()

	var srv *server.Server
	if cfg.Server.Addr != "" {
		srv = server.New(server.Config{StaticDir: findWebDir(), Frames: feed})
	}

	hooks := hook.NewManager(cfg.Hooks.Dir)
	if err := hooks.Discover(); err != nil {
		log.Printf("Failed to discover hooks in %s: %v", cfg.Hooks.Dir, err)
	}
	for _, h := range hooks.List() {
		fmt.Printf("Hook %s enabled\n", h.Manifest.Name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := &sessions{
		cfg:     cfg,
		snap:    snap,
		encoder: feature.NewEncoder(detector.NumLandmarks),
		feed:    feed,
		server:  srv,
		hooks:   hook.NewDispatcher(hooks, hook.NewExecutor(time.Duration(cfg.Hooks.TimeoutMs)*time.Millisecond), nil),
	}

	fmt.Printf("Gestures are stored in %s\n", snap.Path())

	if cfg.UI.Mode == config.ModeTray {
		tray := ui.NewTray(title)
		loop.surface = func() (surface, func()) { return tray, tray.Reset }
		tray.Run(func() {
			go func() {
				if err := loop.runMenu(ctx); err != nil {
					log.Printf("Error: %v", err)
				}
				tray.Quit()
			}()
		})
		return
	}

	loop.surface = func() (surface, func()) {
		w := ui.NewWindow(title, feed)
		return w, func() { w.Close() }
	}
	if err := loop.runMenu(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// surface is a UI that both displays sessions and produces their events.
type surface interface {
	app.EventSource
	session.Display
}

// sessions runs menu choices until the user quits.
type sessions struct {
	cfg     *config.Config
	snap    store.Snapshotter
	encoder *feature.Encoder
	feed    *app.Feed
	server  *server.Server
	hooks   *hook.Dispatcher

	// surface returns the UI for one session and a function releasing it.
	surface func() (surface, func())
}

func (s *sessions) runMenu(ctx context.Context) error {
	var last outcome
	for ctx.Err() == nil {
		var summary string
		if st, err := s.snap.Load(); err != nil {
			summary = errorOutcome(err).message
		} else {
			summary = describe(st.Summary())
		}

		choice, err := menu.Run(summary, last.message)
		if err != nil {
			return err
		}
		if choice.Action == menu.ActionQuit {
			return nil
		}

		last = s.run(ctx, choice)
		last.print()
	}
	return nil
}

// run executes one menu choice on a fresh surface and releases the camera
// afterwards.
func (s *sessions) run(ctx context.Context, choice menu.Choice) outcome {
	surf, release := s.surface()
	defer release()
	defer func() {
		if err := s.feed.Stop(); err != nil {
			log.Printf("Error releasing camera: %v", err)
		}
	}()
	s.feed.SetEvents(surf)

	runner, err := app.NewRunner(app.Config{
		Snapshotter: s.snap,
		Encoder:     s.encoder,
		Source:      s.feed,
		Display:     surf,
		Server:      s.server,
		ServerAddr:  s.cfg.Server.Addr,
		OnResult:    s.hooks.Handle,
	})
	if err != nil {
		return failure("Session failed: %v", err)
	}

	if choice.Action == menu.ActionTrain {
		fmt.Printf("Training %q: press 's' to save the pose, 'q' to finish\n", choice.Label)
		return trainingOutcome(runner.Train(ctx, choice.Label))
	}
	fmt.Println("Detecting: press 'q' to stop")
	defer s.hooks.Reset()
	defer s.hooks.Wait()
	return detectionOutcome(runner.Detect(ctx))
}

// findWebDir returns the first of web, ../web and ~/.mudra/web that exists.
func findWebDir() string {
	candidates := []string{"web", "../web"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".mudra", "web"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
