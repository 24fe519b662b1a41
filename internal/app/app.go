// Package app runs the live camera pipeline: frames are read from the camera,
// hands are detected and the first hand is fed to a typing session.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/handtype/internal/capture"
	"github.com/ayusman/handtype/internal/detector"
	"github.com/ayusman/handtype/internal/session"
)

// Config holds the collaborators of the pipeline.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Session  *session.Session
	// FPS is the pipeline tick rate. Defaults to the camera's FPS.
	FPS    int
	Logger *slog.Logger
	// OnResult, when set, is called from the pipeline goroutine after every
	// submitted frame.
	OnResult func(session.Result)
}

// App is the camera-driven producer for one session.
type App struct {
	config  Config
	logger  *slog.Logger
	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates an App. Camera, Detector and Session are required.
func New(config Config) (*App, error) {
	if config.Camera == nil || config.Detector == nil || config.Session == nil {
		return nil, errors.New("app needs a camera, a detector and a session")
	}
	if config.FPS <= 0 {
		config.FPS = config.Camera.FPS()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &App{
		config: config,
		logger: logger.With("component", "pipeline", "session", config.Session.ID()),
	}, nil
}

// SetEnabled enables or disables gesture detection.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Session returns the session frames are submitted to.
func (a *App) Session() *session.Session {
	return a.config.Session
}

// Start opens the camera and begins the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.config.Camera.Open(); err != nil {
		return err
	}
	a.config.Camera.SetFPS(a.config.FPS)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	a.logger.Info("detection pipeline started", "fps", a.config.FPS)
	return nil
}

// Stop halts the pipeline and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	if err := a.config.Camera.Close(); err != nil {
		a.logger.Error("closing camera", "error", err)
	}
	if err := a.config.Detector.Close(); err != nil {
		a.logger.Error("closing detector", "error", err)
	}

	a.logger.Info("detection pipeline stopped")
}

// ProcessFrame detects hands in frame and submits the first one, or a
// no-hand frame when none is found.
func (a *App) ProcessFrame(ctx context.Context, frame *gocv.Mat) (session.Result, error) {
	hands, err := a.config.Detector.Detect(frame)
	if err != nil {
		return session.Result{}, err
	}

	var f session.Frame
	if len(hands) > 0 {
		f.Hand = &hands[0]
	}
	return a.config.Session.Submit(ctx, f)
}
