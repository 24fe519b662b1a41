package app

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/handtype/internal/session"
)

// runPipeline reads one frame per tick while enabled. Disabling the
// pipeline submits a single no-hand frame so a half-held pose does not carry
// over into the next enabled period.
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	wasEnabled := false
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			enabled := a.IsEnabled()
			if !enabled {
				if wasEnabled {
					a.submit(ctx, session.Frame{})
				}
				wasEnabled = false
				continue
			}
			wasEnabled = true
			a.tick(ctx)
		}
	}
}

func (a *App) tick(ctx context.Context) {
	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		a.logger.Warn("reading frame", "error", err)
		return
	}
	defer frame.Close()

	res, err := a.ProcessFrame(ctx, frame)
	if err != nil {
		a.logFrameError(err)
		return
	}
	a.deliver(res)
}

func (a *App) submit(ctx context.Context, f session.Frame) {
	res, err := a.config.Session.Submit(ctx, f)
	if err != nil {
		a.logFrameError(err)
		return
	}
	a.deliver(res)
}

func (a *App) deliver(res session.Result) {
	if res.Action != nil {
		a.logger.Debug("gesture committed", "gesture", res.Action.Gesture)
	}
	if a.config.OnResult != nil {
		a.config.OnResult(res)
	}
}

func (a *App) logFrameError(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	a.logger.Warn("processing frame", "error", err)
}
