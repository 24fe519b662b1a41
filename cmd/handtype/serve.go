package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/handtype/internal/app"
	"github.com/ayusman/handtype/internal/capture"
	"github.com/ayusman/handtype/internal/detector"
	"github.com/ayusman/handtype/internal/plugin"
	"github.com/ayusman/handtype/internal/server"
	"github.com/ayusman/handtype/internal/session"
	"github.com/ayusman/handtype/internal/store"
	"github.com/ayusman/handtype/internal/text"
	"github.com/ayusman/handtype/internal/tray"
)

const (
	pluginTimeout   = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

var serveFlags struct {
	addr      string
	staticDir string
	pluginDir string
	camera    bool
	cameraID  int
	fps       int
	keyboard  bool
	tray      bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, optionally, the local camera pipeline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyServeFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return runServe(cmd.Context())
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", "", "listen address (default from config)")
	f.StringVar(&serveFlags.staticDir, "static", "", "directory of static files to serve")
	f.StringVar(&serveFlags.pluginDir, "plugins", "", "plugin directory")
	f.BoolVar(&serveFlags.camera, "camera", false, "read gestures from the local camera")
	f.IntVar(&serveFlags.cameraID, "camera-id", 0, "camera device id")
	f.IntVar(&serveFlags.fps, "fps", 0, "camera frames per second")
	f.BoolVar(&serveFlags.keyboard, "keyboard", false, "type camera gestures into the focused window")
	f.BoolVar(&serveFlags.tray, "tray", false, "show the system tray menu")
}

// applyServeFlags overrides config values with flags the user actually set.
func applyServeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("addr") {
		cfg.Addr = serveFlags.addr
	}
	if f.Changed("static") {
		cfg.StaticDir = serveFlags.staticDir
	}
	if f.Changed("plugins") {
		cfg.PluginDir = serveFlags.pluginDir
	}
	if f.Changed("camera") {
		cfg.Camera = serveFlags.camera
	}
	if f.Changed("camera-id") {
		cfg.CameraID = serveFlags.cameraID
	}
	if f.Changed("fps") {
		cfg.FPS = serveFlags.fps
	}
	if f.Changed("keyboard") {
		cfg.Keyboard = serveFlags.keyboard
	}
	if f.Changed("tray") {
		cfg.Tray = serveFlags.tray
	}
}

func runServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	base, err := cfg.Tunables()
	if err != nil {
		return err
	}
	tunables, err := st.Settings().LoadTunables(base)
	if err != nil {
		logger.Warn("ignoring stored settings", "error", err)
		tunables = base
	}

	var ui *tray.Tray
	if cfg.Tray {
		ui = tray.New(true)
	}

	sessions := session.NewManager(session.Options{
		Config:    tunables,
		QueueSize: cfg.QueueSize,
		Logger:    logger,
	})
	defer sessions.Close()

	var pipeline *app.App
	if cfg.Camera {
		var stop func()
		pipeline, stop, err = startCamera(sessions, ui)
		if err != nil {
			logger.Error("camera pipeline disabled", "error", err)
		} else {
			defer stop()
		}
	}

	srv := server.New(server.Config{
		StaticDir: cfg.StaticDir,
		Store:     st,
		Sessions:  sessions,
		Logger:    logger,
	})
	httpServer := srv.HTTPServer(cfg.Addr)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Addr, "static", cfg.StaticDir)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if ui != nil {
		ui.OnToggle(func(enabled bool) {
			if pipeline != nil {
				pipeline.SetEnabled(enabled)
			}
		})
		ui.OnSettings(func() { openBrowser(settingsURL(cfg.Addr)) })
		ui.OnQuit(cancel)
		go func() {
			select {
			case <-ctx.Done():
			case <-serveErr:
				cancel()
			}
			ui.Quit()
		}()
		// systray needs the main goroutine on macOS.
		ui.Run()
	} else {
		select {
		case <-ctx.Done():
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
		}
	}

	logger.Info("shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	return httpServer.Shutdown(shutdownCtx)
}

// startCamera builds the local camera session. When the keyboard is enabled
// its edits are also sent to the keyboard plugin. The returned func stops the
// pipeline and flushes the keyboard.
func startCamera(sessions *session.Manager, ui *tray.Tray) (*app.App, func(), error) {
	det, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("hand detector unavailable: %w", err)
	}

	var sink text.Sink
	var keyboard *plugin.KeyboardSink
	if cfg.Keyboard {
		keyboard, err = openKeyboard()
		if err != nil {
			logger.Error("keyboard output disabled", "error", err)
		} else {
			sink = keyboard
		}
	}
	closeKeyboard := func() {
		if keyboard != nil {
			keyboard.Close()
		}
	}

	sess, err := sessions.CreateWith(nil, sink)
	if err != nil {
		det.Close()
		closeKeyboard()
		return nil, nil, err
	}
	logger.Info("camera session", "session", sess.ID())

	pipeline, err := app.New(app.Config{
		Camera: capture.NewCamera(capture.Options{
			DeviceID: cfg.CameraID,
			FPS:      cfg.FPS,
			Mirror:   cfg.Mirror,
		}),
		Detector: det,
		Session:  sess,
		FPS:      cfg.FPS,
		Logger:   logger,
		OnResult: trayResults(ui),
	})
	if err != nil {
		det.Close()
		closeKeyboard()
		sessions.Delete(sess.ID())
		return nil, nil, err
	}

	stop := func() {
		pipeline.Stop()
		closeKeyboard()
	}
	if err := pipeline.Start(); err != nil {
		stop()
		sessions.Delete(sess.ID())
		return nil, nil, fmt.Errorf("failed to start camera: %w", err)
	}
	pipeline.SetEnabled(true)
	return pipeline, stop, nil
}

// trayResults shows the camera session's committed actions in the tray.
// Remote sessions never reach the tray.
func trayResults(ui *tray.Tray) func(session.Result) {
	if ui == nil {
		return nil
	}
	return func(r session.Result) {
		if r.Action == nil {
			return
		}
		ui.SetLastAction(string(r.Action.Gesture))
		ui.SetText(r.Text)
	}
}

func openKeyboard() (*plugin.KeyboardSink, error) {
	plugins := plugin.NewManager(cfg.PluginDir)
	if err := plugins.Discover(); err != nil {
		return nil, err
	}
	kb, err := plugins.Get(plugin.KeyboardPlugin)
	if err != nil {
		return nil, fmt.Errorf("%s in %s: %w", plugin.KeyboardPlugin, cfg.PluginDir, err)
	}
	return plugin.NewKeyboardSink(kb, plugin.NewExecutor(pluginTimeout), logger)
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open browser", "url", url, "error", err)
	}
}
