package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ayusman/fingershot/internal/aim"
	"github.com/ayusman/fingershot/internal/capture"
	"github.com/ayusman/fingershot/internal/config"
	"github.com/ayusman/fingershot/internal/detector"
	"github.com/ayusman/fingershot/internal/effect"
	"github.com/ayusman/fingershot/internal/game"
	"github.com/ayusman/fingershot/internal/plugin"
	"github.com/ayusman/fingershot/internal/server"
	"github.com/ayusman/fingershot/internal/store"
	"github.com/ayusman/fingershot/internal/target"
	"github.com/ayusman/fingershot/internal/tray"
)

const shutdownTimeout = 5 * time.Second

func main() {
	fmt.Println("Fingershot - Finger Gun Target Practice")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		log.Fatalf("Failed to load tuning: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := st.Sessions().Start(ctx)
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	log.Printf("Started session %s", sess.ID)
	defer func() {
		if err := st.Sessions().End(context.Background(), sess.ID); err != nil {
			log.Printf("Error ending session: %v", err)
		}
	}()

	// Hit hooks
	plugins := plugin.NewManager(cfg.PluginDir)
	if err := plugins.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	hooks := plugin.NewHitHooks(plugins, plugin.NewExecutor(cfg.HookTimeout))
	defer hooks.Wait()
	if n := len(plugins.Subscribers(plugin.EventHit)); n > 0 {
		log.Printf("Loaded %d hit hook(s) from %s", n, cfg.PluginDir)
	}

	camera := aim.NewCamera(tuning.CameraConfig(aim.DefaultCameraConfig().Aspect))
	events := server.NewEventHub(camera)

	g := game.New(game.Config{
		Camera:      camera,
		Classifier:  tuning.Classifier(),
		Registry:    target.NewRegistry(tuning.TargetConfig(), nil),
		Emitter:     effect.Multi{effect.Logger{}, events, hooks},
		Recorder:    st.Shots(),
		SessionID:   sess.ID,
		Policy:      tuning.Policy(),
		TargetCount: tuning.Targets.Count,
	})

	// The loops use the store, hooks and detector, so they must finish
	// before the deferred closes run.
	var loops sync.WaitGroup
	background(&loops, "Game loop", func() error { return g.Run(ctx, g.Frames()) })

	if cfg.TuningFile != "" {
		watcher, err := config.WatchTuning(cfg.TuningFile)
		if err != nil {
			log.Printf("Tuning hot reload disabled: %v", err)
		} else {
			defer watcher.Close()
			go applyTuning(ctx, g, watcher)
		}
	}

	srvCfg := server.Config{
		StaticDir: cfg.WebDir,
		Game:      g,
		Store:     st,
		Events:    events,
	}
	if srvCfg.StaticDir == "" {
		srvCfg.StaticDir = findWebDir(cfg.DataDir)
	}
	if srvCfg.StaticDir != "" {
		fmt.Printf("Serving static files from: %s\n", srvCfg.StaticDir)
	}

	if cfg.Capture {
		driver, closeDetector, err := newCaptureDriver(cfg, g)
		if err != nil {
			log.Printf("Camera capture disabled: %v", err)
		} else {
			defer closeDetector()
			srvCfg.Frames = driver
			background(&loops, "Capture", func() error { return driver.Run(ctx) })
		}
	}

	httpSrv := server.New(srvCfg).HTTPServer(cfg.Addr)
	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	if cfg.Tray {
		t := tray.New(g)
		t.OnOpen(func() { openBrowser(localURL(cfg.Addr)) })
		t.OnQuit(stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// The tray owns the main thread until quit.
		t.Run()
	} else {
		<-ctx.Done()
	}
	stop()

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	loops.Wait()

	stats := g.Stats()
	log.Printf("Session %s: %d shots, %d hits", sess.ID, stats.Shots, stats.Hits)
}

// background runs fn on its own goroutine tracked by wg. Cancellation is
// the normal way out and is not logged.
func background(wg *sync.WaitGroup, name string, fn func() error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("%s stopped: %v", name, err)
		}
	}()
}

// newCaptureDriver opens the MediaPipe detector and wires a camera driver
// publishing into g.
func newCaptureDriver(cfg config.Config, g *game.Game) (*capture.Driver, func(), error) {
	det, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		return nil, nil, err
	}
	cam := capture.NewCamera(cfg.CameraID)
	driver := capture.NewDriver(cam, det, g, capture.DefaultDriverConfig())
	return driver, func() { det.Close() }, nil
}

// applyTuning feeds reloaded tuning into the game until ctx is done.
func applyTuning(ctx context.Context, g *game.Game, w *config.TuningWatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-w.Updates:
			if !ok {
				return
			}
			g.ApplyTuning(t)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("Ignoring tuning change: %v", err)
		}
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}

func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
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
		log.Printf("Failed to open browser: %v", err)
	}
}
