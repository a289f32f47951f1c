// Command vanguard loads a base model and its animation clips one after another, then cross-fades
// between them from the keyboard (1-9, space to pause) or from the browser control panel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-vanguard/common"
	"github.com/Carmen-Shannon/oxy-vanguard/engine"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/config"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/dispatch"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/loader"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/window"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// headlessFrameLimit caps the loop when there is no vsync to pace it.
const headlessFrameLimit = 60

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfgFlag  string
		headless bool
	)
	flag.StringVar(&cfgFlag, "config", "", "config file (TOML or YAML); overrides "+config.EnvPath)
	flag.BoolVar(&headless, "headless", false, "run the animation loop without a window")
	flag.Parse()

	cfg, err := loadConfig(common.Coalesce(cfgFlag, os.Getenv(config.EnvPath)))
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := dispatch.NewQueue()
	ldr := loader.NewLoader(
		loader.WithDispatcher(queue),
		loader.WithWorkers(cfg.Loader.Workers),
		loader.WithQueueSize(cfg.Loader.QueueSize),
		loader.WithHTTPClient(&http.Client{Timeout: cfg.Loader.HTTPTimeout}),
		loader.WithLogger(log),
	)
	defer ldr.Close()

	a, err := newApp(cfg, log, queue, ldr)
	if err != nil {
		return err
	}

	engineOpts := []engine.EngineBuilderOption{
		engine.WithQueue(queue),
		engine.WithLogger(log),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithProfileInterval(cfg.Engine.ProfileInterval),
		engine.WithRenderFrameLimit(float64(cfg.Engine.FrameLimit)),
	}

	var stage renderer.Renderer
	if headless {
		if cfg.Engine.FrameLimit == 0 {
			engineOpts = append(engineOpts, engine.WithRenderFrameLimit(headlessFrameLimit))
		}
	} else {
		win, err := window.NewWindow(
			window.WithTitle(cfg.Window.Title),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
			window.WithResizable(cfg.Window.Resizable),
		)
		if err != nil {
			return err
		}
		defer func() { _ = win.Close() }()

		stage, err = renderer.NewRenderer(renderer.BackendTypeWGPU, win, renderer.WithLogger(log))
		if err != nil {
			return fmt.Errorf("create renderer: %w", err)
		}
		defer stage.Release()

		win.SetResizeCallback(func(width, height int) {
			if err := stage.Resize(width, height); err != nil {
				log.Warn("resize failed", zap.Error(err))
			}
		})
		win.SetKeyDownCallback(func(keyCode uint32) {
			a.handleKey(keyCode)
		})
		engineOpts = append(engineOpts, engine.WithWindow(win))
	}

	eng := engine.NewEngine(engineOpts...)
	eng.SetTickCallback(a.tick)

	if stage != nil {
		win := eng.Window()
		title := ""
		eng.SetRenderCallback(func(float32) {
			if t := a.title(); t != title {
				title = t
				win.SetTitle(t)
			}
			stage.SetClearColor(a.stageColor())
			if err := stage.Draw(); err != nil {
				log.Warn("frame dropped", zap.Error(err))
			}
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.panel != nil {
		g.Go(func() error {
			return a.panel.ListenAndServe(gctx, cfg.Panel.BindAddress)
		})
	}
	// A signal or a panel failure stops the frame loop.
	go func() {
		<-gctx.Done()
		eng.Quit()
	}()

	if err := a.start(); err != nil {
		return fmt.Errorf("start clip chain: %w", err)
	}

	eng.Run()
	stop()
	return g.Wait()
}

// loadConfig loads path, or DefaultPath when path is empty. A missing default file yields the
// built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	cfg, err := config.Load(config.DefaultPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Defaults(), nil
	}
	return cfg, err
}
