// Package app implements the viewer: window and renderer setup, the
// orbit camera, the tile streaming manager, and the main loop gluing
// them together.
package app

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/helioforge/planetview/internal/camera"
	"github.com/helioforge/planetview/internal/config"
	"github.com/helioforge/planetview/internal/logger"
	"github.com/helioforge/planetview/internal/render"
	"github.com/helioforge/planetview/internal/scene"
	"github.com/helioforge/planetview/internal/texture"
	"github.com/helioforge/planetview/internal/tiles"
	"github.com/helioforge/planetview/internal/window"
)

// App is the running viewer instance.
type App struct {
	cfg      *config.Config
	running  bool
	window   *window.Window
	renderer *render.Renderer
	camera   *camera.OrbitCamera
	group    *scene.Group
	manager  *tiles.Manager
	dragging bool
}

// New creates the viewer: window first (it owns the OpenGL context),
// then the renderer, camera, and tile manager.
func New(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	var err error
	a.window, err = window.New(window.Config{
		Title:      "PlanetView",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	dw, dh := a.window.DrawableSize()
	a.renderer, err = render.New(render.Config{Width: dw, Height: dh})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	fov := cfg.Graphics.FOVDegrees * math.Pi / 180
	a.camera = camera.NewOrbitCamera(cfg.Planet.Radius, fov)

	a.group = scene.NewGroup()
	a.manager = tiles.New(tiles.Options{
		Radius:       cfg.Planet.Radius,
		BaseURL:      cfg.Imagery.BaseURL,
		Extension:    cfg.Imagery.Extension,
		MinLevel:     cfg.Imagery.MinLevel,
		MaxLevel:     cfg.Imagery.MaxLevel,
		Segments:     cfg.Planet.Segments,
		Anisotropy:   cfg.Planet.Anisotropy,
		Concurrency:  cfg.Imagery.Concurrency,
		CacheTiles:   cfg.Imagery.CacheTiles,
		FetchTimeout: time.Duration(cfg.Imagery.FetchTimeout),
	}, a.group, texture.NewHTTPFetcher())

	if addr := cfg.Metrics.ListenAddr; addr != "" {
		go serveMetrics(addr)
	}

	logger.Info("viewer initialized")
	return a, nil
}

// serveMetrics exposes the Prometheus registry over HTTP.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}

// Run starts the main loop. It returns when the window is closed or
// ESC is pressed.
func (a *App) Run() error {
	a.running = true

	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting viewer loop")

	for a.running {
		a.handleEvents()

		a.manager.Update(a.camera, a.window)

		dw, dh := a.window.DrawableSize()
		aspect := float64(dw) / float64(dh)
		view := a.camera.ViewMatrix()
		proj := a.camera.ProjectionMatrix(aspect)

		a.renderer.Begin()
		a.renderer.Draw(a.group, view, proj)
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("frame stats",
				zap.Int("fps", frameCount),
				zap.Int("tiles", a.manager.TileCount()),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// handleEvents drains the SDL event queue: quit, resize, drag to
// orbit, wheel to zoom.
func (a *App) handleEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			a.running = false

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED {
				dw, dh := a.window.DrawableSize()
				a.renderer.Resize(dw, dh)
			}

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
				a.running = false
			}

		case *sdl.MouseButtonEvent:
			if e.Button == sdl.BUTTON_LEFT {
				a.dragging = e.Type == sdl.MOUSEBUTTONDOWN
			}

		case *sdl.MouseMotionEvent:
			if a.dragging {
				a.camera.HandleDrag(float64(e.XRel), float64(e.YRel))
			}

		case *sdl.MouseWheelEvent:
			a.camera.HandleZoom(float64(e.Y))
		}
	}
}

// Close releases the tile manager, renderer, and window in reverse
// creation order.
func (a *App) Close() {
	logger.Info("closing viewer")
	if a.manager != nil {
		a.manager.Dispose()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
