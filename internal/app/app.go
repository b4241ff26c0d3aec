// Package app wires the stores, the replan pipeline, the tracker loop, and
// the HTTP control plane into the station daemon. It owns process lifecycle
// and is the single place the shared plan snapshot lives.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/palydovai/stotis/internal/config"
	"github.com/palydovai/stotis/internal/i18n"
	"github.com/palydovai/stotis/internal/plan"
	"github.com/palydovai/stotis/internal/predict"
	"github.com/palydovai/stotis/internal/render"
	"github.com/palydovai/stotis/internal/replan"
	"github.com/palydovai/stotis/internal/rotator"
	"github.com/palydovai/stotis/internal/satdump"
	"github.com/palydovai/stotis/internal/selection"
	"github.com/palydovai/stotis/internal/state"
	"github.com/palydovai/stotis/internal/telemetry"
	"github.com/palydovai/stotis/internal/timeutil"
	"github.com/palydovai/stotis/internal/tle"
	"github.com/palydovai/stotis/internal/track"
	"github.com/palydovai/stotis/internal/ws"
)

// Fixed file names inside the base directory.
const (
	tleFile           = "tle.txt"
	selectionJSONFile = "selection.json"
	selectionTextFile = "sekimas.txt"
	currentFile       = "current.json"
)

// idleRecheck is how long the tracker loop rests when the plan is empty
// before replanning again.
const idleRecheck = 10 * time.Minute

// Options holds everything the App needs from main.
type Options struct {
	BaseDir string
	Logger  *log.Logger
	Menu    bool
	Clock   timeutil.Clock // nil means the real clock
}

// App is the daemon. Create with New, then call Run.
type App struct {
	log   *log.Logger
	base  string
	menu  bool
	clock timeutil.Clock

	settings *config.Store
	tleStore *tle.Store
	sel      *selection.Store
	current  *state.Current
	prop     predict.Propagator
	capture  *satdump.Runner
	renderer *render.Renderer
	pipeline *replan.Pipeline
	hub      *ws.Hub

	startedAt time.Time
	state     atomic.Value // operating state string

	planMu sync.RWMutex
	passes []plan.Pass
	index  plan.Index

	server *http.Server
}

// New assembles the daemon over the base directory.
func New(opts Options) *App {
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.Real{}
	}

	a := &App{
		log:       opts.Logger,
		base:      opts.BaseDir,
		menu:      opts.Menu,
		clock:     clock,
		startedAt: clock.Now(),
		hub:       ws.NewHub(),
	}
	a.state.Store("BOOTING")

	a.settings = config.NewStore(filepath.Join(a.base, config.FileName))
	a.tleStore = tle.NewStore(filepath.Join(a.base, tleFile), a.log)
	a.sel = selection.NewStore(
		filepath.Join(a.base, selectionJSONFile),
		filepath.Join(a.base, selectionTextFile),
		a.log,
	)
	a.current = state.NewCurrent(filepath.Join(a.base, currentFile))
	a.prop = &predict.SGP4{Source: a.tleStore}
	a.capture = &satdump.Runner{Log: a.log}
	a.renderer = &render.Renderer{BaseDir: a.base, Log: a.log}

	a.pipeline = &replan.Pipeline{
		BaseDir:      a.base,
		Settings:     a.settings,
		TLE:          a.tleStore,
		Prop:         a.prop,
		Current:      a.current,
		Selection:    a.sel,
		Renderer:     a.renderer,
		Hub:          a.hub,
		Log:          a.log,
		Clock:        clock,
		OnPlan:       a.setPlan,
		PlanSnapshot: a.planSnapshot,
	}
	return a
}

// Run starts the daemon and blocks until ctx is cancelled or startup fails.
// A missing catalog that cannot be fetched is the one fatal startup error;
// main maps it to exit code 1.
func (a *App) Run(ctx context.Context) error {
	s := a.settings.Get()

	if err := i18n.EnsureFiles(filepath.Join(a.base, i18n.Dir)); err != nil {
		a.log.Printf("app: seed translations: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(a.base, s.GalleryDir), 0o755); err != nil {
		return fmt.Errorf("create gallery dir: %w", err)
	}

	go a.hub.Run(ctx)
	go a.heartbeatLoop(ctx)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.HTTPPort))
	if err != nil {
		return fmt.Errorf("listen on %d: %w", s.HTTPPort, err)
	}
	a.server = &http.Server{
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- a.server.Serve(ln) }()
	a.log.Printf("listening on http://%s", ln.Addr())

	// A stale marker from a crashed run must not shield its directory from
	// retention forever.
	if err := a.current.Set(""); err != nil {
		a.log.Printf("app: clear current marker: %v", err)
	}

	if err := a.tleStore.FetchOrLoad(ctx, s.TLEURL, s.ManualTLE()); err != nil {
		_ = a.server.Shutdown(context.Background())
		return err
	}

	if a.menu {
		a.runMenu(ctx)
	}

	if _, err := a.pipeline.Run(ctx); err != nil {
		a.log.Printf("app: initial replan: %v", err)
	}

	rot := a.openRotator(s)
	defer rot.Close()

	a.transition("IDLE")
	a.trackLoop(ctx, rot)

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.server.Shutdown(shutCtx)

	err = <-serveErr
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// openRotator opens the configured serial device. Failure is logged, never
// fatal: every steering command then goes to the log instead.
func (a *App) openRotator(s config.Settings) *rotator.Rotator {
	port, err := rotator.Open(s.SerialPort, s.Baudrate)
	if err != nil {
		a.log.Printf("app: rotator %s unavailable: %v", s.SerialPort, err)
		return rotator.New(nil, a.log)
	}
	a.log.Printf("app: rotator connected on %s @ %d", s.SerialPort, s.Baudrate)
	return rotator.New(port, a.log)
}

// trackLoop runs the planned passes one at a time until shutdown. When the
// plan runs out it replans and idles.
func (a *App) trackLoop(ctx context.Context, rot *rotator.Rotator) {
	tracker := &track.Tracker{
		Prop:      a.prop,
		Rotator:   rot,
		Capture:   a.capture,
		Current:   a.current,
		Selection: a.sel,
		Hub:       a.hub,
		Log:       a.log,
		Clock:     a.clock,
		SetState:  a.transition,
	}

	executed := make(map[string]bool)
	for ctx.Err() == nil {
		p, idx, ok := a.nextPass(executed)
		if !ok {
			if _, err := a.pipeline.Run(ctx); err != nil {
				a.log.Printf("app: replan: %v", err)
			}
			if _, _, ok := a.nextPass(executed); ok {
				continue
			}
			a.transition("IDLE")
			if !a.sleepCtx(ctx, idleRecheck) {
				return
			}
			continue
		}

		s := a.settings.Get()
		res := tracker.Run(ctx, track.Request{
			Pass:        p,
			Index:       idx,
			Settings:    s,
			GalleryRoot: filepath.Join(a.base, s.GalleryDir),
			Loc:         s.Location(),
		})
		executed[p.ID] = true
		if len(executed) > 1024 {
			executed = map[string]bool{p.ID: true}
		}

		if res.Outcome == track.Aborted {
			return
		}
		if res.Outcome == track.Done {
			if err := a.pipeline.RenderPages(); err != nil {
				a.log.Printf("app: render after pass: %v", err)
			}
		}
	}
}

// nextPass picks the earliest not-yet-run pass whose window has not closed.
func (a *App) nextPass(executed map[string]bool) (plan.Pass, plan.Index, bool) {
	a.planMu.RLock()
	defer a.planMu.RUnlock()

	now := a.clock.Now()
	for _, p := range a.passes {
		if executed[p.ID] || !p.Set.After(now) {
			continue
		}
		return p, a.index, true
	}
	return plan.Pass{}, nil, false
}

func (a *App) setPlan(passes []plan.Pass, idx plan.Index) {
	a.planMu.Lock()
	a.passes, a.index = passes, idx
	a.planMu.Unlock()
}

func (a *App) planSnapshot() ([]plan.Pass, plan.Index) {
	a.planMu.RLock()
	defer a.planMu.RUnlock()
	return a.passes, a.index
}

// transition updates the operating state and announces the change.
func (a *App) transition(newState string) {
	old := a.state.Load().(string)
	if old == newState {
		return
	}
	a.state.Store(newState)
	a.hub.BroadcastJSON(telemetry.Event("stotisd", telemetry.TypeState, map[string]any{
		"from": old,
		"to":   newState,
	}))
}

// heartbeatLoop lets clients track uptime and liveness without polling.
func (a *App) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.hub.BroadcastJSON(telemetry.Event("stotisd", telemetry.TypeHeartbeat, map[string]any{
				"state":          a.state.Load().(string),
				"uptime_seconds": int64(a.clock.Since(a.startedAt).Seconds()),
				"current":        a.current.Get(),
			}))
		}
	}
}

// sleepCtx sleeps in slices so cancellation is noticed within a second.
func (a *App) sleepCtx(ctx context.Context, d time.Duration) bool {
	deadline := a.clock.Now().Add(d)
	for {
		if ctx.Err() != nil {
			return false
		}
		rem := a.clock.Until(deadline)
		if rem <= 0 {
			return true
		}
		if rem > time.Second {
			rem = time.Second
		}
		a.clock.Sleep(rem)
	}
}
