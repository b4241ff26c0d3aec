// Package track executes a single satellite pass from conflict decision to
// sealed gallery directory. One tracker run owns the serial rotator and the
// capture child for its whole lifetime; the main loop runs passes strictly
// one at a time.
package track

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/palydovai/stotis/internal/config"
	"github.com/palydovai/stotis/internal/conflict"
	"github.com/palydovai/stotis/internal/gallery"
	"github.com/palydovai/stotis/internal/plan"
	"github.com/palydovai/stotis/internal/predict"
	"github.com/palydovai/stotis/internal/rotator"
	"github.com/palydovai/stotis/internal/selection"
	"github.com/palydovai/stotis/internal/state"
	"github.com/palydovai/stotis/internal/telemetry"
	"github.com/palydovai/stotis/internal/timeutil"
	"github.com/palydovai/stotis/internal/ws"
)

// Outcome is how a tracker run ended.
type Outcome int

const (
	// Skipped means the conflict policy picked another pass.
	Skipped Outcome = iota
	// Done means the pass executed and sealed.
	Done
	// Aborted means the context was cancelled mid-pass.
	Aborted
)

// Result reports one tracker run. SkipReason is set only for Skipped.
type Result struct {
	Outcome    Outcome
	SkipReason string
}

// Capture is the SDR child-process surface the tracker drives. The stop
// function returned by Start may be nil when no child was spawned.
type Capture interface {
	Start(satName, outDir string, s config.Settings) (func(grace time.Duration), error)
	RunBlocking(ctx context.Context, satName, outDir string, s config.Settings, timeout time.Duration) error
}

// Request carries everything one pass execution needs, snapshotted at entry
// so mid-pass settings changes cannot tear a running pass.
type Request struct {
	Pass        plan.Pass
	Index       plan.Index
	Settings    config.Settings
	GalleryRoot string
	Loc         *time.Location
}

// Tracker runs passes. All fields are required except Hub and SetState.
type Tracker struct {
	Prop      predict.Propagator
	Rotator   *rotator.Rotator
	Capture   Capture
	Current   *state.Current
	Selection *selection.Store
	Hub       *ws.Hub
	Log       *log.Logger
	Clock     timeutil.Clock
	SetState  func(string)
}

// stopGrace matches the capture child's terminate-then-kill window.
const stopGrace = 10 * time.Second

// waitSlice bounds each sleep so context cancellation is noticed promptly.
const waitSlice = time.Second

// Run walks one pass through the state machine:
//
//	decide -> [skip] | lead-in capture -> steering -> tail-out/post capture -> seal
//
// The conflict decision is taken at entry against the live selection set, so
// user input landing during an earlier pass never rewrites that pass's
// decision.
func (t *Tracker) Run(ctx context.Context, req Request) Result {
	p := req.Pass

	winner, reason := conflict.Winner(p.ID, req.Index, t.Selection.Get())
	if winner != p.ID {
		t.Log.Printf("track: skipping %s: %s", p.ID, reason)
		t.emit(telemetry.TypePassSkipped, map[string]any{
			"id":     p.ID,
			"reason": reason,
			"winner": winner,
		})
		return Result{Outcome: Skipped, SkipReason: reason}
	}

	t.setState("WAITING_FOR_PASS")
	s := req.Settings
	passDir := filepath.Join(req.GalleryRoot, p.ID)
	if err := os.MkdirAll(passDir, 0o755); err != nil {
		t.Log.Printf("track: create %s: %v", passDir, err)
	}

	var stopCapture func(time.Duration)

	// Lead-in: in start mode the SDR child records through the pass.
	if s.SatdumpMode == "start" {
		lead := time.Duration(s.SatdumpLead) * time.Second
		if !t.waitUntil(ctx, p.Rise.Add(-lead)) {
			return t.abort(stopCapture)
		}
		stop, err := t.Capture.Start(p.SatName, passDir, s)
		if err != nil {
			t.Log.Printf("track: capture start for %s: %v", p.SatName, err)
		}
		stopCapture = stop
	}

	if !t.waitUntil(ctx, p.Rise) {
		return t.abort(stopCapture)
	}

	// Steering: publish the marker, then command the rotator every tick
	// while the satellite is above the horizon.
	if err := t.Current.Set(p.ID); err != nil {
		t.Log.Printf("track: publish current=%s: %v", p.ID, err)
	}
	t.setState("TRACKING")
	t.emit(telemetry.TypePassStarted, map[string]any{
		"id":        p.ID,
		"satellite": p.SatName,
		"rise":      p.Rise.Format(time.RFC3339),
		"set":       p.Set.Format(time.RFC3339),
		"max_elev":  p.MaxElev,
	})
	t.emit(telemetry.TypeCurrentPass, map[string]any{"id": p.ID})

	t.steer(ctx, p, s)
	if ctx.Err() != nil {
		return t.abort(stopCapture)
	}

	// Tail-out or post capture.
	switch s.SatdumpMode {
	case "start":
		tail := time.Duration(s.SatdumpTail) * time.Second
		if !t.waitUntil(ctx, p.Set.Add(tail)) {
			return t.abort(stopCapture)
		}
		if stopCapture != nil {
			stopCapture(stopGrace)
		}
	case "end":
		timeout := p.Set.Sub(p.Rise) + 2*time.Minute
		if err := t.Capture.RunBlocking(ctx, p.SatName, passDir, s, timeout); err != nil {
			t.Log.Printf("track: post capture for %s: %v", p.SatName, err)
		}
		if ctx.Err() != nil {
			return t.abort(nil)
		}
	}

	t.seal(p, passDir, req.Loc)
	return Result{Outcome: Done}
}

// steer issues az/el commands from rise to set. Propagation errors and
// negative elevations skip the tick; the loop always advances.
func (t *Tracker) steer(ctx context.Context, p plan.Pass, s config.Settings) {
	obs := predict.Observer{Lat: s.Lat, Lon: s.Lon}
	interval := time.Duration(s.UpdateInterval) * time.Second

	for ctx.Err() == nil {
		now := t.Clock.Now()
		if !now.Before(p.Set) {
			return
		}

		az, el, err := t.Prop.LookAngles(p.SatName, obs, now)
		if err != nil {
			t.Log.Printf("track: look angles for %s: %v", p.SatName, err)
		} else if el >= 0 {
			t.Rotator.Point(az, el)
			t.emit(telemetry.TypeSteer, map[string]any{
				"id": p.ID,
				"az": az,
				"el": el,
			})
		}

		d := interval
		if rem := t.Clock.Until(p.Set); rem < d {
			d = rem
		}
		if d > 0 {
			t.Clock.Sleep(d)
		}
	}
}

// seal finishes the pass directory: thumbnails first, the meta sidecar last
// as the commit marker, then the cleared tracking marker.
func (t *Tracker) seal(p plan.Pass, passDir string, loc *time.Location) {
	t.setState("SEALING")
	if _, err := gallery.GenerateThumbs(passDir); err != nil {
		t.Log.Printf("track: thumbnails for %s: %v", p.ID, err)
	}
	m := gallery.NewMeta(p.SatName, p.Rise, p.Set, t.Clock.Now(), loc)
	if err := gallery.WriteMeta(passDir, m); err != nil {
		t.Log.Printf("track: seal %s: %v", p.ID, err)
	}
	if err := t.Current.Set(""); err != nil {
		t.Log.Printf("track: clear current: %v", err)
	}
	t.setState("IDLE")
	t.emit(telemetry.TypePassFinished, map[string]any{
		"id":        p.ID,
		"satellite": p.SatName,
	})
	t.emit(telemetry.TypeCurrentPass, map[string]any{"id": ""})
	t.Log.Printf("track: sealed %s", p.ID)
}

// abort stops any running capture and clears the marker on shutdown.
func (t *Tracker) abort(stopCapture func(time.Duration)) Result {
	if stopCapture != nil {
		stopCapture(stopGrace)
	}
	if err := t.Current.Set(""); err != nil {
		t.Log.Printf("track: clear current: %v", err)
	}
	t.setState("IDLE")
	return Result{Outcome: Aborted}
}

// waitUntil sleeps in bounded slices until the clock reaches when. Returns
// false when the context was cancelled first.
func (t *Tracker) waitUntil(ctx context.Context, when time.Time) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		d := t.Clock.Until(when)
		if d <= 0 {
			return true
		}
		if d > waitSlice {
			d = waitSlice
		}
		t.Clock.Sleep(d)
	}
}

func (t *Tracker) setState(s string) {
	if t.SetState != nil {
		t.SetState(s)
	}
}

func (t *Tracker) emit(typ string, data map[string]any) {
	if t.Hub == nil {
		return
	}
	t.Hub.BroadcastJSON(telemetry.Event("tracker", typ, data))
}
