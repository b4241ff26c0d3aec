// Package replan serializes the cleanup -> TLE refresh -> plan -> render
// pipeline behind one process-wide mutex. Every caller runs the full
// sequence in FIFO order; a failing step aborts the rest and leaves the
// previously persisted plan and pages untouched.
package replan

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/palydovai/stotis/internal/config"
	"github.com/palydovai/stotis/internal/gallery"
	"github.com/palydovai/stotis/internal/plan"
	"github.com/palydovai/stotis/internal/predict"
	"github.com/palydovai/stotis/internal/render"
	"github.com/palydovai/stotis/internal/selection"
	"github.com/palydovai/stotis/internal/state"
	"github.com/palydovai/stotis/internal/telemetry"
	"github.com/palydovai/stotis/internal/timeutil"
	"github.com/palydovai/stotis/internal/tle"
	"github.com/palydovai/stotis/internal/ws"
)

// ListFile is the planning-set file inside the base directory.
const ListFile = "laikai.txt"

// Pipeline regenerates the plan and its derived artifacts.
type Pipeline struct {
	mu sync.Mutex

	BaseDir   string
	Settings  *config.Store
	TLE       *tle.Store
	Prop      predict.Propagator
	Current   *state.Current
	Selection *selection.Store
	Renderer  *render.Renderer
	Hub       *ws.Hub
	Log       *log.Logger
	Clock     timeutil.Clock

	// OnPlan receives every successfully computed plan; the app stores it
	// as the snapshot the tracker loop and the handlers read.
	OnPlan func([]plan.Pass, plan.Index)

	// PlanSnapshot returns the last published plan for page regeneration
	// outside a full replan.
	PlanSnapshot func() ([]plan.Pass, plan.Index)
}

// Run executes the full pipeline and returns the planned pass count.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.Settings.Get()
	galleryRoot := filepath.Join(p.BaseDir, s.GalleryDir)

	if s.GalleryKeepDays > 0 {
		res, err := gallery.Cleanup(galleryRoot, s.GalleryKeepDays, p.Current.Get(), s.Location(), p.Clock, p.Log)
		if err != nil {
			return 0, fmt.Errorf("cleanup: %w", err)
		}
		if res.Deleted > 0 {
			p.Log.Printf("replan: retention deleted %d of %d pass dirs", res.Deleted, res.Scanned)
		}
	}

	if err := p.TLE.FetchOrLoad(ctx, s.TLEURL, s.ManualTLE()); err != nil {
		return 0, fmt.Errorf("tle: %w", err)
	}

	names, err := plan.LoadNames(filepath.Join(p.BaseDir, ListFile))
	if err != nil {
		return 0, fmt.Errorf("load planning set: %w", err)
	}

	planner := &plan.Planner{Prop: p.Prop, Clock: p.Clock, Log: p.Log}
	obs := predict.Observer{Lat: s.Lat, Lon: s.Lon}
	passes, idx := planner.Plan(obs, names, s.AltitudeLimit, s.Location())

	if p.OnPlan != nil {
		p.OnPlan(passes, idx)
	}

	if err := p.renderAll(passes, s, galleryRoot); err != nil {
		return 0, err
	}

	p.Log.Printf("replan: %d passes planned for %d satellites", len(passes), len(names))
	p.emit(telemetry.TypeReplanDone, map[string]any{
		"count":      len(passes),
		"satellites": len(names),
	})
	return len(passes), nil
}

// Cleanup runs a retention sweep with an explicit day count and regenerates
// the pages from the existing plan. Used by the cleanup API endpoint.
func (p *Pipeline) Cleanup(days int) (gallery.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.Settings.Get()
	galleryRoot := filepath.Join(p.BaseDir, s.GalleryDir)

	res, err := gallery.Cleanup(galleryRoot, days, p.Current.Get(), s.Location(), p.Clock, p.Log)
	if err != nil {
		return res, err
	}

	var passes []plan.Pass
	if p.PlanSnapshot != nil {
		passes, _ = p.PlanSnapshot()
	}
	if err := p.renderAll(passes, s, galleryRoot); err != nil {
		return res, err
	}
	return res, nil
}

// RenderPages regenerates the chart and pages from the current snapshot,
// for callers outside the pipeline (the tracker loop after each pass).
func (p *Pipeline) RenderPages() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.Settings.Get()
	var passes []plan.Pass
	if p.PlanSnapshot != nil {
		passes, _ = p.PlanSnapshot()
	}
	return p.renderAll(passes, s, filepath.Join(p.BaseDir, s.GalleryDir))
}

func (p *Pipeline) renderAll(passes []plan.Pass, s config.Settings, galleryRoot string) error {
	if err := p.Renderer.WriteChart(passes, s.Location()); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	dirs, err := gallery.ListPasses(galleryRoot)
	if err != nil {
		return fmt.Errorf("list gallery: %w", err)
	}
	tr := p.Renderer.PageTranslations(s)
	if err := p.Renderer.WritePages(passes, p.Selection.Get(), p.Current.Get(), dirs, s, tr); err != nil {
		return fmt.Errorf("pages: %w", err)
	}
	return nil
}

func (p *Pipeline) emit(typ string, data map[string]any) {
	if p.Hub == nil {
		return
	}
	p.Hub.BroadcastJSON(telemetry.Event("replan", typ, data))
}
