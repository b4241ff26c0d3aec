package replan

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palydovai/stotis/internal/config"
	"github.com/palydovai/stotis/internal/plan"
	"github.com/palydovai/stotis/internal/predict"
	"github.com/palydovai/stotis/internal/render"
	"github.com/palydovai/stotis/internal/selection"
	"github.com/palydovai/stotis/internal/state"
	"github.com/palydovai/stotis/internal/timeutil"
	"github.com/palydovai/stotis/internal/tle"
)

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// fakeProp returns one pass per requested satellite an hour after now.
type fakeProp struct{}

func (fakeProp) Windows(name string, _ predict.Observer, from, _ time.Time, _ float64) ([]predict.Window, error) {
	rise := from.Add(time.Hour)
	return []predict.Window{{
		SatName: name,
		Rise:    rise,
		Culm:    rise.Add(7 * time.Minute),
		Set:     rise.Add(15 * time.Minute),
		MaxElev: 55,
	}}, nil
}

func (fakeProp) LookAngles(string, predict.Observer, time.Time) (float64, float64, error) {
	return 0, 0, nil
}

func newPipeline(t *testing.T) (*Pipeline, string) {
	t.Helper()
	base := t.TempDir()
	logger := log.New(io.Discard, "", 0)

	settings := config.NewStore(filepath.Join(base, config.FileName))
	s := settings.Get()
	s.UseManualTLE = 1 // keep tests offline
	require.NoError(t, settings.Swap(s))

	p := &Pipeline{
		BaseDir:   base,
		Settings:  settings,
		TLE:       tle.NewStore(filepath.Join(base, "tle.txt"), logger),
		Prop:      fakeProp{},
		Current:   state.NewCurrent(filepath.Join(base, "current.json")),
		Selection: selection.NewStore(filepath.Join(base, "selection.json"), filepath.Join(base, "sekimas.txt"), logger),
		Renderer:  &render.Renderer{BaseDir: base, Log: logger},
		Log:       logger,
		Clock:     timeutil.NewFake(now),
	}
	return p, base
}

func writeCatalog(t *testing.T, base string, names ...string) {
	t.Helper()
	var text string
	for _, n := range names {
		text += n + "\n" +
			"1 25338U 98030A   25152.50000000  .00000100  00000-0  60000-4 0  9990\n" +
			"2 25338  98.7000 180.0000 0010000  90.0000 270.0000 14.25000000    10\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(base, "tle.txt"), []byte(text), 0o644))
}

func TestRunPlansAndRenders(t *testing.T) {
	p, base := newPipeline(t)
	writeCatalog(t, base, "NOAA 15", "NOAA 19")
	require.NoError(t, plan.SaveNames(filepath.Join(base, ListFile), []string{"NOAA 15", "NOAA 19"}))

	var got []plan.Pass
	p.OnPlan = func(passes []plan.Pass, _ plan.Index) { got = passes }

	count, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, got, 2)

	for _, name := range []string{"index.html", "galerija.html", "nustatymai.html", render.ChartFile} {
		_, err := os.Stat(filepath.Join(base, name))
		assert.NoError(t, err, name)
	}
}

func TestRunFailsWithoutCatalog(t *testing.T) {
	p, _ := newPipeline(t)

	called := false
	p.OnPlan = func([]plan.Pass, plan.Index) { called = true }

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, tle.ErrNoTLE)
	assert.False(t, called, "a failing step must not publish a plan")
}

func TestRunEmptyPlanningSet(t *testing.T) {
	p, base := newPipeline(t)
	writeCatalog(t, base, "NOAA 15")

	count, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCleanupSweepsAndRenders(t *testing.T) {
	p, base := newPipeline(t)
	writeCatalog(t, base, "NOAA 15")

	s := p.Settings.Get()
	galleryRoot := filepath.Join(base, s.GalleryDir)

	// An old pass directory with only file mtimes as evidence.
	oldDir := filepath.Join(galleryRoot, "20250101_0900_NOAA_15")
	require.NoError(t, os.MkdirAll(oldDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(oldDir, "img.png"), []byte("x"), 0o644))
	oldTime := now.AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(filepath.Join(oldDir, "img.png"), oldTime, oldTime))
	require.NoError(t, os.Chtimes(oldDir, oldTime, oldTime))

	res, err := p.Cleanup(7)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	_, err = os.Stat(oldDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(base, "index.html"))
	assert.NoError(t, err)
}
