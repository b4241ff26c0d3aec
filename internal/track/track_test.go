package track

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palydovai/stotis/internal/config"
	"github.com/palydovai/stotis/internal/gallery"
	"github.com/palydovai/stotis/internal/plan"
	"github.com/palydovai/stotis/internal/predict"
	"github.com/palydovai/stotis/internal/rotator"
	"github.com/palydovai/stotis/internal/selection"
	"github.com/palydovai/stotis/internal/state"
	"github.com/palydovai/stotis/internal/timeutil"
)

var rise = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

// fakeProp returns fixed look angles; Windows is unused by the tracker.
type fakeProp struct {
	az, el float64
	err    error
}

func (f *fakeProp) Windows(string, predict.Observer, time.Time, time.Time, float64) ([]predict.Window, error) {
	return nil, nil
}

func (f *fakeProp) LookAngles(string, predict.Observer, time.Time) (float64, float64, error) {
	return f.az, f.el, f.err
}

// stubCapture records child-process interactions.
type stubCapture struct {
	mu        sync.Mutex
	started   []string
	stopped   []time.Duration
	blocking  []time.Duration
	noProcess bool // emulate a missing binary
}

func (c *stubCapture) Start(satName, outDir string, _ config.Settings) (func(time.Duration), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.noProcess {
		return nil, nil
	}
	c.started = append(c.started, satName)
	return func(grace time.Duration) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.stopped = append(c.stopped, grace)
	}, nil
}

func (c *stubCapture) RunBlocking(_ context.Context, satName, _ string, _ config.Settings, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocking = append(c.blocking, timeout)
	return nil
}

type fixture struct {
	tracker *Tracker
	clock   *timeutil.Fake
	port    *rotator.TestPort
	capture *stubCapture
	current *state.Current
	sel     *selection.Store
	root    string
	loc     *time.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger := log.New(io.Discard, "", 0)

	f := &fixture{
		clock:   timeutil.NewFake(rise.Add(-time.Minute)),
		port:    rotator.NewTestPort(),
		capture: &stubCapture{},
		current: state.NewCurrent(filepath.Join(dir, "current.json")),
		sel:     selection.NewStore(filepath.Join(dir, "selection.json"), filepath.Join(dir, "sekimas.txt"), logger),
		root:    filepath.Join(dir, "nuotraukos"),
		loc:     time.UTC,
	}
	f.tracker = &Tracker{
		Prop:      &fakeProp{az: 180, el: 45},
		Rotator:   rotator.New(f.port, logger),
		Capture:   f.capture,
		Current:   f.current,
		Selection: f.sel,
		Log:       logger,
		Clock:     f.clock,
	}
	return f
}

func (f *fixture) request(p plan.Pass, idx plan.Index) Request {
	s := config.Default()
	s.SatdumpLead = 10
	s.SatdumpTail = 120
	s.UpdateInterval = 5
	return Request{Pass: p, Index: idx, Settings: s, GalleryRoot: f.root, Loc: f.loc}
}

func pass(id, sat string, riseOff, setOff time.Duration, elev float64) plan.Pass {
	return plan.Pass{
		ID:      id,
		SatName: sat,
		Rise:    rise.Add(riseOff),
		Culm:    rise.Add((riseOff + setOff) / 2),
		Set:     rise.Add(setOff),
		MaxElev: elev,
	}
}

func index(passes ...plan.Pass) plan.Index {
	idx := make(plan.Index, len(passes))
	for _, p := range passes {
		idx[p.ID] = plan.Entry{St: p.Rise.Unix(), En: p.Set.Unix(), MaxElev: p.MaxElev}
	}
	return idx
}

// Scenario 1: two overlapping passes, no selection: the higher peak runs.
func TestOverlapNoSelection(t *testing.T) {
	f := newFixture(t)
	a := pass("A", "NOAA 19", 0, 15*time.Minute, 40)
	b := pass("B", "NOAA 18", 10*time.Minute, 20*time.Minute, 25)
	idx := index(a, b)

	res := f.tracker.Run(context.Background(), f.request(a, idx))
	assert.Equal(t, Done, res.Outcome)

	f.clock.Set(b.Rise.Add(-time.Minute))
	res = f.tracker.Run(context.Background(), f.request(b, idx))
	assert.Equal(t, Skipped, res.Outcome)
	assert.Equal(t, "conflict: prefer A by max elevation", res.SkipReason)
}

// Scenario 2: the user-selected pass beats the higher peak.
func TestOverlapUserSelected(t *testing.T) {
	f := newFixture(t)
	a := pass("A", "NOAA 19", 0, 15*time.Minute, 40)
	b := pass("B", "NOAA 18", 10*time.Minute, 20*time.Minute, 25)
	idx := index(a, b)
	require.NoError(t, f.sel.Set([]string{"B"}))

	res := f.tracker.Run(context.Background(), f.request(a, idx))
	assert.Equal(t, Skipped, res.Outcome)
	assert.Equal(t, "conflict: user-selected B", res.SkipReason)

	res = f.tracker.Run(context.Background(), f.request(b, idx))
	assert.Equal(t, Done, res.Outcome)
}

// Scenario 3: selection narrows the pool, then peak elevation ranks it.
func TestOverlapTwoSelected(t *testing.T) {
	f := newFixture(t)
	a := pass("A", "NOAA 19", 0, 15*time.Minute, 35)
	b := pass("B", "NOAA 18", 5*time.Minute, 18*time.Minute, 30)
	c := pass("C", "METOP-B", 2*time.Minute, 16*time.Minute, 50)
	idx := index(a, b, c)
	require.NoError(t, f.sel.Set([]string{"A", "B"}))

	res := f.tracker.Run(context.Background(), f.request(a, idx))
	assert.Equal(t, Done, res.Outcome)

	res = f.tracker.Run(context.Background(), f.request(b, idx))
	assert.Equal(t, Skipped, res.Outcome)
	assert.Equal(t, "conflict: user-selected A", res.SkipReason)

	res = f.tracker.Run(context.Background(), f.request(c, idx))
	assert.Equal(t, Skipped, res.Outcome)
	assert.Equal(t, "conflict: user-selected A", res.SkipReason)
}

// Scenario 4: equal peaks, earlier rise wins.
func TestOverlapElevationTie(t *testing.T) {
	f := newFixture(t)
	a := pass("A", "NOAA 19", 0, 15*time.Minute, 40)
	b := pass("B", "NOAA 18", 5*time.Minute, 20*time.Minute, 40)
	idx := index(a, b)

	res := f.tracker.Run(context.Background(), f.request(b, idx))
	assert.Equal(t, Skipped, res.Outcome)
	assert.Equal(t, "conflict: prefer A by max elevation", res.SkipReason)
}

// Scenario 5: a missing SDR binary never blocks steering or sealing.
func TestRunWithoutSDR(t *testing.T) {
	f := newFixture(t)
	f.capture.noProcess = true
	a := pass("A", "NOAA 19", 0, 15*time.Minute, 40)

	res := f.tracker.Run(context.Background(), f.request(a, index(a)))
	assert.Equal(t, Done, res.Outcome)
	assert.Empty(t, f.capture.started)
	assert.NotEmpty(t, f.port.Writes())

	_, ok := gallery.ReadMeta(filepath.Join(f.root, "A"))
	assert.True(t, ok)
}

func TestSteeringCadenceAndFormat(t *testing.T) {
	f := newFixture(t)
	a := pass("A", "NOAA 19", 0, 15*time.Minute, 40)

	res := f.tracker.Run(context.Background(), f.request(a, index(a)))
	assert.Equal(t, Done, res.Outcome)

	writes := f.port.Writes()
	// One command per 5-second tick over 15 minutes.
	assert.Len(t, writes, 180)
	assert.Equal(t, "AZ0180.0 EL045.0\r\n", writes[0])
}

func TestBelowHorizonNotCommanded(t *testing.T) {
	f := newFixture(t)
	f.tracker.Prop = &fakeProp{az: 10, el: -3}
	a := pass("A", "NOAA 19", 0, 15*time.Minute, 40)

	res := f.tracker.Run(context.Background(), f.request(a, index(a)))
	assert.Equal(t, Done, res.Outcome)
	assert.Empty(t, f.port.Writes())
}

func TestStartModeChildLifecycle(t *testing.T) {
	f := newFixture(t)
	a := pass("A", "NOAA 19", 0, 15*time.Minute, 40)

	res := f.tracker.Run(context.Background(), f.request(a, index(a)))
	assert.Equal(t, Done, res.Outcome)

	assert.Equal(t, []string{"NOAA 19"}, f.capture.started)
	assert.Equal(t, []time.Duration{10 * time.Second}, f.capture.stopped)
	assert.Empty(t, f.capture.blocking)
}

func TestEndModeBlockingTimeout(t *testing.T) {
	f := newFixture(t)
	a := pass("A", "NOAA 19", 0, 15*time.Minute, 40)
	req := f.request(a, index(a))
	req.Settings.SatdumpMode = "end"

	res := f.tracker.Run(context.Background(), req)
	assert.Equal(t, Done, res.Outcome)

	assert.Empty(t, f.capture.started)
	assert.Equal(t, []time.Duration{15*time.Minute + 2*time.Minute}, f.capture.blocking)
}

func TestSealWritesMetaAndClearsCurrent(t *testing.T) {
	f := newFixture(t)
	a := pass("A", "NOAA 19", 0, 15*time.Minute, 40)

	res := f.tracker.Run(context.Background(), f.request(a, index(a)))
	assert.Equal(t, Done, res.Outcome)

	m, ok := gallery.ReadMeta(filepath.Join(f.root, "A"))
	require.True(t, ok)
	assert.Equal(t, "NOAA 19", m.Satellite)
	assert.Equal(t, a.Rise.Format(time.RFC3339), m.StartLocal)
	assert.Equal(t, a.Set.Format(time.RFC3339), m.EndLocal)

	assert.Equal(t, "", f.current.Get())
}

func TestSkipLeavesNoDirectory(t *testing.T) {
	f := newFixture(t)
	a := pass("A", "NOAA 19", 0, 15*time.Minute, 40)
	b := pass("B", "NOAA 18", 10*time.Minute, 20*time.Minute, 25)
	idx := index(a, b)

	res := f.tracker.Run(context.Background(), f.request(b, idx))
	assert.Equal(t, Skipped, res.Outcome)

	_, err := os.Stat(filepath.Join(f.root, "B"))
	assert.True(t, os.IsNotExist(err))
}

func TestCancelledContextAborts(t *testing.T) {
	f := newFixture(t)
	a := pass("A", "NOAA 19", 0, 15*time.Minute, 40)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.tracker.Run(ctx, f.request(a, index(a)))
	assert.Equal(t, Aborted, res.Outcome)
	assert.Equal(t, "", f.current.Get())
}
