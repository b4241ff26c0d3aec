// Package plan turns the selected satellite list into the ordered 24-hour
// pass schedule and the overlap index the conflict policy works from.
package plan

import (
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/palydovai/stotis/internal/predict"
	"github.com/palydovai/stotis/internal/timeutil"
)

// Horizon is how far ahead the planner looks.
const Horizon = 24 * time.Hour

// Pass is one scheduled candidate. The ID doubles as the gallery directory
// name and the selection key.
type Pass struct {
	ID      string    `json:"id"`
	SatName string    `json:"satellite"`
	Rise    time.Time `json:"rise"`
	Culm    time.Time `json:"culm"`
	Set     time.Time `json:"set"`
	MaxElev float64   `json:"max_elev"`
}

// Entry is the overlap-lookup view of a pass.
type Entry struct {
	St      int64
	En      int64
	MaxElev float64
}

// Index maps pass IDs to their windows for O(1) overlap checks.
type Index map[string]Entry

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeName makes a catalog label safe for directory names and IDs:
// spaces become underscores, everything outside [A-Za-z0-9_-] is dropped,
// and the result is capped at 64 characters.
func SanitizeName(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeChars.ReplaceAllString(s, "")
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}

// ID derives the stable pass identifier from the rise time in the station's
// local zone, floored to the minute.
func ID(name string, rise time.Time, loc *time.Location) string {
	return rise.In(loc).Format("20060102_1504") + "_" + SanitizeName(name)
}

// Planner produces the candidate schedule.
type Planner struct {
	Prop  predict.Propagator
	Clock timeutil.Clock
	Log   *log.Logger
}

// Plan predicts passes for every selected name over the next 24 hours,
// sorted by rise time, together with the overlap index. Names without a
// usable element set are logged and skipped.
func (p *Planner) Plan(obs predict.Observer, names []string, horizonDeg float64, loc *time.Location) ([]Pass, Index) {
	now := p.Clock.Now().UTC()
	end := now.Add(Horizon)

	var passes []Pass
	for _, name := range names {
		windows, err := p.Prop.Windows(name, obs, now, end, horizonDeg)
		if err != nil {
			p.Log.Printf("plan: skipping %s: %v", name, err)
			continue
		}
		for _, w := range windows {
			passes = append(passes, Pass{
				ID:      ID(w.SatName, w.Rise, loc),
				SatName: w.SatName,
				Rise:    w.Rise,
				Culm:    w.Culm,
				Set:     w.Set,
				MaxElev: w.MaxElev,
			})
		}
	}

	sort.Slice(passes, func(i, j int) bool {
		return passes[i].Rise.Before(passes[j].Rise)
	})

	idx := make(Index, len(passes))
	for _, ps := range passes {
		idx[ps.ID] = Entry{St: ps.Rise.Unix(), En: ps.Set.Unix(), MaxElev: ps.MaxElev}
	}
	return passes, idx
}
