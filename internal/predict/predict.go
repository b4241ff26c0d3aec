// Package predict wraps SGP4 orbital propagation behind the small surface
// the planner and tracker need: pass windows over a bounded time range and
// instantaneous look angles for rotator steering.
package predict

import (
	"fmt"
	"time"

	"github.com/akhenakh/sgp4"
)

// Observer is a fixed ground-station location.
type Observer struct {
	Lat float64
	Lon float64
}

// Validate reports whether the coordinates are on the globe.
func (o Observer) Validate() error {
	if o.Lat < -90 || o.Lat > 90 {
		return fmt.Errorf("latitude %.4f out of range [-90, 90]", o.Lat)
	}
	if o.Lon < -180 || o.Lon > 180 {
		return fmt.Errorf("longitude %.4f out of range [-180, 180]", o.Lon)
	}
	return nil
}

// Window is a single predicted pass: rise above the horizon limit,
// culmination, and set back below it. All times are UTC.
type Window struct {
	SatName string
	Rise    time.Time
	Culm    time.Time
	Set     time.Time
	MaxElev float64
}

// Propagator produces pass windows and look angles for named satellites.
// The production implementation runs SGP4; tests substitute a fake.
type Propagator interface {
	Windows(name string, obs Observer, from, to time.Time, horizonDeg float64) ([]Window, error)
	LookAngles(name string, obs Observer, at time.Time) (azDeg, elDeg float64, err error)
}

// TLESource supplies element sets by catalog name.
type TLESource interface {
	Get(name string) (line1, line2 string, err error)
}

// SGP4 is the production Propagator. It parses element sets on demand from
// the source and propagates with a fixed step.
type SGP4 struct {
	Source TLESource
	Step   int // propagation step in seconds, 0 means 1
}

func (p *SGP4) step() int {
	if p.Step <= 0 {
		return 1
	}
	return p.Step
}

func (p *SGP4) parse(name string) (*sgp4.TLE, error) {
	l1, l2, err := p.Source.Get(name)
	if err != nil {
		return nil, err
	}
	tle, err := sgp4.ParseTLE(name + "\n" + l1 + "\n" + l2)
	if err != nil {
		return nil, fmt.Errorf("parse TLE for %s: %w", name, err)
	}
	return tle, nil
}

// Windows propagates name over [from, to] and returns every complete
// rise/culminate/set triple whose peak clears horizonDeg. A pass that rises
// inside the range but sets after it is still returned.
func (p *SGP4) Windows(name string, obs Observer, from, to time.Time, horizonDeg float64) ([]Window, error) {
	tle, err := p.parse(name)
	if err != nil {
		return nil, err
	}

	raw, err := tle.GeneratePasses(obs.Lat, obs.Lon, 0, from, to, p.step())
	if err != nil {
		return nil, fmt.Errorf("generate passes for %s: %w", name, err)
	}

	var out []Window
	for _, rp := range raw {
		w := Window{
			SatName: name,
			Rise:    rp.AOS.UTC(),
			Culm:    rp.MaxElevationTime.UTC(),
			Set:     rp.LOS.UTC(),
			MaxElev: rp.MaxElevation,
		}
		if !complete(w, horizonDeg) {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// complete keeps only well-ordered windows above the horizon limit. Clipped
// passes already in progress at the range start violate the ordering and
// are dropped.
func complete(w Window, horizonDeg float64) bool {
	if w.MaxElev < horizonDeg {
		return false
	}
	return w.Rise.Before(w.Culm) && w.Culm.Before(w.Set)
}

// LookAngles returns the azimuth/elevation of name as seen from obs at the
// given instant. Azimuth is normalized to [0, 360); elevation is negative
// below the horizon.
func (p *SGP4) LookAngles(name string, obs Observer, at time.Time) (float64, float64, error) {
	tle, err := p.parse(name)
	if err != nil {
		return 0, 0, err
	}

	state, err := tle.FindPositionAtTime(at)
	if err != nil {
		return 0, 0, fmt.Errorf("propagate %s: %w", name, err)
	}

	satLat, satLon, satAltKm := state.ToGeodetic()
	az, el := topocentric(obs.Lat, obs.Lon, 0, satLat, satLon, satAltKm*1000)
	return az, el, nil
}
