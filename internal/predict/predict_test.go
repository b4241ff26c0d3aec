package predict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Historical element set, widely used as a propagation reference.
const (
	issName  = "ISS (ZARYA)"
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

type staticSource map[string][2]string

func (s staticSource) Get(name string) (string, string, error) {
	l, ok := s[name]
	if !ok {
		return "", "", assert.AnError
	}
	return l[0], l[1], nil
}

func issSource() staticSource {
	return staticSource{issName: {issLine1, issLine2}}
}

func TestObserverValidate(t *testing.T) {
	tests := []struct {
		name    string
		obs     Observer
		wantErr bool
	}{
		{"vilnius", Observer{Lat: 54.7, Lon: 25.3}, false},
		{"extreme but legal", Observer{Lat: -90, Lon: 180}, false},
		{"lat too high", Observer{Lat: 91, Lon: 0}, true},
		{"lon too low", Observer{Lat: 0, Lon: -181}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.obs.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompleteFilter(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ordered := Window{
		Rise: base, Culm: base.Add(5 * time.Minute), Set: base.Add(10 * time.Minute),
		MaxElev: 40,
	}

	assert.True(t, complete(ordered, 0))
	assert.True(t, complete(ordered, 40))

	low := ordered
	low.MaxElev = 4.9
	assert.False(t, complete(low, 5))

	clipped := ordered
	clipped.Culm = clipped.Rise
	assert.False(t, complete(clipped, 0))

	inverted := ordered
	inverted.Set = inverted.Culm
	assert.False(t, complete(inverted, 0))
}

func TestSGP4LookAngles(t *testing.T) {
	p := &SGP4{Source: issSource()}
	obs := Observer{Lat: 54.7, Lon: 25.3}

	// Near the element-set epoch (2008-09-20).
	at := time.Date(2008, 9, 20, 12, 25, 0, 0, time.UTC)
	az, el, err := p.LookAngles(issName, obs, at)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, az, 0.0)
	assert.Less(t, az, 360.0)
	assert.GreaterOrEqual(t, el, -90.0)
	assert.LessOrEqual(t, el, 90.0)
}

func TestSGP4LookAnglesUnknownName(t *testing.T) {
	p := &SGP4{Source: issSource()}
	_, _, err := p.LookAngles("NO SUCH SAT", Observer{}, time.Now())
	assert.Error(t, err)
}

func TestSGP4WindowsInvariants(t *testing.T) {
	p := &SGP4{Source: issSource(), Step: 5}
	obs := Observer{Lat: 54.7, Lon: 25.3}

	from := time.Date(2008, 9, 20, 12, 0, 0, 0, time.UTC)
	windows, err := p.Windows(issName, obs, from, from.Add(12*time.Hour), 0)
	require.NoError(t, err)

	for _, w := range windows {
		assert.Equal(t, issName, w.SatName)
		assert.True(t, w.Rise.Before(w.Culm), "rise %v before culm %v", w.Rise, w.Culm)
		assert.True(t, w.Culm.Before(w.Set), "culm %v before set %v", w.Culm, w.Set)
		assert.GreaterOrEqual(t, w.MaxElev, 0.0)
	}
}
