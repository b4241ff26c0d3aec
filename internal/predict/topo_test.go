package predict

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeodeticToECEF(t *testing.T) {
	tests := []struct {
		name          string
		lat, lon, alt float64
		x, y, z       float64
	}{
		{"equator prime meridian", 0, 0, 0, wgs84A, 0, 0},
		{"equator 90E", 0, 90, 0, 0, wgs84A, 0},
		{"north pole", 90, 0, 0, 0, 0, 6356752.3142},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, z := geodeticToECEF(tt.lat, tt.lon, tt.alt)
			assert.InDelta(t, tt.x, x, 0.01)
			assert.InDelta(t, tt.y, y, 0.01)
			assert.InDelta(t, tt.z, z, 0.01)
		})
	}
}

func TestTopocentric(t *testing.T) {
	t.Run("directly overhead", func(t *testing.T) {
		_, el := topocentric(54.7, 25.3, 0, 54.7, 25.3, 400e3)
		assert.InDelta(t, 90, el, 0.01)
	})

	t.Run("due east of equatorial observer", func(t *testing.T) {
		az, el := topocentric(0, 0, 0, 0, 1, 400e3)
		assert.InDelta(t, 90, az, 0.1)
		// ~111 km ground distance against 400 km altitude
		assert.InDelta(t, 73.5, el, 1.0)
	})

	t.Run("due west of equatorial observer", func(t *testing.T) {
		az, _ := topocentric(0, 0, 0, 0, -1, 400e3)
		assert.InDelta(t, 270, az, 0.1)
	})

	t.Run("due north of equatorial observer", func(t *testing.T) {
		az, _ := topocentric(0, 0, 0, 1, 0, 400e3)
		assert.InDelta(t, 0, math.Mod(az, 360), 0.1)
	})

	t.Run("far satellite is below horizon", func(t *testing.T) {
		_, el := topocentric(0, 0, 0, 0, 90, 400e3)
		assert.Less(t, el, 0.0)
	})

	t.Run("azimuth stays in range", func(t *testing.T) {
		for lon := -180.0; lon < 180; lon += 7 {
			az, _ := topocentric(54.7, 25.3, 0, 10, lon, 800e3)
			assert.GreaterOrEqual(t, az, 0.0)
			assert.Less(t, az, 360.0)
		}
	})
}
