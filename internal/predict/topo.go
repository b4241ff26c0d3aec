package predict

import "math"

// WGS84 ellipsoid.
const (
	wgs84A  = 6378137.0 // semi-major axis, meters
	wgs84F  = 1.0 / 298.257223563
	wgs84E2 = 2*wgs84F - wgs84F*wgs84F
)

// topocentric converts a satellite's geodetic position to azimuth/elevation
// as seen from the observer. Inputs are degrees and meters; outputs are
// degrees with azimuth in [0, 360) (0 = north, 90 = east).
func topocentric(obsLat, obsLon, obsAlt, satLat, satLon, satAlt float64) (az, el float64) {
	ox, oy, oz := geodeticToECEF(obsLat, obsLon, obsAlt)
	sx, sy, sz := geodeticToECEF(satLat, satLon, satAlt)

	dx, dy, dz := sx-ox, sy-oy, sz-oz

	lat := degToRad(obsLat)
	lon := degToRad(obsLon)
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	// ECEF delta to local east/north/up at the observer.
	east := -sinLon*dx + cosLon*dy
	north := -sinLat*cosLon*dx - sinLat*sinLon*dy + cosLat*dz
	up := cosLat*cosLon*dx + cosLat*sinLon*dy + sinLat*dz

	az = radToDeg(math.Atan2(east, north))
	if az < 0 {
		az += 360
	}
	el = radToDeg(math.Atan2(up, math.Hypot(east, north)))
	return az, el
}

// geodeticToECEF converts geodetic degrees/meters to earth-centered
// earth-fixed meters.
func geodeticToECEF(latDeg, lonDeg, alt float64) (x, y, z float64) {
	lat := degToRad(latDeg)
	lon := degToRad(lonDeg)
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	x = (n + alt) * cosLat * cosLon
	y = (n + alt) * cosLat * sinLon
	z = (n*(1-wgs84E2) + alt) * sinLat
	return x, y, z
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180 }
func radToDeg(rad float64) float64 { return rad * 180 / math.Pi }
