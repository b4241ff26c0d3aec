package satdump

// aliases maps TLE catalog labels to the pipeline names SatDump expects.
// The table covers the birds the station is built for; anything else is
// passed through unchanged with a warning so new satellites still attempt a
// capture.
var aliases = map[string]string{
	"NOAA 15":      "NOAA-15",
	"NOAA 18":      "NOAA-18",
	"NOAA 19":      "NOAA-19",
	"METOP-B":      "METOP-B",
	"METOP-C":      "METOP-C",
	"METEOR-M 2-3": "METEOR-M 2-3",
	"ISS (ZARYA)":  "ISS",
}

// Alias resolves a catalog name to its SatDump satellite argument. The
// second return reports whether the name was in the table.
func Alias(name string) (string, bool) {
	if a, ok := aliases[name]; ok {
		return a, true
	}
	return name, false
}
