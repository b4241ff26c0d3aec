// Package config handles loading, defaulting, and persisting the station
// settings file. Settings live in a flat KEY=VALUE file so operators can
// edit them by hand; every key maps to a typed struct field so the rest of
// the codebase gets strong typing without manual key lookups.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// FileName is the settings file inside the base directory.
const FileName = "nustatymai.txt"

// Settings carries every runtime option. String fields hold raw values;
// numeric fields are parsed leniently (see setKey).
type Settings struct {
	Lang              string  // LANG
	TLEURL            string  // TLE_URL
	UseManualTLE      int     // USE_MANUAL_TLE
	Lat               float64 // KOORD_LAT
	Lon               float64 // KOORD_LON
	SerialPort        string  // SERIAL_PORT
	Baudrate          int     // BAUDRATE
	UpdateInterval    int     // UPDATE_INTERVAL
	AltitudeLimit     float64 // ALTITUDE_LIMIT
	HTTPPort          int     // HTTP_PORT
	GalleryDir        string  // NUOTRAUKU_KATALOGAS
	SatdumpSource     string  // SATDUMP_SOURCE
	SatdumpRate       int     // SATDUMP_RATE
	SatdumpDeviceArgs string  // SATDUMP_DEVICE_ARGS
	SatdumpMode       string  // SATDUMP_MODE
	SatdumpLead       int     // SATDUMP_LEAD
	SatdumpTail       int     // SATDUMP_TAIL
	GalleryKeepDays   int     // GALLERY_KEEP_DAYS
	Timezone          string  // TIMEZONE
}

// keyOrder fixes the line order of the persisted file.
var keyOrder = []string{
	"LANG", "TLE_URL", "USE_MANUAL_TLE", "KOORD_LAT", "KOORD_LON",
	"SERIAL_PORT", "BAUDRATE", "UPDATE_INTERVAL", "ALTITUDE_LIMIT",
	"HTTP_PORT", "NUOTRAUKU_KATALOGAS", "SATDUMP_SOURCE", "SATDUMP_RATE",
	"SATDUMP_DEVICE_ARGS", "SATDUMP_MODE", "SATDUMP_LEAD", "SATDUMP_TAIL",
	"GALLERY_KEEP_DAYS", "TIMEZONE",
}

// Default returns Settings populated with the stock station profile.
func Default() Settings {
	return Settings{
		Lang:              "lt",
		TLEURL:            "https://celestrak.org/NORAD/elements/gp.php?GROUP=weather&FORMAT=tle",
		UseManualTLE:      0,
		Lat:               55.57,
		Lon:               24.25,
		SerialPort:        "/dev/ttyACM0",
		Baudrate:          9600,
		UpdateInterval:    5,
		AltitudeLimit:     0.0,
		HTTPPort:          8089,
		GalleryDir:        "nuotraukos",
		SatdumpSource:     "rtlsdr",
		SatdumpRate:       2400000,
		SatdumpDeviceArgs: "index=0,ppm=0,gain=49.6",
		SatdumpMode:       "start",
		SatdumpLead:       10,
		SatdumpTail:       120,
		GalleryKeepDays:   0,
		Timezone:          "Europe/Vilnius",
	}
}

// Load reads the settings file at path on top of the defaults. Missing
// files, malformed lines, and unknown keys all fall back to defaults; the
// settings layer is never fatal.
func Load(path string) Settings {
	s := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return s
	}

	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		// Parse failures keep the default for that key.
		_ = s.setKey(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	s.normalize()
	return s
}

// Save writes the settings file atomically in canonical key order.
func Save(path string, s Settings) error {
	var b strings.Builder
	for _, k := range keyOrder {
		fmt.Fprintf(&b, "%s=%s\n", k, s.value(k))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "nustatymai-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// SetKey applies one KEY=VALUE pair with lenient parsing: integers accept
// underscores and float syntax, floats accept a comma decimal separator.
// Unknown keys are reported, parse failures leave the field unchanged.
func (s *Settings) SetKey(key, value string) error {
	return s.setKey(key, value)
}

func (s *Settings) setKey(key, value string) error {
	switch key {
	case "LANG":
		s.Lang = value
	case "TLE_URL":
		s.TLEURL = value
	case "USE_MANUAL_TLE":
		return setInt(&s.UseManualTLE, value)
	case "KOORD_LAT":
		return setFloat(&s.Lat, value)
	case "KOORD_LON":
		return setFloat(&s.Lon, value)
	case "SERIAL_PORT":
		s.SerialPort = value
	case "BAUDRATE":
		return setInt(&s.Baudrate, value)
	case "UPDATE_INTERVAL":
		return setInt(&s.UpdateInterval, value)
	case "ALTITUDE_LIMIT":
		return setFloat(&s.AltitudeLimit, value)
	case "HTTP_PORT":
		return setInt(&s.HTTPPort, value)
	case "NUOTRAUKU_KATALOGAS":
		s.GalleryDir = value
	case "SATDUMP_SOURCE":
		s.SatdumpSource = value
	case "SATDUMP_RATE":
		return setInt(&s.SatdumpRate, value)
	case "SATDUMP_DEVICE_ARGS":
		s.SatdumpDeviceArgs = value
	case "SATDUMP_MODE":
		s.SatdumpMode = value
	case "SATDUMP_LEAD":
		return setInt(&s.SatdumpLead, value)
	case "SATDUMP_TAIL":
		return setInt(&s.SatdumpTail, value)
	case "GALLERY_KEEP_DAYS":
		return setInt(&s.GalleryKeepDays, value)
	case "TIMEZONE":
		s.Timezone = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// value renders a key for the persisted file.
func (s Settings) value(key string) string {
	switch key {
	case "LANG":
		return s.Lang
	case "TLE_URL":
		return s.TLEURL
	case "USE_MANUAL_TLE":
		return strconv.Itoa(s.UseManualTLE)
	case "KOORD_LAT":
		return formatFloat(s.Lat)
	case "KOORD_LON":
		return formatFloat(s.Lon)
	case "SERIAL_PORT":
		return s.SerialPort
	case "BAUDRATE":
		return strconv.Itoa(s.Baudrate)
	case "UPDATE_INTERVAL":
		return strconv.Itoa(s.UpdateInterval)
	case "ALTITUDE_LIMIT":
		return formatFloat(s.AltitudeLimit)
	case "HTTP_PORT":
		return strconv.Itoa(s.HTTPPort)
	case "NUOTRAUKU_KATALOGAS":
		return s.GalleryDir
	case "SATDUMP_SOURCE":
		return s.SatdumpSource
	case "SATDUMP_RATE":
		return strconv.Itoa(s.SatdumpRate)
	case "SATDUMP_DEVICE_ARGS":
		return s.SatdumpDeviceArgs
	case "SATDUMP_MODE":
		return s.SatdumpMode
	case "SATDUMP_LEAD":
		return strconv.Itoa(s.SatdumpLead)
	case "SATDUMP_TAIL":
		return strconv.Itoa(s.SatdumpTail)
	case "GALLERY_KEEP_DAYS":
		return strconv.Itoa(s.GalleryKeepDays)
	case "TIMEZONE":
		return s.Timezone
	}
	return ""
}

// Map returns the settings keyed by their file names, with native JSON
// types, for the settings API.
func (s Settings) Map() map[string]any {
	return map[string]any{
		"LANG":                s.Lang,
		"TLE_URL":             s.TLEURL,
		"USE_MANUAL_TLE":      s.UseManualTLE,
		"KOORD_LAT":           s.Lat,
		"KOORD_LON":           s.Lon,
		"SERIAL_PORT":         s.SerialPort,
		"BAUDRATE":            s.Baudrate,
		"UPDATE_INTERVAL":     s.UpdateInterval,
		"ALTITUDE_LIMIT":      s.AltitudeLimit,
		"HTTP_PORT":           s.HTTPPort,
		"NUOTRAUKU_KATALOGAS": s.GalleryDir,
		"SATDUMP_SOURCE":      s.SatdumpSource,
		"SATDUMP_RATE":        s.SatdumpRate,
		"SATDUMP_DEVICE_ARGS": s.SatdumpDeviceArgs,
		"SATDUMP_MODE":        s.SatdumpMode,
		"SATDUMP_LEAD":        s.SatdumpLead,
		"SATDUMP_TAIL":        s.SatdumpTail,
		"GALLERY_KEEP_DAYS":   s.GalleryKeepDays,
		"TIMEZONE":            s.Timezone,
	}
}

// ManualTLE reports whether the catalog fetch is bypassed.
func (s Settings) ManualTLE() bool { return s.UseManualTLE != 0 }

// normalize clamps enum and interval fields so downstream loops never see
// values they cannot run with.
func (s *Settings) normalize() {
	if s.Lang != "lt" && s.Lang != "en" {
		s.Lang = "lt"
	}
	if s.SatdumpMode != "start" && s.SatdumpMode != "end" {
		s.SatdumpMode = "start"
	}
	if s.UpdateInterval < 1 {
		s.UpdateInterval = 1
	}
	if s.Lat < -90 || s.Lat > 90 {
		s.Lat = Default().Lat
	}
	if s.Lon < -180 || s.Lon > 180 {
		s.Lon = Default().Lon
	}
}

// Normalize exposes the clamping used by Load for settings assembled from
// other sources (the settings form).
func (s *Settings) Normalize() { s.normalize() }

// setInt parses ints the way the settings file has always allowed:
// underscores as digit separators and float syntax truncated toward zero.
func setInt(dst *int, value string) error {
	v := strings.ReplaceAll(value, "_", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = int(f)
	return nil
}

// setFloat parses floats accepting a comma decimal separator.
func setFloat(dst *float64, value string) error {
	v := strings.ReplaceAll(value, ",", ".")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Store holds the live settings snapshot. Updates persist to disk first and
// swap the snapshot only on success, so readers never observe applied but
// unsaved settings.
type Store struct {
	mu   sync.RWMutex
	path string
	cur  Settings
}

// NewStore loads (or defaults) the settings at path.
func NewStore(path string) *Store {
	return &Store{path: path, cur: Load(path)}
}

// Get returns the current snapshot.
func (st *Store) Get() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.cur
}

// Swap persists s and makes it the current snapshot.
func (st *Store) Swap(s Settings) error {
	s.normalize()
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := Save(st.path, s); err != nil {
		return err
	}
	st.cur = s
	return nil
}

// Path returns the backing file location.
func (st *Store) Path() string { return st.path }
