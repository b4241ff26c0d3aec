// Package i18n loads the web UI translation files. Each language lives in
// kalbos/<code>.txt as key=value lines; Lithuanian is the station default
// and English fills any gaps in other languages.
package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir is the translations directory inside the base directory.
const Dir = "kalbos"

// Languages the UI ships with.
var Languages = []string{"lt", "en"}

// EnsureFiles seeds the translation files that do not exist yet. Existing
// files are left untouched so operator edits survive restarts.
func EnsureFiles(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, lang := range Languages {
		path := filepath.Join(dir, lang+".txt")
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := writeDefaults(path, lang); err != nil {
			return fmt.Errorf("seed %s: %w", path, err)
		}
	}
	return nil
}

func writeDefaults(path, lang string) error {
	seed, ok := defaults[lang]
	if !ok {
		seed = defaults["en"]
	}
	keys := make([]string, 0, len(seed))
	for k := range seed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("# " + lang + " translations, key=value\n")
	for _, k := range keys {
		b.WriteString(k + "=" + seed[k] + "\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// Load reads the translation map for lang. Languages other than English
// backfill missing keys from the English file so the UI never renders an
// empty label.
func Load(dir, lang string) map[string]string {
	m := parseFile(filepath.Join(dir, lang+".txt"))
	if lang != "en" {
		for k, v := range parseFile(filepath.Join(dir, "en.txt")) {
			if _, ok := m[k]; !ok {
				m[k] = v
			}
		}
	}
	return m
}

func parseFile(path string) map[string]string {
	m := make(map[string]string)
	b, err := os.ReadFile(path)
	if err != nil {
		return m
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
		m[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return m
}

// T looks key up in m, falling back to the key itself so missing
// translations stay visible rather than blank.
func T(m map[string]string, key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return key
}

var defaults = map[string]map[string]string{
	"lt": {
		"title":       "Palydovų stotis",
		"passes":      "Praskridimai",
		"gallery":     "Galerija",
		"settings":    "Nustatymai",
		"satellite":   "Palydovas",
		"rise":        "Pakilimas",
		"culmination": "Kulminacija",
		"set":         "Nusileidimas",
		"max_elev":    "Maks. elevacija",
		"selected":    "Pasirinkta",
		"current":     "Dabar sekamas",
		"no_passes":   "Artimiausią parą praskridimų nėra",
		"save":        "Išsaugoti",
		"language":    "Kalba",
	},
	"en": {
		"title":       "Satellite station",
		"passes":      "Passes",
		"gallery":     "Gallery",
		"settings":    "Settings",
		"satellite":   "Satellite",
		"rise":        "Rise",
		"culmination": "Culmination",
		"set":         "Set",
		"max_elev":    "Max elevation",
		"selected":    "Selected",
		"current":     "Now tracking",
		"no_passes":   "No passes in the next 24 hours",
		"save":        "Save",
		"language":    "Language",
	},
}
