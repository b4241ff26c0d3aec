// Package gallery owns the per-pass capture directories: the meta.json
// sidecar that seals a finished pass, the listing the web pages are built
// from, retention cleanup, and thumbnail generation.
package gallery

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// MetaFile is the sidecar name inside every sealed pass directory. Writing
// it is the commit marker for "pass completed".
const MetaFile = "meta.json"

// Meta describes one captured pass. Local times carry the station zone
// offset; CreatedUTC records when the directory was sealed.
type Meta struct {
	Satellite  string `json:"satellite"`
	StartLocal string `json:"start_local"`
	EndLocal   string `json:"end_local"`
	CreatedUTC string `json:"created_utc"`
}

// NewMeta builds the sidecar for a pass of sat spanning [rise, set].
func NewMeta(sat string, rise, set, created time.Time, loc *time.Location) Meta {
	return Meta{
		Satellite:  sat,
		StartLocal: rise.In(loc).Format(time.RFC3339),
		EndLocal:   set.In(loc).Format(time.RFC3339),
		CreatedUTC: created.UTC().Format(time.RFC3339),
	}
}

// WriteMeta seals dir with m.
func WriteMeta(dir string, m Meta) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, MetaFile), append(b, '\n'), 0o644)
}

// ReadMeta loads the sidecar from dir. A missing or corrupt sidecar is not
// an error; the pass simply has no metadata.
func ReadMeta(dir string) (Meta, bool) {
	b, err := os.ReadFile(filepath.Join(dir, MetaFile))
	if err != nil {
		return Meta{}, false
	}
	var m Meta
	if err := json.Unmarshal(b, &m); err != nil {
		return Meta{}, false
	}
	return m, true
}

// Start parses the local start time out of the sidecar.
func (m Meta) Start(loc *time.Location) (time.Time, bool) {
	if m.StartLocal == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, m.StartLocal); err == nil {
		return t, true
	}
	// Older sidecars wrote naive local timestamps.
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", m.StartLocal, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// PassDir is one gallery entry.
type PassDir struct {
	ID      string
	Path    string
	Meta    Meta
	HasMeta bool
}

// ListPasses scans the gallery root and returns its pass directories,
// newest first. The sort key is the sidecar start when present, otherwise
// the directory name (which leads with the same local timestamp).
func ListPasses(root string) ([]PassDir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []PassDir
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := PassDir{
			ID:   e.Name(),
			Path: filepath.Join(root, e.Name()),
		}
		p.Meta, p.HasMeta = ReadMeta(p.Path)
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		return sortKey(out[i]) > sortKey(out[j])
	})
	return out, nil
}

func sortKey(p PassDir) string {
	if p.HasMeta && p.Meta.StartLocal != "" {
		return p.Meta.StartLocal
	}
	return p.ID
}
