// Package state persists the live tracking marker. The marker names the
// pass directory currently being written so retention never deletes it and
// the control plane can report what the antenna is doing.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Current is the single-document marker store. An empty ID means no pass
// is being tracked.
type Current struct {
	mu   sync.Mutex
	path string
}

// NewCurrent returns a marker store backed by the JSON file at path.
func NewCurrent(path string) *Current {
	return &Current{path: path}
}

type marker struct {
	ID string `json:"id"`
}

// Set publishes id, overwriting the marker atomically.
func (c *Current) Set(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := json.Marshal(marker{ID: id})
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".current-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

// Get returns the current pass ID. A missing or unreadable marker reads as
// "not tracking".
func (c *Current) Get() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := os.ReadFile(c.path)
	if err != nil {
		return ""
	}
	var m marker
	if err := json.Unmarshal(b, &m); err != nil {
		return ""
	}
	return m.ID
}
