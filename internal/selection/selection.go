// Package selection persists the user's conflict-override picks. The JSON
// document is authoritative; a newline-delimited text mirror is kept for
// hand editing and older tooling, written best-effort after the JSON.
package selection

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Store owns both persisted forms of the selection set.
type Store struct {
	mu       sync.Mutex
	jsonPath string
	textPath string
	log      *log.Logger
}

// NewStore returns a store over the two selection files.
func NewStore(jsonPath, textPath string, logger *log.Logger) *Store {
	return &Store{jsonPath: jsonPath, textPath: textPath, log: logger}
}

// document is the JSON form. The singular "id" field is a legacy layout
// still accepted on read.
type document struct {
	IDs     []string `json:"ids"`
	ID      string   `json:"id,omitempty"`
	Updated string   `json:"updated"`
}

// Get loads the selection. The JSON document wins when it parses and holds
// at least one ID; otherwise the text mirror is read. Order is preserved,
// duplicates dropped.
func (s *Store) Get() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() []string {
	if b, err := os.ReadFile(s.jsonPath); err == nil {
		var doc document
		if err := json.Unmarshal(b, &doc); err == nil {
			ids := doc.IDs
			if len(ids) == 0 && doc.ID != "" {
				ids = []string{doc.ID}
			}
			if len(ids) > 0 {
				return dedupe(ids)
			}
		}
	}

	b, err := os.ReadFile(s.textPath)
	if err != nil {
		return nil
	}
	var ids []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			ids = append(ids, line)
		}
	}
	return dedupe(ids)
}

// Set replaces the selection with ids, persisting the JSON document first
// and then the text mirror. Mirror failures are logged, not returned.
func (s *Store) Set(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(dedupe(ids))
}

func (s *Store) persist(ids []string) error {
	doc := document{
		IDs:     ids,
		Updated: time.Now().UTC().Format(time.RFC3339),
	}
	if doc.IDs == nil {
		doc.IDs = []string{}
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := writeAtomic(s.jsonPath, append(b, '\n')); err != nil {
		return err
	}

	var txt strings.Builder
	for _, id := range ids {
		txt.WriteString(id + "\n")
	}
	if err := writeAtomic(s.textPath, []byte(txt.String())); err != nil {
		s.log.Printf("selection: text mirror write failed: %v", err)
	}
	return nil
}

// Add appends id if absent.
func (s *Store) Add(id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.load()
	for _, have := range ids {
		if have == id {
			return ids, nil
		}
	}
	ids = append(ids, id)
	return ids, s.persist(ids)
}

// Remove drops id if present.
func (s *Store) Remove(id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.load()
	out := ids[:0]
	for _, have := range ids {
		if have != id {
			out = append(out, have)
		}
	}
	return out, s.persist(out)
}

// Clear empties the selection.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(nil)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".sel-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
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
