// Package tle acquires, persists, and parses the two-line element catalog
// the planner works from. The catalog lives in a single text file of
// repeating name/line1/line2 blocks, refreshed from a configurable URL
// unless manual mode pins the local copy.
package tle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FetchTimeout bounds the catalog download.
const FetchTimeout = 8 * time.Second

var (
	// ErrNoTLE means no catalog could be fetched and none exists locally.
	// The daemon treats it as fatal at startup.
	ErrNoTLE = errors.New("no TLE data available")

	// ErrNotFound means the named satellite is not in the catalog.
	ErrNotFound = errors.New("satellite not in TLE file")
)

// Store reads and writes the catalog file. All file access is serialized so
// HTTP handlers and the replan pipeline never interleave partial writes.
type Store struct {
	mu     sync.Mutex
	path   string
	log    *log.Logger
	client *http.Client
}

// NewStore returns a store over the catalog file at path.
func NewStore(path string, logger *log.Logger) *Store {
	return &Store{
		path:   path,
		log:    logger,
		client: &http.Client{Timeout: FetchTimeout},
	}
}

// Path returns the catalog file location.
func (s *Store) Path() string { return s.path }

// FetchOrLoad refreshes the catalog from url, falling back to the local file
// when the network is unavailable. In manual mode the local file is used
// as-is. Returns ErrNoTLE when no usable catalog exists anywhere.
func (s *Store) FetchOrLoad(ctx context.Context, url string, manual bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if manual {
		if _, err := os.Stat(s.path); err != nil {
			return fmt.Errorf("%w: manual mode with no %s", ErrNoTLE, filepath.Base(s.path))
		}
		s.log.Printf("tle: manual mode, using local %s", s.path)
		return nil
	}

	body, fetchErr := s.fetch(ctx, url)
	if fetchErr == nil {
		if err := writeAtomic(s.path, body); err != nil {
			return fmt.Errorf("write %s: %w", s.path, err)
		}
		s.log.Printf("tle: fetched %d bytes from %s", len(body), url)
		return nil
	}

	if _, err := os.Stat(s.path); err == nil {
		s.log.Printf("tle: fetch failed (%v), keeping stale %s", fetchErr, s.path)
		return nil
	}

	return fmt.Errorf("%w: fetch failed: %v", ErrNoTLE, fetchErr)
}

func (s *Store) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("TLE fetch returned HTTP %d", resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return "", errors.New("TLE fetch returned empty body")
	}
	return string(b), nil
}

// Names returns the catalog labels in file order.
func (s *Store) Names() ([]string, error) {
	raw, err := s.Text()
	if err != nil {
		return nil, err
	}
	groups := blocks(raw)
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g[0])
	}
	return names, nil
}

// Get returns the two element lines for an exact catalog name.
func (s *Store) Get(name string) (string, string, error) {
	raw, err := s.Text()
	if err != nil {
		return "", "", err
	}
	for _, g := range blocks(raw) {
		if g[0] == name {
			return g[1], g[2], nil
		}
	}
	return "", "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Text returns the raw catalog file contents.
func (s *Store) Text() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SaveText overwrites the catalog with user-supplied text.
func (s *Store) SaveText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.path, text)
}

// blocks splits raw catalog text into aligned [name, line1, line2] groups.
// Blank lines are skipped; a group is recognized by its two element lines,
// with no checksum validation.
func blocks(raw string) [][3]string {
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}

	var out [][3]string
	for i := 0; i+2 < len(lines); {
		if strings.HasPrefix(lines[i+1], "1 ") && strings.HasPrefix(lines[i+2], "2 ") {
			out = append(out, [3]string{lines[i], lines[i+1], lines[i+2]})
			i += 3
		} else {
			i++
		}
	}
	return out
}

// writeAtomic writes data via a temp file and rename so readers never see a
// half-written catalog.
func writeAtomic(path, data string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "tle-*.tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.WriteString(data); err != nil {
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
