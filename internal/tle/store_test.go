package tle

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `NOAA 15
1 25338U 98030A   25060.51782528  .00000190  00000-0  95407-4 0  9991
2 25338  98.5694  82.5977 0009571 212.6594 147.3980 14.26540303393848
NOAA 18
1 28654U 05018A   25060.47369290  .00000229  00000-0  14502-3 0  9996
2 28654  98.8706 142.5184 0013515 247.6364 112.3391 14.13451444018650
METEOR-M 2-3
1 57166U 23091A   25060.44964297  .00000031  00000-0  27899-4 0  9993
2 57166  98.7304  11.4904 0003364 119.0669 241.0855 14.23961195 86585
`

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tle.txt")
	return NewStore(path, log.New(io.Discard, "", 0)), path
}

func TestNamesAndGet(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	names, err := s.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"NOAA 15", "NOAA 18", "METEOR-M 2-3"}, names)

	l1, l2, err := s.Get("NOAA 18")
	require.NoError(t, err)
	assert.Contains(t, l1, "1 28654U")
	assert.Contains(t, l2, "2 28654")

	_, _, err = s.Get("NOAA 19")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlocksSkipJunkAndBlanks(t *testing.T) {
	raw := "\n# comment line that is not a block\n\n" + sampleCatalog + "\ntrailing junk\n"
	groups := blocks(raw)
	require.Len(t, groups, 3)
	assert.Equal(t, "NOAA 15", groups[0][0])
	assert.Equal(t, "METEOR-M 2-3", groups[2][0])
}

func TestSaveTextRoundTrip(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.SaveText(sampleCatalog))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog, string(b))

	text, err := s.Text()
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog, text)
}

func TestFetchOrLoadWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sampleCatalog)
	}))
	defer srv.Close()

	s, path := newTestStore(t)
	require.NoError(t, s.FetchOrLoad(context.Background(), srv.URL, false))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog, string(b))
}

func TestFetchOrLoadKeepsStaleOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	require.NoError(t, s.FetchOrLoad(context.Background(), srv.URL, false))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog, string(b), "stale catalog must survive a failed fetch")
}

func TestFetchOrLoadNoLocalNoNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s, _ := newTestStore(t)
	err := s.FetchOrLoad(context.Background(), srv.URL, false)
	assert.ErrorIs(t, err, ErrNoTLE)
}

func TestFetchOrLoadManualMode(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, sampleCatalog)
	}))
	defer srv.Close()

	s, path := newTestStore(t)

	err := s.FetchOrLoad(context.Background(), srv.URL, true)
	assert.ErrorIs(t, err, ErrNoTLE, "manual mode with no local file is fatal")

	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))
	require.NoError(t, s.FetchOrLoad(context.Background(), srv.URL, true))
	assert.Equal(t, int32(0), hits.Load(), "manual mode must not touch the network")
}

func TestFetchOrLoadRejectsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "   \n")
	}))
	defer srv.Close()

	s, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))
	require.NoError(t, s.FetchOrLoad(context.Background(), srv.URL, false))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog, string(b))
}

func TestTextMissingFile(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Text()
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
