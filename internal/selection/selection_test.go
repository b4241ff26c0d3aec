package selection

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string, string) {
	t.Helper()
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "selection.json")
	textPath := filepath.Join(dir, "sekimas.txt")
	return NewStore(jsonPath, textPath, log.New(io.Discard, "", 0)), jsonPath, textPath
}

func TestSetWritesBothFiles(t *testing.T) {
	s, jsonPath, textPath := newTestStore(t)

	require.NoError(t, s.Set([]string{"20250601_1200_NOAA_19", "20250601_1210_NOAA_18"}))

	b, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var doc struct {
		IDs     []string `json:"ids"`
		Updated string   `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, []string{"20250601_1200_NOAA_19", "20250601_1210_NOAA_18"}, doc.IDs)
	assert.NotEmpty(t, doc.Updated)

	txt, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Equal(t, "20250601_1200_NOAA_19\n20250601_1210_NOAA_18\n", string(txt))
}

func TestSetDedupesPreservingOrder(t *testing.T) {
	s, _, _ := newTestStore(t)
	require.NoError(t, s.Set([]string{"B", "A", "B", "", "A"}))
	assert.Equal(t, []string{"B", "A"}, s.Get())
}

func TestGetPrefersJSON(t *testing.T) {
	s, jsonPath, textPath := newTestStore(t)

	require.NoError(t, os.WriteFile(textPath, []byte("TEXT_ONLY\n"), 0o644))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"ids":["FROM_JSON"],"updated":"x"}`), 0o644))

	assert.Equal(t, []string{"FROM_JSON"}, s.Get())
}

func TestGetFallsBackToTextWhenJSONEmpty(t *testing.T) {
	s, jsonPath, textPath := newTestStore(t)

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"ids":[],"updated":"x"}`), 0o644))
	require.NoError(t, os.WriteFile(textPath, []byte("FROM_TEXT\n\nSECOND\n"), 0o644))

	assert.Equal(t, []string{"FROM_TEXT", "SECOND"}, s.Get())
}

func TestGetFallsBackToTextWhenJSONCorrupt(t *testing.T) {
	s, jsonPath, textPath := newTestStore(t)

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"ids": [truncated`), 0o644))
	require.NoError(t, os.WriteFile(textPath, []byte("SURVIVOR\n"), 0o644))

	assert.Equal(t, []string{"SURVIVOR"}, s.Get())
}

func TestGetLegacySingleID(t *testing.T) {
	s, jsonPath, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"id":"OLD_STYLE","updated":"x"}`), 0o644))
	assert.Equal(t, []string{"OLD_STYLE"}, s.Get())
}

func TestGetEmptyEverywhere(t *testing.T) {
	s, _, _ := newTestStore(t)
	assert.Empty(t, s.Get())
}

func TestAddRemoveClear(t *testing.T) {
	s, _, _ := newTestStore(t)

	ids, err := s.Add("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids)

	ids, err = s.Add("B")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids)

	// Adding again is a no-op.
	ids, err = s.Add("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids)

	ids, err = s.Remove("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ids)

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Get())
}

func TestSetRoundTripsThroughBothForms(t *testing.T) {
	s, jsonPath, _ := newTestStore(t)

	require.NoError(t, s.Set([]string{"X", "Y"}))

	// Simulate losing the JSON document; the mirror still restores the set.
	require.NoError(t, os.Remove(jsonPath))
	assert.Equal(t, []string{"X", "Y"}, s.Get())
}
