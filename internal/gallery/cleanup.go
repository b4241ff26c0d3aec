package gallery

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/palydovai/stotis/internal/timeutil"
)

// Result summarizes one retention sweep.
type Result struct {
	Deleted        int `json:"deleted"`
	Kept           int `json:"kept"`
	Scanned        int `json:"scanned"`
	SkippedCurrent int `json:"skipped_current"`
}

// Cleanup deletes pass directories whose start is older than days. The
// directory matching currentID is never touched, whatever its age. Start
// time comes from the sidecar, then the newest file in the tree, then the
// directory itself; with no evidence at all the directory is kept.
func Cleanup(root string, days int, currentID string, loc *time.Location, clock timeutil.Clock, logger *log.Logger) (Result, error) {
	var res Result
	if days <= 0 {
		return res, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return res, nil
		}
		return res, err
	}

	cutoff := clock.Now().In(loc).AddDate(0, 0, -days)

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		res.Scanned++

		if currentID != "" && e.Name() == currentID {
			res.SkippedCurrent++
			continue
		}

		dir := filepath.Join(root, e.Name())
		start, ok := dirStart(dir, loc)
		if !ok {
			res.Kept++
			continue
		}

		if start.Before(cutoff) {
			if err := os.RemoveAll(dir); err != nil {
				logger.Printf("gallery: delete %s: %v", dir, err)
				res.Kept++
				continue
			}
			res.Deleted++
		} else {
			res.Kept++
		}
	}
	return res, nil
}

// dirStart resolves when a pass directory's capture began.
func dirStart(dir string, loc *time.Location) (time.Time, bool) {
	if m, ok := ReadMeta(dir); ok {
		if t, ok := m.Start(loc); ok {
			return t, true
		}
	}
	if t, ok := newestFileTime(dir); ok {
		return t, true
	}
	if info, err := os.Stat(dir); err == nil {
		return info.ModTime(), true
	}
	return time.Time{}, false
}

// newestFileTime walks the tree and returns the most recent regular-file
// modification time.
func newestFileTime(dir string) (time.Time, bool) {
	var newest time.Time
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	return newest, !newest.IsZero()
}
