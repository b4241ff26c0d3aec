package gallery

import (
	"image"
	"image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// ThumbDir holds the square previews inside each pass directory. It is
// excluded from thumbnail source scans so thumbs never cascade.
const ThumbDir = "_thumbs"

// ThumbSize is the square edge of a generated preview.
const ThumbSize = 300

// GenerateThumbs walks passDir and (re)creates a 300x300 center-cropped
// thumbnail for every image newer than its existing thumb. Returns how many
// thumbnails were written.
func GenerateThumbs(passDir string) (int, error) {
	thumbRoot := filepath.Join(passDir, ThumbDir)

	var sources []string
	err := filepath.WalkDir(passDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ThumbDir {
				return fs.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".png", ".jpg", ".jpeg":
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(sources) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(thumbRoot, 0o755); err != nil {
		return 0, err
	}

	made := 0
	for _, src := range sources {
		dst := filepath.Join(thumbRoot, filepath.Base(src))
		if fresh(dst, src) {
			continue
		}
		if err := writeThumb(dst, src); err != nil {
			// One bad image must not block the rest of the gallery.
			continue
		}
		made++
	}
	return made, nil
}

// fresh reports whether the thumb exists and is at least as new as its
// source.
func fresh(thumb, src string) bool {
	ti, err := os.Stat(thumb)
	if err != nil {
		return false
	}
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	return !ti.ModTime().Before(si.ModTime())
}

func writeThumb(dst, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return err
	}

	out := image.NewRGBA(image.Rect(0, 0, ThumbSize, ThumbSize))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), img, centerSquare(img.Bounds()), draw.Src, nil)

	tmp := dst + ".tmp"
	w, err := os.Create(tmp)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(dst)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(w, out, &jpeg.Options{Quality: 85})
	default:
		err = png.Encode(w, out)
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

// centerSquare is the largest centered square inside b.
func centerSquare(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	side := w
	if h < side {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2
	return image.Rect(x0, y0, x0+side, y0+side)
}
