// Package render regenerates the station's static artifacts from a plan and
// a gallery listing: the elevation chart PNG and the HTML pages. It is a
// pure output leaf; nothing here feeds back into scheduling.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/palydovai/stotis/internal/config"
	"github.com/palydovai/stotis/internal/gallery"
	"github.com/palydovai/stotis/internal/i18n"
	"github.com/palydovai/stotis/internal/plan"
)

// ChartFile is the elevation chart artifact inside the base directory.
const ChartFile = "palydovai_elevacijos_grafikas.png"

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Renderer writes artifacts into the base directory.
type Renderer struct {
	BaseDir string
	Log     *log.Logger
}

// passView is one plan row prepared for the templates.
type passView struct {
	ID       string
	SatName  string
	Rise     string
	Culm     string
	Set      string
	MaxElev  string
	Selected bool
	Current  bool
}

// galleryView is one gallery row.
type galleryView struct {
	ID        string
	Satellite string
	Start     string
	Thumbs    []string
}

type pageData struct {
	T        map[string]string
	Lang     string
	Passes   []passView
	Gallery  []galleryView
	Settings map[string]any
	Chart    string
	Count    int
}

// WritePages renders index.html, galerija.html, and nustatymai.html from
// the current plan, gallery, and settings.
func (r *Renderer) WritePages(passes []plan.Pass, selected []string, currentID string, galleryDirs []gallery.PassDir, s config.Settings, tr map[string]string) error {
	loc := s.Location()
	sel := make(map[string]bool, len(selected))
	for _, id := range selected {
		sel[id] = true
	}

	data := pageData{
		T:        tr,
		Lang:     s.Lang,
		Settings: s.Map(),
		Chart:    ChartFile,
		Count:    len(passes),
	}
	for _, p := range passes {
		data.Passes = append(data.Passes, passView{
			ID:       p.ID,
			SatName:  p.SatName,
			Rise:     p.Rise.In(loc).Format("2006-01-02 15:04"),
			Culm:     p.Culm.In(loc).Format("15:04:05"),
			Set:      p.Set.In(loc).Format("15:04:05"),
			MaxElev:  fmt.Sprintf("%.1f", p.MaxElev),
			Selected: sel[p.ID],
			Current:  p.ID == currentID,
		})
	}
	for _, g := range galleryDirs {
		v := galleryView{ID: g.ID, Satellite: g.Meta.Satellite}
		if g.HasMeta {
			v.Start = g.Meta.StartLocal
		}
		v.Thumbs = listThumbs(g.Path, g.ID, s.GalleryDir)
		data.Gallery = append(data.Gallery, v)
	}

	pages := map[string]string{
		"index.html":      "index.html",
		"galerija.html":   "galerija.html",
		"nustatymai.html": "nustatymai.html",
	}
	for tmpl, out := range pages {
		if err := r.writePage(tmpl, out, data); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) writePage(tmpl, out string, data pageData) error {
	f, err := os.Create(filepath.Join(r.BaseDir, out))
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := pageTemplates.ExecuteTemplate(f, tmpl, data); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", out, err)
	}
	return f.Close()
}

// listThumbs returns gallery-relative thumb paths for a pass directory.
func listThumbs(passPath, id, galleryDir string) []string {
	entries, err := os.ReadDir(filepath.Join(passPath, gallery.ThumbDir))
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, filepath.ToSlash(filepath.Join(galleryDir, id, gallery.ThumbDir, e.Name())))
	}
	return out
}

// PageTranslations loads the translation map for the configured language.
func (r *Renderer) PageTranslations(s config.Settings) map[string]string {
	return i18n.Load(filepath.Join(r.BaseDir, i18n.Dir), s.Lang)
}

// localLabel renders a rise time for chart axis labels.
func localLabel(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("01-02 15:04")
}
