package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/palydovai/stotis/internal/plan"
	"github.com/palydovai/stotis/internal/replan"
	"github.com/palydovai/stotis/internal/telemetry"
)

// tleNamesLimit caps the /api/tle_names response.
const tleNamesLimit = 200

// routes builds the HTTP mux with logging and panic recovery around every
// handler. Static pages are the fallback for anything outside /api.
func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/settings", a.handleSettings)
	mux.HandleFunc("/api/tle_names", a.handleTLENames)
	mux.HandleFunc("/api/satlist", a.handleSatlist)
	mux.HandleFunc("/api/tle_txt", a.handleTLEText)
	mux.HandleFunc("/api/tle_manual", a.handleTLEManual)
	mux.HandleFunc("/api/replan", a.handleReplan)
	mux.HandleFunc("/api/cleanup", a.handleCleanup)
	mux.HandleFunc("/api/select", a.handleSelect)
	mux.HandleFunc("/api/lang", a.handleLang)
	mux.HandleFunc("/api/passes", a.handlePasses)
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/version", a.handleVersion)
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.Handle("/ws", a.hub.Handler())
	mux.HandleFunc("/", a.handleStatic)

	return a.withMiddleware(mux)
}

// withMiddleware wraps next with request logging and panic recovery.
func (a *App) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				a.log.Printf("http: panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				jsonError(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			a.log.Printf("http: %s %s %s", r.Method, r.URL.RequestURI(), time.Since(start).Round(time.Millisecond))
		}
	})
}

// handleSettings returns the settings map on GET and applies a form-encoded
// partial update on POST. Unknown keys and unparsable values are ignored;
// the snapshot swaps only after the file is saved.
func (a *App) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]any{"ok": true, "settings": a.settings.Get().Map()})

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			jsonError(w, "bad form: "+err.Error(), http.StatusBadRequest)
			return
		}

		s := a.settings.Get()
		for key := range s.Map() {
			if !r.PostForm.Has(key) {
				continue
			}
			value := strings.TrimSpace(r.PostForm.Get(key))
			if key == "USE_MANUAL_TLE" {
				value = checkboxValue(value)
			}
			if err := s.SetKey(key, value); err != nil {
				a.log.Printf("http: settings key %s: %v", key, err)
			}
		}
		if err := a.settings.Swap(s); err != nil {
			jsonError(w, "save settings: "+err.Error(), http.StatusInternalServerError)
			return
		}

		a.hub.BroadcastJSON(telemetry.Event("http", telemetry.TypeSettingsChanged, nil))
		if isBrowserForm(r) {
			http.Redirect(w, r, "/nustatymai.html", http.StatusSeeOther)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "saved": a.settings.Get().Map()})

	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleTLENames returns catalog names matching the q substring, case
// insensitive, capped at tleNamesLimit.
func (a *App) handleTLENames(w http.ResponseWriter, r *http.Request) {
	names, err := a.tleStore.Names()
	if err != nil {
		jsonError(w, "no catalog loaded", http.StatusServiceUnavailable)
		return
	}

	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	matched := make([]string, 0, len(names))
	for _, n := range names {
		if q != "" && !strings.Contains(strings.ToLower(n), q) {
			continue
		}
		matched = append(matched, n)
		if len(matched) == tleNamesLimit {
			break
		}
	}
	writeJSON(w, map[string]any{"ok": true, "count": len(matched), "names": matched})
}

// handleSatlist reads and edits the planning set. Adding requires the name
// to exist in the catalog; removing never fails.
func (a *App) handleSatlist(w http.ResponseWriter, r *http.Request) {
	listPath := filepath.Join(a.base, replan.ListFile)

	switch r.Method {
	case http.MethodGet:
		names, err := plan.LoadNames(listPath)
		if err != nil {
			jsonError(w, "read planning set: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "list": names})

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			jsonError(w, "bad form: "+err.Error(), http.StatusBadRequest)
			return
		}
		op := r.PostForm.Get("op")
		name := strings.TrimSpace(r.PostForm.Get("name"))
		if name == "" {
			jsonError(w, "name parameter required", http.StatusBadRequest)
			return
		}

		names, err := plan.LoadNames(listPath)
		if err != nil {
			jsonError(w, "read planning set: "+err.Error(), http.StatusInternalServerError)
			return
		}

		switch op {
		case "add":
			if _, _, err := a.tleStore.Get(name); err != nil {
				jsonError(w, "not in TLE catalog: "+name, http.StatusBadRequest)
				return
			}
			exists := false
			for _, have := range names {
				if have == name {
					exists = true
					break
				}
			}
			if !exists {
				names = append(names, name)
			}
		case "remove":
			out := names[:0]
			for _, have := range names {
				if have != name {
					out = append(out, have)
				}
			}
			names = out
		default:
			jsonError(w, "op must be add or remove", http.StatusBadRequest)
			return
		}

		if err := plan.SaveNames(listPath, names); err != nil {
			jsonError(w, "save planning set: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "list": names})

	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleTLEText returns the catalog file contents.
func (a *App) handleTLEText(w http.ResponseWriter, _ *http.Request) {
	text, err := a.tleStore.Text()
	if err != nil {
		jsonError(w, "no catalog loaded", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "text": text})
}

// handleTLEManual replaces the catalog with user-pasted text and flips the
// station into manual mode so the next refresh keeps it.
func (a *App) handleTLEManual(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		jsonError(w, "bad form: "+err.Error(), http.StatusBadRequest)
		return
	}
	data := r.PostForm.Get("data")
	if strings.TrimSpace(data) == "" {
		jsonError(w, "data parameter required", http.StatusBadRequest)
		return
	}

	if err := a.tleStore.SaveText(data); err != nil {
		jsonError(w, "save catalog: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s := a.settings.Get()
	s.UseManualTLE = 1
	if err := a.settings.Swap(s); err != nil {
		jsonError(w, "save settings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	names, _ := a.tleStore.Names()
	writeJSON(w, map[string]any{
		"ok":  true,
		"msg": fmt.Sprintf("catalog saved: %d satellites, manual mode on", len(names)),
	})
}

// handleReplan runs the full pipeline and reports the pass count.
func (a *App) handleReplan(w http.ResponseWriter, r *http.Request) {
	count, err := a.pipeline.Run(r.Context())
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "count": count})
}

// handleCleanup sweeps the gallery. An explicit days parameter overrides the
// configured retention; without either the sweep is refused.
func (a *App) handleCleanup(w http.ResponseWriter, r *http.Request) {
	days := a.settings.Get().GalleryKeepDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			jsonError(w, "days must be an integer", http.StatusBadRequest)
			return
		}
		days = n
	}
	if days <= 0 {
		jsonError(w, "retention disabled: pass days= or set GALLERY_KEEP_DAYS", http.StatusBadRequest)
		return
	}

	res, err := a.pipeline.Cleanup(days)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"ok":   true,
		"days": days,
		"result": map[string]any{
			"deleted": res.Deleted,
			"kept":    res.Kept,
			"scanned": res.Scanned,
		},
	})
}

// handleSelect edits the conflict-override selection set.
func (a *App) handleSelect(w http.ResponseWriter, r *http.Request) {
	op := r.URL.Query().Get("op")
	id := r.URL.Query().Get("id")

	var (
		ids []string
		err error
	)
	switch op {
	case "add":
		if id == "" {
			jsonError(w, "id parameter required", http.StatusBadRequest)
			return
		}
		ids, err = a.sel.Add(id)
	case "remove":
		if id == "" {
			jsonError(w, "id parameter required", http.StatusBadRequest)
			return
		}
		ids, err = a.sel.Remove(id)
	case "clear":
		err = a.sel.Clear()
	default:
		jsonError(w, "op must be add, remove, or clear", http.StatusBadRequest)
		return
	}
	if err != nil {
		jsonError(w, "save selection: "+err.Error(), http.StatusInternalServerError)
		return
	}

	a.hub.BroadcastJSON(telemetry.Event("http", telemetry.TypeSelectionChanged, map[string]any{
		"ids": ids,
	}))
	if err := a.pipeline.RenderPages(); err != nil {
		a.log.Printf("http: render after select: %v", err)
	}

	if isBrowserForm(r) || r.Header.Get("Referer") != "" {
		http.Redirect(w, r, referrerOr(r, "/index.html"), http.StatusSeeOther)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "ids": ids})
}

// handleLang switches the UI language and bounces the browser back to the
// page it came from.
func (a *App) handleLang(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code != "lt" && code != "en" {
		jsonError(w, "code must be lt or en", http.StatusBadRequest)
		return
	}

	s := a.settings.Get()
	s.Lang = code
	if err := a.settings.Swap(s); err != nil {
		jsonError(w, "save settings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := a.pipeline.RenderPages(); err != nil {
		a.log.Printf("http: render after lang switch: %v", err)
	}

	http.Redirect(w, r, referrerOr(r, "/index.html"), http.StatusFound)
}

// handlePasses returns the current plan snapshot.
func (a *App) handlePasses(w http.ResponseWriter, _ *http.Request) {
	passes, _ := a.planSnapshot()
	loc := a.settings.Get().Location()

	type passJSON struct {
		ID        string  `json:"id"`
		Satellite string  `json:"satellite"`
		Rise      string  `json:"rise"`
		Culm      string  `json:"culm"`
		Set       string  `json:"set"`
		MaxElev   float64 `json:"max_elev"`
		DurationS int     `json:"duration_s"`
	}
	out := make([]passJSON, len(passes))
	for i, p := range passes {
		out[i] = passJSON{
			ID:        p.ID,
			Satellite: p.SatName,
			Rise:      p.Rise.In(loc).Format(time.RFC3339),
			Culm:      p.Culm.In(loc).Format(time.RFC3339),
			Set:       p.Set.In(loc).Format(time.RFC3339),
			MaxElev:   p.MaxElev,
			DurationS: int(p.Set.Sub(p.Rise).Seconds()),
		}
	}

	writeJSON(w, map[string]any{
		"ok":       true,
		"passes":   out,
		"current":  a.current.Get(),
		"selected": a.sel.Get(),
	})
}

// handleStatus reports daemon state, uptime, current pass, and disk usage.
func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s := a.settings.Get()
	passes, _ := a.planSnapshot()

	resp := map[string]any{
		"name":           "stotis",
		"state":          a.state.Load().(string),
		"uptime_seconds": int64(a.clock.Since(a.startedAt).Seconds()),
		"base_dir":       a.base,
		"gallery_dir":    s.GalleryDir,
		"plan_count":     len(passes),
		"lang":           s.Lang,
		"manual_tle":     s.ManualTLE(),
	}
	if cur := a.current.Get(); cur != "" {
		resp["current_pass"] = cur
	}
	if du := galleryDiskUsage(filepath.Join(a.base, s.GalleryDir)); du != nil {
		resp["disk"] = du
	}

	writeJSON(w, resp)
}

// galleryDiskUsage reports the fill level of the volume holding the gallery,
// since captures are what eventually run the station out of space. Falls back
// to nil when the directory does not exist yet.
func galleryDiskUsage(dir string) map[string]any {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return nil
	}
	total := stat.Blocks * uint64(stat.Bsize)
	avail := stat.Bavail * uint64(stat.Bsize)
	used := total - stat.Bfree*uint64(stat.Bsize)
	out := map[string]any{
		"total_bytes":     total,
		"used_bytes":      used,
		"available_bytes": avail,
	}
	if total > 0 {
		out["used_percent"] = float64(used) / float64(total) * 100
	}
	return out
}

func (a *App) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"version":    Version,
		"go_version": runtime.Version(),
		"built_at":   BuiltAt,
	})
}

func (a *App) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// handleStatic serves the generated pages, the chart, and the gallery from
// the base directory. Only GET, and only paths that clean to inside it.
func (a *App) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p := path.Clean(r.URL.Path)
	if p == "/" {
		p = "/index.html"
	}
	if strings.Contains(p, "..") {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(a.base, filepath.FromSlash(p)))
}

// checkboxValue maps HTML checkbox submissions onto the 0/1 the settings
// file stores.
func checkboxValue(v string) string {
	switch strings.ToLower(v) {
	case "1", "on", "true", "yes":
		return "1"
	default:
		return "0"
	}
}

// isBrowserForm reports whether the request came from an HTML form rather
// than an API client.
func isBrowserForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") &&
		strings.Contains(r.Header.Get("Accept"), "text/html")
}

// referrerOr returns the Referer path when it is local, else fallback.
func referrerOr(r *http.Request, fallback string) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return fallback
	}
	if i := strings.Index(ref, "//"); i >= 0 {
		if j := strings.Index(ref[i+2:], "/"); j >= 0 {
			return ref[i+2+j:]
		}
		return fallback
	}
	if strings.HasPrefix(ref, "/") {
		return ref
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":    false,
		"error": msg,
	})
}
