package ctl

import (
	"fmt"
	"strings"
	"time"
)

// PassesOptions controls the passes command output.
type PassesOptions struct {
	Count     int
	Satellite string
	JSON      bool
}

type passEntry struct {
	ID        string  `json:"id"`
	Satellite string  `json:"satellite"`
	Rise      string  `json:"rise"`
	Culm      string  `json:"culm"`
	Set       string  `json:"set"`
	MaxElev   float64 `json:"max_elev"`
	DurationS int     `json:"duration_s"`
}

// Passes lists the daemon's planned passes.
func Passes(baseURL string, opts PassesOptions) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var resp struct {
		Passes   []passEntry `json:"passes"`
		Current  string      `json:"current"`
		Selected []string    `json:"selected"`
	}
	if err := getJSON(baseURL, "/api/passes", &resp); err != nil {
		return err
	}

	passes := resp.Passes
	if opts.Satellite != "" {
		upper := strings.ToUpper(opts.Satellite)
		var filtered []passEntry
		for _, p := range passes {
			if strings.ToUpper(p.Satellite) == upper {
				filtered = append(filtered, p)
			}
		}
		passes = filtered
	}
	if opts.Count > 0 && opts.Count < len(passes) {
		passes = passes[:opts.Count]
	}

	if opts.JSON {
		return printJSON(map[string]any{
			"passes":   passes,
			"current":  resp.Current,
			"selected": resp.Selected,
		})
	}

	selected := make(map[string]bool, len(resp.Selected))
	for _, id := range resp.Selected {
		selected[id] = true
	}

	fmt.Println()
	fmt.Println(header("  PLANNED PASSES"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 72)))

	if len(passes) == 0 {
		fmt.Println(colorize(dim, "  No upcoming passes."))
		fmt.Println()
		return nil
	}

	fmt.Printf("  %-2s %-14s %-18s %-18s %6s  %s\n",
		colorize(dim, ""),
		colorize(dim, "Satellite"),
		colorize(dim, "Rise"),
		colorize(dim, "Set"),
		colorize(dim, "Elev"),
		colorize(dim, "Duration"),
	)
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 72)))

	for _, p := range passes {
		mark := " "
		switch {
		case p.ID == resp.Current:
			mark = colorize(blue, ">")
		case selected[p.ID]:
			mark = colorize(green, "*")
		}
		fmt.Printf("  %-2s %-14s %-18s %-18s %5.1f°  %s\n",
			mark,
			colorize(bold, p.Satellite),
			formatPassTime(p.Rise),
			formatPassTime(p.Set),
			p.MaxElev,
			formatDuration(time.Duration(p.DurationS)*time.Second),
		)
	}
	fmt.Println()
	fmt.Println(colorize(dim, "  > tracking now   * user-selected for conflicts"))
	fmt.Println()

	return nil
}

// formatPassTime parses an RFC3339 timestamp and returns a local time string.
func formatPassTime(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Local().Format("Jan 02 15:04")
}
