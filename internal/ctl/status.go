package ctl

import (
	"fmt"
	"strings"
	"time"
)

// StatusResponse mirrors the JSON returned by GET /api/status.
type StatusResponse struct {
	Name          string `json:"name"`
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	BaseDir       string `json:"base_dir"`
	GalleryDir    string `json:"gallery_dir"`
	PlanCount     int    `json:"plan_count"`
	Lang          string `json:"lang"`
	ManualTLE     bool   `json:"manual_tle"`
	CurrentPass   string `json:"current_pass"`
	Disk          *struct {
		TotalBytes     int64 `json:"total_bytes"`
		UsedBytes      int64 `json:"used_bytes"`
		AvailableBytes int64 `json:"available_bytes"`
	} `json:"disk"`
}

// Status fetches the daemon status and prints a formatted summary.
func Status(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var s StatusResponse
	if err := getJSON(baseURL, "/api/status", &s); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(s)
	}

	uptime := formatDuration(time.Duration(s.UptimeSeconds) * time.Second)
	stateStr := colorize(stateColor(s.State), s.State)

	tleMode := "auto"
	if s.ManualTLE {
		tleMode = "manual"
	}

	fmt.Println()
	fmt.Println(header("  STOTIS STATUS"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))
	fmt.Printf("  %-12s %s\n", colorize(dim, "Daemon:"), s.Name)
	fmt.Printf("  %-12s %s\n", colorize(dim, "State:"), stateStr)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Uptime:"), uptime)
	fmt.Printf("  %-12s %d upcoming\n", colorize(dim, "Plan:"), s.PlanCount)
	if s.CurrentPass != "" {
		fmt.Printf("  %-12s %s\n", colorize(dim, "Tracking:"), colorize(bold, s.CurrentPass))
	}
	fmt.Printf("  %-12s %s\n", colorize(dim, "TLE mode:"), tleMode)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Base:"), s.BaseDir)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Gallery:"), s.GalleryDir)
	if s.Disk != nil {
		fmt.Printf("  %-12s %s free of %s\n", colorize(dim, "Disk:"),
			formatBytes(s.Disk.AvailableBytes), formatBytes(s.Disk.TotalBytes))
	}
	fmt.Printf("  %-12s %s\n", colorize(dim, "Host:"), baseURL)
	fmt.Println()

	return nil
}
