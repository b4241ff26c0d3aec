package ctl

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// SettingsGet fetches the daemon settings and prints them in file order.
func SettingsGet(baseURL string, jsonOutput bool) error {
	var resp struct {
		Settings map[string]any `json:"settings"`
	}
	if err := getJSON(baseURL, "/api/settings", &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp.Settings)
	}

	keys := make([]string, 0, len(resp.Settings))
	for k := range resp.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println()
	fmt.Println(header("  SETTINGS"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 48)))
	for _, k := range keys {
		fmt.Printf("  %s %v\n", padRight(colorize(dim, k), 30), resp.Settings[k])
	}
	fmt.Println()

	return nil
}

// SettingsSet applies one KEY=VALUE pair and prints the saved result.
func SettingsSet(baseURL, key, value string, jsonOutput bool) error {
	var resp struct {
		Saved map[string]any `json:"saved"`
	}
	form := url.Values{key: {value}}
	if err := postForm(baseURL, "/api/settings", form, &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp.Saved)
	}

	saved, ok := resp.Saved[key]
	if !ok {
		return fmt.Errorf("daemon does not know setting %q", key)
	}
	fmt.Printf("%s = %v\n", key, saved)
	return nil
}
