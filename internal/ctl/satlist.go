package ctl

import (
	"fmt"
	"net/url"
	"strings"
)

// SatlistShow prints the planning set.
func SatlistShow(baseURL string, jsonOutput bool) error {
	var resp struct {
		List []string `json:"list"`
	}
	if err := getJSON(baseURL, "/api/satlist", &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp.List)
	}

	fmt.Println()
	fmt.Println(header("  TRACKED SATELLITES"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))
	if len(resp.List) == 0 {
		fmt.Println(colorize(dim, "  (none)"))
	}
	for i, name := range resp.List {
		fmt.Printf("  %2d. %s\n", i+1, name)
	}
	fmt.Println()
	return nil
}

// SatlistEdit adds or removes a catalog name from the planning set.
// op must be "add" or "remove".
func SatlistEdit(baseURL, op, name string, jsonOutput bool) error {
	var resp struct {
		List []string `json:"list"`
	}
	form := url.Values{"op": {op}, "name": {name}}
	if err := postForm(baseURL, "/api/satlist", form, &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp.List)
	}
	fmt.Printf("%s: %d satellites tracked\n", op, len(resp.List))
	return nil
}
