package ctl

import (
	"fmt"
	"net/url"
)

// Select edits the conflict-override selection set. op is add, remove, or
// clear; id is the pass ID (empty for clear).
func Select(baseURL, op, id string, jsonOutput bool) error {
	q := url.Values{"op": {op}}
	if id != "" {
		q.Set("id", id)
	}

	var resp struct {
		IDs []string `json:"ids"`
	}
	if err := getJSON(baseURL, "/api/select?"+q.Encode(), &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp.IDs)
	}

	if len(resp.IDs) == 0 {
		fmt.Println("selection empty")
		return nil
	}
	fmt.Println("selected:")
	for _, have := range resp.IDs {
		fmt.Println("  " + have)
	}
	return nil
}
