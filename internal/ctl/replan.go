package ctl

import (
	"fmt"
	"net/url"
)

// Replan asks the daemon to rebuild its plan and report the pass count.
func Replan(baseURL string, jsonOutput bool) error {
	var resp struct {
		OK    bool `json:"ok"`
		Count int  `json:"count"`
	}
	if err := postForm(baseURL, "/api/replan", url.Values{}, &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}
	fmt.Printf("replanned: %d passes\n", resp.Count)
	return nil
}
