package ctl

import (
	"fmt"
	"net/url"
	"strconv"
)

// Cleanup triggers a gallery retention sweep. days == 0 uses the daemon's
// configured retention.
func Cleanup(baseURL string, days int, jsonOutput bool) error {
	path := "/api/cleanup"
	if days > 0 {
		path += "?days=" + strconv.Itoa(days)
	}

	var resp struct {
		OK     bool `json:"ok"`
		Days   int  `json:"days"`
		Result struct {
			Deleted int `json:"deleted"`
			Kept    int `json:"kept"`
			Scanned int `json:"scanned"`
		} `json:"result"`
	}
	if err := postForm(baseURL, path, url.Values{}, &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}
	fmt.Printf("cleanup: deleted %d of %d pass directories (keeping %d days)\n",
		resp.Result.Deleted, resp.Result.Scanned, resp.Days)
	return nil
}
