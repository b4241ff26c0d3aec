package ctl

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// TLEShow dumps the daemon's catalog to stdout.
func TLEShow(baseURL string) error {
	var resp struct {
		Text string `json:"text"`
	}
	if err := getJSON(baseURL, "/api/tle_txt", &resp); err != nil {
		return err
	}
	fmt.Print(resp.Text)
	if !strings.HasSuffix(resp.Text, "\n") {
		fmt.Println()
	}
	return nil
}

// TLEPush uploads a catalog file, switching the daemon into manual mode.
func TLEPush(baseURL, path string, jsonOutput bool) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var resp struct {
		OK  bool   `json:"ok"`
		Msg string `json:"msg"`
	}
	form := url.Values{"data": {string(b)}}
	if err := postForm(baseURL, "/api/tle_manual", form, &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}
	fmt.Println(resp.Msg)
	return nil
}

// Names lists catalog names matching an optional substring query.
func Names(baseURL, query string, jsonOutput bool) error {
	path := "/api/tle_names"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}

	var resp struct {
		Count int      `json:"count"`
		Names []string `json:"names"`
	}
	if err := getJSON(baseURL, path, &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp.Names)
	}
	for _, n := range resp.Names {
		fmt.Println(n)
	}
	return nil
}
