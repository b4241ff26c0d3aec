package plan

import (
	"os"
	"path/filepath"
	"strings"
)

// ListHeader is the first line of the planning-set file. Readers skip any
// line carrying this prefix so hand-edited files with or without the header
// both load.
const ListHeader = "Pasirinkti palydovai:"

// LoadNames reads the planning set, one satellite name per line. A missing
// file is an empty set.
func LoadNames(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Pasirinkti") {
			continue
		}
		names = append(names, line)
	}
	return names, nil
}

// SaveNames rewrites the planning set with its header line.
func SaveNames(path string, names []string) error {
	var b strings.Builder
	b.WriteString(ListHeader + "\n")
	for _, n := range names {
		b.WriteString(n + "\n")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "laikai-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
