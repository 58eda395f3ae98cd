package types

import (
	"path"
	"strconv"
)

// GenerateResult describes one manifest generation run.
type GenerateResult struct {
	Root    string   `json:"root"`
	Output  string   `json:"output"`
	Files   []string `json:"files"`
	Count   int      `json:"count"`
	Backup  string   `json:"backup,omitempty"`
	Written bool     `json:"written"`
	DryRun  bool     `json:"dryRun,omitempty"`
	Stale   bool     `json:"stale,omitempty"`

	// Manifest holds the rendered file in dry-run mode
	Manifest string `json:"manifest,omitempty"`
}

// AsTableRenderer summarizes the scanned files per directory.
func (r *GenerateResult) AsTableRenderer() TableRenderer {
	return &directorySummary{files: r.Files}
}

type directorySummary struct {
	files []string
}

func (d *directorySummary) Headers() []string {
	return []string{"Directory", "Files"}
}

// Rows keeps directories in first-seen order, which for sorted input is
// also sorted order.
func (d *directorySummary) Rows() [][]string {
	var order []string
	counts := make(map[string]int)
	for _, f := range d.files {
		dir := path.Dir(f)
		if _, ok := counts[dir]; !ok {
			order = append(order, dir)
		}
		counts[dir]++
	}

	rows := make([][]string, 0, len(order))
	for _, dir := range order {
		rows = append(rows, []string{dir + "/", strconv.Itoa(counts[dir])})
	}
	return rows
}

func (d *directorySummary) EmptyMessage() string {
	return "No image files found"
}
