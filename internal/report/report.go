// Package report records what a refcat run wrote, as a JSON file the TUI
// can browse afterwards.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/concat"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/fsys"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/pipeline"
)

type File struct {
	Name  string `json:"name"`
	Lines int    `json:"lines"`
	Bytes int64  `json:"bytes"`
}

type Skipped struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Stage is one concatenation in the report.
type Stage struct {
	Name       string    `json:"name"`
	InputDir   string    `json:"input_dir"`
	Output     string    `json:"output"`
	Status     string    `json:"status"`
	Lines      int       `json:"lines"`
	Bytes      int64     `json:"bytes"`
	DurationMS int64     `json:"duration_ms"`
	Files      []File    `json:"files"`
	Skipped    []Skipped `json:"skipped,omitempty"`
	Excluded   []string  `json:"excluded,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Version     string    `json:"version,omitempty"`
	Stages      []Stage   `json:"stages"`
}

// FromResult converts a single concatenation.
func FromResult(name string, status pipeline.Status, res concat.Result, err error, d time.Duration) Stage {
	s := Stage{
		Name:       name,
		InputDir:   res.InputDir,
		Output:     res.Output,
		Status:     string(status),
		Lines:      res.Lines,
		Bytes:      res.Bytes,
		DurationMS: d.Milliseconds(),
		Files:      make([]File, 0, len(res.Files)),
		Excluded:   res.Excluded,
	}
	for _, f := range res.Files {
		s.Files = append(s.Files, File{Name: f.Name, Lines: f.Lines, Bytes: f.Bytes})
	}
	for _, sk := range res.Skipped {
		s.Skipped = append(s.Skipped, Skipped{Name: sk.Name, Error: sk.Err.Error()})
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// FromSummary converts a pipeline run. Stages that never ran keep their
// configured paths.
func FromSummary(sum pipeline.Summary, version string, now time.Time) Report {
	r := Report{GeneratedAt: now.UTC(), Version: version, Stages: make([]Stage, 0, len(sum.Stages))}
	for _, sr := range sum.Stages {
		st := FromResult(sr.Stage.Name, sr.Status, sr.Result, sr.Err, sr.Duration)
		if st.InputDir == "" {
			st.InputDir = sr.Stage.InputDir
		}
		if st.Output == "" {
			st.Output = sr.Stage.Output
		}
		r.Stages = append(r.Stages, st)
	}
	return r
}

// Write stores r at path, replacing any previous report only once the new
// one is complete.
func Write(files fsys.FS, path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	f, err := files.OpenForWrite(path)
	if err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Abort()
		return fmt.Errorf("write report %s: %w", path, err)
	}
	if err := f.Commit(); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// Load reads a report written by Write.
func Load(files fsys.FS, path string) (*Report, error) {
	rc, err := files.OpenForRead(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return &r, nil
}

// Totals sums lines and bytes over successful stages.
func (r *Report) Totals() (lines int, bytes int64) {
	for _, s := range r.Stages {
		if s.Status == string(pipeline.StatusOK) {
			lines += s.Lines
			bytes += s.Bytes
		}
	}
	return lines, bytes
}
