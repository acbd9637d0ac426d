package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/fsys"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/report"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// setupRefseq lays out three taxon folders and a config file pointing at
// them, and returns the config path.
func setupRefseq(t *testing.T, dir string) string {
	t.Helper()
	writeFile(t, filepath.Join(dir, "archaea_folder", "a.fna"), "A1  \nA2\n")
	writeFile(t, filepath.Join(dir, "archaea_folder", "notes.txt"), "ignored\n")
	writeFile(t, filepath.Join(dir, "fungi_folder", "f.fa"), "F1\r\n")
	writeFile(t, filepath.Join(dir, "bacteria_folder", "b.fna"), "B1")

	combined := filepath.Join(dir, "combined")
	cfg := map[string]any{
		"log_level": "warn",
		"stages": []map[string]any{
			{"name": "archaea", "input_dir": filepath.Join(dir, "archaea_folder"), "output": filepath.Join(combined, "archaea_refseq.fna")},
			{"name": "fungi", "input_dir": filepath.Join(dir, "fungi_folder"), "output": filepath.Join(combined, "fungi_refseq.fna")},
			{"name": "bacteria", "input_dir": filepath.Join(dir, "bacteria_folder"), "output": filepath.Join(combined, "bacteria_refseq.fna")},
			{"name": "all", "input_dir": combined, "output": filepath.Join(dir, "all_refseq.fna"), "after": []string{"archaea", "fungi", "bacteria"}},
		},
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "refcat.json")
	writeFile(t, path, string(data))
	return path
}

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunBuildsMasterFile(t *testing.T) {
	dir := t.TempDir()
	cfg := setupRefseq(t, dir)
	rep := filepath.Join(dir, "run.json")

	code, stdout, stderr := run("run", "--config", cfg, "--sort", "--report", rep)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if got := readFile(t, filepath.Join(dir, "combined", "archaea_refseq.fna")); got != "A1\nA2\n" {
		t.Errorf("archaea = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "all_refseq.fna")); got != "A1\nA2\nB1\nF1\n" {
		t.Errorf("all = %q", got)
	}
	if !strings.Contains(stdout, "Combined sequences saved to "+filepath.Join(dir, "all_refseq.fna")) {
		t.Errorf("stdout missing saved line:\n%s", stdout)
	}

	r, err := report.Load(fsys.OS{}, rep)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Stages) != 4 {
		t.Fatalf("report stages = %d", len(r.Stages))
	}
	if lines, _ := r.Totals(); lines != 2+1+1+4 {
		t.Errorf("report lines = %d", lines)
	}
}

func TestRunOnly(t *testing.T) {
	dir := t.TempDir()
	cfg := setupRefseq(t, dir)

	if code, _, stderr := run("run", "--config", cfg, "--only", "fungi"); code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if got := readFile(t, filepath.Join(dir, "combined", "fungi_refseq.fna")); got != "F1\n" {
		t.Errorf("fungi = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "all_refseq.fna")); !os.IsNotExist(err) {
		t.Errorf("all_refseq.fna written by --only fungi: %v", err)
	}
}

func TestRunMissingFolderFails(t *testing.T) {
	dir := t.TempDir()
	cfg := setupRefseq(t, dir)
	missing := filepath.Join(dir, "fungi_folder")
	if err := os.RemoveAll(missing); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := run("run", "--config", cfg)
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, missing) {
		t.Errorf("stderr does not name %s:\n%s", missing, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "all_refseq.fna")); !os.IsNotExist(err) {
		t.Errorf("master file written after a failed stage: %v", err)
	}
}

func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	cfg := setupRefseq(t, dir)

	code, stdout, stderr := run("run", "--config", cfg, "--dry-run")
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	for _, name := range []string{"archaea", "fungi", "bacteria", "all"} {
		if !strings.Contains(stdout, name) {
			t.Errorf("dry run output missing %s:\n%s", name, stdout)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "combined")); !os.IsNotExist(err) {
		t.Errorf("dry run created output directory: %v", err)
	}
}

func TestConcatCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	writeFile(t, filepath.Join(in, "a.fna"), ">x\nAC \n")
	writeFile(t, filepath.Join(in, "b.seq"), ">y\nGT\n")
	writeFile(t, filepath.Join(in, "c.txt"), "nope\n")
	out := filepath.Join(dir, "out.fna")

	code, stdout, stderr := run("concat", "--in", in, "--out", out, "--suffix", ".fna,.seq", "--sort")
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if got := readFile(t, out); got != ">x\nAC\n>y\nGT\n" {
		t.Errorf("out = %q", got)
	}
	if !strings.Contains(stdout, "Combined sequences saved to "+out) {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestConcatMissingInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "nope")
	out := filepath.Join(dir, "out.fna")

	code, _, stderr := run("concat", "--in", in, "--out", out)
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, in) {
		t.Errorf("stderr does not name %s:\n%s", in, stderr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output exists after failure: %v", err)
	}
}

func TestConcatRequiresFlags(t *testing.T) {
	code, _, stderr := run("concat", "--in", t.TempDir())
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, "out") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refcat.yaml")

	if code, _, stderr := run("init", path); code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	code, stdout, stderr := run("stages", "--config", path)
	if code != 0 {
		t.Fatalf("stages exit %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{"archaea_folder", "fungi_folder", "bacteria_folder", "all_refseq.fna"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stages output missing %s:\n%s", want, stdout)
		}
	}

	if code, _, _ := run("init", path); code != 1 {
		t.Errorf("second init exit %d, want 1", code)
	}
}

func TestBadConfigValue(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := run("concat", "--in", dir, "--out", filepath.Join(dir, "out.fna"), "--on-read-error", "retry")
	if code == 0 {
		t.Fatal("expected failure")
	}
	if !strings.Contains(stderr, "on_read_error") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestVersion(t *testing.T) {
	code, stdout, _ := run("version")
	if code != 0 || strings.TrimSpace(stdout) != "refcat "+version {
		t.Errorf("version: exit %d, stdout %q", code, stdout)
	}
}
