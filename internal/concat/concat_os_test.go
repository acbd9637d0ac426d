package concat

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/fsys"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOSIdempotentWithSortedListing(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{
		"a.fna": ">seq1\r\nACGT  \r\n",
		"b.fa":  ">seq2\nACGT\n",
		"c.txt": "not a sequence\n",
	})
	out := filepath.Join(t.TempDir(), "out.fna")
	opts := Options{InputDir: in, Output: out, SortEntries: true}

	if _, err := Concatenate(context.Background(), fsys.OS{}, opts); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Concatenate(context.Background(), fsys.OS{}, opts); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("output differs between runs:\n%q\n%q", first, second)
	}
	if string(first) != ">seq1\nACGT\n>seq2\nACGT\n" {
		t.Fatalf("unexpected output %q", first)
	}
}

func TestOSCreatesOutputAndExcludesItself(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"archaea_refseq.fna":  ">a\nA\n",
		"bacteria_refseq.fna": ">b\nB\n",
	})
	out := filepath.Join(dir, "all_refseq.fna")

	for i := 0; i < 2; i++ {
		res, err := Concatenate(context.Background(), fsys.OS{}, Options{InputDir: dir, Output: out, SortEntries: true})
		if err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != ">a\nA\n>b\nB\n" {
			t.Fatalf("run %d: unexpected output %q", i, b)
		}
		if i == 1 && len(res.Excluded) != 1 {
			t.Fatalf("run %d: expected output to be excluded, got %v", i, res.Excluded)
		}
	}
}

func TestOSMissingInputRemovesTemp(t *testing.T) {
	outDir := t.TempDir()
	out := filepath.Join(outDir, "out.fna")
	_, err := Concatenate(context.Background(), fsys.OS{}, Options{InputDir: filepath.Join(outDir, "nope"), Output: out})
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
	entries, _ := os.ReadDir(outDir)
	if len(entries) != 0 {
		t.Fatalf("expected no files in output dir, found %d", len(entries))
	}
}

func TestOSOutputIsDirectoryFailsFast(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{"a.fna": ">a\nA\n"})
	out := filepath.Join(t.TempDir(), "outdir")
	if err := os.Mkdir(out, 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := Concatenate(context.Background(), fsys.OS{}, Options{InputDir: in, Output: out})
	if err == nil {
		t.Fatal("expected an error for a directory output")
	}
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Op != "create" {
		t.Fatalf("expected a create error, got %v", err)
	}
	if len(res.Files) != 0 || res.Lines != 0 {
		t.Fatalf("inputs were read before the output failed: %+v", res)
	}
	entries, _ := os.ReadDir(filepath.Dir(out))
	if len(entries) != 1 {
		t.Fatalf("expected only the output directory, found %d entries", len(entries))
	}
}

func TestOSOutputThroughSymlinkedInputIsExcluded(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"archaea_refseq.fna": ">a\nA\n",
		"all_refseq.fna":     ">old\nOLD\n",
	})
	alias := filepath.Join(t.TempDir(), "alias")
	if err := os.Symlink(dir, alias); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	res, err := Concatenate(context.Background(), fsys.OS{}, Options{InputDir: dir, Output: filepath.Join(alias, "all_refseq.fna")})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Excluded) != 1 || res.Excluded[0] != "all_refseq.fna" {
		t.Fatalf("expected all_refseq.fna to be excluded, got %v", res.Excluded)
	}
	b, err := os.ReadFile(filepath.Join(dir, "all_refseq.fna"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != ">a\nA\n" {
		t.Fatalf("unexpected output %q", b)
	}
}
