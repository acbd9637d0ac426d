// Package concat joins every sequence file of one directory into a single
// output file, normalizing line endings on the way.
package concat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/fsys"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/seqfile"
)

// cancelCheckLines is how often the line loop looks at ctx.
const cancelCheckLines = 4096

// ReadErrorPolicy decides what happens when a candidate file cannot be read.
type ReadErrorPolicy string

const (
	// Abort fails the whole run.
	Abort ReadErrorPolicy = "abort"
	// Skip drops the file, including any lines already copied from it.
	Skip ReadErrorPolicy = "skip"
)

// ParsePolicy accepts "abort", "skip" or "" (abort).
func ParsePolicy(s string) (ReadErrorPolicy, error) {
	switch ReadErrorPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Abort:
		return Abort, nil
	case Skip:
		return Skip, nil
	}
	return "", fmt.Errorf("unknown read error policy %q (want abort or skip)", s)
}

// Options configures one concatenation.
type Options struct {
	InputDir string
	Output   string
	// Suffixes selects candidate files; empty means seqfile.DefaultSuffixes.
	Suffixes    seqfile.Suffixes
	OnReadError ReadErrorPolicy
	// SortEntries visits candidates in lexical order instead of directory order.
	SortEntries bool
	Logger      *log.Logger
}

// FileResult is what one candidate contributed.
type FileResult struct {
	Name  string
	Lines int
	Bytes int64
}

// SkippedFile is a candidate dropped under the Skip policy.
type SkippedFile struct {
	Name string
	Err  error
}

// Result describes a finished concatenation. Files are in visiting order.
type Result struct {
	InputDir string
	Output   string
	Files    []FileResult
	Skipped  []SkippedFile
	// Excluded holds matching names that were not read because they are
	// the output itself (or its temporary file).
	Excluded []string
	Lines    int
	Bytes    int64
}

func (o Options) withDefaults() Options {
	if len(o.Suffixes) == 0 {
		o.Suffixes = seqfile.DefaultSuffixes
	}
	if o.OnReadError == "" {
		o.OnReadError = Abort
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

func (o Options) validate() error {
	invalid := func(err error) error {
		return &Error{Op: "validate", Kind: KindInvalid, Err: err}
	}
	if o.InputDir == "" {
		return invalid(errors.New("input directory is required"))
	}
	if o.Output == "" {
		return invalid(errors.New("output path is required"))
	}
	if err := o.Suffixes.Validate(); err != nil {
		return invalid(err)
	}
	if o.OnReadError != Abort && o.OnReadError != Skip {
		return invalid(fmt.Errorf("unknown read error policy %q", o.OnReadError))
	}
	return nil
}

// Concatenate appends every candidate of opts.InputDir to opts.Output.
//
// The output is opened first so an unwritable destination fails before any
// input is read. Content goes to a temporary file that replaces the output
// only on success; on error the previous output, if any, is left alone.
// Candidates are visited in directory order unless SortEntries is set.
func Concatenate(ctx context.Context, files fsys.FS, opts Options) (Result, error) {
	opts = opts.withDefaults()
	res := Result{InputDir: opts.InputDir, Output: opts.Output}
	if err := opts.validate(); err != nil {
		return res, err
	}
	logger := opts.Logger

	out, err := files.OpenForWrite(opts.Output)
	if err != nil {
		return res, newError("create", opts.Output, err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if aerr := out.Abort(); aerr != nil {
			logger.Warn("failed to remove temporary output", "path", opts.Output, "err", aerr)
		}
	}()

	entries, err := files.ListEntries(opts.InputDir)
	if err != nil {
		return res, newError("list", opts.InputDir, err)
	}
	if opts.SortEntries {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	}
	logger.Debug("listed input directory", "dir", opts.InputDir, "entries", len(entries))

	g := newOutputGuard(opts.InputDir, opts.Output)
	c := &copier{fs: files, out: out, outPath: opts.Output}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, newError("concatenate", opts.InputDir, err)
		}
		if !opts.Suffixes.Match(e.Name) {
			logger.Debug("ignoring entry", "name", e.Name)
			continue
		}
		if e.IsDir {
			logger.Debug("skipping directory", "name", e.Name)
			continue
		}
		if g.excludes(e.Name) {
			logger.Warn("output lies in the scanned directory; not reading it back", "path", filepath.Join(opts.InputDir, e.Name))
			res.Excluded = append(res.Excluded, e.Name)
			continue
		}

		path := filepath.Join(opts.InputDir, e.Name)
		mark := out.Size()
		fr, err := c.copyFile(ctx, path)
		if err != nil {
			if opts.OnReadError == Skip && isReadFailure(err) && ctx.Err() == nil {
				if rerr := out.Rewind(mark); rerr != nil {
					return res, newError("rewind", opts.Output, rerr)
				}
				logger.Warn("skipping unreadable file", "path", path, "err", err)
				res.Skipped = append(res.Skipped, SkippedFile{Name: e.Name, Err: err})
				continue
			}
			return res, err
		}
		fr.Name = e.Name
		res.Files = append(res.Files, fr)
		res.Lines += fr.Lines
		res.Bytes += fr.Bytes
		logger.Debug("appended file", "path", path, "lines", fr.Lines, "bytes", fr.Bytes)
	}

	committed = true
	if err := out.Commit(); err != nil {
		return res, newError("commit", opts.Output, err)
	}
	logger.Info("combined sequences", "output", opts.Output, "files", len(res.Files), "lines", res.Lines, "bytes", res.Bytes, "skipped", len(res.Skipped))
	return res, nil
}

// isReadFailure reports whether err came from reading an input rather than
// writing the output. Only the former may be skipped.
func isReadFailure(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Op == "open" || e.Op == "read"
}

type copier struct {
	fs      fsys.FS
	out     io.Writer
	outPath string
	buf     []byte
}

func (c *copier) copyFile(ctx context.Context, path string) (FileResult, error) {
	var fr FileResult
	r, err := c.fs.OpenForRead(path)
	if err != nil {
		return fr, newError("open", path, err)
	}
	defer r.Close()

	sc := seqfile.NewScanner(r)
	for sc.Scan() {
		c.buf = append(c.buf[:0], seqfile.Normalize(sc.Bytes())...)
		c.buf = append(c.buf, '\n')
		n, err := c.out.Write(c.buf)
		fr.Bytes += int64(n)
		if err != nil {
			return fr, newError("write", c.outPath, err)
		}
		fr.Lines++
		if fr.Lines%cancelCheckLines == 0 {
			if err := ctx.Err(); err != nil {
				return fr, newError("concatenate", path, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fr, newError("read", path, err)
	}
	return fr, nil
}

// outputGuard recognizes the output file, and the temp file standing in for
// it, when the output is written into the directory being scanned.
type outputGuard struct {
	sameDir bool
	base    string
}

func newOutputGuard(inputDir, output string) outputGuard {
	in := resolvePath(inputDir)
	outDir := resolvePath(filepath.Dir(output))
	return outputGuard{sameDir: outDir == in, base: filepath.Base(output)}
}

// resolvePath makes p absolute and follows symlinks when it can, so a
// linked alias of the input directory is recognized.
func resolvePath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func (g outputGuard) excludes(name string) bool {
	if !g.sameDir {
		return false
	}
	if name == g.base {
		return true
	}
	return strings.HasPrefix(name, "."+g.base+".") && strings.HasSuffix(name, ".tmp")
}
