package fsys

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const writeBufSize = 1 << 20

// OS implements FS on the local filesystem.
type OS struct{}

// ListEntries reads dir in native directory order. os.ReadDir is avoided
// on purpose since it sorts by name.
func (OS) ListEntries(dir string) ([]Entry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	des, err := f.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(des))
	for _, d := range des {
		isDir := d.IsDir()
		if d.Type()&fs.ModeSymlink != 0 {
			// follow links so a linked directory is not taken for a file
			if fi, err := os.Stat(filepath.Join(dir, d.Name())); err == nil {
				isDir = fi.IsDir()
			}
		}
		entries = append(entries, Entry{Name: d.Name(), IsDir: isDir})
	}
	return entries, nil
}

func (OS) OpenForRead(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

var errIsDir = errors.New("is a directory")

// OpenForWrite creates a hidden temporary file next to path. The temp name
// ends in ".tmp" so it never matches a sequence suffix while a scan of the
// same directory is running.
//
// An existing target must be a writable regular file; it is checked here so
// the caller fails before producing any content. Its mode is kept on commit.
func (OS) OpenForWrite(path string) (File, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if base == "" {
		return nil, &fs.PathError{Op: "create", Path: path, Err: errIsDir}
	}
	mode := fs.FileMode(0o644)
	fi, err := os.Stat(path)
	switch {
	case err == nil && fi.IsDir():
		return nil, &fs.PathError{Op: "create", Path: path, Err: errIsDir}
	case err == nil:
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return nil, err
		}
		_ = f.Close()
		mode = fi.Mode().Perm()
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return nil, err
	}
	return &osFile{f: tmp, w: bufio.NewWriterSize(tmp, writeBufSize), path: path, mode: mode}, nil
}

func (OS) MkdirAll(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

type osFile struct {
	f    *os.File
	w    *bufio.Writer
	path string
	mode fs.FileMode
	size int64
	done bool
}

func (o *osFile) Write(p []byte) (int, error) {
	n, err := o.w.Write(p)
	o.size += int64(n)
	return n, err
}

func (o *osFile) Size() int64 { return o.size }

func (o *osFile) Rewind(size int64) error {
	if size < 0 || size > o.size {
		return fmt.Errorf("rewind %s to %d: out of range [0,%d]", o.path, size, o.size)
	}
	if err := o.w.Flush(); err != nil {
		return err
	}
	if err := o.f.Truncate(size); err != nil {
		return err
	}
	if _, err := o.f.Seek(size, io.SeekStart); err != nil {
		return err
	}
	o.w.Reset(o.f)
	o.size = size
	return nil
}

// Commit flushes, syncs and renames the temp file over the target path.
// On failure the temp file is removed.
func (o *osFile) Commit() error {
	if o.done {
		return nil
	}
	o.done = true
	tmp := o.f.Name()
	err := o.w.Flush()
	if err == nil {
		err = o.f.Chmod(o.mode)
	}
	if err == nil {
		err = o.f.Sync()
	}
	if cerr := o.f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, o.path)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (o *osFile) Abort() error {
	if o.done {
		return nil
	}
	o.done = true
	_ = o.f.Close()
	if err := os.Remove(o.f.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
