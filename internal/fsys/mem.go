package fsys

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sync"
)

// Mem is an in-memory FS. Directory listings come back in insertion
// order, which lets tests pin down or vary the visiting order.
// Failures can be injected per path.
type Mem struct {
	mu       sync.Mutex
	files    map[string][]byte
	children map[string][]string
	dirs     map[string]bool

	openErr  map[string]error
	writeErr map[string]error
	readFail map[string]readFailure

	opened []string
}

type readFailure struct {
	after int
	err   error
}

// NewMem returns an empty Mem containing only the root directories "." and "/".
func NewMem() *Mem {
	return &Mem{
		files:    map[string][]byte{},
		children: map[string][]string{},
		dirs:     map[string]bool{".": true, "/": true},
		openErr:  map[string]error{},
		writeErr: map[string]error{},
		readFail: map[string]readFailure{},
	}
}

// AddDir creates dir and its parents.
func (m *Mem) AddDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(filepath.Clean(dir))
}

// AddFile creates or replaces a file, creating parent directories.
func (m *Mem) AddFile(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putFile(filepath.Clean(path), []byte(content))
}

// ReadFile returns a committed file's content.
func (m *Mem) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), b...), nil
}

// Exists reports whether path is a file or directory.
func (m *Mem) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := filepath.Clean(path)
	_, ok := m.files[p]
	return ok || m.dirs[p]
}

// FailOpen makes OpenForRead (and ListEntries, for a directory) fail with err.
func (m *Mem) FailOpen(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr[filepath.Clean(path)] = err
}

// FailWrite makes OpenForWrite fail with err.
func (m *Mem) FailWrite(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr[filepath.Clean(path)] = err
}

// FailRead makes reads of path fail with err once after bytes have been returned.
func (m *Mem) FailRead(path string, after int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readFail[filepath.Clean(path)] = readFailure{after: after, err: err}
}

// Opened lists the paths passed to OpenForRead, in call order.
func (m *Mem) Opened() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.opened...)
}

func (m *Mem) ListEntries(dir string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := filepath.Clean(dir)
	if err, ok := m.openErr[d]; ok {
		return nil, &fs.PathError{Op: "open", Path: dir, Err: err}
	}
	if !m.dirs[d] {
		if _, ok := m.files[d]; ok {
			return nil, &fs.PathError{Op: "readdirent", Path: dir, Err: errors.New("not a directory")}
		}
		return nil, &fs.PathError{Op: "open", Path: dir, Err: fs.ErrNotExist}
	}
	names := m.children[d]
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{Name: name, IsDir: m.dirs[filepath.Join(d, name)]})
	}
	return entries, nil
}

func (m *Mem) OpenForRead(path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := filepath.Clean(path)
	m.opened = append(m.opened, p)
	if err, ok := m.openErr[p]; ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	b, ok := m.files[p]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	r := io.NopCloser(bytes.NewReader(append([]byte(nil), b...)))
	if rf, ok := m.readFail[p]; ok {
		return &failingReader{r: r, left: rf.after, err: &fs.PathError{Op: "read", Path: path, Err: rf.err}}, nil
	}
	return r, nil
}

func (m *Mem) OpenForWrite(path string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := filepath.Clean(path)
	if err, ok := m.writeErr[p]; ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	if m.dirs[p] {
		return nil, &fs.PathError{Op: "open", Path: path, Err: errors.New("is a directory")}
	}
	if !m.dirs[filepath.Dir(p)] {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return &memFile{m: m, path: p}, nil
}

func (m *Mem) MkdirAll(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := filepath.Clean(dir)
	if _, ok := m.files[d]; ok {
		return &fs.PathError{Op: "mkdir", Path: dir, Err: fs.ErrExist}
	}
	m.mkdirAll(d)
	return nil
}

func (m *Mem) mkdirAll(d string) {
	if m.dirs[d] {
		return
	}
	parent := filepath.Dir(d)
	m.mkdirAll(parent)
	m.dirs[d] = true
	m.children[parent] = append(m.children[parent], filepath.Base(d))
}

func (m *Mem) putFile(p string, b []byte) {
	parent := filepath.Dir(p)
	m.mkdirAll(parent)
	if _, ok := m.files[p]; !ok {
		m.children[parent] = append(m.children[parent], filepath.Base(p))
	}
	m.files[p] = b
}

type memFile struct {
	m    *Mem
	path string
	buf  bytes.Buffer
	done bool
}

func (f *memFile) Write(p []byte) (int, error) {
	if f.done {
		return 0, fs.ErrClosed
	}
	return f.buf.Write(p)
}

func (f *memFile) Size() int64 { return int64(f.buf.Len()) }

func (f *memFile) Rewind(size int64) error {
	if size < 0 || size > int64(f.buf.Len()) {
		return fmt.Errorf("rewind %s to %d: out of range [0,%d]", f.path, size, f.buf.Len())
	}
	f.buf.Truncate(int(size))
	return nil
}

func (f *memFile) Commit() error {
	if f.done {
		return nil
	}
	f.done = true
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	f.m.putFile(f.path, append([]byte(nil), f.buf.Bytes()...))
	return nil
}

func (f *memFile) Abort() error {
	f.done = true
	f.buf.Reset()
	return nil
}

type failingReader struct {
	r    io.ReadCloser
	left int
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.left <= 0 {
		return 0, f.err
	}
	if len(p) > f.left {
		p = p[:f.left]
	}
	n, err := f.r.Read(p)
	f.left -= n
	if err == io.EOF {
		// the file is shorter than the failure point
		return n, io.EOF
	}
	return n, err
}

func (f *failingReader) Close() error { return f.r.Close() }
