// Package logging builds the charm logger shared by the refcat commands.
package logging

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// timestampWriter prefixes each flushed line with an RFC3339 timestamp.
// Used for the log file copy, where charm's own styling is absent.
type timestampWriter struct {
	w   io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
	now func() time.Time
}

// Write buffers bytes until a newline is found; each full line is written
// with its timestamp. Partial lines stay in the buffer.
func (t *timestampWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(p)
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			// put the partial line back
			t.buf.WriteString(line)
			break
		}
		ts := t.now().Format(time.RFC3339)
		if _, err := io.WriteString(t.w, ts+" "+line); err != nil {
			return n, err
		}
	}
	return n, nil
}

// terminalWriter exposes Fd so charm can detect a TTY through a wrapped writer.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

// Fd exposes the underlying file descriptor (e.g., os.Stderr.Fd()).
func (tw *terminalWriter) Fd() uintptr { return tw.fd }

// Options selects where logs go and how much is logged.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Verbose forces debug level.
	Verbose bool
	// File, when set, receives a timestamped copy of every log line.
	File string
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// New returns a logger writing to stderr and, optionally, appending to a
// log file. The returned close func releases the file. An unopenable log
// file is reported as a warning and logging continues on stderr alone.
func New(opts Options) (*log.Logger, func() error) {
	var stderr io.Writer = os.Stderr
	if opts.Stderr != nil {
		stderr = opts.Stderr
	}
	closeFn := func() error { return nil }

	var out io.Writer = stderr
	var fileErr error
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			out = io.MultiWriter(stderr, &timestampWriter{w: f, now: time.Now})
			closeFn = f.Close
		} else {
			fileErr = err
		}
	}

	// expose Fd so charm can detect a TTY behind the multi-writer
	if f, ok := stderr.(interface{ Fd() uintptr }); ok {
		out = &terminalWriter{w: out, fd: f.Fd()}
	}
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "refcat",
	})
	level, known := ParseLevel(opts.Level)
	if opts.Verbose {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
	if !known {
		logger.Warn("unknown log_level, defaulting to info", "provided", opts.Level)
	}
	if fileErr != nil {
		logger.Warn("log_file could not be opened; logging to stderr only", "path", opts.File, "err", fileErr)
	}
	return logger, closeFn
}

// ParseLevel maps a config string to a level. Unknown strings map to info
// and report false.
func ParseLevel(s string) (log.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel, true
	case "info", "":
		return log.InfoLevel, true
	case "warn", "warning":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	}
	return log.InfoLevel, false
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
