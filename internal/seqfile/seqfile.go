package seqfile

// Package seqfile holds the line-level helpers used while copying sequence
// files: suffix selection, line splitting and trailing white space removal.
// It does not look at FASTA structure; headers and sequence lines are
// treated the same.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// MaxLineSize bounds a single line. Unwrapped chromosome-scale sequences
// can be hundreds of megabytes on one line.
const MaxLineSize = 1 << 30

const initialBufSize = 64 * 1024

// Suffixes is the set of file name endings that select candidate files.
// Matching is case-sensitive.
type Suffixes []string

// DefaultSuffixes are the nucleotide FASTA extensions used by RefSeq downloads.
var DefaultSuffixes = Suffixes{".fna", ".fa"}

// ParseSuffixes splits a comma separated list such as ".fna,.fa".
// A missing leading dot is added.
func ParseSuffixes(s string) (Suffixes, error) {
	var out Suffixes
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no suffixes in %q", s)
	}
	return out, nil
}

// Validate reports an error for an empty set or an empty member.
func (s Suffixes) Validate() error {
	if len(s) == 0 {
		return errors.New("at least one suffix is required")
	}
	for _, x := range s {
		if x == "" {
			return errors.New("empty suffix")
		}
	}
	return nil
}

// Match reports whether name ends with any of the suffixes.
// "x.fna.bak" does not match ".fna".
func (s Suffixes) Match(name string) bool {
	for _, x := range s {
		if strings.HasSuffix(name, x) {
			return true
		}
	}
	return false
}

func (s Suffixes) String() string { return strings.Join(s, ",") }

// SplitLines is a bufio.SplitFunc that ends a line at "\n", "\r\n" or a
// lone "\r". The terminator is not part of the token. A final line without
// terminator is returned as is; an empty input yields no tokens.
func SplitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		// "\r" at the end of the buffer: wait to see whether "\n" follows.
		if !atEOF {
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// NewScanner returns a scanner yielding the lines of r as split by SplitLines.
func NewScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initialBufSize), MaxLineSize)
	sc.Split(SplitLines)
	return sc
}

// Normalize strips trailing white space (spaces, tabs, CR, LF, the other
// Unicode space characters and the separators U+001C..U+001F) from line.
func Normalize(line []byte) []byte {
	return bytes.TrimRightFunc(line, isSpace)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
