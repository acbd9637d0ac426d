package seqfile

import (
	"io"
	"reflect"
	"strings"
	"testing"
)

func scanAll(t *testing.T, input string) []string {
	t.Helper()
	sc := NewScanner(strings.NewReader(input))
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return lines
}

func TestSplitLinesTerminators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"lf", ">seq1\nACGT\n", []string{">seq1", "ACGT"}},
		{"crlf", ">seq1\r\nACGT\r\n", []string{">seq1", "ACGT"}},
		{"cr", ">seq1\rACGT\r", []string{">seq1", "ACGT"}},
		{"mixed", "a\nb\r\nc\rd", []string{"a", "b", "c", "d"}},
		{"no trailing newline", "ACGT", []string{"ACGT"}},
		{"blank lines kept", "a\n\nb\n", []string{"a", "", "b"}},
		{"cr then blank", "a\r\rb", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanAll(t, tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// oneByteReader forces a "\r\n" pair to straddle two reads.
type oneByteReader struct{ s string }

func (r *oneByteReader) Read(p []byte) (int, error) {
	if len(r.s) == 0 {
		return 0, io.EOF
	}
	p[0] = r.s[0]
	r.s = r.s[1:]
	return 1, nil
}

func TestSplitLinesCRLFAcrossReads(t *testing.T) {
	sc := NewScanner(&oneByteReader{s: "AC\r\nGT\r\n"})
	var got []string
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if want := []string{"AC", "GT"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"ACGT  ":       "ACGT",
		"ACGT\t \r":    "ACGT",
		"ACGT\n":       "ACGT",
		"  >seq1 x ":   "  >seq1 x",
		"":             "",
		" \t ":         "",
		"ACGT\u00a0":   "ACGT",
		"ACGT\x1c\x1f": "ACGT",
		"ACGT\x1b":     "ACGT\x1b",
	}
	for in, want := range tests {
		if got := string(Normalize([]byte(in))); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSuffixesMatch(t *testing.T) {
	s := DefaultSuffixes
	tests := map[string]bool{
		"a.fna":     true,
		"b.fa":      true,
		"c.txt":     false,
		"d.fna.bak": false,
		"E.FNA":     false,
		"fa":        false,
		"x.fasta":   false,
	}
	for name, want := range tests {
		if got := s.Match(name); got != want {
			t.Errorf("Match(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestParseSuffixes(t *testing.T) {
	got, err := ParseSuffixes(" .fna, fa ,,")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (Suffixes{".fna", ".fa"}); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, err := ParseSuffixes(" , "); err == nil {
		t.Fatalf("expected error for empty list")
	}
}

func TestSuffixesValidate(t *testing.T) {
	if err := (Suffixes{}).Validate(); err == nil {
		t.Errorf("expected error for empty set")
	}
	if err := (Suffixes{".fna", ""}).Validate(); err == nil {
		t.Errorf("expected error for empty member")
	}
	if err := DefaultSuffixes.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
