package model

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const tabularSample = `# blastn comment
g1_1	g3_1	99.5	300	1	0	1	300	1	300	1e-100	550	300	310

g1_1	g4_1	88.0	250	30	1	10	259	400	151	2e-50	300.5	300	600
`

func TestReadHits(t *testing.T) {
	hits, err := ReadHits(strings.NewReader(tabularSample))
	if err != nil {
		t.Fatalf("ReadHits: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}

	want := AlignmentHit{
		QueryID: "g1_1", SubjectID: "g4_1", Identity: 88, AlignLen: 250, Mismatches: 30, GapOpens: 1,
		QueryStart: 10, QueryEnd: 259, SubjectStart: 400, SubjectEnd: 151, EValue: 2e-50, BitScore: 300.5,
		QueryLen: 300, SubjectLen: 600,
	}
	if *hits[1] != want {
		t.Errorf("got %+v\nwant %+v", *hits[1], want)
	}
	if hits[1].SameDirection() {
		t.Errorf("expected opposite direction")
	}
	if got := hits[0].SubjectCoveragePercent(); got != 96.77 {
		t.Errorf("SubjectCoveragePercent() = %v, want 96.77", got)
	}
}

func TestReadHitsErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"TooFewColumns", "g1_1\tg3_1\t99\n", 1},
		{"BadNumber", "#header\ng1_1\tg3_1\tNaNish\t300\t1\t0\t1\t300\t1\t300\t1e-100\t550\t300\t310\n", 2},
		{"BadInteger", "g1_1\tg3_1\t99\t300.5\t1\t0\t1\t300\t1\t300\t1e-100\t550\t300\t310\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadHits(strings.NewReader(tt.input))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if perr.Line != tt.wantLine {
				t.Errorf("error line = %d, want %d", perr.Line, tt.wantLine)
			}
		})
	}
}

func TestGenomeOfGene(t *testing.T) {
	tests := map[string]string{
		"g1_00012":        "g1",
		"Bin_3_00012":     "Bin_3",
		"noindex":         "",
		"trailing_":       "trailing",
		"multi_part_id_7": "multi_part_id",
	}
	for gene, want := range tests {
		t.Run(gene, func(t *testing.T) {
			if got := GenomeOfGene(gene); got != want {
				t.Errorf("GenomeOfGene(%q) = %q, want %q", gene, got, want)
			}
		})
	}
}

// writes a fake blastn that records its arguments and prints body
func createFakeBlastn(t *testing.T, dir, body string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake blastn needs a POSIX shell")
	}

	path := filepath.Join(dir, "blastn")
	content := "#!/bin/sh\n" +
		"echo \"$@\" > \"" + filepath.Join(dir, "args.txt") + "\"\n" +
		"cat <<'EOF'\n" + body + "EOF\n" +
		"echo 'fake blastn stderr' >&2\n" +
		"exit " + string(rune('0'+exitCode)) + "\n"

	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write fake blastn: %v", err)
	}
	_ = os.Chmod(path, fs.FileMode(0o755))
	return path
}

func TestBlastnCompare(t *testing.T) {
	dir := t.TempDir()
	createFakeBlastn(t, dir, tabularSample, 0)
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	b := NewBlastn("")
	hits, err := b.Compare(context.Background(), "q.fasta", "s.fasta")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}

	args, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	for _, want := range []string{"-query q.fasta", "-subject s.fasta", "-evalue 1e-5", "-task blastn", "-outfmt " + BlastColumns} {
		if !strings.Contains(string(args), want) {
			t.Errorf("blastn args %q missing %q", args, want)
		}
	}
}

func TestBlastnCompareFailure(t *testing.T) {
	dir := t.TempDir()
	exe := createFakeBlastn(t, dir, "", 2)

	_, err := NewBlastn(exe).Compare(context.Background(), "q.fasta", "s.fasta")
	if err == nil {
		t.Fatal("expected an error for nonzero exit")
	}
	if !strings.Contains(err.Error(), "fake blastn stderr") {
		t.Errorf("error %q does not carry stderr", err)
	}

	_, err = NewBlastn(filepath.Join(dir, "missing-blastn")).Compare(context.Background(), "q.fasta", "s.fasta")
	if err == nil {
		t.Fatal("expected an error for a missing executable")
	}
}
