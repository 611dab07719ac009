package model

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// BlastColumns is the outfmt specifier every tabular input must follow.
const BlastColumns = "6 qseqid sseqid pident length mismatch gapopen qstart qend sstart send evalue bitscore qlen slen"

const blastColumnCount = 14

// ParseError reports a malformed tabular line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("blast tabular line %d: %s", e.Line, e.Msg)
}

// HitReader streams AlignmentHits from BLAST tabular text.
// Blank lines and lines starting with '#' are skipped.
type HitReader struct {
	scanner *bufio.Scanner
	line    int
}

func NewHitReader(r io.Reader) *HitReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &HitReader{scanner: scanner}
}

// Read returns the next hit, or io.EOF when the input is exhausted.
func (hr *HitReader) Read() (*AlignmentHit, error) {
	for hr.scanner.Scan() {
		hr.line++
		line := strings.TrimRight(hr.scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return parseHitLine(line, hr.line)
	}
	if err := hr.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// ReadHits reads every hit from r.
func ReadHits(r io.Reader) ([]*AlignmentHit, error) {
	hr := NewHitReader(r)
	var hits []*AlignmentHit
	for {
		h, err := hr.Read()
		if errors.Is(err, io.EOF) {
			return hits, nil
		}
		if err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
}

func parseHitLine(line string, lineNo int) (*AlignmentHit, error) {
	cols := strings.Split(line, "\t")
	if len(cols) != blastColumnCount {
		return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("expected %d columns, got %d", blastColumnCount, len(cols))}
	}

	h := &AlignmentHit{
		QueryID:   cols[0],
		SubjectID: cols[1],
	}

	floats := []struct {
		dst *float64
		col int
	}{
		{&h.Identity, 2}, {&h.EValue, 10}, {&h.BitScore, 11},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(strings.TrimSpace(cols[f.col]), 64)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("column %d: %v", f.col+1, err)}
		}
		*f.dst = v
	}

	ints := []struct {
		dst *int
		col int
	}{
		{&h.AlignLen, 3}, {&h.Mismatches, 4}, {&h.GapOpens, 5},
		{&h.QueryStart, 6}, {&h.QueryEnd, 7}, {&h.SubjectStart, 8}, {&h.SubjectEnd, 9},
		{&h.QueryLen, 12}, {&h.SubjectLen, 13},
	}
	for _, i := range ints {
		v, err := strconv.Atoi(strings.TrimSpace(cols[i.col]))
		if err != nil {
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("column %d: %v", i.col+1, err)}
		}
		*i.dst = v
	}

	return h, nil
}

// BestHit returns the hit with the highest bit score; the first one wins ties.
func BestHit(hits []*AlignmentHit) (*AlignmentHit, bool) {
	var best *AlignmentHit
	for _, h := range hits {
		if best == nil || h.BitScore > best.BitScore {
			best = h
		}
	}
	return best, best != nil
}

// Blastn runs pairwise nucleotide searches between two FASTA files.
type Blastn struct {
	Exe    string
	EValue string
}

func NewBlastn(exe string) *Blastn {
	if exe == "" {
		exe = "blastn"
	}
	return &Blastn{Exe: exe, EValue: "1e-5"}
}

// Compare aligns query against subject and returns the parsed tabular hits.
// A missing binary or nonzero exit is returned as an error, never as "no hits".
func (b *Blastn) Compare(ctx context.Context, queryFasta, subjectFasta string) ([]*AlignmentHit, error) {
	cmd := exec.CommandContext(ctx, b.Exe,
		"-query", queryFasta,
		"-subject", subjectFasta,
		"-evalue", b.EValue,
		"-task", "blastn",
		"-outfmt", BlastColumns,
	)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to execute %s: %w: %s", b.Exe, err, strings.TrimSpace(stderr.String()))
	}

	hits, err := ReadHits(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s output: %w", b.Exe, err)
	}
	return hits, nil
}
