package model

import (
	"fmt"
	"strconv"
	"strings"
)

// AlignmentHit is one row of the 14-column BLAST tabular format
// (outfmt "6 qseqid sseqid pident length mismatch gapopen qstart qend sstart send evalue bitscore qlen slen").
type AlignmentHit struct {
	QueryID      string  `json:"query_id"`
	SubjectID    string  `json:"subject_id"`
	Identity     float64 `json:"identity"`
	AlignLen     int     `json:"align_len"`
	Mismatches   int     `json:"mismatches"`
	GapOpens     int     `json:"gap_opens"`
	QueryStart   int     `json:"query_start"`
	QueryEnd     int     `json:"query_end"`
	SubjectStart int     `json:"subject_start"`
	SubjectEnd   int     `json:"subject_end"`
	EValue       float64 `json:"evalue"`
	BitScore     float64 `json:"bit_score"`
	QueryLen     int     `json:"query_len"`
	SubjectLen   int     `json:"subject_len"`
}

// QueryCoverage is the fraction of the query spanned by the alignment.
func (h *AlignmentHit) QueryCoverage() float64 {
	return fraction(h.AlignLen, h.QueryLen)
}

// SubjectCoverage is the fraction of the subject spanned by the alignment.
func (h *AlignmentHit) SubjectCoverage() float64 {
	return fraction(h.AlignLen, h.SubjectLen)
}

// QueryCoveragePercent is align_len*100/query_len rounded to 2 decimals.
func (h *AlignmentHit) QueryCoveragePercent() float64 {
	return coveragePercent(h.AlignLen, h.QueryLen)
}

// SubjectCoveragePercent is align_len*100/subject_len rounded to 2 decimals.
func (h *AlignmentHit) SubjectCoveragePercent() float64 {
	return coveragePercent(h.AlignLen, h.SubjectLen)
}

// SameDirection reports whether query and subject are aligned in the same
// strand sense. A zero-length span on either side counts as same direction.
func (h *AlignmentHit) SameDirection() bool {
	qdir := h.QueryEnd - h.QueryStart
	sdir := h.SubjectEnd - h.SubjectStart
	if (qdir > 0 && sdir < 0) || (qdir < 0 && sdir > 0) {
		return false
	}
	return true
}

func fraction(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// coveragePercent multiplies before dividing so ties land where the
// all-vs-all tables expect them (13999*100/20000 is 70.00, not 69.99).
func coveragePercent(alignLen, seqLen int) float64 {
	if seqLen <= 0 {
		return 0
	}
	return Round2(float64(alignLen) * 100 / float64(seqLen))
}

// Round2 rounds the exact binary value to two decimals, half to even, the
// same digits "%.2f" prints.
func Round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// FormatIdentity prints the shortest exact form, keeping one decimal for whole numbers ("95.0").
func FormatIdentity(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// GenomeOfGene strips the trailing "_<index>" token from a gene id.
// Gene ids without an underscore have no recoverable genome and yield "".
func GenomeOfGene(geneID string) string {
	i := strings.LastIndex(geneID, "_")
	if i < 0 {
		return ""
	}
	return geneID[:i]
}

// Genome is a member of exactly one group.
type Genome struct {
	ID    string `json:"genome_id"`
	Group string `json:"group"`
	Index int    `json:"index"`
}

// Label is the group-indexed name, e.g. "A_3".
func (g *Genome) Label() string {
	return fmt.Sprintf("%s_%d", g.Group, g.Index)
}

// CandidatePair is a putative transfer from the donor gene into the recipient gene.
type CandidatePair struct {
	Recipient      string  `json:"recipient"`
	Donor          string  `json:"donor"`
	Identity       float64 `json:"identity"`
	RecipientGroup string  `json:"recipient_group"`
	DonorGroup     string  `json:"donor_group"`
}

// Key identifies the pair in its own direction, "recipient___donor".
func (c *CandidatePair) Key() string {
	return c.Recipient + "___" + c.Donor
}

func (c *CandidatePair) reverseKey() string {
	return c.Donor + "___" + c.Recipient
}

// MatchCategory labels the contig-level alignment of a candidate pair.
type MatchCategory string

const (
	MatchNormal     MatchCategory = "normal"
	MatchEnd        MatchCategory = "end_match"
	MatchFullLength MatchCategory = "full_length_match"
)

func (m MatchCategory) String() string {
	return string(m)
}

// ParseMatchCategory accepts the three textual labels.
func ParseMatchCategory(s string) (MatchCategory, error) {
	switch MatchCategory(s) {
	case MatchNormal, MatchEnd, MatchFullLength:
		return MatchCategory(s), nil
	default:
		return "", fmt.Errorf("unknown match category %q", s)
	}
}

// AnnotatedCandidate is a deduplicated pair with its contig-level label attached.
type AnnotatedCandidate struct {
	CandidatePair
	Category MatchCategory `json:"category"`
}

// EndMatch is the yes/no column of the final table.
func (a *AnnotatedCandidate) EndMatch() bool {
	return a.Category == MatchEnd
}

// FullLengthMatch is the yes/no column of the final table.
func (a *AnnotatedCandidate) FullLengthMatch() bool {
	return a.Category == MatchFullLength
}
