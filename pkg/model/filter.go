package model

// FilterReason says why a hit was dropped.
type FilterReason int

const (
	Kept FilterReason = iota
	FilteredOut
	SelfGenome
	ShortAlignment
	LowCoverage
)

func (r FilterReason) String() string {
	switch r {
	case Kept:
		return "kept"
	case FilteredOut:
		return "genome_not_grouped"
	case SelfGenome:
		return "self_genome"
	case ShortAlignment:
		return "short_alignment"
	case LowCoverage:
		return "low_coverage"
	default:
		return "unknown"
	}
}

// HitFilter keeps hits between two different grouped genomes that are long
// enough and cover enough of both sequences.
type HitFilter struct {
	Genomes        *Grouping
	CoverageCutoff int // percent
	AlignLenCutoff int // bp
}

// FilterStats counts hits per outcome.
type FilterStats map[FilterReason]int

// Check classifies a single hit.
func (f *HitFilter) Check(h *AlignmentHit) FilterReason {
	queryGenome := GenomeOfGene(h.QueryID)
	subjectGenome := GenomeOfGene(h.SubjectID)

	if !f.Genomes.Contains(queryGenome) || !f.Genomes.Contains(subjectGenome) {
		return FilteredOut
	}
	if queryGenome == subjectGenome {
		return SelfGenome
	}
	if h.AlignLen < f.AlignLenCutoff {
		return ShortAlignment
	}
	cutoff := float64(f.CoverageCutoff)
	if h.QueryCoveragePercent() < cutoff || h.SubjectCoveragePercent() < cutoff {
		return LowCoverage
	}
	return Kept
}

// Keep reports whether the hit passes.
func (f *HitFilter) Keep(h *AlignmentHit) bool {
	return f.Check(h) == Kept
}

// Filter returns the passing hits in input order, unchanged.
func (f *HitFilter) Filter(hits []*AlignmentHit) ([]*AlignmentHit, FilterStats) {
	stats := make(FilterStats)
	kept := make([]*AlignmentHit, 0, len(hits))
	for _, h := range hits {
		reason := f.Check(h)
		stats[reason]++
		if reason == Kept {
			kept = append(kept, h)
		}
	}
	return kept, stats
}
