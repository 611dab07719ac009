package model

const (
	FullLengthCoverage        = 0.95
	DefaultEndMatchIdentity   = 95.0
	DefaultEndMatchDistance   = 20
	DefaultAlignLenCutoff     = 200
	DefaultCoverageCutoff     = 70
	DefaultIdentityPercentile = 90
	DefaultFlankingLengthKbp  = 10
)

// ContigMatcher labels the best alignment between the two contigs carrying a
// candidate's genes.
type ContigMatcher struct {
	AlignLenCutoff int
	IdentityCutoff float64
	EndDistance    int
}

func NewContigMatcher(alignLenCutoff int, identityCutoff float64, endDistance int) *ContigMatcher {
	return &ContigMatcher{
		AlignLenCutoff: alignLenCutoff,
		IdentityCutoff: identityCutoff,
		EndDistance:    endDistance,
	}
}

// Classify returns full_length_match when either contig is covered to 95%,
// end_match when a long high-identity alignment runs off the ends of both
// contigs, and normal otherwise. A nil hit is normal.
func (m *ContigMatcher) Classify(best *AlignmentHit) MatchCategory {
	if best == nil {
		return MatchNormal
	}

	if best.QueryCoverage() >= FullLengthCoverage || best.SubjectCoverage() >= FullLengthCoverage {
		return MatchFullLength
	}

	if best.AlignLen <= m.AlignLenCutoff || best.Identity <= m.IdentityCutoff {
		return MatchNormal
	}

	d := m.EndDistance
	queryTail := best.QueryLen - best.QueryEnd
	subjectTail := best.SubjectLen - best.SubjectEnd

	if best.SameDirection() {
		// query runs into its end, subject starts at its beginning, or vice versa
		if queryTail <= d && best.SubjectStart <= d {
			return MatchEnd
		}
		if best.QueryStart <= d && subjectTail <= d {
			return MatchEnd
		}
		return MatchNormal
	}

	// reverse-strand subject: coordinates run high to low
	if queryTail <= d && best.SubjectLen-best.SubjectStart <= d {
		return MatchEnd
	}
	if best.QueryStart <= d && best.SubjectEnd <= d {
		return MatchEnd
	}
	return MatchNormal
}

// ClassifyHits picks the best-scoring hit and classifies it.
func (m *ContigMatcher) ClassifyHits(hits []*AlignmentHit) (MatchCategory, *AlignmentHit) {
	best, ok := BestHit(hits)
	if !ok {
		return MatchNormal, nil
	}
	return m.Classify(best), best
}
