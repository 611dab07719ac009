package model

import (
	"testing"
)

func TestContigMatcherClassify(t *testing.T) {
	m := NewContigMatcher(200, 95, 20)

	tests := []struct {
		name string
		hit  *AlignmentHit
		want MatchCategory
	}{
		{
			name: "NoHit",
			hit:  nil,
			want: MatchNormal,
		},
		{
			// query coverage 0.96 with low identity
			name: "FullLengthQuery",
			hit: &AlignmentHit{Identity: 60, AlignLen: 960, QueryStart: 1, QueryEnd: 960, SubjectStart: 5001, SubjectEnd: 5960,
				QueryLen: 1000, SubjectLen: 20000, BitScore: 500},
			want: MatchFullLength,
		},
		{
			name: "FullLengthSubject",
			hit: &AlignmentHit{Identity: 99, AlignLen: 950, QueryStart: 3001, QueryEnd: 3950, SubjectStart: 1, SubjectEnd: 950,
				QueryLen: 20000, SubjectLen: 1000, BitScore: 500},
			want: MatchFullLength,
		},
		{
			name: "EndMatchQueryTailSubjectHead",
			hit: &AlignmentHit{Identity: 97, AlignLen: 250, QueryStart: 748, QueryEnd: 997, SubjectStart: 5, SubjectEnd: 254,
				QueryLen: 1000, SubjectLen: 5000},
			want: MatchEnd,
		},
		{
			name: "EndMatchQueryHeadSubjectTail",
			hit: &AlignmentHit{Identity: 97, AlignLen: 250, QueryStart: 10, QueryEnd: 259, SubjectStart: 4741, SubjectEnd: 4990,
				QueryLen: 1000, SubjectLen: 5000},
			want: MatchEnd,
		},
		{
			name: "EndMatchOppositeTails",
			hit: &AlignmentHit{Identity: 97, AlignLen: 250, QueryStart: 751, QueryEnd: 1000, SubjectStart: 4990, SubjectEnd: 4741,
				QueryLen: 1000, SubjectLen: 5000},
			want: MatchEnd,
		},
		{
			name: "EndMatchOppositeHeads",
			hit: &AlignmentHit{Identity: 97, AlignLen: 250, QueryStart: 1, QueryEnd: 250, SubjectStart: 260, SubjectEnd: 11,
				QueryLen: 1000, SubjectLen: 5000},
			want: MatchEnd,
		},
		{
			name: "InteriorAlignment",
			hit: &AlignmentHit{Identity: 99, AlignLen: 250, QueryStart: 400, QueryEnd: 649, SubjectStart: 1000, SubjectEnd: 1249,
				QueryLen: 1000, SubjectLen: 5000},
			want: MatchNormal,
		},
		{
			name: "EndsButIdentityAtCutoff",
			hit: &AlignmentHit{Identity: 95, AlignLen: 250, QueryStart: 748, QueryEnd: 997, SubjectStart: 5, SubjectEnd: 254,
				QueryLen: 1000, SubjectLen: 5000},
			want: MatchNormal,
		},
		{
			name: "EndsButAlignmentAtCutoff",
			hit: &AlignmentHit{Identity: 99, AlignLen: 200, QueryStart: 798, QueryEnd: 997, SubjectStart: 5, SubjectEnd: 204,
				QueryLen: 1000, SubjectLen: 5000},
			want: MatchNormal,
		},
		{
			name: "SameDirectionWrongEnds",
			hit: &AlignmentHit{Identity: 99, AlignLen: 250, QueryStart: 1, QueryEnd: 250, SubjectStart: 5, SubjectEnd: 254,
				QueryLen: 1000, SubjectLen: 5000},
			want: MatchNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Classify(tt.hit); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContigMatcherClassifyHitsUsesBestScore(t *testing.T) {
	m := NewContigMatcher(200, 95, 20)
	interior := &AlignmentHit{Identity: 99, AlignLen: 250, QueryStart: 400, QueryEnd: 649, SubjectStart: 1000, SubjectEnd: 1249,
		QueryLen: 1000, SubjectLen: 5000, BitScore: 450}
	full := &AlignmentHit{Identity: 99, AlignLen: 990, QueryStart: 1, QueryEnd: 990, SubjectStart: 1, SubjectEnd: 990,
		QueryLen: 1000, SubjectLen: 5000, BitScore: 1800}
	tied := &AlignmentHit{Identity: 99, AlignLen: 250, QueryStart: 400, QueryEnd: 649, SubjectStart: 1000, SubjectEnd: 1249,
		QueryLen: 1000, SubjectLen: 5000, BitScore: 1800}

	got, best := m.ClassifyHits([]*AlignmentHit{interior, full, tied})
	if got != MatchFullLength || best != full {
		t.Errorf("ClassifyHits() = %v, %v; want full_length_match on the first top-scoring hit", got, best)
	}

	got, best = m.ClassifyHits(nil)
	if got != MatchNormal || best != nil {
		t.Errorf("ClassifyHits(nil) = %v, %v", got, best)
	}
}
